package tasks

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/Varda003/EmoTune/internal/models"
	"github.com/Varda003/EmoTune/internal/shared"
	tu "github.com/Varda003/EmoTune/internal/testing"
)

func images(names ...string) []Image {
	imgs := make([]Image, len(names))
	for i, n := range names {
		imgs[i] = Image{Filename: n, Data: []byte("img-" + n)}
	}
	return imgs
}

func TestDetectEngine(t *testing.T) {
	ctx := context.Background()

	t.Run("Detect", func(t *testing.T) {
		t.Run("Classifies Valid Image", func(t *testing.T) {
			engine := NewDetectEngine(&tu.MockClassifier{Default: "happy"})
			prediction, err := engine.Detect(ctx, Image{Filename: "a.png", Data: []byte("x")})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if prediction.Emotion != "happy" {
				t.Errorf("expected happy, got %s", prediction.Emotion)
			}
		})

		t.Run("Rejects Invalid Image", func(t *testing.T) {
			engine := NewDetectEngine(&tu.MockClassifier{Default: "happy"})
			_, err := engine.Detect(ctx, Image{Filename: "a.txt", Data: []byte("x")})
			if !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})

		t.Run("Without Classifier", func(t *testing.T) {
			_, err := NewDetectEngine(nil).Detect(ctx, Image{Filename: "a.png", Data: []byte("x")})
			if !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Errorf("expected ErrServiceUnavailable, got %v", err)
			}
		})
	})

	t.Run("BatchDetect", func(t *testing.T) {
		t.Run("Mixed Results Keep Input Order", func(t *testing.T) {
			classifier := &tu.MockClassifier{
				ByFile:  map[string]string{"sad.jpg": "sad", "fear.png": "fear"},
				Default: "happy",
			}
			engine := NewDetectEngine(classifier)

			result, err := engine.BatchDetect(ctx, nil, images("sad.jpg", "notes.txt", "fear.png", "smile.jpeg"), BatchOpts{RateLimit: 1000})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if result.Total != 4 || result.Successful != 3 || result.Failed != 1 {
				t.Errorf("unexpected counts %+v", result)
			}

			want := []struct {
				filename string
				emotion  models.Emotion
				success  bool
			}{
				{"sad.jpg", models.Sad, true},
				{"notes.txt", "", false},
				{"fear.png", models.Fearful, true},
				{"smile.jpeg", models.Happy, true},
			}
			for i, tt := range want {
				got := result.Results[i]
				if got.Index != i || got.Filename != tt.filename || got.Emotion != tt.emotion || got.Success != tt.success {
					t.Errorf("result %d = %+v, want %+v", i, got, tt)
				}
			}
			if result.Results[2].Emoji != models.Fearful.Emoji() {
				t.Errorf("expected emoji for fearful, got %q", result.Results[2].Emoji)
			}
			if result.Results[1].Error == "" {
				t.Error("expected error message for invalid file")
			}
		})

		t.Run("Classifier Failure Is Per Image", func(t *testing.T) {
			engine := NewDetectEngine(&tu.MockClassifier{Err: errors.New("model offline")})

			result, err := engine.BatchDetect(ctx, nil, images("a.png", "b.png"), BatchOpts{RateLimit: 1000})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result.Failed != 2 {
				t.Errorf("expected 2 failures, got %d", result.Failed)
			}
			if !strings.Contains(result.Results[0].Error, "model offline") {
				t.Errorf("unexpected error %q", result.Results[0].Error)
			}
		})

		t.Run("Batch Size Limits", func(t *testing.T) {
			engine := NewDetectEngine(&tu.MockClassifier{Default: "happy"})

			if _, err := engine.BatchDetect(ctx, nil, nil, BatchOpts{}); !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}

			names := make([]string, MaxBatchSize+1)
			for i := range names {
				names[i] = fmt.Sprintf("%d.png", i)
			}
			if _, err := engine.BatchDetect(ctx, nil, images(names...), BatchOpts{}); !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})

		t.Run("Without Classifier", func(t *testing.T) {
			_, err := NewDetectEngine(nil).BatchDetect(ctx, nil, images("a.png"), BatchOpts{})
			if !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Errorf("expected ErrServiceUnavailable, got %v", err)
			}
		})

		t.Run("Cancelled Context", func(t *testing.T) {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			engine := NewDetectEngine(&tu.MockClassifier{Default: "happy"})
			result, err := engine.BatchDetect(cctx, nil, images("a.png", "b.png", "c.png"), BatchOpts{})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result.Successful != 0 || result.Failed != 3 {
				t.Errorf("expected every image to fail, got %+v", result)
			}
		})

		t.Run("Progress Updates", func(t *testing.T) {
			engine := NewDetectEngine(&tu.MockClassifier{Default: "neutral"})
			prog := make(chan ProgressUpdate, 10)

			_, err := engine.BatchDetect(ctx, prog, images("a.png", "b.txt"), BatchOpts{NumWorkers: 1, RateLimit: 1000})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			close(prog)

			var updates []ProgressUpdate
			for u := range prog {
				updates = append(updates, u)
			}
			if len(updates) != 3 {
				t.Fatalf("expected 3 updates, got %d", len(updates))
			}
			if updates[0].Phase != DetectQueued || updates[0].Total != 2 {
				t.Errorf("unexpected first update %+v", updates[0])
			}

			var ok, failed int
			for _, u := range updates[1:] {
				if u.Phase != DetectImage {
					t.Errorf("unexpected phase %s", u.Phase)
				}
				switch {
				case strings.Contains(u.Message, "✓"):
					ok++
				case strings.Contains(u.Message, "✗"):
					failed++
				}
			}
			if ok != 1 || failed != 1 {
				t.Errorf("expected one success and one failure, got %d/%d", ok, failed)
			}
		})

		t.Run("Full Progress Channel Does Not Block", func(t *testing.T) {
			engine := NewDetectEngine(&tu.MockClassifier{Default: "happy"})
			prog := make(chan ProgressUpdate)

			result, err := engine.BatchDetect(ctx, prog, images("a.png", "b.png"), BatchOpts{RateLimit: 1000})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result.Successful != 2 {
				t.Errorf("expected 2 successes, got %d", result.Successful)
			}
		})
	})
}

func TestPhaseString(t *testing.T) {
	tc := []struct {
		phase Phase
		want  string
	}{
		{DetectQueued, "detect_queued"},
		{DetectImage, "detect_image"},
		{Phase(99), ""},
	}

	for _, tt := range tc {
		if got := tt.phase.String(); got != tt.want {
			t.Errorf("Phase(%d).String() = %q, want %q", tt.phase, got, tt.want)
		}
	}
}

func TestDecodeFrame(t *testing.T) {
	raw := []byte("frame-bytes")
	b64 := base64.StdEncoding.EncodeToString(raw)

	tc := []struct {
		name     string
		frame    string
		filename string
		err      error
	}{
		{name: "JPEG Data URL", frame: "data:image/jpeg;base64," + b64, filename: "frame.jpg"},
		{name: "PNG Data URL", frame: "data:image/PNG;base64," + b64, filename: "frame.png"},
		{name: "Bare Base64", frame: "  " + b64 + "\n", filename: "frame.jpg"},
		{name: "Empty", frame: " ", err: shared.ErrMissingArgument},
		{name: "Not Base64 Data URL", frame: "data:image/png," + b64, err: shared.ErrInvalidInput},
		{name: "Missing Comma", frame: "data:image/png;base64", err: shared.ErrInvalidInput},
		{name: "Unsupported Type", frame: "data:image/gif;base64," + b64, err: shared.ErrInvalidInput},
		{name: "Corrupt Payload", frame: "data:image/png;base64,@@@", err: shared.ErrInvalidInput},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			img, err := DecodeFrame(tt.frame)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("expected %v, got %v", tt.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if img.Filename != tt.filename {
				t.Errorf("expected filename %s, got %s", tt.filename, img.Filename)
			}
			if string(img.Data) != string(raw) {
				t.Errorf("expected decoded bytes %q, got %q", raw, img.Data)
			}
		})
	}

	t.Run("Configured", func(t *testing.T) {
		if NewDetectEngine(nil).Configured() {
			t.Error("expected engine without classifier to be unconfigured")
		}
		if !NewDetectEngine(&tu.MockClassifier{Default: "happy"}).Configured() {
			t.Error("expected engine with classifier to be configured")
		}
	})
}
