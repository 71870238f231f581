package models

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/Varda003/EmoTune/internal/shared"
)

func TestEmotion(t *testing.T) {
	t.Run("ParseEmotion", func(t *testing.T) {
		tc := []struct {
			label string
			want  Emotion
			ok    bool
		}{
			{"happy", Happy, true},
			{"  SAD ", Sad, true},
			{"fear", Fearful, true},
			{"disgust", Disgusted, true},
			{"surprise", Surprised, true},
			{"Fearful", Fearful, true},
			{"bored", "", false},
			{"", "", false},
		}

		for _, tt := range tc {
			t.Run(tt.label, func(t *testing.T) {
				got, ok := ParseEmotion(tt.label)
				if got != tt.want || ok != tt.ok {
					t.Errorf("ParseEmotion(%q) = (%q, %v), want (%q, %v)", tt.label, got, ok, tt.want, tt.ok)
				}
			})
		}
	})

	t.Run("NormalizeEmotion Falls Back To Neutral", func(t *testing.T) {
		if got := NormalizeEmotion("melancholic"); got != Neutral {
			t.Errorf("expected neutral, got %s", got)
		}
		if got := NormalizeEmotion("Angry"); got != Angry {
			t.Errorf("expected angry, got %s", got)
		}
	})

	t.Run("EmotionTag Keeps Unknown Labels", func(t *testing.T) {
		if got := EmotionTag(" Nostalgic "); got != "nostalgic" {
			t.Errorf("expected nostalgic, got %q", got)
		}
		if got := EmotionTag("fear"); got != "fearful" {
			t.Errorf("expected fearful, got %q", got)
		}
	})

	t.Run("Emoji", func(t *testing.T) {
		for _, e := range Emotions() {
			if e.Emoji() == "" {
				t.Errorf("missing emoji for %s", e)
			}
		}
		if Emotion("unknown").Emoji() != Neutral.Emoji() {
			t.Error("unknown emotion should use the neutral emoji")
		}
	})
}

func TestGenres(t *testing.T) {
	t.Run("SplitGenres", func(t *testing.T) {
		got := SplitGenres(" pop, rock ,,Pop,jazz ")
		want := []string{"pop", "rock", "jazz"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("SplitGenres() = %v, want %v", got, want)
		}

		if got := SplitGenres(""); len(got) != 0 {
			t.Errorf("expected empty slice, got %v", got)
		}
	})

	t.Run("JoinGenres", func(t *testing.T) {
		if got := JoinGenres([]string{"pop", " indie ", "", "POP"}); got != "pop,indie" {
			t.Errorf("JoinGenres() = %q, want %q", got, "pop,indie")
		}
	})
}

func TestValidate(t *testing.T) {
	now := time.Now()

	t.Run("User", func(t *testing.T) {
		u := NewUser("  Ada ", "ada@example.com", "hash", []string{"pop"})
		if u.Name != "Ada" {
			t.Errorf("expected trimmed name, got %q", u.Name)
		}
		if err := u.Validate(); err != nil {
			t.Errorf("expected valid user, got %v", err)
		}

		u.Name = ""
		if err := u.Validate(); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("LikedSong", func(t *testing.T) {
		s := &LikedSong{UserID: "u", SongTitle: "Song", Artist: " "}
		if err := s.Validate(); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for blank artist, got %v", err)
		}
	})

	t.Run("ResetCode", func(t *testing.T) {
		c := &ResetCode{UserID: "u", Code: "123456", CreatedAt: now, ExpiresAt: now.Add(time.Minute)}
		if err := c.Validate(); err != nil {
			t.Errorf("expected valid code, got %v", err)
		}
		if !c.Pending(now) {
			t.Error("fresh code should be pending")
		}
		if c.Pending(now.Add(time.Minute)) {
			t.Error("code should not be pending at its expiry instant")
		}

		c.Superseded = true
		if c.Pending(now) {
			t.Error("superseded code should not be pending")
		}
	})

	t.Run("SessionToken", func(t *testing.T) {
		s := &SessionToken{JTI: "j", UserID: "u", IssuedAt: now, ExpiresAt: now.Add(time.Hour)}
		if err := s.Validate(); err != nil {
			t.Errorf("expected valid token, got %v", err)
		}
		if !s.Active(now) {
			t.Error("expected active token")
		}
		s.Revoked = true
		if s.Active(now) {
			t.Error("revoked token should not be active")
		}
	})

	t.Run("Track", func(t *testing.T) {
		if (Track{Title: "x"}).Valid() {
			t.Error("track without artist should be invalid")
		}
		if !(Track{Title: "x", Artist: "y"}).Valid() {
			t.Error("track with title and artist should be valid")
		}
	})
}
