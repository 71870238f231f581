// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Varda003/EmoTune/internal/models"
	"github.com/Varda003/EmoTune/internal/services"
	"github.com/Varda003/EmoTune/internal/shared"
)

// MockCatalog is a test double for [services.MusicCatalog].
//
// Recommendations returns Tracks (or Err) after Delay and counts calls. The last query is kept.
type MockCatalog struct {
	Tracks []models.Track
	Genres []string
	Err    error
	Delay  time.Duration

	calls     atomic.Int64
	mu        sync.Mutex
	lastQuery services.RecommendationQuery
}

func (m *MockCatalog) Recommendations(ctx context.Context, q services.RecommendationQuery) ([]models.Track, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.lastQuery = q
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]models.Track(nil), m.Tracks...), nil
}

func (m *MockCatalog) Search(ctx context.Context, query, market string, limit int) ([]models.Track, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if limit > 0 && limit < len(m.Tracks) {
		return append([]models.Track(nil), m.Tracks[:limit]...), nil
	}
	return append([]models.Track(nil), m.Tracks...), nil
}

func (m *MockCatalog) Track(ctx context.Context, trackID string) (*models.Track, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for _, t := range m.Tracks {
		if t.ID == trackID {
			return &t, nil
		}
	}
	return nil, shared.ErrTrackNotFound
}

func (m *MockCatalog) GenreSeeds(ctx context.Context) ([]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Genres, nil
}

func (m *MockCatalog) Name() string { return "mock" }

// Calls returns how many times Recommendations ran.
func (m *MockCatalog) Calls() int { return int(m.calls.Load()) }

// LastQuery returns the query of the most recent Recommendations call.
func (m *MockCatalog) LastQuery() services.RecommendationQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastQuery
}

// MockClassifier returns the emotion mapped to the file name, Default otherwise.
type MockClassifier struct {
	ByFile  map[string]string
	Default string
	Err     error
}

func (m *MockClassifier) Classify(ctx context.Context, filename string, image []byte) (*services.EmotionPrediction, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	emotion, ok := m.ByFile[filename]
	if !ok {
		emotion = m.Default
	}
	return &services.EmotionPrediction{Emotion: emotion, Confidence: 0.9}, nil
}

// Tracks builds n distinct catalog tracks.
func Tracks(n int) []models.Track {
	tracks := make([]models.Track, n)
	for i := range tracks {
		id := string(rune('a' + i%26))
		tracks[i] = models.Track{
			ID:         "track-" + id,
			Title:      "Song " + id,
			Artist:     "Artist " + id,
			Album:      "Album " + id,
			PreviewURL: "https://p.scdn.co/mp3-preview/" + id,
		}
	}
	return tracks
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
