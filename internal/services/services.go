package services

import (
	"context"

	"github.com/Varda003/EmoTune/internal/models"
)

// MusicCatalog is the external track catalogue recommendations and search are served from.
type MusicCatalog interface {
	// Recommendations returns tracks for the seed genres in q, best match first.
	Recommendations(ctx context.Context, q RecommendationQuery) ([]models.Track, error)

	// Search finds tracks matching a free text query.
	Search(ctx context.Context, query, market string, limit int) ([]models.Track, error)

	// Track retrieves a single track. Unknown ids fail with [shared.ErrTrackNotFound].
	Track(ctx context.Context, trackID string) (*models.Track, error)

	// GenreSeeds lists the genres usable as recommendation seeds.
	GenreSeeds(ctx context.Context) ([]string, error)

	// Name returns the name of the catalog (e.g., "Spotify")
	Name() string
}

// RecommendationQuery describes a recommendations request to a [MusicCatalog].
type RecommendationQuery struct {
	Genres []string
	Market string // ISO 3166-1 alpha-2 country code
	Limit  int
}

// EmotionClassifier turns a face image into an emotion label.
type EmotionClassifier interface {
	Classify(ctx context.Context, filename string, image []byte) (*EmotionPrediction, error)
}

// EmotionPrediction is the classifier's answer for one image.
type EmotionPrediction struct {
	Emotion        string             `json:"emotion"`
	Confidence     float64            `json:"confidence"`
	AllPredictions map[string]float64 `json:"all_predictions,omitempty"`
}

var (
	_ MusicCatalog      = (*SpotifyService)(nil)
	_ EmotionClassifier = (*ClassifierService)(nil)
)
