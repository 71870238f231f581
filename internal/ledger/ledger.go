// Package ledger records the songs each user liked.
//
// A song is identified by its catalog track id when one is known, otherwise by (title, artist). Liking the
// same song twice returns the stored row instead of adding another; two partial unique indexes make this hold
// under concurrent requests.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Varda003/EmoTune/internal/formatter"
	"github.com/Varda003/EmoTune/internal/models"
	"github.com/Varda003/EmoTune/internal/repositories"
	"github.com/Varda003/EmoTune/internal/shared"
	"github.com/charmbracelet/log"
)

// LikeInput carries the fields of a like request.
type LikeInput struct {
	SongTitle         string `json:"song_title"`
	Artist            string `json:"artist"`
	AlbumArtURL       string `json:"album_art_url"`
	SpotifyTrackID    string `json:"spotify_track_id"`
	SpotifyPreviewURL string `json:"spotify_preview_url"`
	Genre             string `json:"genre"`
	EmotionDetected   string `json:"emotion_detected"`
}

// ListOptions filters [Ledger.List].
type ListOptions struct {
	Limit   int    // zero or less means all
	Emotion string // case-insensitive; empty means all
}

// Statistics summarises a user's listening history.
type Statistics struct {
	TotalLikedSongs  int            `json:"total_liked_songs"`
	EmotionsExplored int            `json:"emotions_explored"`
	LastActivity     *time.Time     `json:"last_activity"`
	EmotionBreakdown map[string]int `json:"emotion_breakdown"`
	MostLikedEmotion string         `json:"most_liked_emotion,omitempty"`
	AccountAgeDays   int            `json:"account_age_days"`
}

// Ledger is the liked-song store of every user.
type Ledger struct {
	songs  *repositories.LikedSongRepository
	users  *repositories.UserRepository
	logger *log.Logger
	now    func() time.Time
}

// New creates a [Ledger] over db.
func New(db *sql.DB, logger *log.Logger) *Ledger {
	return &Ledger{
		songs:  repositories.NewLikedSongRepository(db),
		users:  repositories.NewUserRepository(db),
		logger: shared.WithLogger(logger, "component", "ledger"),
		now:    time.Now,
	}
}

// Like stores the song for userID. created is false when the user had already liked it; the existing row is
// returned unchanged in that case.
func (l *Ledger) Like(ctx context.Context, userID string, in LikeInput) (song *models.LikedSong, created bool, err error) {
	song = &models.LikedSong{
		UserID:            userID,
		SongTitle:         strings.TrimSpace(in.SongTitle),
		Artist:            strings.TrimSpace(in.Artist),
		AlbumArtURL:       strings.TrimSpace(in.AlbumArtURL),
		SpotifyTrackID:    strings.TrimSpace(in.SpotifyTrackID),
		SpotifyPreviewURL: strings.TrimSpace(in.SpotifyPreviewURL),
		Genre:             strings.TrimSpace(in.Genre),
		EmotionDetected:   models.EmotionTag(in.EmotionDetected),
		LikedAt:           l.now().UTC(),
	}
	if err := song.Validate(); err != nil {
		return nil, false, err
	}

	created, err = l.songs.InsertIfAbsent(ctx, song)
	if err != nil {
		return nil, false, err
	}
	if created {
		l.logger.Debug("song liked", "user_id", userID, "song_id", song.ID)
		return song, true, nil
	}

	existing, err := l.songs.FindByKey(ctx, userID, song)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load existing like: %w", err)
	}
	return existing, false, nil
}

// Unlike removes the user's liked song. Songs of other users are reported as not found.
func (l *Ledger) Unlike(ctx context.Context, userID, songID string) error {
	if strings.TrimSpace(songID) == "" {
		return fmt.Errorf("%w: song id is required", shared.ErrMissingArgument)
	}
	return l.songs.Delete(ctx, userID, songID)
}

// List returns the user's liked songs, newest first.
func (l *Ledger) List(ctx context.Context, userID string, opts ListOptions) ([]*models.LikedSong, error) {
	emotion := ""
	if strings.TrimSpace(opts.Emotion) != "" {
		emotion = models.EmotionTag(opts.Emotion)
	}
	return l.songs.List(ctx, userID, repositories.ListCriteria{Emotion: emotion, Limit: opts.Limit})
}

// Statistics computes the listening summary of userID.
func (l *Ledger) Statistics(ctx context.Context, userID string) (*Statistics, error) {
	user, err := l.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	counts, err := l.songs.CountByEmotion(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{EmotionBreakdown: map[string]int{}}
	for _, c := range counts {
		stats.TotalLikedSongs += c.Count
		if c.Emotion == "" {
			continue
		}
		stats.EmotionBreakdown[c.Emotion] = c.Count
		if stats.MostLikedEmotion == "" {
			stats.MostLikedEmotion = c.Emotion
		}
	}
	stats.EmotionsExplored = len(stats.EmotionBreakdown)

	latest, err := l.songs.List(ctx, userID, repositories.ListCriteria{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(latest) == 1 {
		at := latest[0].LikedAt
		stats.LastActivity = &at
	}

	age := l.now().Sub(user.CreatedAt).Hours() / 24
	stats.AccountAgeDays = int(math.Max(0, math.Floor(age)))
	return stats, nil
}

// Export renders the user's liked songs in format f.
func (l *Ledger) Export(ctx context.Context, userID string, f formatter.Format) ([]byte, error) {
	user, err := l.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	songs, err := l.songs.List(ctx, userID, repositories.ListCriteria{})
	if err != nil {
		return nil, err
	}
	return formatter.Export(f, fmt.Sprintf("%s's liked songs", user.Name), songs)
}
