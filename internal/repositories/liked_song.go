package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Varda003/EmoTune/internal/models"
	"github.com/Varda003/EmoTune/internal/shared"
)

// LikedSongRepository persists [models.LikedSong] rows.
//
// Deduplication is enforced by two partial unique indexes: (user_id, spotify_track_id) when a
// catalog id is present, otherwise (user_id, song_title, artist).
type LikedSongRepository struct {
	db shared.DBTX
}

// NewLikedSongRepository creates a new [LikedSongRepository] with the given database connection
func NewLikedSongRepository(db shared.DBTX) *LikedSongRepository {
	return &LikedSongRepository{db: db}
}

const likedSongColumns = `id, user_id, song_title, artist, spotify_track_id, spotify_preview_url, album_art_url, genre, emotion_detected, liked_at`

// InsertIfAbsent inserts song unless an equivalent row exists. It reports whether a row was written.
//
// INSERT OR IGNORE makes the existence check and the insert a single statement.
func (r *LikedSongRepository) InsertIfAbsent(ctx context.Context, song *models.LikedSong) (bool, error) {
	if song.ID == "" {
		song.ID = shared.GenerateID()
	}

	if err := song.Validate(); err != nil {
		return false, fmt.Errorf("validation failed: %w", err)
	}

	query := `INSERT OR IGNORE INTO liked_songs (` + likedSongColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		song.ID, song.UserID, strings.TrimSpace(song.SongTitle), strings.TrimSpace(song.Artist),
		nullString(song.SpotifyTrackID), nullString(song.SpotifyPreviewURL), nullString(song.AlbumArtURL),
		nullString(song.Genre), nullString(song.EmotionDetected), song.LikedAt.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert liked song: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows == 1, nil
}

// FindByKey returns the user's row matching the deduplication key of song.
func (r *LikedSongRepository) FindByKey(ctx context.Context, userID string, song *models.LikedSong) (*models.LikedSong, error) {
	var row *sql.Row
	if trackID := strings.TrimSpace(song.SpotifyTrackID); trackID != "" {
		row = r.db.QueryRowContext(ctx,
			`SELECT `+likedSongColumns+` FROM liked_songs WHERE user_id = ? AND spotify_track_id = ?`,
			userID, trackID,
		)
	} else {
		row = r.db.QueryRowContext(ctx,
			`SELECT `+likedSongColumns+` FROM liked_songs
			 WHERE user_id = ? AND spotify_track_id IS NULL AND song_title = ? AND artist = ?`,
			userID, strings.TrimSpace(song.SongTitle), strings.TrimSpace(song.Artist),
		)
	}
	return scanOneLikedSong(row)
}

// Get retrieves a liked song owned by userID.
func (r *LikedSongRepository) Get(ctx context.Context, userID, id string) (*models.LikedSong, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+likedSongColumns+` FROM liked_songs WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	return scanOneLikedSong(row)
}

// Delete removes the row iff it belongs to userID. Unknown and foreign rows fail with [shared.ErrSongNotFound].
func (r *LikedSongRepository) Delete(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM liked_songs WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete liked song: %w", err)
	}
	return expectOne(result, shared.ErrSongNotFound, id)
}

// ListCriteria narrows [LikedSongRepository.List].
type ListCriteria struct {
	Emotion string // exact, already canonicalised emotion tag; empty means all
	Limit   int    // zero or less means no limit
}

// List returns the user's liked songs newest first. Rows liked in the same instant keep insertion order reversed.
func (r *LikedSongRepository) List(ctx context.Context, userID string, criteria ListCriteria) ([]*models.LikedSong, error) {
	query := `SELECT ` + likedSongColumns + ` FROM liked_songs WHERE user_id = ?`
	args := []any{userID}

	if criteria.Emotion != "" {
		query += " AND LOWER(emotion_detected) = ?"
		args = append(args, strings.ToLower(criteria.Emotion))
	}

	query += " ORDER BY liked_at DESC, rowid DESC"

	if criteria.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, criteria.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query liked songs: %w", err)
	}
	defer rows.Close()

	songs := []*models.LikedSong{}
	for rows.Next() {
		song, err := scanLikedSong(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan liked song: %w", err)
		}
		songs = append(songs, song)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return songs, nil
}

// EmotionCount is one bucket of [LikedSongRepository.CountByEmotion].
type EmotionCount struct {
	Emotion string
	Count   int
}

// CountByEmotion groups the user's liked songs by emotion tag, largest bucket first.
// Songs without a tag are reported under the empty string.
func (r *LikedSongRepository) CountByEmotion(ctx context.Context, userID string) ([]EmotionCount, error) {
	query := `
		SELECT COALESCE(emotion_detected, ''), COUNT(*)
		FROM liked_songs
		WHERE user_id = ?
		GROUP BY COALESCE(emotion_detected, '')
		ORDER BY COUNT(*) DESC, COALESCE(emotion_detected, '') ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count liked songs: %w", err)
	}
	defer rows.Close()

	var counts []EmotionCount
	for rows.Next() {
		var c EmotionCount
		if err := rows.Scan(&c.Emotion, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan emotion count: %w", err)
		}
		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return counts, nil
}

func scanOneLikedSong(row *sql.Row) (*models.LikedSong, error) {
	song, err := scanLikedSong(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrSongNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query liked song: %w", err)
	}
	return song, nil
}

func scanLikedSong(row rowScanner) (*models.LikedSong, error) {
	var (
		song                                          models.LikedSong
		trackID, previewURL, albumArt, genre, emotion sql.NullString
	)

	err := row.Scan(&song.ID, &song.UserID, &song.SongTitle, &song.Artist,
		&trackID, &previewURL, &albumArt, &genre, &emotion, &song.LikedAt)
	if err != nil {
		return nil, err
	}

	song.SpotifyTrackID = trackID.String
	song.SpotifyPreviewURL = previewURL.String
	song.AlbumArtURL = albumArt.String
	song.Genre = genre.String
	song.EmotionDetected = emotion.String
	return &song, nil
}
