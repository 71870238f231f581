// package models defines the data model for the EmoTune service
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/Varda003/EmoTune/internal/shared"
)

// Model defines the base interface for all persistent models.
type Model interface {
	Validate() error // Validate checks if the model's data is valid and returns an error if not
}

var (
	_ Model = (*User)(nil)
	_ Model = (*SessionToken)(nil)
	_ Model = (*ResetCode)(nil)
	_ Model = (*LikedSong)(nil)
)

// User is an account in the identity store.
type User struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	PreferredGenres []string  `json:"preferred_genres"`
	ProfilePicture  string    `json:"profile_picture,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewUser creates a user stamped with the current time. The ID is assigned on insert.
func NewUser(name, email, passwordHash string, genres []string) *User {
	now := time.Now().UTC()
	return &User{
		Name:            strings.TrimSpace(name),
		Email:           email,
		PasswordHash:    passwordHash,
		PreferredGenres: NormalizeGenres(genres),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (u *User) Validate() error {
	if u.Name == "" {
		return fmt.Errorf("%w: name is required", shared.ErrInvalidInput)
	}
	if u.Email == "" {
		return fmt.Errorf("%w: email is required", shared.ErrInvalidInput)
	}
	if u.PasswordHash == "" {
		return fmt.Errorf("%w: password hash is required", shared.ErrInvalidInput)
	}
	return nil
}

// SessionToken is the persisted record of an issued bearer token.
type SessionToken struct {
	JTI       string     `json:"jti"`
	UserID    string     `json:"user_id"`
	IssuedAt  time.Time  `json:"issued_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	Revoked   bool       `json:"revoked"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

func (s *SessionToken) Validate() error {
	if s.JTI == "" || s.UserID == "" {
		return fmt.Errorf("%w: session token requires jti and user", shared.ErrInvalidInput)
	}
	if !s.ExpiresAt.After(s.IssuedAt) {
		return fmt.Errorf("%w: session token expires before it is issued", shared.ErrInvalidInput)
	}
	return nil
}

// Active reports whether the token is neither revoked nor expired at now.
func (s *SessionToken) Active(now time.Time) bool {
	return !s.Revoked && now.Before(s.ExpiresAt)
}

// ResetCode is a one-time password reset code.
type ResetCode struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Code       string     `json:"-"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	Used       bool       `json:"used"`
	UsedAt     *time.Time `json:"used_at,omitempty"`
	Superseded bool       `json:"superseded"`
}

func (c *ResetCode) Validate() error {
	if c.UserID == "" || c.Code == "" {
		return fmt.Errorf("%w: reset code requires user and code", shared.ErrInvalidInput)
	}
	if !c.ExpiresAt.After(c.CreatedAt) {
		return fmt.Errorf("%w: reset code expires before it is created", shared.ErrInvalidInput)
	}
	return nil
}

// Expired reports whether the code's window has passed at now.
func (c *ResetCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Pending reports whether the code can still be used at now.
func (c *ResetCode) Pending(now time.Time) bool {
	return !c.Used && !c.Superseded && !c.Expired(now)
}

// LikedSong is a track a user saved, tagged with the emotion it was recommended for.
type LikedSong struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	SongTitle         string    `json:"song_title"`
	Artist            string    `json:"artist"`
	SpotifyTrackID    string    `json:"spotify_track_id,omitempty"`
	SpotifyPreviewURL string    `json:"spotify_preview_url,omitempty"`
	AlbumArtURL       string    `json:"album_art_url,omitempty"`
	Genre             string    `json:"genre,omitempty"`
	EmotionDetected   string    `json:"emotion_detected,omitempty"`
	LikedAt           time.Time `json:"liked_at"`
}

func (s *LikedSong) Validate() error {
	if s.UserID == "" {
		return fmt.Errorf("%w: liked song requires a user", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(s.SongTitle) == "" || strings.TrimSpace(s.Artist) == "" {
		return fmt.Errorf("%w: song title and artist are required", shared.ErrInvalidInput)
	}
	return nil
}

// Track is a recommendation or search result. It is never persisted.
//
// Title and Artist are always set; ID and PreviewURL only when the track came from the catalog.
type Track struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album,omitempty"`
	AlbumArt    string `json:"album_art,omitempty"`
	PreviewURL  string `json:"preview_url,omitempty"`
	ExternalURL string `json:"external_url,omitempty"`
	DurationMS  int    `json:"duration_ms,omitempty"`
	Popularity  int    `json:"popularity,omitempty"`
}

// Valid reports whether the mandatory fields are present.
func (t Track) Valid() bool {
	return strings.TrimSpace(t.Title) != "" && strings.TrimSpace(t.Artist) != ""
}
