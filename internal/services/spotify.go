// Spotify Web API implementation of [MusicCatalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Varda003/EmoTune/internal/models"
	"github.com/Varda003/EmoTune/internal/shared"
	"github.com/charmbracelet/log"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// spotifyMaxSeeds is the most seed genres the recommendations endpoint accepts.
	spotifyMaxSeeds = 5
	// spotifyMaxLimit is the largest page the search and recommendations endpoints return.
	spotifyMaxLimit = 50
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a simplified Spotify album.
type SpotifyAlbum struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	ReleaseDate string         `json:"release_date"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []SpotifyArtist `json:"artists"`
	Album        SpotifyAlbum    `json:"album"`
	DurationMS   int             `json:"duration_ms"`
	Popularity   int             `json:"popularity"`
	PreviewURL   *string         `json:"preview_url"`
	ExternalURLs externalURLs    `json:"external_urls"`
}

// ToTrack converts the API shape into a [models.Track]. Multiple artists are joined with ", ".
func (t SpotifyTrack) ToTrack() models.Track {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}

	track := models.Track{
		ID:          t.ID,
		Title:       strings.TrimSpace(t.Name),
		Artist:      strings.Join(names, ", "),
		Album:       t.Album.Name,
		ExternalURL: t.ExternalURLs.Spotify,
		DurationMS:  t.DurationMS,
		Popularity:  t.Popularity,
	}
	if len(t.Album.Images) > 0 {
		track.AlbumArt = t.Album.Images[0].URL
	}
	if t.PreviewURL != nil {
		track.PreviewURL = *t.PreviewURL
	}
	return track
}

type spotifyRecommendations struct {
	Tracks []SpotifyTrack `json:"tracks"`
}

type spotifySearch struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
		Total int            `json:"total"`
	} `json:"tracks"`
}

type spotifyGenreSeeds struct {
	Genres []string `json:"genres"`
}

type spotifyError struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// SpotifyService implements [MusicCatalog] against the Spotify Web API.
//
// It authenticates with the client credentials flow; the [clientcredentials.Config] client fetches and
// refreshes the app token on demand. Outgoing calls share a [rate.Limiter].
type SpotifyService struct {
	config     *clientcredentials.Config
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *log.Logger
}

// SpotifyOption customises a [SpotifyService].
type SpotifyOption func(*SpotifyService)

// WithSpotifyBaseURL points API calls at baseURL instead of the public endpoint.
func WithSpotifyBaseURL(baseURL string) SpotifyOption {
	return func(s *SpotifyService) { s.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithSpotifyTokenURL points the client credentials exchange at tokenURL.
func WithSpotifyTokenURL(tokenURL string) SpotifyOption {
	return func(s *SpotifyService) { s.config.TokenURL = tokenURL }
}

// WithSpotifyRateLimit limits outgoing requests to rps per second. Zero or less disables limiting.
func WithSpotifyRateLimit(rps float64) SpotifyOption {
	return func(s *SpotifyService) {
		if rps <= 0 {
			s.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithSpotifyLogger sets the logger.
func WithSpotifyLogger(l *log.Logger) SpotifyOption {
	return func(s *SpotifyService) { s.logger = shared.WithLogger(l, "component", "spotify") }
}

// NewSpotifyService creates a new Spotify service with the given app credentials.
func NewSpotifyService(clientID, clientSecret string, opts ...SpotifyOption) (*SpotifyService, error) {
	if clientID == "" {
		return nil, fmt.Errorf("%w: missing spotify client_id", shared.ErrMissingCredentials)
	}
	if clientSecret == "" {
		return nil, fmt.Errorf("%w: missing spotify client_secret", shared.ErrMissingCredentials)
	}

	s := &SpotifyService{
		config: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     spotifyTokenURL,
		},
		baseURL: spotifyBaseURL,
		limiter: rate.NewLimiter(rate.Limit(10), 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = shared.WithLogger(nil, "component", "spotify")
	}

	s.httpClient = s.config.Client(context.Background())
	return s, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// doRequest performs an authenticated GET against the Spotify API and decodes the JSON body into result.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, query url.Values, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %w", shared.ErrAPIRequest, err)
	}

	apiURL := s.baseURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr spotifyError
		message := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			message = apiErr.Error.Message
		}

		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, message)
		}
		return fmt.Errorf("%w: spotify status %d: %s", shared.ErrAPIRequest, resp.StatusCode, message)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: failed to decode response: %w", shared.ErrAPIRequest, err)
	}
	return nil
}

// Recommendations fetches tracks seeded by up to five genres.
func (s *SpotifyService) Recommendations(ctx context.Context, q RecommendationQuery) ([]models.Track, error) {
	genres := q.Genres
	if len(genres) > spotifyMaxSeeds {
		genres = genres[:spotifyMaxSeeds]
	}
	if len(genres) == 0 {
		return nil, fmt.Errorf("%w: at least one seed genre is required", shared.ErrInvalidArgument)
	}

	query := url.Values{}
	query.Set("seed_genres", strings.Join(genres, ","))
	query.Set("limit", strconv.Itoa(clampLimit(q.Limit, 20)))
	if q.Market != "" {
		query.Set("market", q.Market)
	}

	var response spotifyRecommendations
	if err := s.doRequest(ctx, "/recommendations", query, &response); err != nil {
		return nil, err
	}

	s.logger.Debug("recommendations fetched", "genres", genres, "market", q.Market, "count", len(response.Tracks))
	return convertTracks(response.Tracks), nil
}

// Search finds tracks matching a free text query.
func (s *SpotifyService) Search(ctx context.Context, q, market string, limit int) ([]models.Track, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, fmt.Errorf("%w: search query is required", shared.ErrMissingArgument)
	}

	query := url.Values{}
	query.Set("q", q)
	query.Set("type", "track")
	query.Set("limit", strconv.Itoa(clampLimit(limit, 10)))
	if market != "" {
		query.Set("market", market)
	}

	var response spotifySearch
	if err := s.doRequest(ctx, "/search", query, &response); err != nil {
		return nil, err
	}
	return convertTracks(response.Tracks.Items), nil
}

// Track retrieves a single track by ID.
func (s *SpotifyService) Track(ctx context.Context, trackID string) (*models.Track, error) {
	trackID = strings.TrimSpace(trackID)
	if trackID == "" {
		return nil, fmt.Errorf("%w: track id is required", shared.ErrMissingArgument)
	}

	var track SpotifyTrack
	if err := s.doRequest(ctx, "/tracks/"+url.PathEscape(trackID), nil, &track); err != nil {
		return nil, err
	}

	converted := track.ToTrack()
	if !converted.Valid() {
		return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, trackID)
	}
	return &converted, nil
}

// GenreSeeds lists the genres accepted as recommendation seeds.
func (s *SpotifyService) GenreSeeds(ctx context.Context) ([]string, error) {
	var response spotifyGenreSeeds
	if err := s.doRequest(ctx, "/recommendations/available-genre-seeds", nil, &response); err != nil {
		return nil, err
	}
	return response.Genres, nil
}

// convertTracks drops entries without a title or artist.
func convertTracks(in []SpotifyTrack) []models.Track {
	tracks := make([]models.Track, 0, len(in))
	for _, st := range in {
		if t := st.ToTrack(); t.Valid() {
			tracks = append(tracks, t)
		}
	}
	return tracks
}

// clampLimit maps limit into [1, spotifyMaxLimit], using def for zero or less.
func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return min(limit, spotifyMaxLimit)
}

// IsNotFound reports whether err means the catalog has no such track.
func IsNotFound(err error) bool {
	return errors.Is(err, shared.ErrTrackNotFound)
}
