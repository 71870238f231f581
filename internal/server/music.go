package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Varda003/EmoTune/internal/formatter"
	"github.com/Varda003/EmoTune/internal/ledger"
	"github.com/Varda003/EmoTune/internal/recommend"
	"github.com/Varda003/EmoTune/internal/services"
	"github.com/Varda003/EmoTune/internal/shared"
	"github.com/charmbracelet/log"
)

const defaultSearchLimit = 10

// musicHandler serves recommendations, the liked-song ledger and catalog lookups under /api/music.
type musicHandler struct {
	ledger      *ledger.Ledger
	recommender *recommend.Orchestrator
	catalog     services.MusicCatalog
	requireAuth Middleware
	logger      *log.Logger
}

func (h *musicHandler) Routes() []Route {
	bearer := []Middleware{h.requireAuth}

	return []Route{
		{Method: http.MethodGet, Path: "/api/music/recommendations/{emotion}", Handler: h.recommendations, Middleware: bearer},
		{Method: http.MethodPost, Path: "/api/music/like", Handler: h.like, Middleware: bearer},
		{Method: http.MethodDelete, Path: "/api/music/unlike/{id}", Handler: h.unlike, Middleware: bearer},
		{Method: http.MethodGet, Path: "/api/music/liked", Handler: h.liked, Middleware: bearer},
		{Method: http.MethodGet, Path: "/api/music/liked/export", Handler: h.export, Middleware: bearer},
		{Method: http.MethodGet, Path: "/api/music/search", Handler: h.search, Middleware: bearer},
		{Method: http.MethodGet, Path: "/api/music/track/{id}", Handler: h.track, Middleware: bearer},
		{Method: http.MethodGet, Path: "/api/music/genres", Handler: h.genres, Middleware: bearer},
	}
}

func recommendationBody(result *recommend.Result) envelope {
	return envelope{
		"emotion":     result.Emotion,
		"emoji":       result.Emotion.Emoji(),
		"language":    result.Language,
		"market":      result.Market,
		"genres_used": result.Genres,
		"tracks":      result.Tracks,
		"source":      result.Source,
		"total":       len(result.Tracks),
	}
}

func (h *musicHandler) recommendations(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", recommend.DefaultLimit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	result := h.recommender.Recommend(r.Context(), r.PathValue("emotion"), r.URL.Query().Get("language"), limit)
	writeJSON(w, http.StatusOK, recommendationBody(result))
}

func (h *musicHandler) like(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var in ledger.LikeInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	song, created, err := h.ledger.Like(r.Context(), uid, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	status, message := http.StatusCreated, "Song liked"
	if !created {
		status, message = http.StatusOK, "Song already liked"
	}
	writeJSON(w, status, envelope{"message": message, "liked_song": song, "created": created})
}

func (h *musicHandler) unlike(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.ledger.Unlike(r.Context(), uid, r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Song removed from liked songs"})
}

func (h *musicHandler) liked(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	songs, err := h.ledger.List(r.Context(), uid, ledger.ListOptions{Limit: limit, Emotion: r.URL.Query().Get("emotion")})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"liked_songs": songs, "total": len(songs)})
}

func (h *musicHandler) export(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	f, err := formatter.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	data, err := h.ledger.Export(r.Context(), uid, f)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", formatter.Filename(f, "")))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *musicHandler) requireCatalog() error {
	if h.catalog == nil {
		return fmt.Errorf("%w: music catalog is not configured", shared.ErrServiceUnavailable)
	}
	return nil
}

func (h *musicHandler) search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, h.logger, fmt.Errorf("%w: search query q is required", shared.ErrMissingArgument))
		return
	}
	limit, err := queryInt(r, "limit", defaultSearchLimit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.requireCatalog(); err != nil {
		writeError(w, h.logger, err)
		return
	}

	market := recommend.MarketFor(r.URL.Query().Get("language"))
	tracks, err := h.catalog.Search(r.Context(), query, market, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"query": query, "market": market, "tracks": tracks, "total": len(tracks)})
}

func (h *musicHandler) track(w http.ResponseWriter, r *http.Request) {
	if err := h.requireCatalog(); err != nil {
		writeError(w, h.logger, err)
		return
	}

	track, err := h.catalog.Track(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"track": track})
}

func (h *musicHandler) genres(w http.ResponseWriter, r *http.Request) {
	catalogGenres := []string{}
	if h.catalog != nil {
		genres, err := h.catalog.GenreSeeds(r.Context())
		if err != nil {
			h.logger.Warn("failed to load catalog genres", "err", err)
		} else {
			catalogGenres = genres
		}
	}

	writeJSON(w, http.StatusOK, envelope{
		"emotion_genres": recommend.GenreMap(),
		"catalog_genres": catalogGenres,
		"languages":      recommend.Languages(),
	})
}
