package server

import (
	"net/http"

	"github.com/Varda003/EmoTune/internal/auth"
	"github.com/Varda003/EmoTune/internal/ledger"
	"github.com/charmbracelet/log"
)

// userHandler serves the profile, preferences, statistics and account deletion under /api/user.
type userHandler struct {
	accounts    *auth.AccountService
	ledger      *ledger.Ledger
	requireAuth Middleware
	logger      *log.Logger
}

func (h *userHandler) Routes() []Route {
	bearer := []Middleware{h.requireAuth}

	return []Route{
		{Method: http.MethodGet, Path: "/api/user/profile", Handler: h.profile, Middleware: bearer},
		{Method: http.MethodPut, Path: "/api/user/profile", Handler: h.updateProfile, Middleware: bearer},
		{Method: http.MethodGet, Path: "/api/user/preferences", Handler: h.preferences, Middleware: bearer},
		{Method: http.MethodPut, Path: "/api/user/preferences", Handler: h.setPreferences, Middleware: bearer},
		{Method: http.MethodGet, Path: "/api/user/statistics", Handler: h.statistics, Middleware: bearer},
		{Method: http.MethodDelete, Path: "/api/user/account", Handler: h.deleteAccount, Middleware: bearer},
	}
}

func (h *userHandler) profile(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.accounts.Profile(r.Context(), uid)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"user": user})
}

func (h *userHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var body struct {
		Name            *string   `json:"name"`
		PreferredGenres *[]string `json:"preferred_genres"`
		ProfilePicture  *string   `json:"profile_picture"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.accounts.UpdateProfile(r.Context(), uid, auth.ProfileUpdate{
		Name:            body.Name,
		PreferredGenres: body.PreferredGenres,
		ProfilePicture:  body.ProfilePicture,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Profile updated", "user": user})
}

func (h *userHandler) preferences(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	genres, err := h.accounts.Preferences(r.Context(), uid)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"preferred_genres": genres})
}

func (h *userHandler) setPreferences(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var body struct {
		PreferredGenres []string `json:"preferred_genres"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	genres, err := h.accounts.SetPreferences(r.Context(), uid, body.PreferredGenres)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Preferences updated", "preferred_genres": genres})
}

func (h *userHandler) statistics(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	stats, err := h.ledger.Statistics(r.Context(), uid)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"statistics": stats})
}

func (h *userHandler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var body struct {
		Confirm bool `json:"confirm"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.accounts.DeleteAccount(r.Context(), uid, body.Confirm); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Account deleted"})
}
