package server

import (
	"fmt"
	"net/http"

	"github.com/Varda003/EmoTune/internal/auth"
	"github.com/Varda003/EmoTune/internal/shared"
	"github.com/charmbracelet/log"
)

// authHandler serves account creation, sessions and the password reset flow under /api/auth.
type authHandler struct {
	accounts    *auth.AccountService
	resets      *auth.ResetAuthority
	requireAuth Middleware
	limit       Middleware
	logger      *log.Logger
}

func (h *authHandler) Routes() []Route {
	open := []Middleware{h.limit}
	bearer := []Middleware{h.limit, h.requireAuth}

	return []Route{
		{Method: http.MethodPost, Path: "/api/auth/register", Handler: h.register, Middleware: open},
		{Method: http.MethodPost, Path: "/api/auth/login", Handler: h.login, Middleware: open},
		{Method: http.MethodPost, Path: "/api/auth/logout", Handler: h.logout, Middleware: bearer},
		{Method: http.MethodPost, Path: "/api/auth/refresh", Handler: h.refresh, Middleware: bearer},
		{Method: http.MethodPost, Path: "/api/auth/forgot-password", Handler: h.forgotPassword, Middleware: open},
		{Method: http.MethodPost, Path: "/api/auth/verify-reset-code", Handler: h.verifyResetCode, Middleware: open},
		{Method: http.MethodPost, Path: "/api/auth/reset-password", Handler: h.resetPassword, Middleware: open},
		{Method: http.MethodGet, Path: "/api/auth/validate-token", Handler: h.validateToken, Middleware: bearer},
	}
}

func sessionBody(message string, session *auth.Session) envelope {
	return envelope{
		"message":    message,
		"token":      session.Token.Token,
		"expires_at": session.Token.ExpiresAt,
		"user":       session.User,
	}
}

func (h *authHandler) register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name            string   `json:"name"`
		Email           string   `json:"email"`
		Password        string   `json:"password"`
		PreferredGenres []string `json:"preferred_genres"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	session, err := h.accounts.Register(r.Context(), auth.RegisterInput{
		Name:            body.Name,
		Email:           body.Email,
		Password:        body.Password,
		PreferredGenres: body.PreferredGenres,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionBody("User registered successfully", session))
}

func (h *authHandler) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if body.Email == "" || body.Password == "" {
		writeError(w, h.logger, fmt.Errorf("%w: email and password are required", shared.ErrMissingArgument))
		return
	}

	session, err := h.accounts.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionBody("Login successful", session))
}

func (h *authHandler) logout(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	if err := h.accounts.Logout(r.Context(), claims.ID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Logged out"})
}

func (h *authHandler) refresh(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	session, err := h.accounts.Refresh(r.Context(), claims.UserID, claims.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionBody("Token refreshed", session))
}

func (h *authHandler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.resets.RequestReset(r.Context(), body.Email); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"message": "If an account exists for that email, a reset code has been sent",
	})
}

func (h *authHandler) verifyResetCode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.resets.VerifyCode(r.Context(), body.Email, body.Code); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Reset code verified"})
}

func (h *authHandler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email       string `json:"email"`
		Code        string `json:"code"`
		NewPassword string `json:"new_password"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.resets.CompleteReset(r.Context(), body.Email, body.Code, body.NewPassword); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Password has been reset, please log in again"})
}

func (h *authHandler) validateToken(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	user, err := h.accounts.Profile(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"valid":      true,
		"user_id":    user.ID,
		"expires_at": claims.ExpiresAt.Time,
		"user":       user,
	})
}
