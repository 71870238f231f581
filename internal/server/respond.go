package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/Varda003/EmoTune/internal/shared"
	"github.com/charmbracelet/log"
)

const maxJSONBody = 1 << 20

type envelope map[string]any

// writeJSON writes body with status. Bodies without a "success" key are marked successful.
func writeJSON(w http.ResponseWriter, status int, body envelope) {
	if _, ok := body["success"]; !ok {
		body["success"] = true
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind shared.ErrorKind) int {
	switch kind {
	case shared.KindValidation, shared.KindReset:
		return http.StatusBadRequest
	case shared.KindAuth:
		return http.StatusUnauthorized
	case shared.KindConflict:
		return http.StatusConflict
	case shared.KindNotFound:
		return http.StatusNotFound
	case shared.KindExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes the failure envelope for err: the kind in "error", the specific sentinel in "code".
// Internal errors are logged and their detail withheld.
func writeError(w http.ResponseWriter, logger *log.Logger, err error) {
	kind := shared.KindOf(err)
	status := statusFor(kind)
	message := err.Error()

	if kind == shared.KindInternal {
		logger.Error("internal error", "err", err)
		message = "internal server error"
	}

	writeJSON(w, status, envelope{
		"success": false,
		"error":   kind.String(),
		"code":    shared.CodeOf(err),
		"message": message,
	})
}

// decodeJSON reads a single JSON object from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return decodeJSONLimit(w, r, v, maxJSONBody)
}

// decodeJSONLimit is [decodeJSON] for bodies of up to limit bytes.
func decodeJSONLimit(w http.ResponseWriter, r *http.Request, v any, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: request body is required", shared.ErrInvalidInput)
		case errors.As(err, &maxErr):
			return fmt.Errorf("%w: request body exceeds %d bytes", shared.ErrInvalidInput, maxErr.Limit)
		default:
			return fmt.Errorf("%w: malformed JSON: %w", shared.ErrInvalidInput, err)
		}
	}
	return nil
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", shared.ErrInvalidArgument, name)
	}
	return n, nil
}

// formInt parses an optional integer multipart form field.
func formInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.FormValue(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", shared.ErrInvalidArgument, name)
	}
	return n, nil
}

// userID returns the authenticated user of the request. Routes behind [RequireAuth] always have one.
func userID(r *http.Request) (string, error) {
	claims, ok := ClaimsFrom(r.Context())
	if !ok {
		return "", shared.ErrNotAuthenticated
	}
	return claims.UserID, nil
}
