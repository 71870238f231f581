package shared

import (
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
	ErrInvalidEmail    = fmt.Errorf("invalid email address")
	ErrWeakPassword    = fmt.Errorf("password does not meet requirements")

	// Authentication errors
	ErrInvalidCredentials = fmt.Errorf("invalid email or password")
	ErrNotAuthenticated   = fmt.Errorf("not authenticated")
	ErrInvalidToken       = fmt.Errorf("invalid token")
	ErrExpiredToken       = fmt.Errorf("token has expired")
	ErrRevokedToken       = fmt.Errorf("token has been revoked")

	// Password reset errors
	ErrInvalidCode     = fmt.Errorf("invalid reset code")
	ErrExpiredCode     = fmt.Errorf("reset code has expired")
	ErrCodeAlreadyUsed = fmt.Errorf("reset code has already been used")

	// Conflict errors
	ErrEmailTaken = fmt.Errorf("email is already registered")

	// Lookup errors
	ErrNotFound      = fmt.Errorf("not found")
	ErrUserNotFound  = fmt.Errorf("user not found")
	ErrSongNotFound  = fmt.Errorf("liked song not found")
	ErrTrackNotFound = fmt.Errorf("track not found")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrTimeout            = fmt.Errorf("operation timed out")
)

// ErrorKind groups errors by how a caller is expected to react to them.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindAuth
	KindReset
	KindConflict
	KindNotFound
	KindExternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindAuth:
		return "auth_error"
	case KindReset:
		return "reset_error"
	case KindConflict:
		return "conflict_error"
	case KindNotFound:
		return "not_found"
	case KindExternal:
		return "external_service_error"
	default:
		return "internal_error"
	}
}

var kinds = []struct {
	err  error
	kind ErrorKind
	code string
}{
	{ErrInvalidInput, KindValidation, "invalid_input"},
	{ErrMissingArgument, KindValidation, "missing_argument"},
	{ErrInvalidArgument, KindValidation, "invalid_argument"},
	{ErrInvalidFlag, KindValidation, "invalid_flag"},
	{ErrInvalidEmail, KindValidation, "invalid_email"},
	{ErrWeakPassword, KindValidation, "weak_password"},
	{ErrInvalidCredentials, KindAuth, "invalid_credentials"},
	{ErrNotAuthenticated, KindAuth, "not_authenticated"},
	{ErrInvalidToken, KindAuth, "invalid_token"},
	{ErrExpiredToken, KindAuth, "expired_token"},
	{ErrRevokedToken, KindAuth, "revoked_token"},
	{ErrInvalidCode, KindReset, "invalid_code"},
	{ErrExpiredCode, KindReset, "expired_code"},
	{ErrCodeAlreadyUsed, KindReset, "code_already_used"},
	{ErrEmailTaken, KindConflict, "email_taken"},
	{ErrNotFound, KindNotFound, "not_found"},
	{ErrUserNotFound, KindNotFound, "user_not_found"},
	{ErrSongNotFound, KindNotFound, "song_not_found"},
	{ErrTrackNotFound, KindNotFound, "track_not_found"},
	{ErrAPIRequest, KindExternal, "api_request_failed"},
	{ErrServiceUnavailable, KindExternal, "service_unavailable"},
	{ErrTimeout, KindExternal, "timeout"},
}

// KindOf classifies err by the first sentinel it wraps. Unknown errors are [KindInternal].
func KindOf(err error) ErrorKind {
	kind, _ := classify(err)
	return kind
}

// CodeOf names the first sentinel err wraps, such as "revoked_token". Unknown errors are "internal_error".
func CodeOf(err error) string {
	_, code := classify(err)
	return code
}

func classify(err error) (ErrorKind, string) {
	if err != nil {
		for _, k := range kinds {
			if errors.Is(err, k.err) {
				return k.kind, k.code
			}
		}
	}
	return KindInternal, KindInternal.String()
}
