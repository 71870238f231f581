package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Varda003/EmoTune/internal/models"
	"github.com/Varda003/EmoTune/internal/repositories"
	"github.com/Varda003/EmoTune/internal/shared"
	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is used when [TokenConfig.TTL] is unset.
const DefaultTokenTTL = 24 * time.Hour

// TokenConfig configures signing and lifetime of bearer tokens.
type TokenConfig struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

// Claims are the signed contents of a bearer token. The jti travels in RegisteredClaims.ID.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// IssuedToken is a freshly minted token and the identifiers needed to manage it.
type IssuedToken struct {
	Token     string    `json:"token"`
	JTI       string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenService issues, validates and revokes HS256 bearer tokens.
//
// Revocation state lives in the session_tokens table and is read on every validation,
// so any number of service instances can share one database.
type TokenService struct {
	sessions *repositories.SessionRepository
	config   TokenConfig
	logger   *log.Logger
	now      func() time.Time
}

// NewTokenService creates a [TokenService] backed by db.
func NewTokenService(db *sql.DB, config TokenConfig, logger *log.Logger) (*TokenService, error) {
	if len(config.Secret) == 0 {
		return nil, fmt.Errorf("%w: token secret is required", shared.ErrInvalidConfig)
	}
	if config.TTL <= 0 {
		config.TTL = DefaultTokenTTL
	}

	return &TokenService{
		sessions: repositories.NewSessionRepository(db),
		config:   config,
		logger:   shared.WithLogger(logger, "component", "tokens"),
		now:      time.Now,
	}, nil
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.config.TTL
}

// Issue mints a token for userID with a fresh jti and records it.
func (s *TokenService) Issue(ctx context.Context, userID string) (*IssuedToken, error) {
	return s.issue(ctx, s.sessions, userID)
}

// IssueTx is [TokenService.Issue] inside the caller's transaction.
func (s *TokenService) IssueTx(ctx context.Context, tx *sql.Tx, userID string) (*IssuedToken, error) {
	return s.issue(ctx, s.sessions.WithTx(tx), userID)
}

func (s *TokenService) issue(ctx context.Context, sessions *repositories.SessionRepository, userID string) (*IssuedToken, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", shared.ErrInvalidInput)
	}

	// JWT dates have second precision; the stored row matches what the token carries.
	now := s.now().UTC().Truncate(time.Second)
	expiresAt := now.Add(s.config.TTL)
	jti := shared.GenerateID()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.config.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: userID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.config.Secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	record := &models.SessionToken{JTI: jti, UserID: userID, IssuedAt: now, ExpiresAt: expiresAt}
	if err := sessions.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record token: %w", err)
	}

	s.logger.Debug("token issued", "user_id", userID, "jti", jti)
	return &IssuedToken{Token: signed, JTI: jti, ExpiresAt: expiresAt}, nil
}

// Validate returns the user id carried by a valid, unexpired and unrevoked token.
func (s *TokenService) Validate(ctx context.Context, token string) (string, error) {
	claims, err := s.ValidateClaims(ctx, token)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// ValidateClaims checks the signature, expiry and persisted revocation state of token.
//
// Errors wrap [shared.ErrInvalidToken], [shared.ErrExpiredToken] or [shared.ErrRevokedToken].
func (s *TokenService) ValidateClaims(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: token is empty", shared.ErrInvalidToken)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.config.Secret, nil
	}, opts...)
	if err != nil {
		// Expiry wins over the stored state: an expired token reports ErrExpiredToken even when it was also revoked.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, shared.ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.ID == "" || claims.UserID == "" {
		return nil, shared.ErrInvalidToken
	}

	record, err := s.sessions.Get(ctx, claims.ID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown token", shared.ErrInvalidToken)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load token state: %w", err)
	}

	if record.UserID != claims.UserID {
		return nil, fmt.Errorf("%w: token owner mismatch", shared.ErrInvalidToken)
	}
	if record.Revoked {
		return nil, shared.ErrRevokedToken
	}

	return claims, nil
}

// Revoke marks a single jti revoked. Unknown and already revoked ids are not an error.
func (s *TokenService) Revoke(ctx context.Context, jti string) error {
	return s.revoke(ctx, s.sessions, jti)
}

// RevokeTx is [TokenService.Revoke] inside the caller's transaction.
func (s *TokenService) RevokeTx(ctx context.Context, tx *sql.Tx, jti string) error {
	return s.revoke(ctx, s.sessions.WithTx(tx), jti)
}

func (s *TokenService) revoke(ctx context.Context, sessions *repositories.SessionRepository, jti string) error {
	changed, err := sessions.Revoke(ctx, jti, s.now())
	if err != nil {
		return err
	}
	if changed {
		s.logger.Debug("token revoked", "jti", jti)
	}
	return nil
}

// RevokeAllForUser revokes every outstanding token of the user and returns how many were revoked.
func (s *TokenService) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	return s.revokeAll(ctx, s.sessions, userID)
}

// RevokeAllForUserTx is [TokenService.RevokeAllForUser] inside the caller's transaction.
func (s *TokenService) RevokeAllForUserTx(ctx context.Context, tx *sql.Tx, userID string) (int64, error) {
	return s.revokeAll(ctx, s.sessions.WithTx(tx), userID)
}

func (s *TokenService) revokeAll(ctx context.Context, sessions *repositories.SessionRepository, userID string) (int64, error) {
	n, err := sessions.RevokeAllForUser(ctx, userID, s.now())
	if err != nil {
		return 0, err
	}
	s.logger.Info("sessions revoked", "user_id", userID, "count", n)
	return n, nil
}

// Sessions lists the token records of a user, newest first.
func (s *TokenService) Sessions(ctx context.Context, userID string) ([]*models.SessionToken, error) {
	return s.sessions.ListForUser(ctx, userID)
}
