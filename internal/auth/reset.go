package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/Varda003/EmoTune/internal/models"
	"github.com/Varda003/EmoTune/internal/repositories"
	"github.com/Varda003/EmoTune/internal/shared"
	"github.com/charmbracelet/log"
)

const (
	// DefaultResetCodeTTL is the validity window of a reset code.
	DefaultResetCodeTTL = 10 * time.Minute
	// ResetCodeLength is the number of digits in a reset code.
	ResetCodeLength = 6
)

// ResetState is the per-user position in the password reset flow, derived from the latest stored code.
type ResetState string

const (
	ResetIdle         ResetState = "idle"
	ResetCodeIssued   ResetState = "code_issued"
	ResetCodeVerified ResetState = "code_verified"
	ResetCompleted    ResetState = "completed"
	ResetExpired      ResetState = "expired"
)

// CodeSender delivers a reset code out of band.
type CodeSender interface {
	SendResetCode(ctx context.Context, to, name, code string, expiresAt time.Time) error
}

// ResetOption configures a [ResetAuthority].
type ResetOption func(*ResetAuthority)

// WithCodeGenerator replaces the random code source.
func WithCodeGenerator(generate func() (string, error)) ResetOption {
	return func(a *ResetAuthority) {
		if generate != nil {
			a.generate = generate
		}
	}
}

// ResetAuthority issues and checks one-time password reset codes and performs the final password change.
type ResetAuthority struct {
	db     *sql.DB
	users  *repositories.UserRepository
	codes  *repositories.ResetCodeRepository
	tokens *TokenService
	hasher *PasswordHasher
	sender CodeSender
	ttl    time.Duration
	logger *log.Logger
	now    func() time.Time

	generate func() (string, error)
}

// NewResetAuthority creates a [ResetAuthority]. A ttl of zero or less uses [DefaultResetCodeTTL].
func NewResetAuthority(
	db *sql.DB, tokens *TokenService, hasher *PasswordHasher, sender CodeSender, ttl time.Duration, logger *log.Logger,
	opts ...ResetOption,
) *ResetAuthority {
	if ttl <= 0 {
		ttl = DefaultResetCodeTTL
	}

	a := &ResetAuthority{
		db:     db,
		users:  repositories.NewUserRepository(db),
		codes:  repositories.NewResetCodeRepository(db),
		tokens: tokens,
		hasher: hasher,
		sender: sender,
		ttl:    ttl,
		logger: shared.WithLogger(logger, "component", "reset"),
		now:    time.Now,
		generate: func() (string, error) {
			return generateResetCode(ResetCodeLength)
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RequestReset issues a new code for the account behind email and supersedes any pending one.
//
// Unknown addresses succeed without side effects. Delivery failures are logged, not returned.
func (a *ResetAuthority) RequestReset(ctx context.Context, email string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}

	user, err := a.users.GetByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, shared.ErrUserNotFound) {
		a.logger.Debug("reset requested for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	value, err := a.generate()
	if err != nil {
		return err
	}

	now := a.now().UTC()
	code := &models.ResetCode{UserID: user.ID, Code: value, CreatedAt: now, ExpiresAt: now.Add(a.ttl)}

	err = shared.WithTx(ctx, a.db, func(tx *sql.Tx) error {
		codes := a.codes.WithTx(tx)
		superseded, err := codes.SupersedePending(ctx, user.ID)
		if err != nil {
			return err
		}
		if superseded > 0 {
			a.logger.Debug("pending reset code superseded", "user_id", user.ID)
		}
		return codes.Create(ctx, code)
	})
	if err != nil {
		return fmt.Errorf("failed to issue reset code: %w", err)
	}

	a.logger.Info("reset code issued", "user_id", user.ID, "expires_at", code.ExpiresAt)

	if a.sender != nil {
		if err := a.sender.SendResetCode(ctx, user.Email, user.Name, value, code.ExpiresAt); err != nil {
			a.logger.Warn("failed to deliver reset code", "user_id", user.ID, "error", err)
		}
	}
	return nil
}

// VerifyCode checks code without consuming it. Repeated checks of a pending code keep succeeding.
func (a *ResetAuthority) VerifyCode(ctx context.Context, email, code string) error {
	_, found, err := a.resolve(ctx, a.users, a.codes, email, code)
	if err != nil {
		return err
	}
	return a.codes.MarkVerified(ctx, found.ID, a.now())
}

// CompleteReset re-checks code, then stores the new password, consumes the code and revokes every session of
// the user in one transaction. Nothing changes when any step fails.
func (a *ResetAuthority) CompleteReset(ctx context.Context, email, code, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := a.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	var userID string
	err = shared.WithTx(ctx, a.db, func(tx *sql.Tx) error {
		users, codes := a.users.WithTx(tx), a.codes.WithTx(tx)

		user, found, err := a.resolve(ctx, users, codes, email, code)
		if err != nil {
			return err
		}
		userID = user.ID

		now := a.now()
		if err := users.UpdatePassword(ctx, user.ID, hash, now); err != nil {
			return err
		}

		used, err := codes.MarkUsed(ctx, found.ID, now)
		if err != nil {
			return err
		}
		if !used {
			return shared.ErrCodeAlreadyUsed
		}

		_, err = a.tokens.RevokeAllForUserTx(ctx, tx, user.ID)
		return err
	})
	if err != nil {
		return err
	}

	a.logger.Info("password reset completed", "user_id", userID)
	return nil
}

// State derives the reset flow position of the account behind email. Unknown accounts are idle.
func (a *ResetAuthority) State(ctx context.Context, email string) (ResetState, error) {
	user, err := a.users.GetByEmail(ctx, email)
	if errors.Is(err, shared.ErrUserNotFound) {
		return ResetIdle, nil
	}
	if err != nil {
		return "", err
	}

	latest, err := a.codes.Latest(ctx, user.ID)
	if errors.Is(err, shared.ErrNotFound) {
		return ResetIdle, nil
	}
	if err != nil {
		return "", err
	}

	switch {
	case latest.Used:
		return ResetCompleted, nil
	case latest.Superseded:
		return ResetIdle, nil
	case latest.Expired(a.now()):
		return ResetExpired, nil
	case latest.VerifiedAt != nil:
		return ResetCodeVerified, nil
	default:
		return ResetCodeIssued, nil
	}
}

// resolve maps a submitted (email, code) pair onto the stored code, classifying every failure as a reset error.
func (a *ResetAuthority) resolve(
	ctx context.Context, users *repositories.UserRepository, codes *repositories.ResetCodeRepository, email, code string,
) (*models.User, *models.ResetCode, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil, fmt.Errorf("%w: code is required", shared.ErrInvalidCode)
	}

	user, err := users.GetByEmail(ctx, email)
	if errors.Is(err, shared.ErrUserNotFound) {
		return nil, nil, shared.ErrInvalidCode
	}
	if err != nil {
		return nil, nil, err
	}

	found, err := codes.FindByUserAndCode(ctx, user.ID, code)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil, shared.ErrInvalidCode
	}
	if err != nil {
		return nil, nil, err
	}

	switch {
	case found.Superseded:
		return nil, nil, shared.ErrInvalidCode
	case found.Used:
		return nil, nil, shared.ErrCodeAlreadyUsed
	case found.Expired(a.now()):
		return nil, nil, shared.ErrExpiredCode
	}
	return user, found, nil
}

// generateResetCode returns n uniformly random decimal digits.
func generateResetCode(n int) (string, error) {
	var b strings.Builder
	ten := big.NewInt(10)
	for range n {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("failed to generate reset code: %w", err)
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String(), nil
}
