package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Varda003/EmoTune/internal/models"
	"github.com/Varda003/EmoTune/internal/shared"
)

// SessionRepository persists [models.SessionToken] rows, the revocation state of issued bearer tokens.
type SessionRepository struct {
	db shared.DBTX
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db shared.DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx.
func (r *SessionRepository) WithTx(tx *sql.Tx) *SessionRepository {
	return &SessionRepository{db: tx}
}

// Create records a freshly issued token.
func (r *SessionRepository) Create(ctx context.Context, token *models.SessionToken) error {
	if err := token.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO session_tokens (token_jti, user_id, issued_at, expires_at, revoked, revoked_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		token.JTI, token.UserID, token.IssuedAt.UTC(), token.ExpiresAt.UTC(), boolInt(token.Revoked), nullTime(token.RevokedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session token: %w", err)
	}

	return nil
}

// Get retrieves a token record by jti. Unknown ids fail with [shared.ErrNotFound].
func (r *SessionRepository) Get(ctx context.Context, jti string) (*models.SessionToken, error) {
	query := `
		SELECT token_jti, user_id, issued_at, expires_at, revoked, revoked_at
		FROM session_tokens
		WHERE token_jti = ?
	`

	token, err := scanSession(r.db.QueryRowContext(ctx, query, jti))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session %s", shared.ErrNotFound, jti)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session token: %w", err)
	}
	return token, nil
}

// Revoke marks a single token revoked. Already revoked and unknown ids are left untouched.
func (r *SessionRepository) Revoke(ctx context.Context, jti string, at time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE session_tokens SET revoked = 1, revoked_at = ? WHERE token_jti = ? AND revoked = 0`,
		at.UTC(), jti,
	)
	if err != nil {
		return false, fmt.Errorf("failed to revoke session token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows > 0, nil
}

// RevokeAllForUser marks every outstanding token of the user revoked and returns how many changed.
func (r *SessionRepository) RevokeAllForUser(ctx context.Context, userID string, at time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE session_tokens SET revoked = 1, revoked_at = ? WHERE user_id = ? AND revoked = 0`,
		at.UTC(), userID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke session tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}

// ListForUser returns the user's token records, newest first.
func (r *SessionRepository) ListForUser(ctx context.Context, userID string) ([]*models.SessionToken, error) {
	query := `
		SELECT token_jti, user_id, issued_at, expires_at, revoked, revoked_at
		FROM session_tokens
		WHERE user_id = ?
		ORDER BY issued_at DESC, rowid DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query session tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*models.SessionToken
	for rows.Next() {
		token, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session token: %w", err)
		}
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return tokens, nil
}

func scanSession(row rowScanner) (*models.SessionToken, error) {
	var (
		token     models.SessionToken
		revoked   int
		revokedAt sql.NullTime
	)

	if err := row.Scan(&token.JTI, &token.UserID, &token.IssuedAt, &token.ExpiresAt, &revoked, &revokedAt); err != nil {
		return nil, err
	}

	token.Revoked = revoked != 0
	token.RevokedAt = timePtr(revokedAt)
	return &token, nil
}
