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

// ResetCodeRepository persists [models.ResetCode] rows.
type ResetCodeRepository struct {
	db shared.DBTX
}

// NewResetCodeRepository creates a new [ResetCodeRepository] with the given database connection
func NewResetCodeRepository(db shared.DBTX) *ResetCodeRepository {
	return &ResetCodeRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx.
func (r *ResetCodeRepository) WithTx(tx *sql.Tx) *ResetCodeRepository {
	return &ResetCodeRepository{db: tx}
}

const resetCodeColumns = `id, user_id, code, created_at, expires_at, verified_at, used, used_at, superseded`

// Create inserts a new code with a generated ID.
//
// The schema allows one pending code per user, so callers supersede the previous one first.
func (r *ResetCodeRepository) Create(ctx context.Context, code *models.ResetCode) error {
	if code.ID == "" {
		code.ID = shared.GenerateID()
	}

	if err := code.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `INSERT INTO password_reset_codes (` + resetCodeColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		code.ID, code.UserID, code.Code, code.CreatedAt.UTC(), code.ExpiresAt.UTC(),
		nullTime(code.VerifiedAt), boolInt(code.Used), nullTime(code.UsedAt), boolInt(code.Superseded),
	)
	if err != nil {
		return fmt.Errorf("failed to insert reset code: %w", err)
	}
	return nil
}

// SupersedePending retires every unused, unsuperseded code of the user and returns how many changed.
func (r *ResetCodeRepository) SupersedePending(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE password_reset_codes SET superseded = 1 WHERE user_id = ? AND used = 0 AND superseded = 0`,
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to supersede reset codes: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}

// FindByUserAndCode returns the newest row for the user carrying exactly this code.
func (r *ResetCodeRepository) FindByUserAndCode(ctx context.Context, userID, code string) (*models.ResetCode, error) {
	query := `
		SELECT ` + resetCodeColumns + `
		FROM password_reset_codes
		WHERE user_id = ? AND code = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, userID, code))
}

// Latest returns the user's most recently issued code.
func (r *ResetCodeRepository) Latest(ctx context.Context, userID string) (*models.ResetCode, error) {
	query := `
		SELECT ` + resetCodeColumns + `
		FROM password_reset_codes
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, userID))
}

// MarkVerified stamps the first successful verification. Later verifications keep the original time.
func (r *ResetCodeRepository) MarkVerified(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE password_reset_codes SET verified_at = COALESCE(verified_at, ?) WHERE id = ?`,
		at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark reset code verified: %w", err)
	}
	return nil
}

// MarkUsed consumes a pending code. It reports false when the code was already used or superseded.
func (r *ResetCodeRepository) MarkUsed(ctx context.Context, id string, at time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE password_reset_codes SET used = 1, used_at = ? WHERE id = ? AND used = 0 AND superseded = 0`,
		at.UTC(), id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark reset code used: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows == 1, nil
}

func (r *ResetCodeRepository) scanOne(row *sql.Row) (*models.ResetCode, error) {
	var (
		code       models.ResetCode
		verifiedAt sql.NullTime
		used       int
		usedAt     sql.NullTime
		superseded int
	)

	err := row.Scan(&code.ID, &code.UserID, &code.Code, &code.CreatedAt, &code.ExpiresAt,
		&verifiedAt, &used, &usedAt, &superseded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: reset code", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query reset code: %w", err)
	}

	code.VerifiedAt = timePtr(verifiedAt)
	code.Used = used != 0
	code.UsedAt = timePtr(usedAt)
	code.Superseded = superseded != 0
	return &code, nil
}
