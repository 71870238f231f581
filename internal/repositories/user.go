package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Varda003/EmoTune/internal/models"
	"github.com/Varda003/EmoTune/internal/shared"
)

// UserRepository is the identity store: [models.User] persistence.
type UserRepository struct {
	db shared.DBTX
}

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(db shared.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx.
func (r *UserRepository) WithTx(tx *sql.Tx) *UserRepository {
	return &UserRepository{db: tx}
}

const userColumns = `id, name, email, password_hash, preferred_genres, profile_picture, created_at, updated_at`

// Create inserts a new user with a generated ID. A duplicate email fails with [shared.ErrEmailTaken].
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = shared.GenerateID()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, models.JoinGenres(user.PreferredGenres),
		nullString(user.ProfilePicture), user.CreatedAt.UTC(), user.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", shared.ErrEmailTaken, user.Email)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// Get retrieves a user by ID
func (r *UserRepository) Get(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a user by email, ignoring case and surrounding whitespace.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email))))
}

// Update writes name, preferred genres and profile picture, refreshing updated_at.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	user.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET name = ?, preferred_genres = ?, profile_picture = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		user.Name, models.JoinGenres(user.PreferredGenres), nullString(user.ProfilePicture), user.UpdatedAt, user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	return expectOne(result, shared.ErrUserNotFound, user.ID)
}

// UpdatePassword replaces the stored credential hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, at time.Time) error {
	if passwordHash == "" {
		return fmt.Errorf("%w: password hash is required", shared.ErrInvalidInput)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return expectOne(result, shared.ErrUserNotFound, id)
}

// Delete removes a user. Sessions, reset codes and liked songs cascade.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return expectOne(result, shared.ErrUserNotFound, id)
}

// List retrieves users ordered by creation time. A limit of zero or less returns all users.
func (r *UserRepository) List(ctx context.Context, limit int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC, rowid ASC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return users, nil
}

func (r *UserRepository) scanOne(row *sql.Row) (*models.User, error) {
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		user    models.User
		genres  string
		picture sql.NullString
	)

	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &genres, &picture, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}

	user.PreferredGenres = models.SplitGenres(genres)
	user.ProfilePicture = picture.String
	return &user, nil
}

// expectOne turns a zero-row write into notFound.
func expectOne(result sql.Result, notFound error, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", notFound, id)
	}
	return nil
}
