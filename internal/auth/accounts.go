package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Varda003/EmoTune/internal/models"
	"github.com/Varda003/EmoTune/internal/repositories"
	"github.com/Varda003/EmoTune/internal/shared"
	"github.com/charmbracelet/log"
)

// Session is the result of a successful registration, login or refresh.
type Session struct {
	Token *IssuedToken `json:"token"`
	User  *models.User `json:"user"`
}

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	PreferredGenres []string
}

// ProfileUpdate changes only the fields that are set.
type ProfileUpdate struct {
	Name            *string
	PreferredGenres *[]string
	ProfilePicture  *string
}

// AccountService ties the identity store to the token service.
type AccountService struct {
	db        *sql.DB
	users     *repositories.UserRepository
	tokens    *TokenService
	hasher    *PasswordHasher
	dummyHash string
	logger    *log.Logger
}

// NewAccountService creates an [AccountService].
func NewAccountService(db *sql.DB, tokens *TokenService, hasher *PasswordHasher, logger *log.Logger) *AccountService {
	// Unknown emails are still compared against a hash so login timing does not reveal which accounts exist.
	dummy, _ := hasher.Hash("emotune-unknown-account")

	return &AccountService{
		db:        db,
		users:     repositories.NewUserRepository(db),
		tokens:    tokens,
		hasher:    hasher,
		dummyHash: dummy,
		logger:    shared.WithLogger(logger, "component", "accounts"),
	}
}

// Register creates the account and its first session in one transaction.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", shared.ErrInvalidInput)
	}
	if err := ValidateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := models.NewUser(name, NormalizeEmail(in.Email), hash, in.PreferredGenres)

	var token *IssuedToken
	err = shared.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.users.WithTx(tx).Create(ctx, user); err != nil {
			return err
		}
		token, err = s.tokens.IssueTx(ctx, tx, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return &Session{Token: token, User: user}, nil
}

// Login checks the credentials and issues a new token. Wrong email and wrong password are indistinguishable.
func (s *AccountService) Login(ctx context.Context, email, password string) (*Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", shared.ErrInvalidInput)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, shared.ErrUserNotFound) {
		s.hasher.Verify(s.dummyHash, password)
		return nil, shared.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		s.logger.Debug("login rejected", "user_id", user.ID)
		return nil, shared.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return &Session{Token: token, User: user}, nil
}

// Logout revokes the token identified by jti.
func (s *AccountService) Logout(ctx context.Context, jti string) error {
	return s.tokens.Revoke(ctx, jti)
}

// Refresh swaps the presented token for a new one. The old jti is revoked in the same transaction.
func (s *AccountService) Refresh(ctx context.Context, userID, jti string) (*Session, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	var token *IssuedToken
	err = shared.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		token, err = s.tokens.IssueTx(ctx, tx, user.ID)
		if err != nil {
			return err
		}
		return s.tokens.RevokeTx(ctx, tx, jti)
	})
	if err != nil {
		return nil, err
	}

	return &Session{Token: token, User: user}, nil
}

// Profile returns the account.
func (s *AccountService) Profile(ctx context.Context, userID string) (*models.User, error) {
	return s.users.Get(ctx, userID)
}

// UpdateProfile applies update and returns the stored account.
func (s *AccountService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*models.User, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", shared.ErrInvalidInput)
		}
		user.Name = name
	}
	if update.PreferredGenres != nil {
		user.PreferredGenres = models.NormalizeGenres(*update.PreferredGenres)
	}
	if update.ProfilePicture != nil {
		user.ProfilePicture = strings.TrimSpace(*update.ProfilePicture)
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Preferences returns the user's preferred genres.
func (s *AccountService) Preferences(ctx context.Context, userID string) ([]string, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.PreferredGenres, nil
}

// SetPreferences replaces the user's preferred genres.
func (s *AccountService) SetPreferences(ctx context.Context, userID string, genres []string) ([]string, error) {
	user, err := s.UpdateProfile(ctx, userID, ProfileUpdate{PreferredGenres: &genres})
	if err != nil {
		return nil, err
	}
	return user.PreferredGenres, nil
}

// DeleteAccount removes the user with every session, reset code and liked song. confirm must be true.
func (s *AccountService) DeleteAccount(ctx context.Context, userID string, confirm bool) error {
	if !confirm {
		return fmt.Errorf("%w: account deletion must be explicitly confirmed", shared.ErrInvalidInput)
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("account deleted", "user_id", userID)
	return nil
}
