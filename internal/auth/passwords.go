package auth

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/Varda003/EmoTune/internal/shared"
	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength is the shortest accepted password.
	MinPasswordLength = 8
	// MaxPasswordLength is bcrypt's input limit in bytes.
	MaxPasswordLength = 72
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// PasswordHasher hashes and verifies passwords with bcrypt.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a [PasswordHasher]. Costs outside bcrypt's range fall back to [bcrypt.DefaultCost].
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash generates a bcrypt hash of the given password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether password matches hash.
func (h *PasswordHasher) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks the address shape after normalisation.
func ValidateEmail(email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", shared.ErrInvalidEmail)
	}
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("%w: %s", shared.ErrInvalidEmail, email)
	}
	return nil
}

// ValidatePassword enforces length and character class rules.
// Every failed rule is listed in the returned error, which wraps [shared.ErrWeakPassword].
func ValidatePassword(password string) error {
	if len(password) > MaxPasswordLength {
		return fmt.Errorf("%w: must be at most %d bytes", shared.ErrWeakPassword, MaxPasswordLength)
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}

	var problems []string
	if len(password) < MinPasswordLength {
		problems = append(problems, fmt.Sprintf("must be at least %d characters long", MinPasswordLength))
	}
	if !upper {
		problems = append(problems, "must contain at least one uppercase letter")
	}
	if !lower {
		problems = append(problems, "must contain at least one lowercase letter")
	}
	if !digit {
		problems = append(problems, "must contain at least one number")
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", shared.ErrWeakPassword, strings.Join(problems, ", "))
}
