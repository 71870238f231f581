package auth

import (
	"context"
	"database/sql"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/Varda003/EmoTune/internal/shared"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "Secret123"

// clock is a settable time source shared by the services under test.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// sentCode is a reset code captured by [captureSender].
type sentCode struct {
	To, Code string
}

type captureSender struct {
	mu   sync.Mutex
	sent []sentCode
}

func (c *captureSender) SendResetCode(_ context.Context, to, _, code string, _ time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sentCode{To: to, Code: code})
	return nil
}

func (c *captureSender) Last(t *testing.T) string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.sent, "expected a reset code to be sent")
	return c.sent[len(c.sent)-1].Code
}

// codeSequence hands out 100001, 100002, ... so consecutive reset codes never collide.
func codeSequence() func() (string, error) {
	var mu sync.Mutex
	n := 100000
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return strconv.Itoa(n), nil
	}
}

type fixture struct {
	db       *sql.DB
	clock    *clock
	tokens   *TokenService
	accounts *AccountService
	resets   *ResetAuthority
	sender   *captureSender
}

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(shared.MemoryDatabase)
	require.NoError(t, err)
	require.NoError(t, shared.RunMigrations(db))

	t.Cleanup(func() { db.Close() })
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := setupTestDB(t)
	c := newClock()

	tokens, err := NewTokenService(db, TokenConfig{Secret: []byte("test-secret-0123456789"), Issuer: "emotune-test", TTL: time.Hour}, nil)
	require.NoError(t, err)
	tokens.now = c.Now

	hasher := NewPasswordHasher(bcrypt.MinCost)
	sender := &captureSender{}

	resets := NewResetAuthority(db, tokens, hasher, sender, 10*time.Minute, nil, WithCodeGenerator(codeSequence()))
	resets.now = c.Now

	return &fixture{
		db:       db,
		clock:    c,
		tokens:   tokens,
		accounts: NewAccountService(db, tokens, hasher, nil),
		resets:   resets,
		sender:   sender,
	}
}

func (f *fixture) register(t *testing.T, email string) *Session {
	t.Helper()
	session, err := f.accounts.Register(context.Background(), RegisterInput{
		Name: "Test User", Email: email, Password: testPassword, PreferredGenres: []string{"Pop", "Rock"},
	})
	require.NoError(t, err)
	return session
}

func TestValidatePassword(t *testing.T) {
	tc := []struct {
		name     string
		password string
		ok       bool
	}{
		{name: "valid", password: "Secret123", ok: true},
		{name: "too short", password: "Se1", ok: false},
		{name: "no upper", password: "secret123", ok: false},
		{name: "no lower", password: "SECRET123", ok: false},
		{name: "no digit", password: "SecretPass", ok: false},
		{name: "too long", password: "Aa1" + string(make([]byte, 80)), ok: false},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, shared.ErrWeakPassword)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tc := []struct {
		email string
		ok    bool
	}{
		{"a@x.com", true},
		{"  John.Doe+tag@Example.co.uk ", true},
		{"", false},
		{"no-at-sign", false},
		{"a@x", false},
	}

	for _, tt := range tc {
		t.Run(tt.email, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, shared.ErrInvalidEmail)
			}
		})
	}
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	hash, err := h.Hash(testPassword)
	require.NoError(t, err)

	assert.True(t, h.Verify(hash, testPassword))
	assert.False(t, h.Verify(hash, "Wrong123"))
	assert.False(t, h.Verify("", testPassword))

	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(99).cost)
}

func TestTokenService(t *testing.T) {
	ctx := context.Background()

	t.Run("Requires A Secret", func(t *testing.T) {
		_, err := NewTokenService(setupTestDB(t), TokenConfig{}, nil)
		assert.ErrorIs(t, err, shared.ErrInvalidConfig)
	})

	t.Run("Validate Of Issue Returns The User", func(t *testing.T) {
		f := newFixture(t)
		session := f.register(t, "a@x.com")

		userID, err := f.tokens.Validate(ctx, session.Token.Token)
		require.NoError(t, err)
		assert.Equal(t, session.User.ID, userID)
	})

	t.Run("Each Issue Has A Unique JTI", func(t *testing.T) {
		f := newFixture(t)
		session := f.register(t, "a@x.com")

		seen := map[string]bool{session.Token.JTI: true}
		for range 5 {
			tok, err := f.tokens.Issue(ctx, session.User.ID)
			require.NoError(t, err)
			assert.False(t, seen[tok.JTI], "duplicate jti %s", tok.JTI)
			seen[tok.JTI] = true
		}
	})

	t.Run("Revoked Stays Revoked", func(t *testing.T) {
		f := newFixture(t)
		session := f.register(t, "a@x.com")

		require.NoError(t, f.tokens.Revoke(ctx, session.Token.JTI))
		for range 3 {
			_, err := f.tokens.Validate(ctx, session.Token.Token)
			assert.ErrorIs(t, err, shared.ErrRevokedToken)
		}

		assert.NoError(t, f.tokens.Revoke(ctx, session.Token.JTI), "revoking twice is a no-op")
		assert.NoError(t, f.tokens.Revoke(ctx, "unknown-jti"), "revoking an unknown jti is a no-op")
	})

	t.Run("expired", func(t *testing.T) {
		f := newFixture(t)
		session := f.register(t, "a@x.com")

		f.clock.Advance(time.Hour)
		_, err := f.tokens.Validate(ctx, session.Token.Token)
		assert.ErrorIs(t, err, shared.ErrExpiredToken)
	})

	t.Run("Expired And Revoked Reports Expired", func(t *testing.T) {
		f := newFixture(t)
		session := f.register(t, "a@x.com")

		require.NoError(t, f.tokens.Revoke(ctx, session.Token.JTI))
		_, err := f.tokens.Validate(ctx, session.Token.Token)
		assert.ErrorIs(t, err, shared.ErrRevokedToken)

		f.clock.Advance(time.Hour)
		_, err = f.tokens.Validate(ctx, session.Token.Token)
		assert.ErrorIs(t, err, shared.ErrExpiredToken)
	})

	t.Run("Malformed And Foreign Tokens", func(t *testing.T) {
		f := newFixture(t)
		session := f.register(t, "a@x.com")

		other, err := NewTokenService(f.db, TokenConfig{Secret: []byte("another-secret-987654"), Issuer: "emotune-test"}, nil)
		require.NoError(t, err)
		other.now = f.clock.Now
		forged, err := other.Issue(ctx, session.User.ID)
		require.NoError(t, err)

		none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: session.User.ID})
		unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		tc := []struct {
			name  string
			token string
		}{
			{name: "empty", token: ""},
			{name: "garbage", token: "not.a.token"},
			{name: "wrong secret", token: forged.Token},
			{name: "alg none", token: unsigned},
			{name: "tampered", token: session.Token.Token + "x"},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				_, err := f.tokens.Validate(ctx, tt.token)
				assert.ErrorIs(t, err, shared.ErrInvalidToken)
			})
		}
	})

	t.Run("Signed Token Without A Session Row", func(t *testing.T) {
		f := newFixture(t)
		session := f.register(t, "a@x.com")

		now := f.clock.Now()
		claims := Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        "never-recorded",
				Issuer:    "emotune-test",
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
			UserID: session.User.ID,
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret-0123456789"))
		require.NoError(t, err)

		_, err = f.tokens.Validate(ctx, token)
		assert.ErrorIs(t, err, shared.ErrInvalidToken)
	})

	t.Run("Revoke All For User", func(t *testing.T) {
		f := newFixture(t)
		alice := f.register(t, "alice@x.com")
		bob := f.register(t, "bob@x.com")

		second, err := f.tokens.Issue(ctx, alice.User.ID)
		require.NoError(t, err)

		n, err := f.tokens.RevokeAllForUser(ctx, alice.User.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		for _, tok := range []string{alice.Token.Token, second.Token} {
			_, err := f.tokens.Validate(ctx, tok)
			assert.ErrorIs(t, err, shared.ErrRevokedToken)
		}

		_, err = f.tokens.Validate(ctx, bob.Token.Token)
		assert.NoError(t, err)
	})
}

func TestResetAuthority(t *testing.T) {
	ctx := context.Background()

	t.Run("Unknown Email Succeeds Silently", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.resets.RequestReset(ctx, "nobody@x.com"))
		assert.Empty(t, f.sender.sent)

		state, err := f.resets.State(ctx, "nobody@x.com")
		require.NoError(t, err)
		assert.Equal(t, ResetIdle, state)
	})

	t.Run("Malformed Email Is A Validation Error", func(t *testing.T) {
		f := newFixture(t)
		assert.ErrorIs(t, f.resets.RequestReset(ctx, "nope"), shared.ErrInvalidEmail)
	})

	t.Run("State Machine", func(t *testing.T) {
		f := newFixture(t)
		f.register(t, "a@x.com")

		state, err := f.resets.State(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, ResetIdle, state)

		require.NoError(t, f.resets.RequestReset(ctx, "A@X.com"))
		code := f.sender.Last(t)
		assert.Len(t, code, ResetCodeLength)

		state, _ = f.resets.State(ctx, "a@x.com")
		assert.Equal(t, ResetCodeIssued, state)

		require.NoError(t, f.resets.VerifyCode(ctx, "a@x.com", code))
		require.NoError(t, f.resets.VerifyCode(ctx, "a@x.com", code), "verification is repeatable")

		state, _ = f.resets.State(ctx, "a@x.com")
		assert.Equal(t, ResetCodeVerified, state)

		require.NoError(t, f.resets.CompleteReset(ctx, "a@x.com", code, "NewSecret456"))

		state, _ = f.resets.State(ctx, "a@x.com")
		assert.Equal(t, ResetCompleted, state)
	})

	t.Run("Second Code Supersedes The First", func(t *testing.T) {
		f := newFixture(t)
		f.register(t, "a@x.com")

		require.NoError(t, f.resets.RequestReset(ctx, "a@x.com"))
		first := f.sender.Last(t)
		f.clock.Advance(time.Second)
		require.NoError(t, f.resets.RequestReset(ctx, "a@x.com"))
		second := f.sender.Last(t)

		require.NotEqual(t, first, second)

		assert.ErrorIs(t, f.resets.VerifyCode(ctx, "a@x.com", first), shared.ErrInvalidCode)
		assert.ErrorIs(t, f.resets.CompleteReset(ctx, "a@x.com", first, "NewSecret456"), shared.ErrInvalidCode)
		assert.NoError(t, f.resets.VerifyCode(ctx, "a@x.com", second))
	})

	t.Run("Wrong Code", func(t *testing.T) {
		f := newFixture(t)
		f.register(t, "a@x.com")
		require.NoError(t, f.resets.RequestReset(ctx, "a@x.com"))

		wrong := "abcdef"
		assert.ErrorIs(t, f.resets.VerifyCode(ctx, "a@x.com", wrong), shared.ErrInvalidCode)
		assert.ErrorIs(t, f.resets.VerifyCode(ctx, "a@x.com", ""), shared.ErrInvalidCode)
		assert.ErrorIs(t, f.resets.VerifyCode(ctx, "nobody@x.com", f.sender.Last(t)), shared.ErrInvalidCode)
	})

	t.Run("Expired Code", func(t *testing.T) {
		f := newFixture(t)
		f.register(t, "a@x.com")
		require.NoError(t, f.resets.RequestReset(ctx, "a@x.com"))
		code := f.sender.Last(t)

		f.clock.Advance(10 * time.Minute)
		assert.ErrorIs(t, f.resets.VerifyCode(ctx, "a@x.com", code), shared.ErrExpiredCode)
		assert.ErrorIs(t, f.resets.CompleteReset(ctx, "a@x.com", code, "NewSecret456"), shared.ErrExpiredCode)

		state, _ := f.resets.State(ctx, "a@x.com")
		assert.Equal(t, ResetExpired, state)
	})

	t.Run("Complete Is Single Use", func(t *testing.T) {
		f := newFixture(t)
		f.register(t, "a@x.com")
		require.NoError(t, f.resets.RequestReset(ctx, "a@x.com"))
		code := f.sender.Last(t)

		require.NoError(t, f.resets.CompleteReset(ctx, "a@x.com", code, "NewSecret456"))
		assert.ErrorIs(t, f.resets.CompleteReset(ctx, "a@x.com", code, "Another789"), shared.ErrCodeAlreadyUsed)
		assert.ErrorIs(t, f.resets.VerifyCode(ctx, "a@x.com", code), shared.ErrCodeAlreadyUsed)

		_, err := f.accounts.Login(ctx, "a@x.com", "NewSecret456")
		assert.NoError(t, err, "second completion must not change the password")
	})

	t.Run("Weak Password Leaves State Untouched", func(t *testing.T) {
		f := newFixture(t)
		session := f.register(t, "a@x.com")
		require.NoError(t, f.resets.RequestReset(ctx, "a@x.com"))
		code := f.sender.Last(t)

		assert.ErrorIs(t, f.resets.CompleteReset(ctx, "a@x.com", code, "weak"), shared.ErrWeakPassword)

		_, err := f.tokens.Validate(ctx, session.Token.Token)
		assert.NoError(t, err)
		assert.NoError(t, f.resets.VerifyCode(ctx, "a@x.com", code))
		_, err = f.accounts.Login(ctx, "a@x.com", testPassword)
		assert.NoError(t, err)
	})

	t.Run("Failed Completion Rolls Back", func(t *testing.T) {
		f := newFixture(t)
		session := f.register(t, "a@x.com")
		require.NoError(t, f.resets.RequestReset(ctx, "a@x.com"))
		code := f.sender.Last(t)

		_, err := f.db.Exec(`CREATE TRIGGER block_revoke BEFORE UPDATE ON session_tokens
			BEGIN SELECT RAISE(ABORT, 'revocation blocked'); END`)
		require.NoError(t, err)

		err = f.resets.CompleteReset(ctx, "a@x.com", code, "NewSecret456")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "revocation blocked")

		_, err = f.tokens.Validate(ctx, session.Token.Token)
		assert.NoError(t, err, "session must survive")

		state, err := f.resets.State(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, ResetCodeIssued, state, "code must stay pending")
		assert.NoError(t, f.resets.VerifyCode(ctx, "a@x.com", code))

		_, err = f.accounts.Login(ctx, "a@x.com", testPassword)
		assert.NoError(t, err, "old password must still work")
		_, err = f.accounts.Login(ctx, "a@x.com", "NewSecret456")
		assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

		_, err = f.db.Exec("DROP TRIGGER block_revoke")
		require.NoError(t, err)
		require.NoError(t, f.resets.CompleteReset(ctx, "a@x.com", code, "NewSecret456"))
	})

	t.Run("Complete Revokes Every Session", func(t *testing.T) {
		f := newFixture(t)
		session := f.register(t, "a@x.com")
		login, err := f.accounts.Login(ctx, "a@x.com", testPassword)
		require.NoError(t, err)

		require.NoError(t, f.resets.RequestReset(ctx, "a@x.com"))
		require.NoError(t, f.resets.CompleteReset(ctx, "a@x.com", f.sender.Last(t), "NewSecret456"))

		for _, tok := range []string{session.Token.Token, login.Token.Token} {
			_, err := f.tokens.Validate(ctx, tok)
			assert.ErrorIs(t, err, shared.ErrRevokedToken)
		}
	})
}

func TestGenerateResetCode(t *testing.T) {
	for range 20 {
		code, err := generateResetCode(ResetCodeLength)
		require.NoError(t, err)
		require.Len(t, code, ResetCodeLength)
		for _, c := range code {
			assert.True(t, c >= '0' && c <= '9', "non-digit in %q", code)
		}
	}
}

func TestAccountService(t *testing.T) {
	ctx := context.Background()

	t.Run("Register Validates", func(t *testing.T) {
		f := newFixture(t)

		tc := []struct {
			name string
			in   RegisterInput
			want error
		}{
			{name: "missing name", in: RegisterInput{Email: "a@x.com", Password: testPassword}, want: shared.ErrInvalidInput},
			{name: "bad email", in: RegisterInput{Name: "A", Email: "a-at-x", Password: testPassword}, want: shared.ErrInvalidEmail},
			{name: "weak password", in: RegisterInput{Name: "A", Email: "a@x.com", Password: "password"}, want: shared.ErrWeakPassword},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				_, err := f.accounts.Register(ctx, tt.in)
				assert.ErrorIs(t, err, tt.want)
			})
		}
	})

	t.Run("Register Normalises And Rejects Duplicates", func(t *testing.T) {
		f := newFixture(t)
		session := f.register(t, "  Alice@X.com ")
		assert.Equal(t, "alice@x.com", session.User.Email)
		assert.Equal(t, []string{"Pop", "Rock"}, session.User.PreferredGenres)
		assert.NotEmpty(t, session.User.PasswordHash)

		_, err := f.accounts.Register(ctx, RegisterInput{Name: "Other", Email: "ALICE@x.com", Password: testPassword})
		assert.ErrorIs(t, err, shared.ErrEmailTaken)
	})

	t.Run("login", func(t *testing.T) {
		f := newFixture(t)
		registered := f.register(t, "a@x.com")

		session, err := f.accounts.Login(ctx, "A@x.com", testPassword)
		require.NoError(t, err)
		assert.Equal(t, registered.User.ID, session.User.ID)
		assert.NotEqual(t, registered.Token.JTI, session.Token.JTI)

		_, err = f.accounts.Login(ctx, "a@x.com", "Wrong1234")
		assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

		_, err = f.accounts.Login(ctx, "nobody@x.com", testPassword)
		assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

		_, err = f.accounts.Login(ctx, "", "")
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("Logout And Refresh", func(t *testing.T) {
		f := newFixture(t)
		session := f.register(t, "a@x.com")

		refreshed, err := f.accounts.Refresh(ctx, session.User.ID, session.Token.JTI)
		require.NoError(t, err)

		_, err = f.tokens.Validate(ctx, session.Token.Token)
		assert.ErrorIs(t, err, shared.ErrRevokedToken)

		_, err = f.tokens.Validate(ctx, refreshed.Token.Token)
		require.NoError(t, err)

		require.NoError(t, f.accounts.Logout(ctx, refreshed.Token.JTI))
		_, err = f.tokens.Validate(ctx, refreshed.Token.Token)
		assert.ErrorIs(t, err, shared.ErrRevokedToken)
	})

	t.Run("Profile And Preferences", func(t *testing.T) {
		f := newFixture(t)
		session := f.register(t, "a@x.com")
		id := session.User.ID

		name := "  Renamed "
		user, err := f.accounts.UpdateProfile(ctx, id, ProfileUpdate{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", user.Name)
		assert.Equal(t, []string{"Pop", "Rock"}, user.PreferredGenres, "unset fields are kept")

		empty := " "
		_, err = f.accounts.UpdateProfile(ctx, id, ProfileUpdate{Name: &empty})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)

		genres, err := f.accounts.SetPreferences(ctx, id, []string{"jazz", "Jazz", " blues "})
		require.NoError(t, err)
		assert.Equal(t, []string{"jazz", "blues"}, genres)

		genres, err = f.accounts.Preferences(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []string{"jazz", "blues"}, genres)

		_, err = f.accounts.Profile(ctx, "missing")
		assert.ErrorIs(t, err, shared.ErrUserNotFound)
	})

	t.Run("Delete Account Requires Confirmation", func(t *testing.T) {
		f := newFixture(t)
		session := f.register(t, "a@x.com")

		assert.ErrorIs(t, f.accounts.DeleteAccount(ctx, session.User.ID, false), shared.ErrInvalidInput)
		require.NoError(t, f.accounts.DeleteAccount(ctx, session.User.ID, true))

		_, err := f.accounts.Profile(ctx, session.User.ID)
		assert.ErrorIs(t, err, shared.ErrUserNotFound)

		_, err = f.tokens.Validate(ctx, session.Token.Token)
		assert.ErrorIs(t, err, shared.ErrInvalidToken, "sessions cascade with the account")
	})
}
