package service

import (
	"context"
	"strings"
	"testing"

	"inkwell/internal/config"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testCodec() *session.Codec {
	return session.NewCodec(&config.Config{
		JWTSecret:       "test-secret-key-12345678901234567890123456789012",
		JWTIssuer:       "inkwell-api",
		JWTAudience:     "inkwell-client",
		SessionTTLHours: 168,
	}, nil)
}

// memoryUsers is a userRepoStub backed by a slice, enough for the auth flows.
func memoryUsers(t *testing.T, existing ...*models.User) *userRepoStub {
	t.Helper()
	stub := usersByID(existing...)
	created := existing
	stub.getByEmailFn = func(_ context.Context, email string) (*models.User, error) {
		for _, u := range created {
			if u.Email == email {
				return u, nil
			}
		}
		return nil, nil
	}
	stub.availableUsernameFn = func(_ context.Context, base string) (string, error) {
		taken := map[string]bool{}
		for _, u := range created {
			taken[u.Username] = true
		}
		if !taken[base] {
			return base, nil
		}
		for n := 1; ; n++ {
			candidate := base + string(rune('0'+n))
			if !taken[candidate] {
				return candidate, nil
			}
		}
	}
	stub.createFn = func(_ context.Context, u *models.User) error {
		u.ID = uint(len(created) + 100)
		created = append(created, u)
		return nil
	}
	return stub
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestAuthService_CheckEmail(t *testing.T) {
	users := memoryUsers(t, &models.User{ID: 1, Email: "alex@example.com"})
	svc := NewAuthService(users, testCodec(), bcrypt.MinCost)

	res, err := svc.CheckEmail(context.Background(), "  ALEX@example.com ")
	require.NoError(t, err)
	assert.True(t, res.Exists)
	assert.Equal(t, "alex@example.com", res.Email)

	res, err = svc.CheckEmail(context.Background(), "new@example.com")
	require.NoError(t, err)
	assert.False(t, res.Exists)
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	existing := &models.User{ID: 1, Email: "alex@example.com", Username: "alexchen", Name: "Alex Chen"}

	tests := []struct {
		name         string
		in           RegisterInput
		wantSuccess  bool
		wantError    string
		wantRedirect string
		wantUsername string
	}{
		{
			name:         "existing email redirects to login",
			in:           RegisterInput{Email: "ALEX@example.com", Password: "secret1", Name: "Alex"},
			wantError:    "An account with this email already exists.",
			wantRedirect: RedirectLogin,
		},
		{
			name:      "empty name",
			in:        RegisterInput{Email: "new@example.com", Password: "secret1", Name: "   "},
			wantError: "Please enter your name.",
		},
		{
			name:      "name too long",
			in:        RegisterInput{Email: "new@example.com", Password: "secret1", Name: strings.Repeat("a", 120)},
			wantError: "Name must be less than 50 characters.",
		},
		{
			name:         "punctuation is dropped from the username",
			in:           RegisterInput{Email: "ab@example.com", Password: "secret1", Name: "A/B?#"},
			wantSuccess:  true,
			wantUsername: "ab",
		},
		{
			name:      "short password",
			in:        RegisterInput{Email: "new@example.com", Password: "12345", Name: "New"},
			wantError: "Password must be at least 6 characters.",
		},
		{
			name:      "invalid email",
			in:        RegisterInput{Email: "not-an-email", Password: "secret1", Name: "New"},
			wantError: "Please enter a valid email address.",
		},
		{
			name:         "username collision gets a suffix",
			in:           RegisterInput{Email: "other@example.com", Password: "secret1", Name: "Alex Chen"},
			wantSuccess:  true,
			wantUsername: "alexchen1",
		},
		{
			name:         "fresh user",
			in:           RegisterInput{Email: " Sam@Example.com", Password: "secret1", Name: "Sam Rivera"},
			wantSuccess:  true,
			wantUsername: "samrivera",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAuthService(memoryUsers(t, existing), testCodec(), bcrypt.MinCost)

			res, err := svc.Register(ctx, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSuccess, res.Success)
			assert.Equal(t, tt.wantError, res.Error)
			assert.Equal(t, tt.wantRedirect, res.ShouldRedirect)

			if tt.wantSuccess {
				require.NotNil(t, res.User)
				assert.Equal(t, tt.wantUsername, res.User.Username)
				assert.NotEmpty(t, res.Token)
				assert.Equal(t, res.Token, res.Session.Value)
			}
		})
	}
}

func TestAuthService_RegisterStoresBcryptHash(t *testing.T) {
	users := memoryUsers(t)
	var stored *models.User
	create := users.createFn
	users.createFn = func(ctx context.Context, u *models.User) error {
		stored = u
		return create(ctx, u)
	}
	svc := NewAuthService(users, testCodec(), bcrypt.MinCost)

	res, err := svc.Register(context.Background(), RegisterInput{Email: "a@example.com", Password: "password123", Name: "A B"})
	require.NoError(t, err)
	require.True(t, res.Success)

	require.NotNil(t, stored)
	assert.NotEqual(t, "password123", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("password123")))
	assert.Equal(t, "a@example.com", stored.Email)
}

func TestAuthService_RegisterRetriesOnUsernameRace(t *testing.T) {
	users := memoryUsers(t)
	calls := 0
	users.createFn = func(_ context.Context, u *models.User) error {
		calls++
		if calls == 1 {
			return repository.ErrUsernameTaken
		}
		u.ID = 7
		return nil
	}
	svc := NewAuthService(users, testCodec(), bcrypt.MinCost)

	res, err := svc.Register(context.Background(), RegisterInput{Email: "a@example.com", Password: "password123", Name: "Racer"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 2, calls)
}

func TestAuthService_Login(t *testing.T) {
	user := &models.User{ID: 1, Email: "alex@example.com", Username: "alexchen", Name: "Alex Chen", PasswordHash: hashed(t, "password123")}
	codec := testCodec()
	svc := NewAuthService(memoryUsers(t, user), codec, bcrypt.MinCost)
	ctx := context.Background()

	t.Run("unknown email redirects to register", func(t *testing.T) {
		res, err := svc.Login(ctx, "nobody@example.com", "x")
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, "No account found with this email.", res.Error)
		assert.Equal(t, RedirectRegister, res.ShouldRedirect)
		assert.Equal(t, "No account found. Creating one for you...", res.Message)
	})

	t.Run("wrong password", func(t *testing.T) {
		res, err := svc.Login(ctx, "alex@example.com", "wrong")
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, "Incorrect password. Please try again.", res.Error)
		assert.Empty(t, res.ShouldRedirect)
	})

	t.Run("success issues a session", func(t *testing.T) {
		res, err := svc.Login(ctx, " Alex@Example.com ", "password123")
		require.NoError(t, err)
		require.True(t, res.Success)

		claims, err := codec.Parse(res.Token)
		require.NoError(t, err)
		id, err := claims.UserID()
		require.NoError(t, err)
		assert.Equal(t, uint(1), id)
		assert.Equal(t, "Alex Chen", claims.Name)
	})
}

func TestAuthService_CurrentUser(t *testing.T) {
	svc := NewAuthService(memoryUsers(t, &models.User{ID: 1}), testCodec(), bcrypt.MinCost)
	ctx := context.Background()

	u, err := svc.CurrentUser(ctx, 0)
	require.NoError(t, err)
	assert.Nil(t, u)

	u, err = svc.CurrentUser(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, u)

	u, err = svc.CurrentUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint(1), u.ID)
}
