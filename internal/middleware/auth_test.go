package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"inkwell/internal/config"
	"inkwell/internal/models"
	"inkwell/internal/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCodec(t *testing.T) *session.Codec {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return session.NewCodec(&config.Config{
		Env:             "test",
		JWTSecret:       "test-secret-key-12345678901234567890123456789012",
		JWTIssuer:       "inkwell-api",
		JWTAudience:     "inkwell-client",
		SessionTTLHours: 1,
	}, rdb)
}

func TestAuthRequired(t *testing.T) {
	codec := newCodec(t)
	auth := NewAuthenticator(codec)

	app := fiber.New()
	app.Get("/test", auth.Required(), func(c *fiber.Ctx) error {
		id, _ := UserID(c)
		return c.JSON(fiber.Map{"userID": id, "username": Claims(c).Username})
	})

	valid, err := codec.Issue(&models.User{ID: 123, Username: "alexchen"})
	require.NoError(t, err)
	revoked, err := codec.Issue(&models.User{ID: 5, Username: "gone"})
	require.NoError(t, err)
	require.NoError(t, codec.Revoke(context.Background(), revoked.Claims))

	tests := []struct {
		name           string
		authHeader     string
		cookie         string
		expectedStatus int
		expectedUserID uint
	}{
		{name: "Bearer token", authHeader: "Bearer " + valid.Value, expectedStatus: http.StatusOK, expectedUserID: 123},
		{name: "Session cookie", cookie: valid.Value, expectedStatus: http.StatusOK, expectedUserID: 123},
		{name: "Missing token", expectedStatus: http.StatusUnauthorized},
		{name: "Invalid format", authHeader: "Basic dXNlcjpwYXNz", expectedStatus: http.StatusUnauthorized},
		{name: "Malformed token", authHeader: "Bearer malformed.token.here", expectedStatus: http.StatusUnauthorized},
		{name: "Revoked token", authHeader: "Bearer " + revoked.Value, expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: session.CookieName, Value: tt.cookie})
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body struct {
					UserID   uint   `json:"userID"`
					Username string `json:"username"`
				}
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, tt.expectedUserID, body.UserID)
				assert.Equal(t, "alexchen", body.Username)
			} else {
				var body models.ErrorResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, models.CodeUnauthorized, body.Code)
			}
		})
	}
}

func TestAuthOptional(t *testing.T) {
	codec := newCodec(t)
	auth := NewAuthenticator(codec)

	app := fiber.New()
	app.Get("/test", auth.Optional(), func(c *fiber.Ctx) error {
		id, ok := UserID(c)
		return c.JSON(fiber.Map{"userID": id, "authenticated": ok})
	})

	token, err := codec.Issue(&models.User{ID: 9})
	require.NoError(t, err)

	for _, tc := range []struct {
		header string
		want   bool
	}{
		{"", false},
		{"Bearer nope", false},
		{"Bearer " + token.Value, true},
	} {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Authenticated bool `json:"authenticated"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, tc.want, body.Authenticated)
	}
}
