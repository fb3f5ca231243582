package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const longContent = "Good writing takes time. Drafts pile up, edits accumulate, and eventually the thing says what you meant."

type testEnv struct {
	server *Server
	app    *fiber.App
	store  *store.Store
	redis  *miniredis.Miniredis
}

func testConfig() *config.Config {
	return &config.Config{
		Port:              "0",
		Env:               "test",
		DBDriver:          config.DriverSQLite,
		JWTSecret:         "test-secret-key-12345678901234567890123456789012",
		JWTIssuer:         "inkwell-api",
		JWTAudience:       "inkwell-client",
		SessionTTLHours:   1,
		AllowedOrigins:    "http://localhost:5173",
		FeatureFlags:      "realtime_messages=on,post_cache=on",
		RateLimitFailOpen: true,
	}
}

// newTestEnv builds a server over in-memory SQLite and miniredis.
func newTestEnv(t *testing.T, mutate ...func(*config.Config, *Options)) *testEnv {
	t.Helper()
	cfg := testConfig()
	opts := Options{HashCost: bcrypt.MinCost, DisableRateLimits: true}
	for _, m := range mutate {
		m(cfg, &opts)
	}

	db, err := database.Connect(context.Background(), cfg)
	require.NoError(t, err)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	st := store.New(db, rdb, store.Options{CacheReads: true})
	t.Cleanup(func() { _ = st.Close() })

	srv := NewServer(cfg, st, opts)
	t.Cleanup(func() { _ = srv.hub.Shutdown(context.Background()) })
	return &testEnv{server: srv, app: srv.App(), store: st, redis: mr}
}

type response struct {
	Status  int
	Body    []byte
	Cookies []*http.Cookie
}

func (r response) decode(t *testing.T, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Body, dst), string(r.Body))
}

func (r response) object(t *testing.T) map[string]any {
	t.Helper()
	var out map[string]any
	r.decode(t, &out)
	return out
}

// do sends a request with an optional JSON body and bearer token.
func (e *testEnv) do(t *testing.T, method, path string, body any, token string) response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return response{Status: resp.StatusCode, Body: raw, Cookies: resp.Cookies()}
}

type account struct {
	ID       uint
	Username string
	Token    string
}

// register creates an account through the API and returns its session.
func (e *testEnv) register(t *testing.T, name, email string) account {
	t.Helper()
	res := e.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name": name, "email": email, "password": "password123",
	}, "")
	require.Equal(t, http.StatusCreated, res.Status, string(res.Body))

	var out struct {
		Token string `json:"token"`
		User  struct {
			ID       uint   `json:"id"`
			Username string `json:"username"`
		} `json:"user"`
	}
	res.decode(t, &out)
	return account{ID: out.User.ID, Username: out.User.Username, Token: out.Token}
}

// publish creates a post and returns its id and slug.
func (e *testEnv) publish(t *testing.T, author account, title, visibility string) (uint, string) {
	t.Helper()
	res := e.do(t, http.MethodPost, "/api/posts", map[string]string{
		"title": title, "content": longContent, "topic": "technology", "visibility": visibility,
	}, author.Token)
	require.Equal(t, http.StatusCreated, res.Status, string(res.Body))
	var post struct {
		ID   uint   `json:"id"`
		Slug string `json:"slug"`
	}
	res.decode(t, &post)
	return post.ID, post.Slug
}
