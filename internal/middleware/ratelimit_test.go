package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_Allow(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled allows everything", func(t *testing.T) {
		l := NewRateLimiter(nil, FailOpen, true)
		for range 5 {
			ok, err := l.Allow(ctx, "login", "ip:1", 1, time.Minute)
			require.NoError(t, err)
			assert.True(t, ok)
		}
	})

	t.Run("redis fixed window", func(t *testing.T) {
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })
		l := NewRateLimiter(rdb, FailOpen, false)

		for i := range 3 {
			ok, err := l.Allow(ctx, "login", "ip:1", 3, time.Minute)
			require.NoError(t, err)
			assert.True(t, ok, "request %d", i)
		}
		ok, err := l.Allow(ctx, "login", "ip:1", 3, time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, time.Minute, mr.TTL("rate:login:ip:1"))

		other, err := l.Allow(ctx, "login", "ip:2", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, other)

		mr.FastForward(time.Minute + time.Second)
		ok, err = l.Allow(ctx, "login", "ip:1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("in-process fallback without redis", func(t *testing.T) {
		l := NewRateLimiter(nil, FailOpen, false)
		for range 2 {
			ok, err := l.Allow(ctx, "posts", "user:1", 2, time.Hour)
			require.NoError(t, err)
			assert.True(t, ok)
		}
		ok, err := l.Allow(ctx, "posts", "user:1", 2, time.Hour)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestRateLimiter_EvictsIdleLocalBuckets(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewRateLimiter(nil, FailOpen, false)
	l.now = func() time.Time { return now }

	for _, ip := range []string{"ip:1", "ip:2", "ip:3"} {
		ok, err := l.Allow(ctx, "login", ip, 1, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := l.Allow(ctx, "login", "ip:1", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, l.local, 3)

	now = now.Add(2 * time.Minute)
	ok, err = l.Allow(ctx, "login", "ip:4", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, l.local, 1, "idle buckets are dropped when a new key arrives")

	ok, err = l.Allow(ctx, "login", "ip:1", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRateLimiter_Handler(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	newApp := func(policy FailPolicy) *fiber.App {
		l := NewRateLimiter(rdb, policy, false)
		app := fiber.New()
		app.Get("/limited", l.Handler("test", 1, time.Minute), func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusNoContent)
		})
		return app
	}

	app := newApp(FailOpen)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/limited", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/limited", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))

	mr.Close()

	open := newApp(FailOpen)
	resp, err = open.Test(httptest.NewRequest(http.MethodGet, "/limited", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	closed := newApp(FailClosed)
	resp, err = closed.Test(httptest.NewRequest(http.MethodGet, "/limited", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
