package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen falls back to the in-process limiter if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

// localSweepInterval bounds how often idle in-process buckets are scanned.
const localSweepInterval = time.Minute

// RateLimiter counts requests per scope and client in Redis with a fixed
// window. Without Redis it uses an in-process token bucket per key.
type RateLimiter struct {
	rdb      *redis.Client
	policy   FailPolicy
	disabled bool

	mu        sync.Mutex
	local     map[string]*localBucket
	lastSweep time.Time
	now       func() time.Time
}

// localBucket is an in-process token bucket. A bucket idle for longer than
// its window is full again, so dropping it loses nothing.
type localBucket struct {
	lim      *rate.Limiter
	window   time.Duration
	lastSeen time.Time
}

// NewRateLimiter returns a limiter. rdb may be nil. A disabled limiter allows everything.
func NewRateLimiter(rdb *redis.Client, policy FailPolicy, disabled bool) *RateLimiter {
	return &RateLimiter{
		rdb:      rdb,
		policy:   policy,
		disabled: disabled,
		local:    make(map[string]*localBucket),
		now:      time.Now,
	}
}

// Allow reports whether identity may make another request in scope.
func (l *RateLimiter) Allow(ctx context.Context, scope, identity string, limit int, window time.Duration) (bool, error) {
	if l.disabled {
		return true, nil
	}
	key := cache.RateLimitKey(scope, identity)
	if l.rdb == nil {
		return l.allowLocal(key, limit, window), nil
	}

	cnt, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		if err := l.rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}
	return cnt <= int64(limit), nil
}

func (l *RateLimiter) allowLocal(key string, limit int, window time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.local[key]
	if !ok {
		l.sweepLocal(now)
		b = &localBucket{
			lim:    rate.NewLimiter(rate.Every(window/time.Duration(max(limit, 1))), limit),
			window: window,
		}
		l.local[key] = b
	}
	b.lastSeen = now
	return b.lim.AllowN(now, 1)
}

// sweepLocal drops buckets idle for longer than their window. Callers hold l.mu.
func (l *RateLimiter) sweepLocal(now time.Time) {
	if now.Sub(l.lastSweep) < localSweepInterval {
		return
	}
	l.lastSweep = now
	for k, b := range l.local {
		if now.Sub(b.lastSeen) > b.window {
			delete(l.local, k)
		}
	}
}

// Handler returns a Fiber middleware enforcing limit requests per window for scope.
// It keys by authenticated user when known, otherwise by remote IP.
func (l *RateLimiter) Handler(scope string, limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity := "ip:" + c.IP()
		if uid, ok := UserID(c); ok {
			identity = fmt.Sprintf("user:%d", uid)
		}

		allowed, err := l.Allow(c.UserContext(), scope, identity, limit, window)
		if err != nil {
			if l.policy == FailClosed {
				observability.Logger.WarnContext(c.UserContext(), "rate limit store unavailable, failing closed",
					slog.String("scope", scope), slog.String("error", err.Error()))
				return models.RespondWithError(c, fiber.StatusServiceUnavailable,
					models.NewInternalError(err))
			}
			allowed = l.allowLocal(cache.RateLimitKey(scope, identity), limit, window)
		}

		if !allowed {
			observability.RateLimitRejections.WithLabelValues(scope).Inc()
			c.Set(fiber.HeaderRetryAfter, fmt.Sprintf("%d", int(window.Seconds())))
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests. Please try again later.",
				Code:  "RATE_LIMITED",
			})
		}
		return c.Next()
	}
}
