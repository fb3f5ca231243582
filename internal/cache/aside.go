package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"inkwell/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Cache is a JSON cache-aside layer over Redis. A nil *Cache, or one
// without a client, always calls through to the loader.
type Cache struct {
	client *redis.Client
	name   string
}

// New returns a Cache labelled name in metrics. client may be nil.
func New(client *redis.Client, name string) *Cache {
	return &Cache{client: client, name: name}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil
}

// Aside returns the cached value for key, or calls load and caches its result for ttl.
// Redis failures are logged and never fail the read.
func Aside[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if !c.enabled() {
		return load(ctx)
	}

	spanCtx, span := observability.StartRedisSpan(ctx, "get", key)
	raw, err := c.client.Get(spanCtx, key).Bytes()
	observability.EndSpan(span, ignoreNil(err))
	switch {
	case err == nil:
		var v T
		if jsonErr := json.Unmarshal(raw, &v); jsonErr == nil {
			observability.CacheRequests.WithLabelValues(c.name, "hit").Inc()
			return v, nil
		}
		observability.CacheRequests.WithLabelValues(c.name, "error").Inc()
	case errors.Is(err, redis.Nil):
		observability.CacheRequests.WithLabelValues(c.name, "miss").Inc()
	default:
		observability.CacheRequests.WithLabelValues(c.name, "error").Inc()
		observability.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	if payload, jsonErr := json.Marshal(v); jsonErr == nil {
		if setErr := c.client.Set(ctx, key, payload, ttl).Err(); setErr != nil {
			observability.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", setErr.Error()))
		}
	}
	return v, nil
}

func ignoreNil(err error) error {
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

// Invalidate deletes keys, ignoring errors.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if !c.enabled() || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		observability.Logger.WarnContext(ctx, "cache invalidation failed", slog.Any("keys", keys), slog.String("error", err.Error()))
	}
}
