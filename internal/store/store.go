// Package store wires the database, Redis and the repositories into one value
// that is built at process start and handed to services and handlers.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/observability"
	"inkwell/internal/repository"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control store initialization behavior.
type Options struct {
	// CacheReads enables cache-aside reads for posts and profiles when Redis is available.
	CacheReads bool
}

// Store owns the connections and one repository per collection.
type Store struct {
	DB    *gorm.DB
	Redis *redis.Client
	Cache *cache.Cache

	Users         repository.UserRepository
	Posts         repository.PostRepository
	Follows       repository.FollowRepository
	Conversations repository.ConversationRepository
}

// Open connects to the database and Redis, applies the schema and builds the repositories.
// Redis is optional: a nil client disables caching, pub/sub and token revocation.
func Open(ctx context.Context, cfg *config.Config, opts Options) (*Store, error) {
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	return New(db, cache.Connect(ctx, cfg.RedisURL), opts), nil
}

// New builds a Store over existing connections. rdb may be nil.
func New(db *gorm.DB, rdb *redis.Client, opts Options) *Store {
	var c *cache.Cache
	if opts.CacheReads && rdb != nil {
		c = cache.New(rdb, "read_through")
	}

	return &Store{
		DB:            db,
		Redis:         rdb,
		Cache:         c,
		Users:         repository.NewUserRepository(db, c),
		Posts:         repository.NewPostRepository(db, c),
		Follows:       repository.NewFollowRepository(db),
		Conversations: repository.NewConversationRepository(db),
	}
}

// Ping checks the database and, when configured, Redis.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if s.Redis != nil {
		if err := s.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// Reset empties every table and the Redis database. Intended for tests.
func (s *Store) Reset(ctx context.Context) error {
	if err := database.Truncate(ctx, s.DB); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}
	if s.Redis != nil {
		if err := s.Redis.FlushDB(ctx).Err(); err != nil {
			return fmt.Errorf("flush redis: %w", err)
		}
	}
	observability.Logger.InfoContext(ctx, "store reset")
	return nil
}

// Close releases the database and Redis connections.
func (s *Store) Close() error {
	var errs []error
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if err := database.Close(s.DB); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		observability.Logger.Error("store close failed", slog.String("error", err.Error()))
		return err
	}
	return nil
}
