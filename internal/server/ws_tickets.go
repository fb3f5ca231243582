package server

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/observability"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ticketStore issues short-lived single-use websocket tickets, so the
// session token never travels in a websocket URL. Tickets live in Redis
// when available and in process memory otherwise.
type ticketStore struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	local map[string]localTicket
}

type localTicket struct {
	userID    uint
	expiresAt time.Time
}

func newTicketStore(rdb *redis.Client) *ticketStore {
	return &ticketStore{
		rdb:   rdb,
		ttl:   cache.WSTicketTTL,
		now:   time.Now,
		local: make(map[string]localTicket),
	}
}

func (t *ticketStore) Issue(ctx context.Context, userID uint) (string, error) {
	ticket := uuid.NewString()
	if t.rdb != nil {
		err := t.rdb.Set(ctx, cache.WSTicketKey(ticket), strconv.FormatUint(uint64(userID), 10), t.ttl).Err()
		return ticket, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	for k, v := range t.local {
		if now.After(v.expiresAt) {
			delete(t.local, k)
		}
	}
	t.local[ticket] = localTicket{userID: userID, expiresAt: now.Add(t.ttl)}
	return ticket, nil
}

// Redeem consumes ticket and returns its user. A ticket works once.
func (t *ticketStore) Redeem(ctx context.Context, ticket string) (uint, bool) {
	if ticket == "" {
		return 0, false
	}
	if t.rdb != nil {
		raw, err := t.rdb.GetDel(ctx, cache.WSTicketKey(ticket)).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				observability.RedisErrorRate.WithLabelValues("ws_ticket").Inc()
			}
			return 0, false
		}
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || id == 0 {
			return 0, false
		}
		return uint(id), true
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.local[ticket]
	delete(t.local, ticket)
	if !ok || t.now().After(entry.expiresAt) {
		return 0, false
	}
	return entry.userID, true
}
