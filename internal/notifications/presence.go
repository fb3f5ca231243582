package notifications

import (
	"context"
	"strconv"
	"sync"
	"time"

	"inkwell/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	presenceKeyPrefix   = "presence:last_seen:"
	defaultPresenceTTL  = 90 * time.Second
	defaultOfflineGrace = 5 * time.Second
)

// Presence tracks which users hold a live websocket. Local connection counts
// are authoritative for this process; Redis last-seen keys let other
// instances see the user too.
type Presence struct {
	rdb   *redis.Client
	ttl   time.Duration
	grace time.Duration

	mu     sync.Mutex
	local  map[uint]int
	timers map[uint]*time.Timer
}

// NewPresence returns a tracker. rdb may be nil.
func NewPresence(rdb *redis.Client) *Presence {
	return &Presence{
		rdb:    rdb,
		ttl:    defaultPresenceTTL,
		grace:  defaultOfflineGrace,
		local:  make(map[uint]int),
		timers: make(map[uint]*time.Timer),
	}
}

// SetOfflineGrace changes how long a user stays online after their last disconnect.
func (p *Presence) SetOfflineGrace(d time.Duration) {
	if d <= 0 {
		return
	}
	p.mu.Lock()
	p.grace = d
	p.mu.Unlock()
}

func (p *Presence) Register(ctx context.Context, userID uint) {
	p.mu.Lock()
	if t, ok := p.timers[userID]; ok {
		t.Stop()
		delete(p.timers, userID)
	}
	p.local[userID]++
	p.mu.Unlock()

	p.Touch(ctx, userID)
}

// Touch refreshes the shared last-seen key.
func (p *Presence) Touch(ctx context.Context, userID uint) {
	if p.rdb == nil {
		return
	}
	now := strconv.FormatInt(time.Now().Unix(), 10)
	if err := p.rdb.SetEx(ctx, p.key(userID), now, p.ttl).Err(); err != nil {
		observability.Logger.WarnContext(ctx, "presence touch failed", "user_id", userID, "error", err.Error())
	}
}

// Unregister drops one connection. The user goes offline once the grace
// period passes without a reconnect.
func (p *Presence) Unregister(userID uint) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := p.local[userID] - 1
	if n > 0 {
		p.local[userID] = n
		return
	}
	delete(p.local, userID)

	if t, ok := p.timers[userID]; ok {
		t.Stop()
	}
	p.timers[userID] = time.AfterFunc(p.grace, func() { p.expire(userID) })
}

func (p *Presence) expire(userID uint) {
	p.mu.Lock()
	delete(p.timers, userID)
	reconnected := p.local[userID] > 0
	p.mu.Unlock()

	if reconnected || p.rdb == nil {
		return
	}
	if err := p.rdb.Del(context.Background(), p.key(userID)).Err(); err != nil {
		observability.Logger.Warn("presence expire failed", "user_id", userID, "error", err.Error())
	}
}

// IsOnline reports a live connection here, a pending grace period, or a
// fresh last-seen key written by any instance.
func (p *Presence) IsOnline(ctx context.Context, userID uint) bool {
	p.mu.Lock()
	_, pending := p.timers[userID]
	local := p.local[userID] > 0
	p.mu.Unlock()
	if local || pending {
		return true
	}
	if p.rdb == nil {
		return false
	}
	n, err := p.rdb.Exists(ctx, p.key(userID)).Result()
	return err == nil && n > 0
}

// Stop cancels pending offline timers.
func (p *Presence) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, t := range p.timers {
		t.Stop()
		delete(p.timers, id)
	}
}

func (p *Presence) key(userID uint) string {
	return presenceKeyPrefix + strconv.FormatUint(uint64(userID), 10)
}
