// Package notifications delivers realtime events to signed-in users over websockets.
package notifications

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"inkwell/internal/observability"

	"github.com/gofiber/websocket/v2"
	"github.com/redis/go-redis/v9"
)

const (
	maxConnsPerUser = 12
	maxTotalConns   = 10000
)

var (
	ErrServerFull = errors.New("server connection limit reached")
	ErrUserFull   = errors.New("user connection limit reached")
)

// Hub maps user IDs to their open websocket clients.
type Hub struct {
	mu       sync.RWMutex
	conns    map[uint]map[*Client]struct{}
	total    int
	presence *Presence
}

// NewHub returns a Hub. rdb may be nil, in which case presence is process local.
func NewHub(rdb *redis.Client) *Hub {
	return &Hub{
		conns:    make(map[uint]map[*Client]struct{}),
		presence: NewPresence(rdb),
	}
}

// Presence exposes the hub's presence tracker.
func (h *Hub) Presence() *Presence { return h.presence }

// Register adds a connection for userID. conn may be nil in tests.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	if h.total >= maxTotalConns {
		h.mu.Unlock()
		return nil, ErrServerFull
	}
	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= maxConnsPerUser {
		h.mu.Unlock()
		return nil, ErrUserFull
	}

	client := newClient(h, conn, userID)
	m[client] = struct{}{}
	h.total++
	h.mu.Unlock()

	observability.WebSocketConnectionsTotal.Inc()
	h.presence.Register(context.Background(), userID)
	return client, nil
}

// Unregister removes client and closes its send queue. Calling it twice is a no-op.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	removed := false
	if m, ok := h.conns[client.UserID]; ok {
		if _, exists := m[client]; exists {
			delete(m, client)
			close(client.Send)
			h.total--
			removed = true
		}
		if len(m) == 0 {
			delete(h.conns, client.UserID)
		}
	}
	h.mu.Unlock()

	if removed {
		observability.WebSocketConnectionsTotal.Dec()
		h.presence.Unregister(client.UserID)
	}
}

func (h *Hub) touch(userID uint) {
	h.presence.Touch(context.Background(), userID)
}

// Broadcast queues payload on every connection of userID.
func (h *Hub) Broadcast(userID uint, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns[userID] {
		c.TrySend(payload)
	}
}

// IsOnline reports whether userID has a connection on any instance.
func (h *Hub) IsOnline(ctx context.Context, userID uint) bool {
	return h.presence.IsOnline(ctx, userID)
}

// ConnectionCount is the number of open connections on this instance.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.total
}

// StartWiring subscribes to user channels through n and forwards payloads to
// local connections. It is a no-op without Redis.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.Subscribe(ctx, func(channel, payload string) {
		userID, ok := parseUserChannel(channel)
		if !ok {
			observability.Logger.Warn("invalid notification channel", "channel", channel)
			return
		}
		h.Broadcast(userID, []byte(payload))
	})
}

func parseUserChannel(channel string) (uint, bool) {
	raw, ok := strings.CutPrefix(channel, userChannelPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// Shutdown closes every send queue, which makes each WritePump send a close
// frame and drop its connection.
func (h *Hub) Shutdown(_ context.Context) error {
	h.presence.Stop()

	h.mu.Lock()
	for _, m := range h.conns {
		for c := range m {
			close(c.Send)
			observability.WebSocketConnectionsTotal.Dec()
		}
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.total = 0
	h.mu.Unlock()
	return nil
}
