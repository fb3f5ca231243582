package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserChannel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "notifications:user:1", UserChannel(1))
	assert.Equal(t, "notifications:user:100", UserChannel(100))
}

func TestNotifier_LocalDeliveryWithoutRedis(t *testing.T) {
	hub := NewHub(nil)
	defer func() { _ = hub.Shutdown(context.Background()) }()
	n := NewNotifier(nil, hub)

	c, err := hub.Register(2, nil)
	require.NoError(t, err)

	msg := &models.Message{ID: 5, ConversationID: 9, SenderID: 1, Content: "hi"}
	require.NoError(t, n.NotifyNewMessage(context.Background(), 2, msg))

	require.Len(t, c.Send, 1)
	var ev struct {
		Type    string            `json:"type"`
		Payload NewMessagePayload `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(<-c.Send, &ev))
	assert.Equal(t, EventNewMessage, ev.Type)
	assert.Equal(t, uint(9), ev.Payload.ConversationID)
	assert.Equal(t, "hi", ev.Payload.Message.Content)
}

func TestNotifier_SkipsOfflineRecipients(t *testing.T) {
	_, rdb := newTestRedis(t)
	hub := NewHub(rdb)
	defer func() { _ = hub.Shutdown(context.Background()) }()
	n := NewNotifier(rdb, hub)

	sub := rdb.Subscribe(context.Background(), UserChannel(3))
	defer func() { _ = sub.Close() }()
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)

	require.NoError(t, n.NotifyNewMessage(context.Background(), 3, &models.Message{ConversationID: 1}))

	select {
	case <-sub.Channel():
		t.Fatal("offline recipient should not be published to")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNotifier_FanOutAcrossHubs(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sender := NewHub(rdb)
	defer func() { _ = sender.Shutdown(ctx) }()
	receiver := NewHub(rdb)
	defer func() { _ = receiver.Shutdown(ctx) }()

	require.NoError(t, receiver.StartWiring(ctx, NewNotifier(rdb, receiver)))
	c, err := receiver.Register(7, nil)
	require.NoError(t, err)

	n := NewNotifier(rdb, sender)
	require.NoError(t, n.NotifyNewMessage(ctx, 7, &models.Message{ID: 1, ConversationID: 3, Content: "across"}))

	select {
	case frame := <-c.Send:
		assert.Contains(t, string(frame), `"across"`)
	case <-time.After(testEventuallyTimeout):
		t.Fatal("message not delivered through redis")
	}
}

func TestNotifier_NilRedisSubscribeIsNoop(t *testing.T) {
	n := NewNotifier(nil, nil)
	assert.NoError(t, n.Subscribe(context.Background(), func(string, string) {}))
	assert.NoError(t, n.PublishUser(context.Background(), 1, []byte("x")))
}
