package notifications

import (
	"context"
	"fmt"
	"runtime/debug"
	"strconv"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"github.com/redis/go-redis/v9"
)

const userChannelPrefix = "notifications:user:"

// UserChannel is the Redis channel carrying events for one user.
func UserChannel(userID uint) string {
	return userChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}

// Notifier publishes user events. With Redis every instance's hub receives
// them through StartWiring; without Redis they go straight to the local hub.
type Notifier struct {
	rdb *redis.Client
	hub *Hub
}

// NewNotifier returns a Notifier. Either argument may be nil.
func NewNotifier(rdb *redis.Client, hub *Hub) *Notifier {
	return &Notifier{rdb: rdb, hub: hub}
}

// PublishUser sends payload to every connection of userID.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload []byte) error {
	if n.rdb == nil {
		if n.hub != nil {
			n.hub.Broadcast(userID, payload)
		}
		return nil
	}
	channel := UserChannel(userID)
	ctx, span := observability.StartRedisSpan(ctx, "publish", channel)
	err := n.rdb.Publish(ctx, channel, payload).Err()
	observability.EndSpan(span, err)
	if err != nil {
		observability.RedisErrorRate.WithLabelValues("publish").Inc()
		return fmt.Errorf("publish to user %d: %w", userID, err)
	}
	return nil
}

// NotifyNewMessage pushes msg to recipientID. Offline recipients are skipped;
// they see the message through the unread count on their next request.
func (n *Notifier) NotifyNewMessage(ctx context.Context, recipientID uint, msg *models.Message) error {
	if n.hub != nil && !n.hub.IsOnline(ctx, recipientID) {
		observability.WebSocketEventsTotal.WithLabelValues("skipped_offline").Inc()
		return nil
	}
	frame, err := encodeEvent(EventNewMessage, NewMessagePayload{ConversationID: msg.ConversationID, Message: msg})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	observability.WebSocketEventsTotal.WithLabelValues(EventNewMessage).Inc()
	return n.PublishUser(ctx, recipientID, frame)
}

// Subscribe listens on all user channels until ctx is done. It returns once
// the subscription is confirmed so no publish after it is missed.
func (n *Notifier) Subscribe(ctx context.Context, onMessage func(channel, payload string)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe to user channels: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							observability.Logger.Error("panic in notification subscriber", "panic", r, "stack", string(debug.Stack()))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()
	return nil
}
