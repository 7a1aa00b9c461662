package live

import (
	"context"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "notify:user:"

// ChannelForUser names the redis pub/sub channel carrying a user's live
// notifications. The worker publishes here; the API's bridge subscribes.
func ChannelForUser(userID string) string {
	return channelPrefix + userID
}

// Bridge relays notification payloads from redis pub/sub into the Hub.
// A single goroutine consumes the subscription and delivers sequentially,
// which keeps per-session writes single-writer and preserves per-recipient
// ordering of accepted events.
type Bridge struct {
	client *redis.Client
	hub    *Hub
	logger *slog.Logger
}

// NewBridge constructs a Bridge.
func NewBridge(client *redis.Client, hub *Hub, logger *slog.Logger) *Bridge {
	return &Bridge{client: client, hub: hub, logger: logger}
}

// Run subscribes to all per-user notification channels and forwards
// messages until the context is canceled.
func (b *Bridge) Run(ctx context.Context) error {
	sub := b.client.PSubscribe(ctx, channelPrefix+"*")
	defer func() {
		if err := sub.Close(); err != nil {
			b.logger.Warn("close pubsub", slog.Any("error", err))
		}
	}()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			userID := strings.TrimPrefix(msg.Channel, channelPrefix)
			if userID == "" {
				continue
			}
			b.hub.Deliver(userID, msg.Payload)
		}
	}
}
