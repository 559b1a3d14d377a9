package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MariferVL/eventhub/internal/model"
)

// DefaultChannel is the pub/sub channel slot changes are published to.
const DefaultChannel = "eventhub.slots"

// RedisNotifier publishes slot changes to a Redis pub/sub channel.
// Subscribers (websocket gateways, dashboards) are free to come and go;
// messages published with nobody listening are simply dropped, which is
// the delivery guarantee this sink promises anyway.
type RedisNotifier struct {
	rdb     *redis.Client
	channel string
}

// NewRedisNotifier constructs a RedisNotifier. An empty channel selects
// DefaultChannel.
func NewRedisNotifier(rdb *redis.Client, channel string) *RedisNotifier {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisNotifier{rdb: rdb, channel: channel}
}

// SlotsChanged publishes the change as a JSON payload.
func (n *RedisNotifier) SlotsChanged(ctx context.Context, eventID string, remaining int) error {
	payload, err := json.Marshal(model.SlotsChange{EventID: eventID, Remaining: remaining})
	if err != nil {
		return fmt.Errorf("marshal slots change: %w", err)
	}
	if err := n.rdb.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish slots change: %w", err)
	}
	return nil
}
