// Package notify relays hunt updates between server instances over Redis
// pub/sub.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/playperu/qrhunt/internal/hunt"
)

const channelPrefix = "hunt:"

// Channel is the Redis channel carrying updates for one event.
func Channel(eventID string) string {
	return channelPrefix + eventID
}

// RedisRelay publishes engine updates to Redis and, through Run, feeds
// updates from every instance into a local sink.
type RedisRelay struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedisRelay(client *redis.Client, logger *slog.Logger) *RedisRelay {
	return &RedisRelay{client: client, logger: logger}
}

// Publish implements hunt.Notifier. Failures are logged and dropped.
func (r *RedisRelay) Publish(ctx context.Context, u hunt.Update) {
	payload, err := json.Marshal(u)
	if err != nil {
		r.logger.Error("encoding hunt update", "type", u.Type, "error", err)
		return
	}
	if err := r.client.Publish(ctx, Channel(u.EventID), payload).Err(); err != nil {
		r.logger.Warn("publishing hunt update", "type", u.Type, "event_id", u.EventID, "error", err)
	}
}

// Run subscribes to all hunt channels and forwards each update to sink
// until ctx is cancelled.
func (r *RedisRelay) Run(ctx context.Context, sink hunt.Notifier) error {
	sub := r.client.PSubscribe(ctx, channelPrefix+"*")
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscribing to hunt updates: %w", err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := deliver(ctx, msg.Channel, msg.Payload, sink); err != nil {
				r.logger.Warn("dropping hunt update", "channel", msg.Channel, "error", err)
			}
		}
	}
}

func deliver(ctx context.Context, channel, payload string, sink hunt.Notifier) error {
	eventID, ok := strings.CutPrefix(channel, channelPrefix)
	if !ok {
		return fmt.Errorf("unexpected channel %q", channel)
	}

	var u hunt.Update
	if err := json.Unmarshal([]byte(payload), &u); err != nil {
		return fmt.Errorf("decoding update: %w", err)
	}
	if u.EventID == "" {
		u.EventID = eventID
	}
	sink.Publish(ctx, u)
	return nil
}
