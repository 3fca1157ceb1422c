package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBroadcaster implements Publisher and Subscriber on Redis
// pub/sub. One channel per user id; events cross process boundaries so
// the API process can relay events produced by workers.
type RedisBroadcaster struct {
	client *redis.Client
	logger Logger
}

// NewRedisBroadcaster creates a new Redis-backed broadcaster
func NewRedisBroadcaster(client *redis.Client, logger Logger) *RedisBroadcaster {
	return &RedisBroadcaster{
		client: client,
		logger: logger,
	}
}

func channelFor(userID string) string {
	return fmt.Sprintf("progress:%s", userID)
}

// Publish delivers the event to all current subscribers of the user's
// topic. There is no replay for subscribers connecting later.
func (b *RedisBroadcaster) Publish(ctx context.Context, userID string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode progress event: %v", err)
	}
	return b.client.Publish(ctx, channelFor(userID), payload).Err()
}

// Subscribe joins the user's topic and returns a channel of decoded
// events plus a cancel function that tears the subscription down.
func (b *RedisBroadcaster) Subscribe(ctx context.Context, userID string) (<-chan Event, func(), error) {
	pubsub := b.client.Subscribe(ctx, channelFor(userID))

	// Force the subscription to be established before returning so
	// callers do not miss events published immediately after.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe to progress channel: %v", err)
	}

	events := make(chan Event, 16)
	go func() {
		defer close(events)
		for msg := range pubsub.Channel() {
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.LogWarn("Dropping malformed progress event", map[string]interface{}{
					"userId": userID,
					"error":  err.Error(),
				})
				continue
			}
			select {
			case events <- event:
			default:
				// Slow subscriber; progress events are fire-and-forget.
			}
		}
	}()

	cancel := func() { pubsub.Close() }
	return events, cancel, nil
}
