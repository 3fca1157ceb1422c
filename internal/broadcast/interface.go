package broadcast

import (
	"context"
	"time"
)

// Event is a transient migration progress message. Events are never
// persisted; late subscribers reconcile through the status endpoint.
type Event struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher fans lifecycle events out to the subscribers of a user's
// topic. Delivery is fire-and-forget.
type Publisher interface {
	Publish(ctx context.Context, userID string, event Event) error
}

// Subscriber provides a per-user event feed for transport handlers
type Subscriber interface {
	Subscribe(ctx context.Context, userID string) (<-chan Event, func(), error)
}

// Logger defines the logging interface used by the broadcast package
type Logger interface {
	LogWarn(msg string, fields map[string]interface{})
	LogError(err error, msg string) error
}
