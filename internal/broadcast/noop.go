package broadcast

import "context"

// NoopPublisher discards all events. Used where progress broadcasting
// is not wired, such as isolated tests.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, userID string, event Event) error {
	return nil
}
