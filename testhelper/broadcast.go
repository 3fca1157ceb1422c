package testhelper

import (
	"context"
	"sync"

	"github.com/schemaflow/schemaflow/internal/broadcast"
)

// PublishedEvent pairs a progress event with the topic it was sent to
type PublishedEvent struct {
	UserID string
	Event  broadcast.Event
}

// RecordingPublisher is a broadcast.Publisher that captures events for
// assertions in tests.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []PublishedEvent
}

// NewRecordingPublisher creates an empty recording publisher
func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

func (p *RecordingPublisher) Publish(ctx context.Context, userID string, event broadcast.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, PublishedEvent{UserID: userID, Event: event})
	return nil
}

// Events returns the captured events in publish order
func (p *RecordingPublisher) Events() []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PublishedEvent(nil), p.events...)
}

// Statuses returns just the status field of each captured event
func (p *RecordingPublisher) Statuses() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	statuses := make([]string, 0, len(p.events))
	for _, e := range p.events {
		statuses = append(statuses, e.Event.Status)
	}
	return statuses
}
