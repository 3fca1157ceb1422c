package broadcast_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemaflow/schemaflow/internal/broadcast"
	"github.com/schemaflow/schemaflow/testhelper"
)

func newTestBroadcaster(t *testing.T) *broadcast.RedisBroadcaster {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return broadcast.NewRedisBroadcaster(client, testhelper.NewLogger())
}

func TestPublishReachesSubscriber(t *testing.T) {
	b := newTestBroadcaster(t)
	ctx := context.Background()

	events, cancel, err := b.Subscribe(ctx, "u1")
	require.NoError(t, err)
	defer cancel()

	sent := broadcast.Event{Status: "validating", Message: "Validating schemas", Timestamp: time.Now().UTC()}
	require.NoError(t, b.Publish(ctx, "u1", sent))

	select {
	case got := <-events:
		assert.Equal(t, sent.Status, got.Status)
		assert.Equal(t, sent.Message, got.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for progress event")
	}
}

func TestPublishIsScopedToUserTopic(t *testing.T) {
	b := newTestBroadcaster(t)
	ctx := context.Background()

	events, cancel, err := b.Subscribe(ctx, "u1")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, b.Publish(ctx, "u2", broadcast.Event{Status: "migrating"}))

	select {
	case event := <-events:
		t.Fatalf("received event for another user's topic: %+v", event)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestEventsPreservePublishOrder(t *testing.T) {
	b := newTestBroadcaster(t)
	ctx := context.Background()

	events, cancel, err := b.Subscribe(ctx, "u1")
	require.NoError(t, err)
	defer cancel()

	statuses := []string{"validating", "validated", "migrating"}
	for _, s := range statuses {
		require.NoError(t, b.Publish(ctx, "u1", broadcast.Event{Status: s}))
	}

	for _, want := range statuses {
		select {
		case got := <-events:
			assert.Equal(t, want, got.Status)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %q event", want)
		}
	}
}

func TestSubscribeCancelClosesChannel(t *testing.T) {
	b := newTestBroadcaster(t)

	events, cancel, err := b.Subscribe(context.Background(), "u1")
	require.NoError(t, err)

	cancel()

	select {
	case _, open := <-events:
		assert.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}
