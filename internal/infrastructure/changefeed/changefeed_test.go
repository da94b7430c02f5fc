package changefeed

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvEvent(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "events channel closed unexpectedly")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestMemoryBroker_DeliversToAllSubscribers(t *testing.T) {
	b := NewMemoryBroker()
	defer b.Close()

	a, err := b.Subscribe()
	require.NoError(t, err)
	c, err := b.Subscribe()
	require.NoError(t, err)
	assert.Equal(t, 2, b.SubscriberCount())

	want := Event{Action: ActionInsert, PostID: uuid.New()}
	require.NoError(t, b.Publish(context.Background(), want))

	assert.Equal(t, want, recvEvent(t, a))
	assert.Equal(t, want, recvEvent(t, c))
}

func TestSubscription_CloseStopsDelivery(t *testing.T) {
	b := NewMemoryBroker()
	defer b.Close()

	a, err := b.Subscribe()
	require.NoError(t, err)
	c, err := b.Subscribe()
	require.NoError(t, err)

	a.Close()
	assert.Equal(t, 1, b.SubscriberCount())

	// Channel of the closed subscription is closed.
	_, ok := <-a.Events()
	assert.False(t, ok)

	want := Event{Action: ActionDelete, PostID: uuid.New()}
	require.NoError(t, b.Publish(context.Background(), want))
	assert.Equal(t, want, recvEvent(t, c))
}

func TestSubscription_CloseIsIdempotent(t *testing.T) {
	b := NewMemoryBroker()
	defer b.Close()

	sub, err := b.Subscribe()
	require.NoError(t, err)

	sub.Close()
	assert.NotPanics(t, func() { sub.Close() })
	assert.Equal(t, 0, b.SubscriberCount())
}

func TestHub_SlowSubscriberDoesNotBlockPublish(t *testing.T) {
	b := NewMemoryBroker()
	defer b.Close()

	sub, err := b.Subscribe()
	require.NoError(t, err)

	// Overfill the buffer; Publish must never block even though nobody reads.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 64; i++ {
			_ = b.Publish(context.Background(), Event{Action: ActionInsert, PostID: uuid.New()})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	sub.Close()
}

func TestBroker_CloseClosesSubscribers(t *testing.T) {
	b := NewMemoryBroker()

	sub, err := b.Subscribe()
	require.NoError(t, err)

	require.NoError(t, b.Close())

	_, ok := <-sub.Events()
	assert.False(t, ok)
	assert.Equal(t, 0, b.SubscriberCount())
}
