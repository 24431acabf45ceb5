package changefeed_test

import (
	"context"
	"testing"
	"time"

	"courierdesk/internal/adapters/out/changefeed"
	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

func receive(t *testing.T, ch <-chan ports.Change) ports.Change {
	t.Helper()
	select {
	case c, ok := <-ch:
		require.True(t, ok, "channel closed")
		return c
	case <-time.After(waitFor):
		require.FailNow(t, "no change received")
		return ports.Change{}
	}
}

func requireClosed(t *testing.T, ch <-chan ports.Change) {
	t.Helper()
	deadline := time.After(waitFor)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			require.FailNow(t, "channel not closed")
		}
	}
}

func TestHub_BroadcastsToEverySubscriber(t *testing.T) {
	hub := changefeed.NewHub()
	defer hub.Close()

	a, err := hub.Subscribe(t.Context())
	require.NoError(t, err)
	b, err := hub.Subscribe(t.Context())
	require.NoError(t, err)

	change := ports.Change{Kind: ports.TaskChanged, TaskID: kernel.NewUUID()}
	require.NoError(t, hub.Publish(t.Context(), change))

	assert.Equal(t, change, receive(t, a))
	assert.Equal(t, change, receive(t, b))
}

func TestHub_SlowSubscriberDoesNotBlockPublisher(t *testing.T) {
	hub := changefeed.NewHub()
	defer hub.Close()

	slow, err := hub.Subscribe(t.Context())
	require.NoError(t, err)

	id := kernel.NewUUID()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 1000 {
			_ = hub.Publish(context.Background(), ports.Change{Kind: ports.MessageAppended, TaskID: id})
		}
	}()

	select {
	case <-done:
	case <-time.After(waitFor):
		require.FailNow(t, "publisher blocked on a subscriber that never reads")
	}

	for range 1000 {
		assert.Equal(t, id, receive(t, slow).TaskID)
	}
}

func TestHub_PreservesOrderPerSubscriber(t *testing.T) {
	hub := changefeed.NewHub()
	defer hub.Close()

	ch, err := hub.Subscribe(t.Context())
	require.NoError(t, err)

	ids := make([]kernel.UUID, 50)
	for i := range ids {
		ids[i] = kernel.NewUUID()
		require.NoError(t, hub.Publish(t.Context(), ports.Change{Kind: ports.TaskChanged, TaskID: ids[i]}))
	}

	for _, want := range ids {
		assert.Equal(t, want, receive(t, ch).TaskID)
	}
}

func TestHub_CancelledSubscriptionIsRemoved(t *testing.T) {
	hub := changefeed.NewHub()
	defer hub.Close()

	ctx, cancel := context.WithCancel(t.Context())
	ch, err := hub.Subscribe(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, hub.Subscribers())

	cancel()
	requireClosed(t, ch)
	assert.Eventually(t, func() bool { return hub.Subscribers() == 0 }, waitFor, 10*time.Millisecond)
}

func TestHub_CloseEndsSubscriptions(t *testing.T) {
	hub := changefeed.NewHub()

	ch, err := hub.Subscribe(t.Context())
	require.NoError(t, err)

	hub.Close()
	requireClosed(t, ch)

	_, err = hub.Subscribe(t.Context())
	require.ErrorIs(t, err, changefeed.ErrFeedClosed)
	require.NoError(t, hub.Publish(t.Context(), ports.Change{Kind: ports.TaskChanged, TaskID: kernel.NewUUID()}))
}

func TestOutbox_FlushAndDiscard(t *testing.T) {
	hub := changefeed.NewHub()
	defer hub.Close()
	ch, err := hub.Subscribe(t.Context())
	require.NoError(t, err)

	var outbox changefeed.Outbox
	discarded := ports.Change{Kind: ports.TaskChanged, TaskID: kernel.NewUUID()}
	outbox.Record(discarded)
	outbox.Discard()
	assert.Empty(t, outbox.Pending())

	kept := ports.Change{Kind: ports.TaskChanged, TaskID: kernel.NewUUID(), Deleted: true}
	outbox.Record(kept)
	require.Len(t, outbox.Pending(), 1)
	require.NoError(t, outbox.Flush(t.Context(), hub))
	assert.Empty(t, outbox.Pending())

	assert.Equal(t, kept, receive(t, ch))
	require.NoError(t, outbox.Flush(t.Context(), nil))
}
