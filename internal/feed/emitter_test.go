package feed_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"songforge/internal/feed"
	"songforge/internal/sync"
)

func TestEmitReachesOwnerSubscribers(t *testing.T) {
	emitter := feed.NewEmitter()

	events, unsubscribe, err := emitter.Subscribe(context.Background(), "user-1", "orders:user-1:a")
	require.NoError(t, err)
	defer unsubscribe()

	emitter.Emit("user-1", sync.Event{Kind: "created", OrderID: "o1"})

	select {
	case event := <-events:
		assert.Equal(t, "created", event.Kind)
		assert.Equal(t, "o1", event.OrderID)
	case <-time.After(time.Second):
		t.Fatal("expected an event")
	}
}

func TestEmitDoesNotCrossOwners(t *testing.T) {
	emitter := feed.NewEmitter()

	events, unsubscribe, err := emitter.Subscribe(context.Background(), "user-1", "orders:user-1:a")
	require.NoError(t, err)
	defer unsubscribe()

	emitter.Emit("user-2", sync.Event{Kind: "created", OrderID: "o1"})

	select {
	case <-events:
		t.Fatal("user-1 must not see user-2's event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	emitter := feed.NewEmitter()

	events, unsubscribe, err := emitter.Subscribe(context.Background(), "user-1", "orders:user-1:a")
	require.NoError(t, err)

	unsubscribe()

	_, open := <-events
	assert.False(t, open, "channel must be closed after unsubscribe")
	assert.Equal(t, 0, emitter.ClientCount("user-1"))
}

func TestContextCancelRemovesSubscriber(t *testing.T) {
	emitter := feed.NewEmitter()

	ctx, cancel := context.WithCancel(context.Background())
	_, _, err := emitter.Subscribe(ctx, "user-1", "orders:user-1:a")
	require.NoError(t, err)
	require.Equal(t, 1, emitter.ClientCount("user-1"))

	cancel()

	assert.Eventually(t, func() bool {
		return emitter.ClientCount("user-1") == 0
	}, time.Second, 10*time.Millisecond)
}

func TestEmitSurvivesConcurrentUnsubscribe(t *testing.T) {
	emitter := feed.NewEmitter()

	// Subscribers churn while a broadcast storm is in flight. A send on a
	// channel closed by unsubscribe would panic the emitting goroutine.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			_, unsubscribe, _ := emitter.Subscribe(context.Background(), "user-1", "orders:user-1:a")
			unsubscribe()
		}
	}()

	for {
		select {
		case <-done:
			emitter.Emit("user-1", sync.Event{Kind: "updated", OrderID: "o1"})
			assert.Equal(t, 0, emitter.ClientCount("user-1"))
			return
		default:
			emitter.Emit("user-1", sync.Event{Kind: "updated", OrderID: "o1"})
		}
	}
}

func TestDistinctChannelNamesDoNotCollide(t *testing.T) {
	emitter := feed.NewEmitter()

	// Simulates a fast reconnect: the stale subscription and its
	// replacement coexist briefly under different names.
	_, unsubStale, err := emitter.Subscribe(context.Background(), "user-1", "orders:user-1:stale")
	require.NoError(t, err)
	fresh, unsubFresh, err := emitter.Subscribe(context.Background(), "user-1", "orders:user-1:fresh")
	require.NoError(t, err)
	defer unsubFresh()

	unsubStale()

	emitter.Emit("user-1", sync.Event{Kind: "updated", OrderID: "o1"})

	select {
	case event := <-fresh:
		assert.Equal(t, "o1", event.OrderID)
	case <-time.After(time.Second):
		t.Fatal("fresh subscriber must still receive events")
	}
}
