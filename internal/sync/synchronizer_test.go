package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"songforge/internal/logger"
	"songforge/internal/models"
)

// fakeBackend serves a settable order set and counts calls. Set block to
// make calls wait until released, for the re-entrancy test.
type fakeBackend struct {
	mu      gosync.Mutex
	orders  []models.Order
	err     error
	calls   int
	owners  []string
	started chan struct{}
	release chan struct{}
}

func (b *fakeBackend) OrdersByOwner(ctx context.Context, ownerID string) ([]models.Order, error) {
	b.mu.Lock()
	b.calls++
	b.owners = append(b.owners, ownerID)
	started := b.started
	release := b.release
	orders := append([]models.Order(nil), b.orders...)
	err := b.err
	b.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}
	return orders, err
}

func (b *fakeBackend) set(orders []models.Order, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.orders = orders
	b.err = err
}

func (b *fakeBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func (b *fakeBackend) callsForOwner(ownerID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, o := range b.owners {
		if o == ownerID {
			n++
		}
	}
	return n
}

// fakeFeed hands out per-channel event streams and records teardown order.
type fakeFeed struct {
	mu           gosync.Mutex
	channels     map[string]chan Event
	subscribed   []string
	unsubscribed []string
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{channels: make(map[string]chan Event)}
}

func (f *fakeFeed) Subscribe(ctx context.Context, ownerID, channel string) (<-chan Event, func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan Event, 8)
	f.channels[channel] = ch
	f.subscribed = append(f.subscribed, channel)
	return ch, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.unsubscribed = append(f.unsubscribed, channel)
	}, nil
}

func (f *fakeFeed) emit(channel string, ev Event) {
	f.mu.Lock()
	ch := f.channels[channel]
	f.mu.Unlock()
	if ch != nil {
		ch <- ev
	}
}

func (f *fakeFeed) lastChannel() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.subscribed) == 0 {
		return ""
	}
	return f.subscribed[len(f.subscribed)-1]
}

func (f *fakeFeed) wasUnsubscribed(channel string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.unsubscribed {
		if c == channel {
			return true
		}
	}
	return false
}

type recordingNotifier struct {
	mu      gosync.Mutex
	notices []string
}

func (n *recordingNotifier) Notify(level, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, level+": "+message)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notices)
}

func testOptions() Options {
	return Options{
		PollInterval:     50 * time.Millisecond,
		WatchdogInterval: 20 * time.Millisecond,
		SubscribeGrace:   10 * time.Millisecond,
		RefetchDelays:    []time.Duration{0, 20 * time.Millisecond, 40 * time.Millisecond, 60 * time.Millisecond},
	}
}

func newTestSync(backend Backend, feed Feed, notifier Notifier) *Synchronizer {
	return New(backend, feed, notifier, logger.NewLogger(), "user-1", testOptions())
}

func pendingOrder(id string, createdAt time.Time) models.Order {
	return models.Order{
		ID:              id,
		OwnerID:         "user-1",
		LifecycleStatus: "pending",
		Honoree:         "Maya",
		Category:        "birthday",
		CreatedAt:       createdAt,
	}
}

func TestFirstEmptyFetchShowsFormAndSetsLatch(t *testing.T) {
	backend := &fakeBackend{}
	s := newTestSync(backend, newFakeFeed(), nil)

	s.Refetch(context.Background())

	view := s.Snapshot()
	assert.True(t, view.FormVisible, "creation form must appear after the first empty fetch")
	assert.Equal(t, ProgressNone, view.Progress, "progress must be 0, not the failure default")
	assert.False(t, view.HasOrders)
	assert.False(t, view.Loading, "loading flag must be cleared")
	assert.True(t, s.fl.initialStateChecked, "latch must be set by the first fetch")
}

func TestFetchWithOrdersHidesFormAndSortsNewestFirst(t *testing.T) {
	now := time.Now()
	backend := &fakeBackend{}
	backend.set([]models.Order{
		pendingOrder("old", now.Add(-time.Hour)),
		pendingOrder("new", now),
	}, nil)
	s := newTestSync(backend, newFakeFeed(), nil)

	s.Refetch(context.Background())

	view := s.Snapshot()
	require.Len(t, view.Orders, 2)
	assert.Equal(t, "new", view.Orders[0].ID, "newest record must come first")
	assert.False(t, view.FormVisible)
	assert.True(t, view.HasOrders)
	assert.Equal(t, ProgressPending, view.Progress)
}

func TestFetchFailureKeepsListAndNotifiesOnce(t *testing.T) {
	now := time.Now()
	backend := &fakeBackend{}
	backend.set([]models.Order{pendingOrder("o1", now)}, nil)
	notifier := &recordingNotifier{}
	s := newTestSync(backend, newFakeFeed(), notifier)

	s.Refetch(context.Background())
	require.True(t, s.Snapshot().HasOrders)

	backend.set(nil, errors.New("connection refused"))
	s.Refetch(context.Background())
	s.Refetch(context.Background())

	view := s.Snapshot()
	assert.Equal(t, ProgressAnomaly, view.Progress, "failure applies the safe default")
	assert.Len(t, view.Orders, 1, "the retained list is not cleared destructively")
	assert.Equal(t, 1, notifier.count(), "only the first failure per session is surfaced")
}

func TestRefetchReentrancyGuard(t *testing.T) {
	backend := &fakeBackend{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	s := newTestSync(backend, newFakeFeed(), nil)

	done := make(chan struct{})
	go func() {
		s.Refetch(context.Background())
		close(done)
	}()

	<-backend.started

	// Second trigger while the first is in flight collapses into a no-op.
	s.Refetch(context.Background())

	close(backend.release)
	<-done

	assert.Equal(t, 1, backend.callCount(), "exactly one network call may be in flight")
}

func TestSubmissionConvergesWithBackendTruth(t *testing.T) {
	now := time.Now()
	submitted := pendingOrder("o1", now)

	backend := &fakeBackend{}
	backend.set([]models.Order{submitted}, nil)
	feed := newFakeFeed()
	s := newTestSync(backend, feed, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	s.OnSubmitted([]models.Order{submitted})

	view := s.Snapshot()
	assert.False(t, view.FormVisible, "form hides immediately on submission")
	assert.Equal(t, ProgressPending, view.Progress, "progress is forced to pending before any refetch")
	assert.True(t, view.HasOrders)

	// Backend catches up: the operator moved the order into production.
	inProduction := submitted
	inProduction.LifecycleStatus = "in_production"
	backend.set([]models.Order{inProduction}, nil)

	assert.Eventually(t, func() bool {
		v := s.Snapshot()
		return v.Progress == ProgressInProduction
	}, time.Second, 10*time.Millisecond, "refetch sequence must converge on backend truth")

	// The flag is only cleared by the second refetch step, which may land
	// after progress has already converged.
	assert.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return !s.fl.submissionInFlight
	}, time.Second, 10*time.Millisecond, "the in-flight flag is cleared by the sequence")
}

func TestOptimisticAndColdPathsConverge(t *testing.T) {
	now := time.Now()
	record := pendingOrder("o1", now)

	cold := newTestSync(func() *fakeBackend {
		b := &fakeBackend{}
		b.set([]models.Order{record}, nil)
		return b
	}(), newFakeFeed(), nil)
	cold.Refetch(context.Background())

	backend := &fakeBackend{}
	backend.set([]models.Order{record}, nil)
	optimistic := newTestSync(backend, newFakeFeed(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	optimistic.Start(ctx)
	defer optimistic.Stop()

	optimistic.OnSubmitted([]models.Order{record})

	assert.Eventually(t, func() bool {
		a, b := cold.Snapshot(), optimistic.Snapshot()
		return a.Progress == b.Progress &&
			a.FormVisible == b.FormVisible &&
			a.HasOrders == b.HasOrders &&
			len(a.Orders) == len(b.Orders)
	}, time.Second, 10*time.Millisecond, "optimistic path must converge to the cold-fetch flags")
}

func TestEmptySubmissionIsANoOp(t *testing.T) {
	backend := &fakeBackend{}
	s := newTestSync(backend, newFakeFeed(), nil)

	s.OnSubmitted(nil)
	s.OnSubmitted([]models.Order{})

	view := s.Snapshot()
	assert.False(t, view.HasOrders)
	assert.Equal(t, 0, backend.callCount(), "no refetch sequence for an invalid payload")
}

func TestWatchdogRepairsContradiction(t *testing.T) {
	now := time.Now()
	backend := &fakeBackend{}
	backend.set([]models.Order{pendingOrder("o1", now)}, nil)
	feed := newFakeFeed()
	s := newTestSync(backend, feed, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	require.Eventually(t, func() bool {
		return s.Snapshot().HasOrders
	}, time.Second, 10*time.Millisecond)

	// Force a contradiction behind the watchdog's back: orders exist and
	// no submission is pending, yet the form is visible.
	s.mu.Lock()
	s.view.FormVisible = true
	s.mu.Unlock()

	assert.Eventually(t, func() bool {
		return !s.Snapshot().FormVisible
	}, time.Second, 10*time.Millisecond, "timer pass must hide the form")
}

func TestFeedEventTriggersRefetch(t *testing.T) {
	backend := &fakeBackend{}
	feed := newFakeFeed()
	s := newTestSync(backend, feed, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	require.Eventually(t, func() bool {
		return feed.lastChannel() != ""
	}, time.Second, 5*time.Millisecond)

	before := backend.callCount()
	feed.emit(feed.lastChannel(), Event{Kind: "update", OrderID: "o1"})

	assert.Eventually(t, func() bool {
		return backend.callCount() > before
	}, time.Second, 5*time.Millisecond, "a change event is only a refetch signal")
}

func TestUserSwitchUnsubscribesStaleListener(t *testing.T) {
	backend := &fakeBackend{}
	feed := newFakeFeed()
	s := newTestSync(backend, feed, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	require.Eventually(t, func() bool {
		return feed.lastChannel() != ""
	}, time.Second, 5*time.Millisecond)
	oldChannel := feed.lastChannel()

	s.SwitchUser(ctx, "user-2")
	defer s.Stop()

	require.True(t, feed.wasUnsubscribed(oldChannel), "old listener must be torn down before resubscribing")

	require.Eventually(t, func() bool {
		return feed.lastChannel() != oldChannel
	}, time.Second, 5*time.Millisecond)

	// A late event for the previous owner must not fetch under the old
	// owner's context: the count of user-1 fetches is frozen.
	oldOwnerCalls := backend.callsForOwner("user-1")
	feed.emit(oldChannel, Event{Kind: "update", OrderID: "stale"})
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, oldOwnerCalls, backend.callsForOwner("user-1"), "stale event must not trigger a fetch for the previous owner")
}

func TestCreateNewAndCancel(t *testing.T) {
	backend := &fakeBackend{}
	notifier := &recordingNotifier{}
	s := newTestSync(backend, newFakeFeed(), notifier)

	s.OnCreateNewRequested()
	assert.True(t, s.Snapshot().FormVisible)

	s.OnCancelled()
	assert.False(t, s.Snapshot().FormVisible)
	assert.Equal(t, 1, notifier.count(), "cancellation emits a user-visible notice")
}
