package sync

import (
	"context"
	"fmt"
	"sort"
	gosync "sync"
	"time"

	"songforge/internal/logger"
	"songforge/internal/models"
)

// Backend is the slice of the order store the synchronizer consumes: the
// full order set for one owner, newest first when the store honors it.
// The fetcher re-sorts anyway, so ordering is not load-bearing.
type Backend interface {
	OrdersByOwner(ctx context.Context, ownerID string) ([]models.Order, error)
}

// Event is a change-feed signal. The payload is never trusted as state;
// any event only triggers a refetch.
type Event struct {
	Kind    string `json:"kind"`
	OrderID string `json:"order_id"`
}

// Feed is the push channel for one owner's orders. The channel name must
// be unique per subscription so a stale subscription from a fast remount
// cannot collide with the new one.
type Feed interface {
	Subscribe(ctx context.Context, ownerID, channel string) (<-chan Event, func(), error)
}

// Notifier surfaces user-visible notices. Repeated background failures are
// logged, not surfaced, so the notifier only sees the first one.
type Notifier interface {
	Notify(level, message string)
}

// ViewState is what the UI renders. It is owned exclusively by the
// synchronizer; all mutation goes through the fetcher or the optimistic
// submission path.
type ViewState struct {
	Orders      []models.Order
	Progress    int
	Step        NextStep
	HasOrders   bool
	FormVisible bool
	Loading     bool
}

// flags is the internal mutable state shared by every sub-routine. One
// struct, one owner, guarded by the synchronizer mutex.
type flags struct {
	fetching            bool
	firstLoad           bool
	submissionInFlight  bool
	initialStateChecked bool
}

type Options struct {
	PollInterval     time.Duration
	WatchdogInterval time.Duration
	SubscribeGrace   time.Duration
	RefetchDelays    []time.Duration
}

func DefaultOptions() Options {
	return Options{
		PollInterval:     5 * time.Second,
		WatchdogInterval: 2 * time.Second,
		SubscribeGrace:   200 * time.Millisecond,
		RefetchDelays:    []time.Duration{0, 500 * time.Millisecond, 1500 * time.Millisecond, 3 * time.Second},
	}
}

// Synchronizer keeps one owner's order list and derived UI flags
// consistent across the push feed, the poll fallback, optimistic
// submissions and the consistency watchdog.
type Synchronizer struct {
	backend  Backend
	feed     Feed
	notifier Notifier
	log      *logger.Logger
	opts     Options

	mu      gosync.Mutex
	ownerID string
	view    ViewState
	fl      flags

	failureNotified bool

	runCtx        context.Context
	cancel        context.CancelFunc
	wg            gosync.WaitGroup
	refetchTimers []*time.Timer
}

func New(backend Backend, feed Feed, notifier Notifier, log *logger.Logger, ownerID string, opts Options) *Synchronizer {
	if len(opts.RefetchDelays) == 0 {
		opts.RefetchDelays = DefaultOptions().RefetchDelays
	}
	return &Synchronizer{
		backend:  backend,
		feed:     feed,
		notifier: notifier,
		log:      log,
		opts:     opts,
		ownerID:  ownerID,
		fl:       flags{firstLoad: true},
	}
}

// Start launches the listener, poll fallback and watchdog goroutines.
func (s *Synchronizer) Start(ctx context.Context) {
	s.mu.Lock()
	s.runCtx, s.cancel = context.WithCancel(ctx)
	runCtx := s.runCtx
	s.mu.Unlock()

	s.wg.Add(3)
	go s.runListener(runCtx)
	go s.runPoller(runCtx)
	go s.runWatchdog(runCtx)
}

// Stop cancels every timer and goroutine. Safe to call more than once.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancelRefetchSequenceLocked()
	s.mu.Unlock()
	s.wg.Wait()
}

// SwitchUser tears down the current subscription and timers, resets all
// local state, and starts over for the new owner. The old listener is
// unsubscribed before the new one subscribes, so a late event for the
// previous owner never triggers a fetch in the new owner's context.
func (s *Synchronizer) SwitchUser(ctx context.Context, ownerID string) {
	s.Stop()

	s.mu.Lock()
	s.ownerID = ownerID
	s.view = ViewState{}
	s.fl = flags{firstLoad: true}
	s.failureNotified = false
	s.mu.Unlock()

	s.log.LogSync("SWITCH", fmt.Sprintf("synchronizer reset for owner %s", ownerID))
	s.Start(ctx)
}

// Snapshot returns a copy of the current view state.
func (s *Synchronizer) Snapshot() ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	view := s.view
	view.Orders = append([]models.Order(nil), s.view.Orders...)
	return view
}

// Refetch replaces the local order set wholesale with the backend's
// current truth. At most one fetch is in flight per synchronizer; a
// concurrent trigger is a skip, not a queue - staleness is bounded by the
// next poll tick.
func (s *Synchronizer) Refetch(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	if s.fl.fetching {
		s.mu.Unlock()
		s.log.LogSync("FETCH", "fetch already in flight, skipping")
		return
	}
	s.fl.fetching = true
	if s.fl.firstLoad {
		s.view.Loading = true
	}
	ownerID := s.ownerID
	s.mu.Unlock()

	orders, err := s.backend.OrdersByOwner(ctx, ownerID)

	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		// Finally-equivalent: guard and loading always cleared.
		s.fl.fetching = false
		s.fl.firstLoad = false
		s.view.Loading = false
	}()

	if err != nil {
		s.view.Progress = ProgressAnomaly
		if !s.failureNotified {
			s.failureNotified = true
			if s.notifier != nil {
				s.notifier.Notify("error", "Could not refresh your orders. We will keep retrying in the background.")
			}
			s.log.Error("SYNC", fmt.Sprintf("fetch failed for owner %s: %v", ownerID, err))
		} else {
			s.log.Warn("SYNC", fmt.Sprintf("background fetch failed for owner %s: %v", ownerID, err))
		}
		return
	}

	if len(orders) == 0 {
		s.view.Orders = []models.Order{}
		s.view.HasOrders = false
		cls := Classify(nil, s.fl.submissionInFlight)
		s.view.Progress = cls.Progress
		s.view.Step = cls.Step
		if s.fl.initialStateChecked && !s.fl.submissionInFlight {
			s.view.FormVisible = true
		}
		s.fl.initialStateChecked = true
		s.applyWatchdogLocked("fetch-empty")
		return
	}

	sortNewestFirst(orders)

	cls := Classify(&orders[0], s.fl.submissionInFlight)
	if cls.Anomaly {
		s.log.Warn("SYNC", fmt.Sprintf("unrecognized lifecycle status %q on order %s", orders[0].LifecycleStatus, orders[0].ID))
	}

	for i := range orders {
		models.SanitizeOrder(&orders[i])
	}

	s.view.Orders = orders
	s.view.HasOrders = true
	s.view.FormVisible = false
	s.view.Progress = cls.Progress
	s.view.Step = cls.Step
	s.fl.initialStateChecked = true
	s.applyWatchdogLocked("fetch")
}

func (s *Synchronizer) cancelRefetchSequenceLocked() {
	for _, t := range s.refetchTimers {
		t.Stop()
	}
	s.refetchTimers = nil
}

func sortNewestFirst(orders []models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
