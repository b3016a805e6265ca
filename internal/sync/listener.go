package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// runListener subscribes to the push feed for the current owner and turns
// every event into a refetch. Events may arrive out of order or not at
// all; the poll fallback covers the gaps.
func (s *Synchronizer) runListener(ctx context.Context) {
	defer s.wg.Done()

	s.mu.Lock()
	ownerID := s.ownerID
	s.mu.Unlock()

	// Nonce keeps a fast remount from colliding with a stale subscription.
	channel := fmt.Sprintf("orders:%s:%s", ownerID, uuid.NewString())

	events, unsubscribe, err := s.feed.Subscribe(ctx, ownerID, channel)
	if err != nil {
		s.log.Error("SYNC", fmt.Sprintf("feed subscribe failed for owner %s: %v", ownerID, err))
		return
	}
	defer unsubscribe()

	s.log.LogSync("FEED", fmt.Sprintf("subscribed to %s", channel))

	// Covers changes that landed between mount and subscription ack.
	grace := time.NewTimer(s.opts.SubscribeGrace)
	defer grace.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.LogSync("FEED", fmt.Sprintf("unsubscribing from %s", channel))
			return
		case <-grace.C:
			s.Refetch(ctx)
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.log.LogSync("FEED", fmt.Sprintf("change event %s for order %s, refetching", ev.Kind, ev.OrderID))
			s.Refetch(ctx)
		}
	}
}

// runPoller refetches on a fixed interval regardless of feed health. Push
// delivery is not guaranteed, so polling bounds worst-case staleness to
// one interval.
func (s *Synchronizer) runPoller(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refetch(ctx)
		}
	}
}
