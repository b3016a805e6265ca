package feed

import (
	"context"
	gosync "sync"

	"songforge/internal/sync"
)

// Emitter fans order events out to per-owner subscribers. Each
// subscription is registered under a caller-chosen channel name; names are
// expected to be unique per subscription so a stale subscriber from a fast
// reconnect can never collide with its replacement.
type Emitter struct {
	mu      gosync.RWMutex
	clients map[string]map[string]chan sync.Event
}

func NewEmitter() *Emitter {
	return &Emitter{clients: make(map[string]map[string]chan sync.Event)}
}

// Subscribe registers a subscriber for one owner's events. The returned
// cancel func removes the subscription and closes the channel; it is also
// invoked when ctx is done.
func (e *Emitter) Subscribe(ctx context.Context, ownerID, channel string) (<-chan sync.Event, func(), error) {
	clientChan := make(chan sync.Event, 10)

	e.mu.Lock()
	if e.clients[ownerID] == nil {
		e.clients[ownerID] = make(map[string]chan sync.Event)
	}
	e.clients[ownerID][channel] = clientChan
	e.mu.Unlock()

	var once gosync.Once
	cancel := func() {
		once.Do(func() {
			e.removeClient(ownerID, channel)
		})
	}

	go func() {
		<-ctx.Done()
		cancel()
	}()

	return clientChan, cancel, nil
}

// Emit broadcasts an event to every subscriber of the owner. Sends are
// non-blocking; a subscriber with a full buffer misses the event and
// catches up on its next poll.
func (e *Emitter) Emit(ownerID string, event sync.Event) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	// The sends stay under the read lock so an unsubscribe cannot close a
	// channel mid-broadcast. They cannot block, so the hold is bounded.
	for _, ch := range e.clients[ownerID] {
		select {
		case ch <- event:
		default:
		}
	}
}

// ClientCount returns the number of live subscriptions for an owner.
func (e *Emitter) ClientCount(ownerID string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.clients[ownerID])
}

func (e *Emitter) removeClient(ownerID, channel string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	clients := e.clients[ownerID]
	ch, ok := clients[channel]
	if !ok {
		return
	}
	delete(clients, channel)
	close(ch)

	if len(clients) == 0 {
		delete(e.clients, ownerID)
	}
}
