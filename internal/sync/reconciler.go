package sync

import (
	"fmt"
	"time"

	"songforge/internal/models"
)

// OnSubmitted applies the optimistic local update for a just-submitted
// order set, then schedules a bounded refetch sequence to converge with
// backend truth. The backend write and its push notification are not
// guaranteed to be visible yet, so progress is forced to pending instead
// of being derived from fetched data.
//
// An empty or invalid payload is a logged no-op; it never throws into the
// caller.
func (s *Synchronizer) OnSubmitted(newRecords []models.Order) {
	if len(newRecords) == 0 {
		s.log.Warn("SYNC", "ignoring submission with empty payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]models.Order, len(newRecords))
	copy(records, newRecords)
	for i := range records {
		models.SanitizeOrder(&records[i])
	}
	sortNewestFirst(records)

	s.view.Orders = records
	s.view.HasOrders = true
	s.view.FormVisible = false
	s.view.Progress = ProgressPending
	s.view.Step = StepAwaitingProduction
	s.fl.submissionInFlight = true

	s.log.LogSync("SUBMIT", fmt.Sprintf("optimistic update applied with %d record(s)", len(records)))

	s.scheduleRefetchSequenceLocked()
}

// scheduleRefetchSequenceLocked arms the convergence timers. The second
// step clears the submission-in-flight flag before fetching - earlier
// refetches must not let the watchdog fight the optimistic state.
func (s *Synchronizer) scheduleRefetchSequenceLocked() {
	s.cancelRefetchSequenceLocked()

	ctx := s.runCtx
	if ctx == nil || ctx.Err() != nil {
		s.log.Warn("SYNC", "synchronizer not running, skipping refetch sequence")
		return
	}

	clearAt := 1
	if len(s.opts.RefetchDelays) < 2 {
		clearAt = len(s.opts.RefetchDelays) - 1
	}

	for i, delay := range s.opts.RefetchDelays {
		step := i
		t := time.AfterFunc(delay, func() {
			if step == clearAt {
				s.mu.Lock()
				s.fl.submissionInFlight = false
				s.applyWatchdogLocked("submission-settled")
				s.mu.Unlock()
			}
			s.Refetch(ctx)
		})
		s.refetchTimers = append(s.refetchTimers, t)
	}
}

// OnCreateNewRequested opens the creation form for a follow-up order.
func (s *Synchronizer) OnCreateNewRequested() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fl.submissionInFlight = false
	s.view.FormVisible = true
	s.log.LogSync("FORM", "creation form opened on user request")
}

// OnCancelled closes the creation form and tells the user.
func (s *Synchronizer) OnCancelled() {
	s.mu.Lock()
	s.view.FormVisible = false
	s.mu.Unlock()

	s.log.LogSync("FORM", "creation form closed, submission cancelled")
	if s.notifier != nil {
		s.notifier.Notify("info", "Your order request was cancelled.")
	}
}
