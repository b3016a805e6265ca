package sync

import (
	"context"
	"fmt"
	"time"
)

// formView is the slice of state the watchdog inspects.
type formView struct {
	HasOrders           bool
	FormVisible         bool
	SubmissionInFlight  bool
	InitialStateChecked bool
}

// reconcileForm is the pure transition for the consistency watchdog.
// It returns the corrected form visibility, whether anything changed,
// and which rule fired. Applying it twice to an already-consistent view
// changes nothing.
func reconcileForm(v formView) (formVisible bool, changed bool, rule string) {
	if !v.InitialStateChecked {
		return v.FormVisible, false, ""
	}

	if v.SubmissionInFlight && v.FormVisible {
		return false, true, "submission-in-flight"
	}
	if v.HasOrders && v.FormVisible && !v.SubmissionInFlight {
		return false, true, "orders-exist"
	}
	if !v.HasOrders && !v.SubmissionInFlight && !v.FormVisible {
		return true, true, "no-orders"
	}

	return v.FormVisible, false, ""
}

// applyWatchdogLocked runs one reconcile pass. Caller holds the mutex.
// Corrections are logged and idempotent; the watchdog never raises errors.
func (s *Synchronizer) applyWatchdogLocked(trigger string) {
	v := formView{
		HasOrders:           s.view.HasOrders,
		FormVisible:         s.view.FormVisible,
		SubmissionInFlight:  s.fl.submissionInFlight,
		InitialStateChecked: s.fl.initialStateChecked,
	}

	formVisible, changed, rule := reconcileForm(v)
	if !changed {
		return
	}

	s.view.FormVisible = formVisible
	s.log.LogSync("WATCHDOG", fmt.Sprintf("corrected form visibility to %t (rule %s, trigger %s)", formVisible, rule, trigger))
}

// runWatchdog repairs contradictions on a fixed interval, in addition to
// the immediate pass after every mutation.
func (s *Synchronizer) runWatchdog(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.opts.WatchdogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			s.applyWatchdogLocked("timer")
			s.mu.Unlock()
		}
	}
}
