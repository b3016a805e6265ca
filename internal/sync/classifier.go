package sync

import (
	"songforge/internal/models"
)

// Progress values rendered by the status indicator.
const (
	ProgressNone            = 0
	ProgressAnomaly         = 10
	ProgressPending         = 25
	ProgressInProduction    = 50
	ProgressAwaitingPayment = 75
	ProgressDone            = 100
)

// NextStep is the semantic descriptor shown next to the progress bar.
type NextStep string

const (
	StepSubmitRequest      NextStep = "submit_request"
	StepAwaitingProduction NextStep = "awaiting_production"
	StepInProduction       NextStep = "in_production"
	StepAwaitingPayment    NextStep = "awaiting_payment"
	StepDone               NextStep = "done"
	StepUnknown            NextStep = "unknown"
)

type Classification struct {
	Progress int
	Step     NextStep
	Anomaly  bool
}

// Classify derives the progress value and next step from the newest order.
// Pure function, no side effects.
//
// Completed payment wins over everything else, including a lifecycle value
// that claims otherwise. An unrecognized lifecycle value is reported as an
// anomaly instead of being thrown; the caller decides whether to log it.
func Classify(latest *models.Order, submissionInFlight bool) Classification {
	if latest == nil {
		if submissionInFlight {
			return Classification{Progress: ProgressPending, Step: StepAwaitingProduction}
		}
		return Classification{Progress: ProgressNone, Step: StepSubmitRequest}
	}

	if latest.Paid() {
		return Classification{Progress: ProgressDone, Step: StepDone}
	}

	if !models.KnownLifecycleStatus(latest.LifecycleStatus) {
		return Classification{Progress: ProgressAnomaly, Step: StepUnknown, Anomaly: true}
	}

	// Unpaid but the preview is ready: the next move is the customer's.
	if latest.HasPreview() {
		return Classification{Progress: ProgressAwaitingPayment, Step: StepAwaitingPayment}
	}

	switch models.SanitizeLifecycleStatus(latest.LifecycleStatus) {
	case models.LifecycleInProduction:
		return Classification{Progress: ProgressInProduction, Step: StepInProduction}
	case models.LifecycleCompleted:
		return Classification{Progress: ProgressAwaitingPayment, Step: StepAwaitingPayment}
	default:
		return Classification{Progress: ProgressPending, Step: StepAwaitingProduction}
	}
}
