package metrics

import "time"

// Sink records operational metrics.
// All methods are fire-and-forget: implementations MUST NOT block or
// propagate errors. If the backend is unavailable, implementations log and
// continue.
type Sink interface {
	// Reconcile cycle metrics, labeled by trigger path ("push" / "poll").
	ReconcileStarted(trigger string)
	ReconcileCompleted(trigger string, duration time.Duration, candidates int, err error)

	// Parser metrics ("single" / "batch" / "none").
	ParseResult(kind string)

	// Dedup metrics.
	DuplicateSkip()
	LedgerFailure(op string) // "has" / "mark"

	// Dispatch metrics ("simulated" / "executed" / "error" / "transport_error").
	DispatchOutcome(status string)
}

// Trigger label constants.
const (
	TriggerPush = "push"
	TriggerPoll = "poll"
)
