package domain

import "time"

type EventKind string

const (
	EventRunStarted          EventKind = "run_started"
	EventWorkerStarted       EventKind = "worker_started"
	EventWorkerStopped       EventKind = "worker_stopped"
	EventAttempt             EventKind = "attempt"
	EventGenerationError     EventKind = "generation_error"
	EventReceiverGone        EventKind = "receiver_gone"
	EventDispatchHalted      EventKind = "dispatch_halted"
	EventMatch               EventKind = "match"
	EventLateMatch           EventKind = "late_match"
	EventProgress            EventKind = "progress"
	EventCancelRequested     EventKind = "cancel_requested"
	EventCancellationTimeout EventKind = "cancellation_timeout"
	EventOracleFailure       EventKind = "oracle_failure"
	EventRunFinished         EventKind = "run_finished"
)

// Event is what the engine components report instead of logging themselves.
// Only the fields relevant to Kind are set.
type Event struct {
	Kind      EventKind
	Time      time.Time
	WorkerID  int
	Position  uint64
	Candidate Candidate
	Progress  *Progress
	Outcome   *Outcome
	Err       error
}
