package engine

import "errors"

// Sentinel errors for run termination conditions.
var (
	// ErrMaxTurnsReached indicates the run hit the turn limit without a
	// terminal response.
	ErrMaxTurnsReached = errors.New("engine: maximum turns reached")
)

// TerminationReason describes why a run ended.
type TerminationReason string

const (
	// TerminationComplete means the model produced a terminal response.
	TerminationComplete TerminationReason = "complete"

	// TerminationMaxTurns means the turn budget was exhausted.
	TerminationMaxTurns TerminationReason = "max_turns"

	// TerminationTimeout means the run deadline expired.
	TerminationTimeout TerminationReason = "timeout"

	// TerminationCancelled means the caller cancelled the run.
	TerminationCancelled TerminationReason = "cancelled"

	// TerminationError means a fatal provider or dispatch error.
	TerminationError TerminationReason = "error"
)
