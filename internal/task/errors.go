package task

import "errors"

// All lifecycle errors are expected, recoverable conditions. Handlers map
// them to 4xx responses; nothing here is fatal. Storage failures propagate
// as wrapped driver errors instead.
var (
	// ErrNotFound means the assignment id is unknown.
	ErrNotFound = errors.New("assignment not found")

	// ErrInvalidTransition means the operation is not legal from the
	// assignment's current status. Normal in UI flows (stale screens,
	// double taps) — a rejected transition, not a crash condition.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidInput covers bad levels, unknown children, and other
	// malformed parameters.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingReason is returned when a decline carries no reason.
	ErrMissingReason = errors.New("decline requires a reason")

	// ErrIncompleteSubmission is returned when a completion carries no
	// proof reference.
	ErrIncompleteSubmission = errors.New("completion requires proof")
)
