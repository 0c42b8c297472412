package task

import "github.com/google/uuid"

// Domain event types emitted by the service. Delivery (WebSocket broadcast,
// web push) is entirely the consumer's concern; the service only announces
// that something happened.
const (
	EventTaskAssigned  = "task_assigned"
	EventTaskStarted   = "task_started"
	EventTaskSubmitted = "task_submitted"
	EventTaskApproved  = "task_approved"
	EventTaskDeclined  = "task_declined"
	EventTaskExpired   = "task_expired"
)

// Event is a fire-and-forget notification of a completed lifecycle mutation.
// Events are published only after the transaction has committed.
type Event struct {
	Type         string         `json:"type"`
	AssignmentID uuid.UUID      `json:"assignment_id"`
	ChildID      int64          `json:"child_id"`
	Title        string         `json:"title"`
	Extra        map[string]any `json:"extra,omitempty"`
}

// EventFunc receives domain events. Implementations must not block; slow
// delivery work belongs on the consumer's side of the channel.
type EventFunc func(Event)
