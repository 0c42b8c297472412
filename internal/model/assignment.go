package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/screenquest/screenquest/internal/economy"
)

// Status is the lifecycle state of a task assignment.
//
// Transitions are monotonic: assigned → in_progress → pending_review →
// {approved | declined}. Expired is reachable from assigned or in_progress
// once the due date has passed. Approved, declined, and expired are terminal;
// retrying a task means creating a new assignment.
type Status string

const (
	StatusAssigned      Status = "assigned"
	StatusInProgress    Status = "in_progress"
	StatusPendingReview Status = "pending_review"
	StatusApproved      Status = "approved"
	StatusDeclined      Status = "declined"
	StatusExpired       Status = "expired"
)

// Valid reports whether s is a recognized assignment status.
func (s Status) Valid() bool {
	switch s {
	case StatusAssigned, StatusInProgress, StatusPendingReview,
		StatusApproved, StatusDeclined, StatusExpired:
		return true
	}
	return false
}

// Terminal reports whether s allows no further lifecycle transitions.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusDeclined || s == StatusExpired
}

// TaskAssignment is one unit of assignable, completable work given to a child.
// XPAwarded is set exactly when Status is approved.
type TaskAssignment struct {
	ID          uuid.UUID     `json:"id"`
	TemplateID  *int64        `json:"template_id"`
	ChildID     int64         `json:"child_id"`
	AssignedBy  *int64        `json:"assigned_by"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Category    string        `json:"category"`
	Level       economy.Level `json:"level"`
	Status      Status        `json:"status"`

	AssignedAt  time.Time  `json:"assigned_at"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	ReviewedAt  *time.Time `json:"reviewed_at"`
	DueDate     *time.Time `json:"due_date"`

	ProofRef          string `json:"proof_ref"`
	ChildNotes        string `json:"child_notes"`
	CompletionMinutes *int   `json:"completion_minutes"`

	ReviewerID    *int64 `json:"reviewer_id"`
	ReviewerNotes string `json:"reviewer_notes"`
	XPAwarded     *int   `json:"xp_awarded"`
	DeclineUnseen bool   `json:"decline_unseen"`
}
