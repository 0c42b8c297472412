package model

import (
	"time"

	"github.com/google/uuid"
)

// XPBalance is a child's spendable and lifetime XP. CurrentXP never goes
// negative; LifetimeXP never decreases outside an administrative reset.
type XPBalance struct {
	MemberID   int64 `json:"member_id"`
	CurrentXP  int   `json:"current_xp"`
	LifetimeXP int   `json:"lifetime_xp"`
}

// Transaction kinds recorded in the XP ledger.
const (
	TxKindAward  = "award"
	TxKindRedeem = "redeem"
	TxKindReset  = "reset"
)

type XPTransaction struct {
	ID           int64      `json:"id"`
	MemberID     int64      `json:"member_id"`
	Amount       int        `json:"amount"`
	Kind         string     `json:"kind"`
	AssignmentID *uuid.UUID `json:"assignment_id,omitempty"`
	Note         string     `json:"note,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// TimerState is the persisted working-time record for an in-progress task.
// The three fields are the only source of truth: a process restart must
// reconstruct identical elapsed values from them.
type TimerState struct {
	AssignmentID   uuid.UUID     `json:"assignment_id"`
	StartedAt      time.Time     `json:"started_at"`
	PausedTotal    time.Duration `json:"paused_total"`
	PauseStartedAt *time.Time    `json:"pause_started_at"`
}

// Elapsed returns working time at the given instant: wall time since start,
// minus accumulated pauses, minus the in-flight pause if one is open.
// Never negative.
func (t TimerState) Elapsed(now time.Time) time.Duration {
	d := now.Sub(t.StartedAt) - t.PausedTotal
	if t.PauseStartedAt != nil {
		d -= now.Sub(*t.PauseStartedAt)
	}
	if d < 0 {
		return 0
	}
	return d
}
