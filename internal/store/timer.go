package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/screenquest/screenquest/internal/model"
)

// ErrNoTimer is returned when no timer state exists for an assignment.
var ErrNoTimer = errors.New("no timer for assignment")

// TimerStore tracks elapsed working time per task, durable across process
// restarts. Callers supply the clock so the arithmetic stays testable; every
// mutation is persisted before it returns.
type TimerStore struct {
	db DBTX
}

func NewTimerStore(db DBTX) *TimerStore {
	return &TimerStore{db: db}
}

// WithTx returns a copy of the store bound to the given transaction.
func (s *TimerStore) WithTx(tx *sql.Tx) *TimerStore {
	return &TimerStore{db: tx}
}

// Begin records the start instant and resets accumulated pause time.
// Calling it again for the same assignment overwrites the previous state.
func (s *TimerStore) Begin(id uuid.UUID, now time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO task_timers (assignment_id, started_at, paused_ms, pause_started_at)
		 VALUES (?, ?, 0, NULL)
		 ON CONFLICT(assignment_id) DO UPDATE SET started_at = excluded.started_at, paused_ms = 0, pause_started_at = NULL`,
		id.String(), now,
	)
	if err != nil {
		return fmt.Errorf("begin timer: %w", err)
	}
	return nil
}

// Pause opens a pause interval. Pausing an already-paused timer is a no-op.
func (s *TimerStore) Pause(id uuid.UUID, now time.Time) error {
	result, err := s.db.Exec(
		`UPDATE task_timers SET pause_started_at = ? WHERE assignment_id = ? AND pause_started_at IS NULL`,
		now, id.String(),
	)
	if err != nil {
		return fmt.Errorf("pause timer: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		// Already paused, or no timer at all — distinguish the two.
		state, err := s.Get(id)
		if err != nil {
			return err
		}
		if state == nil {
			return ErrNoTimer
		}
	}
	return nil
}

// Resume closes an open pause interval, folding it into the accumulated
// total. Resuming while not paused is a no-op.
func (s *TimerStore) Resume(id uuid.UUID, now time.Time) error {
	state, err := s.Get(id)
	if err != nil {
		return err
	}
	if state == nil {
		return ErrNoTimer
	}
	if state.PauseStartedAt == nil {
		return nil
	}

	pausedMs := now.Sub(*state.PauseStartedAt).Milliseconds()
	if pausedMs < 0 {
		pausedMs = 0
	}
	_, err = s.db.Exec(
		`UPDATE task_timers SET paused_ms = paused_ms + ?, pause_started_at = NULL WHERE assignment_id = ?`,
		pausedMs, id.String(),
	)
	if err != nil {
		return fmt.Errorf("resume timer: %w", err)
	}
	return nil
}

// Elapsed returns working time for the assignment at the given instant.
func (s *TimerStore) Elapsed(id uuid.UUID, now time.Time) (time.Duration, error) {
	state, err := s.Get(id)
	if err != nil {
		return 0, err
	}
	if state == nil {
		return 0, ErrNoTimer
	}
	return state.Elapsed(now), nil
}

// End discards timer state once the task leaves in_progress. Idempotent.
func (s *TimerStore) End(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM task_timers WHERE assignment_id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("end timer: %w", err)
	}
	return nil
}

// Get returns the persisted timer state, or nil if none exists.
func (s *TimerStore) Get(id uuid.UUID) (*model.TimerState, error) {
	var pausedMs int64
	var pauseStartedAt sql.NullTime
	state := model.TimerState{AssignmentID: id}

	err := s.db.QueryRow(
		`SELECT started_at, paused_ms, pause_started_at FROM task_timers WHERE assignment_id = ?`,
		id.String(),
	).Scan(&state.StartedAt, &pausedMs, &pauseStartedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get timer: %w", err)
	}

	state.PausedTotal = time.Duration(pausedMs) * time.Millisecond
	if pauseStartedAt.Valid {
		state.PauseStartedAt = &pauseStartedAt.Time
	}
	return &state, nil
}
