// Package task implements the assignment lifecycle state machine and its
// economic consequences. Every mutation that touches more than one record
// (status + ledger + credibility) runs in a single SQLite transaction, and
// every transition is guarded by a status-conditional update so concurrent
// calls on the same assignment cannot both succeed.
package task

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/screenquest/screenquest/internal/economy"
	"github.com/screenquest/screenquest/internal/model"
	"github.com/screenquest/screenquest/internal/store"
)

// Service orchestrates task assignments: it owns the lifecycle, drives the
// timer on start/submit, and applies XP and credibility changes on review.
type Service struct {
	db          *sql.DB
	assignments *store.AssignmentStore
	templates   *store.TemplateStore
	timers      *store.TimerStore
	ledger      *store.LedgerStore
	credibility *store.CredibilityStore
	emit        EventFunc
	logger      *slog.Logger

	now func() time.Time
}

// NewService builds the orchestrator over a shared database handle. emit may
// be nil when no event consumer is wired (tests, CLI tools).
func NewService(db *sql.DB, emit EventFunc, logger *slog.Logger) *Service {
	return &Service{
		db:          db,
		assignments: store.NewAssignmentStore(db),
		templates:   store.NewTemplateStore(db),
		timers:      store.NewTimerStore(db),
		ledger:      store.NewLedgerStore(db),
		credibility: store.NewCredibilityStore(db),
		emit:        emit,
		logger:      logger,
		now:         time.Now,
	}
}

// CreateParams describes a new assignment. When TemplateID is set, empty
// descriptive fields are filled from the template.
type CreateParams struct {
	TemplateID  *int64
	ChildID     int64
	AssignedBy  *int64
	Title       string
	Description string
	Category    string
	Level       economy.Level
	DueDate     *time.Time
}

// ReviewResult reports the economic outcome of a parental decision.
// XPAwarded and Balance are set only for approvals.
type ReviewResult struct {
	XPAwarded      int                   `json:"xp_awarded"`
	NewCredibility int                   `json:"new_credibility"`
	Tier           economy.Tier          `json:"tier"`
	Balance        *model.XPBalance      `json:"balance,omitempty"`
	Assignment     *model.TaskAssignment `json:"assignment"`
}

// Create yields a new assignment in the assigned state, for both
// parent-assigned and child-claimed tasks.
func (s *Service) Create(p CreateParams) (*model.TaskAssignment, error) {
	if p.ChildID <= 0 {
		return nil, fmt.Errorf("%w: child id required", ErrInvalidInput)
	}

	if p.TemplateID != nil {
		tpl, err := s.templates.GetByID(*p.TemplateID)
		if err != nil {
			return nil, err
		}
		if tpl == nil {
			return nil, fmt.Errorf("%w: template %d", ErrNotFound, *p.TemplateID)
		}
		if p.Title == "" {
			p.Title = tpl.Title
		}
		if p.Description == "" {
			p.Description = tpl.Description
		}
		if p.Category == "" {
			p.Category = tpl.Category
		}
		if p.Level == "" {
			p.Level = tpl.SuggestedLevel
		}
	}

	if !p.Level.Valid() {
		return nil, fmt.Errorf("%w: unknown level %q", ErrInvalidInput, p.Level)
	}
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return nil, fmt.Errorf("%w: title required", ErrInvalidInput)
	}

	a := &model.TaskAssignment{
		ID:          uuid.New(),
		TemplateID:  p.TemplateID,
		ChildID:     p.ChildID,
		AssignedBy:  p.AssignedBy,
		Title:       p.Title,
		Description: p.Description,
		Category:    p.Category,
		Level:       p.Level,
		Status:      model.StatusAssigned,
		AssignedAt:  s.now(),
		DueDate:     p.DueDate,
	}

	created, err := s.assignments.Create(a)
	if err != nil {
		return nil, err
	}

	s.publish(Event{Type: EventTaskAssigned, AssignmentID: created.ID, ChildID: created.ChildID, Title: created.Title})
	return created, nil
}

// Start moves an assigned task to in_progress and begins its timer.
func (s *Service) Start(id uuid.UUID) (*model.TaskAssignment, error) {
	now := s.now()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	as := s.assignments.WithTx(tx)
	ok, err := as.MarkStarted(id, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.rejectTransition(as, id, model.StatusAssigned)
	}

	if err := s.timers.WithTx(tx).Begin(id, now); err != nil {
		return nil, err
	}

	a, err := as.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.publish(Event{Type: EventTaskStarted, AssignmentID: id, ChildID: a.ChildID, Title: a.Title})
	return a, nil
}

// PauseTimer suspends the working-time clock for an in-progress task, e.g.
// while the child captures proof. Idempotent.
func (s *Service) PauseTimer(id uuid.UUID) error {
	if err := s.requireStatus(id, model.StatusInProgress); err != nil {
		return err
	}
	if err := s.timers.Pause(id, s.now()); err != nil {
		if errors.Is(err, store.ErrNoTimer) {
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return err
	}
	return nil
}

// ResumeTimer restarts the working-time clock. Idempotent when not paused.
func (s *Service) ResumeTimer(id uuid.UUID) error {
	if err := s.requireStatus(id, model.StatusInProgress); err != nil {
		return err
	}
	if err := s.timers.Resume(id, s.now()); err != nil {
		if errors.Is(err, store.ErrNoTimer) {
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return err
	}
	return nil
}

// Elapsed reports working time so far for an in-progress task.
func (s *Service) Elapsed(id uuid.UUID) (time.Duration, error) {
	d, err := s.timers.Elapsed(id, s.now())
	if errors.Is(err, store.ErrNoTimer) {
		return 0, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return d, err
}

// SubmitCompletion moves an in-progress task to pending_review. The proof
// reference is required; completion time comes from the caller's measurement
// or, failing that, the timer.
func (s *Service) SubmitCompletion(id uuid.UUID, proofRef, childNotes string, measuredMinutes *int) (*model.TaskAssignment, error) {
	proofRef = strings.TrimSpace(proofRef)
	if proofRef == "" {
		return nil, ErrIncompleteSubmission
	}
	if measuredMinutes != nil && *measuredMinutes < 0 {
		return nil, fmt.Errorf("%w: negative completion time", ErrInvalidInput)
	}

	now := s.now()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	timers := s.timers.WithTx(tx)
	minutes := 0
	if measuredMinutes != nil {
		minutes = *measuredMinutes
	} else {
		elapsed, err := timers.Elapsed(id, now)
		if err != nil && !errors.Is(err, store.ErrNoTimer) {
			return nil, err
		}
		minutes = int(elapsed / time.Minute)
	}

	as := s.assignments.WithTx(tx)
	ok, err := as.MarkSubmitted(id, now, proofRef, childNotes, minutes)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.rejectTransition(as, id, model.StatusInProgress)
	}

	if err := timers.End(id); err != nil {
		return nil, err
	}

	a, err := as.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.publish(Event{Type: EventTaskSubmitted, AssignmentID: id, ChildID: a.ChildID, Title: a.Title})
	return a, nil
}

// Approve settles a pending review in the child's favor: XP is computed from
// the assigned (or overridden) level and the child's current credibility,
// deposited, and credibility is raised. All of it commits atomically with
// the status change — there is no observable "approved but unpaid" state.
func (s *Service) Approve(id uuid.UUID, reviewerID int64, overrideLevel *economy.Level, reviewerNotes string) (*ReviewResult, error) {
	if overrideLevel != nil && !overrideLevel.Valid() {
		return nil, fmt.Errorf("%w: unknown level %q", ErrInvalidInput, *overrideLevel)
	}

	now := s.now()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	as := s.assignments.WithTx(tx)
	a, err := as.GetByID(id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNotFound
	}
	if a.Status != model.StatusPendingReview {
		return nil, fmt.Errorf("%w: approve from %s", ErrInvalidTransition, a.Status)
	}

	level := a.Level
	if overrideLevel != nil {
		level = *overrideLevel
	}

	credibility := s.credibility.WithTx(tx)
	score, err := credibility.Score(a.ChildID)
	if err != nil {
		return nil, err
	}
	xp := economy.EarnedXP(level, score)

	ok, err := as.MarkApproved(id, now, reviewerID, reviewerNotes, xp)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: approve raced another decision", ErrInvalidTransition)
	}

	balance, err := s.ledger.WithTx(tx).Deposit(a.ChildID, xp, &id, "approved: "+a.Title)
	if err != nil {
		return nil, err
	}

	newScore, err := credibility.Adjust(a.ChildID, economy.ApproveBonus)
	if err != nil {
		return nil, err
	}

	if err := s.timers.WithTx(tx).End(id); err != nil {
		return nil, err
	}

	approved, err := as.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.publish(Event{
		Type:         EventTaskApproved,
		AssignmentID: id,
		ChildID:      a.ChildID,
		Title:        a.Title,
		Extra:        map[string]any{"xp_awarded": xp},
	})

	return &ReviewResult{
		XPAwarded:      xp,
		NewCredibility: newScore,
		Tier:           economy.TierFor(newScore),
		Balance:        balance,
		Assignment:     approved,
	}, nil
}

// Decline settles a pending review against the child: credibility drops by
// the fixed penalty and the decline is flagged unseen until acknowledged.
// No XP changes hands.
func (s *Service) Decline(id uuid.UUID, reviewerID int64, reason string) (*ReviewResult, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrMissingReason
	}

	now := s.now()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	as := s.assignments.WithTx(tx)
	a, err := as.GetByID(id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNotFound
	}
	if a.Status != model.StatusPendingReview {
		return nil, fmt.Errorf("%w: decline from %s", ErrInvalidTransition, a.Status)
	}

	ok, err := as.MarkDeclined(id, now, reviewerID, reason)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: decline raced another decision", ErrInvalidTransition)
	}

	newScore, err := s.credibility.WithTx(tx).Adjust(a.ChildID, -economy.DeclinePenalty)
	if err != nil {
		return nil, err
	}

	if err := s.timers.WithTx(tx).End(id); err != nil {
		return nil, err
	}

	declined, err := as.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.publish(Event{
		Type:         EventTaskDeclined,
		AssignmentID: id,
		ChildID:      a.ChildID,
		Title:        a.Title,
		Extra:        map[string]any{"reason": reason},
	})

	return &ReviewResult{
		NewCredibility: newScore,
		Tier:           economy.TierFor(newScore),
		Assignment:     declined,
	}, nil
}

// AcknowledgeDecline clears the unseen-decline flag. Idempotent.
func (s *Service) AcknowledgeDecline(id uuid.UUID) error {
	ok, err := s.assignments.ClearDeclineUnseen(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Expire terminates an assignment whose due date has passed without a
// submission. Awards no XP and leaves credibility alone. Expiry is advisory:
// consuming code decides when to call this.
func (s *Service) Expire(id uuid.UUID) error {
	now := s.now()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	as := s.assignments.WithTx(tx)
	a, err := as.GetByID(id)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrNotFound
	}
	if a.Status != model.StatusAssigned && a.Status != model.StatusInProgress {
		return fmt.Errorf("%w: expire from %s", ErrInvalidTransition, a.Status)
	}
	if a.DueDate == nil || now.Before(*a.DueDate) {
		return fmt.Errorf("%w: due date not passed", ErrInvalidTransition)
	}

	ok, err := as.MarkExpired(id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: expire raced another transition", ErrInvalidTransition)
	}

	if err := s.timers.WithTx(tx).End(id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.publish(Event{Type: EventTaskExpired, AssignmentID: id, ChildID: a.ChildID, Title: a.Title})
	return nil
}

// Delete removes an assignment from any state. Administrative; no reward
// bookkeeping happens here.
func (s *Service) Delete(id uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.timers.WithTx(tx).End(id); err != nil {
		return err
	}
	ok, err := s.assignments.WithTx(tx).Delete(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return tx.Commit()
}

// RedeemScreenTime spends XP at the flat 1 XP = 1 minute rate. Fails without
// touching the balance when the child cannot cover the amount.
func (s *Service) RedeemScreenTime(childID int64, minutes int) (*model.XPBalance, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	balance, err := s.ledger.WithTx(tx).Withdraw(childID, minutes, fmt.Sprintf("screen time: %d min", minutes))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return balance, nil
}

// PreviewXP computes the award a child would receive right now for a task at
// the given level, without side effects.
func (s *Service) PreviewXP(childID int64, level economy.Level) (int, error) {
	if !level.Valid() {
		return 0, fmt.Errorf("%w: unknown level %q", ErrInvalidInput, level)
	}
	score, err := s.credibility.Score(childID)
	if err != nil {
		return 0, err
	}
	return economy.EarnedXP(level, score), nil
}

func (s *Service) requireStatus(id uuid.UUID, want model.Status) error {
	a, err := s.assignments.GetByID(id)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrNotFound
	}
	if a.Status != want {
		return fmt.Errorf("%w: timer operation from %s", ErrInvalidTransition, a.Status)
	}
	return nil
}

// rejectTransition turns a failed guarded update into the right error.
func (s *Service) rejectTransition(as *store.AssignmentStore, id uuid.UUID, want model.Status) error {
	a, err := as.GetByID(id)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrNotFound
	}
	return fmt.Errorf("%w: need %s, have %s", ErrInvalidTransition, want, a.Status)
}

func (s *Service) publish(e Event) {
	if s.emit == nil {
		return
	}
	s.logger.Debug("domain event", "type", e.Type, "assignment_id", e.AssignmentID, "child_id", e.ChildID)
	s.emit(e)
}
