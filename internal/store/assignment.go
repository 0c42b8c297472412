package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/screenquest/screenquest/internal/model"
)

type AssignmentStore struct {
	db DBTX
}

func NewAssignmentStore(db DBTX) *AssignmentStore {
	return &AssignmentStore{db: db}
}

// WithTx returns a copy of the store bound to the given transaction.
func (s *AssignmentStore) WithTx(tx *sql.Tx) *AssignmentStore {
	return &AssignmentStore{db: tx}
}

const assignmentCols = `id, template_id, child_id, assigned_by, title, description, category, level, status,
	assigned_at, started_at, completed_at, reviewed_at, due_date,
	proof_ref, child_notes, completion_minutes, reviewer_id, reviewer_notes, xp_awarded, decline_unseen`

func scanAssignment(scanner interface{ Scan(...any) error }) (*model.TaskAssignment, error) {
	var a model.TaskAssignment
	var id string
	var templateID, assignedBy, reviewerID, completionMin, xpAwarded sql.NullInt64
	var startedAt, completedAt, reviewedAt, dueDate sql.NullTime
	var declineUnseen int

	err := scanner.Scan(
		&id, &templateID, &a.ChildID, &assignedBy, &a.Title, &a.Description, &a.Category, &a.Level, &a.Status,
		&a.AssignedAt, &startedAt, &completedAt, &reviewedAt, &dueDate,
		&a.ProofRef, &a.ChildNotes, &completionMin, &reviewerID, &a.ReviewerNotes, &xpAwarded, &declineUnseen,
	)
	if err != nil {
		return nil, err
	}

	a.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse assignment id %q: %w", id, err)
	}

	if templateID.Valid {
		a.TemplateID = &templateID.Int64
	}
	if assignedBy.Valid {
		a.AssignedBy = &assignedBy.Int64
	}
	if reviewerID.Valid {
		a.ReviewerID = &reviewerID.Int64
	}
	if completionMin.Valid {
		m := int(completionMin.Int64)
		a.CompletionMinutes = &m
	}
	if xpAwarded.Valid {
		xp := int(xpAwarded.Int64)
		a.XPAwarded = &xp
	}
	if startedAt.Valid {
		a.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		a.CompletedAt = &completedAt.Time
	}
	if reviewedAt.Valid {
		a.ReviewedAt = &reviewedAt.Time
	}
	if dueDate.Valid {
		a.DueDate = &dueDate.Time
	}
	a.DeclineUnseen = declineUnseen != 0
	return &a, nil
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func (s *AssignmentStore) Create(a *model.TaskAssignment) (*model.TaskAssignment, error) {
	_, err := s.db.Exec(
		`INSERT INTO task_assignments (id, template_id, child_id, assigned_by, title, description, category, level, status, assigned_at, due_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID.String(), nullInt(a.TemplateID), a.ChildID, nullInt(a.AssignedBy),
		a.Title, a.Description, a.Category, a.Level, a.Status, a.AssignedAt, nullTime(a.DueDate),
	)
	if err != nil {
		return nil, fmt.Errorf("insert assignment: %w", err)
	}
	return s.GetByID(a.ID)
}

func (s *AssignmentStore) GetByID(id uuid.UUID) (*model.TaskAssignment, error) {
	row := s.db.QueryRow(`SELECT `+assignmentCols+` FROM task_assignments WHERE id = ?`, id.String())
	a, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return a, nil
}

// ListByChild returns a child's assignments, newest first, optionally
// filtered by status.
func (s *AssignmentStore) ListByChild(childID int64, status *model.Status) ([]model.TaskAssignment, error) {
	query := `SELECT ` + assignmentCols + ` FROM task_assignments WHERE child_id = ?`
	args := []any{childID}
	if status != nil {
		query += ` AND status = ?`
		args = append(args, *status)
	}
	query += ` ORDER BY assigned_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assignments by child: %w", err)
	}
	defer rows.Close()
	return collectAssignments(rows)
}

// ListPendingReview returns assignments awaiting a parent decision across all
// children, oldest submission first.
func (s *AssignmentStore) ListPendingReview() ([]model.TaskAssignment, error) {
	rows, err := s.db.Query(
		`SELECT `+assignmentCols+` FROM task_assignments WHERE status = ? ORDER BY completed_at ASC`,
		model.StatusPendingReview,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending review: %w", err)
	}
	defer rows.Close()
	return collectAssignments(rows)
}

// ListUnseenDeclines returns a child's declined assignments not yet
// acknowledged, for one-time surfacing.
func (s *AssignmentStore) ListUnseenDeclines(childID int64) ([]model.TaskAssignment, error) {
	rows, err := s.db.Query(
		`SELECT `+assignmentCols+` FROM task_assignments WHERE child_id = ? AND status = ? AND decline_unseen = 1 ORDER BY reviewed_at DESC`,
		childID, model.StatusDeclined,
	)
	if err != nil {
		return nil, fmt.Errorf("list unseen declines: %w", err)
	}
	defer rows.Close()
	return collectAssignments(rows)
}

func collectAssignments(rows *sql.Rows) ([]model.TaskAssignment, error) {
	var assignments []model.TaskAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assignments = append(assignments, *a)
	}
	return assignments, rows.Err()
}

// --- Guarded transitions ---
//
// Each transition is a status-conditional UPDATE. The boolean result reports
// whether the row was in the required state; a false result with an existing
// row means the transition was rejected, which the task service maps to
// ErrInvalidTransition. This is what makes concurrent double-approval safe:
// only one UPDATE can observe status = pending_review.

func (s *AssignmentStore) MarkStarted(id uuid.UUID, now time.Time) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE task_assignments SET status = ?, started_at = ? WHERE id = ? AND status = ?`,
		model.StatusInProgress, now, id.String(), model.StatusAssigned,
	)
	if err != nil {
		return false, fmt.Errorf("mark started: %w", err)
	}
	return oneRow(result)
}

func (s *AssignmentStore) MarkSubmitted(id uuid.UUID, now time.Time, proofRef, childNotes string, completionMinutes int) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE task_assignments SET status = ?, completed_at = ?, proof_ref = ?, child_notes = ?, completion_minutes = ?
		 WHERE id = ? AND status = ?`,
		model.StatusPendingReview, now, proofRef, childNotes, completionMinutes,
		id.String(), model.StatusInProgress,
	)
	if err != nil {
		return false, fmt.Errorf("mark submitted: %w", err)
	}
	return oneRow(result)
}

func (s *AssignmentStore) MarkApproved(id uuid.UUID, now time.Time, reviewerID int64, reviewerNotes string, xpAwarded int) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE task_assignments SET status = ?, reviewed_at = ?, reviewer_id = ?, reviewer_notes = ?, xp_awarded = ?
		 WHERE id = ? AND status = ?`,
		model.StatusApproved, now, reviewerID, reviewerNotes, xpAwarded,
		id.String(), model.StatusPendingReview,
	)
	if err != nil {
		return false, fmt.Errorf("mark approved: %w", err)
	}
	return oneRow(result)
}

func (s *AssignmentStore) MarkDeclined(id uuid.UUID, now time.Time, reviewerID int64, reason string) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE task_assignments SET status = ?, reviewed_at = ?, reviewer_id = ?, reviewer_notes = ?, decline_unseen = 1
		 WHERE id = ? AND status = ?`,
		model.StatusDeclined, now, reviewerID, reason,
		id.String(), model.StatusPendingReview,
	)
	if err != nil {
		return false, fmt.Errorf("mark declined: %w", err)
	}
	return oneRow(result)
}

func (s *AssignmentStore) MarkExpired(id uuid.UUID) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE task_assignments SET status = ? WHERE id = ? AND status IN (?, ?)`,
		model.StatusExpired, id.String(), model.StatusAssigned, model.StatusInProgress,
	)
	if err != nil {
		return false, fmt.Errorf("mark expired: %w", err)
	}
	return oneRow(result)
}

func (s *AssignmentStore) ClearDeclineUnseen(id uuid.UUID) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE task_assignments SET decline_unseen = 0 WHERE id = ?`,
		id.String(),
	)
	if err != nil {
		return false, fmt.Errorf("clear decline unseen: %w", err)
	}
	return oneRow(result)
}

func (s *AssignmentStore) Delete(id uuid.UUID) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM task_assignments WHERE id = ?`, id.String())
	if err != nil {
		return false, fmt.Errorf("delete assignment: %w", err)
	}
	return oneRow(result)
}

func oneRow(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
