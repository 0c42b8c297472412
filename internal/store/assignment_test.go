package store

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/screenquest/screenquest/internal/economy"
	"github.com/screenquest/screenquest/internal/model"
)

func TestAssignmentCreateAndGet(t *testing.T) {
	db := testDB(t)
	child := createChild(t, db, "Milo")
	as := NewAssignmentStore(db)

	due := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	a, err := as.Create(&model.TaskAssignment{
		ID:         uuid.New(),
		ChildID:    child.ID,
		Title:      "Take out trash",
		Category:   "chores",
		Level:      economy.LevelQuick,
		Status:     model.StatusAssigned,
		AssignedAt: time.Now(),
		DueDate:    &due,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.Status != model.StatusAssigned {
		t.Errorf("status = %s, want assigned", a.Status)
	}
	if a.DueDate == nil || !a.DueDate.Equal(due) {
		t.Errorf("due date = %v, want %v", a.DueDate, due)
	}
	if a.XPAwarded != nil {
		t.Error("new assignment should have no XP awarded")
	}

	got, err := as.GetByID(a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.ID != a.ID {
		t.Fatalf("get returned %+v", got)
	}
}

func TestAssignmentGetMissing(t *testing.T) {
	db := testDB(t)
	as := NewAssignmentStore(db)

	got, err := as.GetByID(uuid.New())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("missing assignment should be nil, nil")
	}
}

func TestAssignmentGuardedTransitions(t *testing.T) {
	db := testDB(t)
	child := createChild(t, db, "Milo")
	parent := createParent(t, db, "Sam")
	as := NewAssignmentStore(db)
	a := createAssignment(t, db, child.ID, economy.LevelMedium)
	now := time.Now()

	// assigned -> in_progress
	ok, err := as.MarkStarted(a.ID, now)
	if err != nil || !ok {
		t.Fatalf("mark started: ok=%v err=%v", ok, err)
	}
	// Starting again must be rejected by the status guard.
	ok, err = as.MarkStarted(a.ID, now)
	if err != nil {
		t.Fatalf("second mark started: %v", err)
	}
	if ok {
		t.Error("second start should fail the guard")
	}

	// in_progress -> pending_review
	ok, err = as.MarkSubmitted(a.ID, now, "proofs/1/abc", "all done", 17)
	if err != nil || !ok {
		t.Fatalf("mark submitted: ok=%v err=%v", ok, err)
	}

	// pending_review -> approved; only one decision can win.
	ok, err = as.MarkApproved(a.ID, now, parent.ID, "nice work", 30)
	if err != nil || !ok {
		t.Fatalf("mark approved: ok=%v err=%v", ok, err)
	}
	ok, err = as.MarkDeclined(a.ID, now, parent.ID, "too late")
	if err != nil {
		t.Fatalf("decline after approve: %v", err)
	}
	if ok {
		t.Error("decline after approve should fail the guard")
	}

	got, err := as.GetByID(a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.StatusApproved {
		t.Errorf("status = %s, want approved", got.Status)
	}
	if got.XPAwarded == nil || *got.XPAwarded != 30 {
		t.Errorf("xp awarded = %v, want 30", got.XPAwarded)
	}
	if got.ProofRef != "proofs/1/abc" {
		t.Errorf("proof ref = %q", got.ProofRef)
	}
	if got.CompletionMinutes == nil || *got.CompletionMinutes != 17 {
		t.Errorf("completion minutes = %v, want 17", got.CompletionMinutes)
	}
}

func TestAssignmentDeclineFlow(t *testing.T) {
	db := testDB(t)
	child := createChild(t, db, "Milo")
	parent := createParent(t, db, "Sam")
	as := NewAssignmentStore(db)
	a := createAssignment(t, db, child.ID, economy.LevelEasy)
	now := time.Now()

	if ok, err := as.MarkStarted(a.ID, now); err != nil || !ok {
		t.Fatalf("mark started: ok=%v err=%v", ok, err)
	}
	if ok, err := as.MarkSubmitted(a.ID, now, "proofs/1/x", "", 5); err != nil || !ok {
		t.Fatalf("mark submitted: ok=%v err=%v", ok, err)
	}
	if ok, err := as.MarkDeclined(a.ID, now, parent.ID, "still dirty"); err != nil || !ok {
		t.Fatalf("mark declined: ok=%v err=%v", ok, err)
	}

	unseen, err := as.ListUnseenDeclines(child.ID)
	if err != nil {
		t.Fatalf("list unseen declines: %v", err)
	}
	if len(unseen) != 1 {
		t.Fatalf("expected 1 unseen decline, got %d", len(unseen))
	}
	if unseen[0].ReviewerNotes != "still dirty" {
		t.Errorf("reason = %q", unseen[0].ReviewerNotes)
	}

	if ok, err := as.ClearDeclineUnseen(a.ID); err != nil || !ok {
		t.Fatalf("clear decline unseen: ok=%v err=%v", ok, err)
	}
	unseen, err = as.ListUnseenDeclines(child.ID)
	if err != nil {
		t.Fatalf("list unseen declines: %v", err)
	}
	if len(unseen) != 0 {
		t.Errorf("expected no unseen declines after clear, got %d", len(unseen))
	}
}

func TestAssignmentMarkExpired(t *testing.T) {
	db := testDB(t)
	child := createChild(t, db, "Milo")
	as := NewAssignmentStore(db)
	now := time.Now()

	// Expire works from assigned and from in_progress but not beyond.
	a1 := createAssignment(t, db, child.ID, economy.LevelQuick)
	if ok, err := as.MarkExpired(a1.ID); err != nil || !ok {
		t.Fatalf("expire from assigned: ok=%v err=%v", ok, err)
	}

	a2 := createAssignment(t, db, child.ID, economy.LevelQuick)
	if ok, err := as.MarkStarted(a2.ID, now); err != nil || !ok {
		t.Fatalf("mark started: ok=%v err=%v", ok, err)
	}
	if ok, err := as.MarkExpired(a2.ID); err != nil || !ok {
		t.Fatalf("expire from in_progress: ok=%v err=%v", ok, err)
	}

	// Already expired: guard fails.
	if ok, err := as.MarkExpired(a1.ID); err != nil || ok {
		t.Errorf("expire from expired: ok=%v err=%v, want ok=false", ok, err)
	}
}

func TestAssignmentListByChild(t *testing.T) {
	db := testDB(t)
	child := createChild(t, db, "Milo")
	other := createChild(t, db, "Ada")
	as := NewAssignmentStore(db)

	a1 := createAssignment(t, db, child.ID, economy.LevelQuick)
	createAssignment(t, db, child.ID, economy.LevelMedium)
	createAssignment(t, db, other.ID, economy.LevelHard)

	all, err := as.ListByChild(child.ID, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(all))
	}

	if ok, err := as.MarkStarted(a1.ID, time.Now()); err != nil || !ok {
		t.Fatalf("mark started: ok=%v err=%v", ok, err)
	}
	status := model.StatusInProgress
	inProgress, err := as.ListByChild(child.ID, &status)
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(inProgress) != 1 || inProgress[0].ID != a1.ID {
		t.Errorf("status filter returned %d rows", len(inProgress))
	}
}

func TestAssignmentPendingReviewOrder(t *testing.T) {
	db := testDB(t)
	child := createChild(t, db, "Milo")
	as := NewAssignmentStore(db)
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	a1 := createAssignment(t, db, child.ID, economy.LevelQuick)
	a2 := createAssignment(t, db, child.ID, economy.LevelQuick)

	for _, a := range []*model.TaskAssignment{a1, a2} {
		if ok, err := as.MarkStarted(a.ID, base); err != nil || !ok {
			t.Fatalf("mark started: ok=%v err=%v", ok, err)
		}
	}
	// a2 submitted first; it should surface first in the review queue.
	if ok, err := as.MarkSubmitted(a2.ID, base.Add(time.Hour), "p2", "", 10); err != nil || !ok {
		t.Fatalf("submit a2: ok=%v err=%v", ok, err)
	}
	if ok, err := as.MarkSubmitted(a1.ID, base.Add(2*time.Hour), "p1", "", 10); err != nil || !ok {
		t.Fatalf("submit a1: ok=%v err=%v", ok, err)
	}

	pending, err := as.ListPendingReview()
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(pending))
	}
	if pending[0].ID != a2.ID {
		t.Error("pending review should be ordered oldest submission first")
	}
}

func TestAssignmentDelete(t *testing.T) {
	db := testDB(t)
	child := createChild(t, db, "Milo")
	as := NewAssignmentStore(db)
	a := createAssignment(t, db, child.ID, economy.LevelQuick)

	ok, err := as.Delete(a.ID)
	if err != nil || !ok {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}
	ok, err = as.Delete(a.ID)
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if ok {
		t.Error("deleting a missing assignment should report false")
	}
}
