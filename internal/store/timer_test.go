package store

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/screenquest/screenquest/internal/economy"
	"github.com/screenquest/screenquest/internal/model"
)

func timerFixture(t *testing.T) (*TimerStore, uuid.UUID) {
	t.Helper()
	db := testDB(t)
	child := createChild(t, db, "Milo")
	a := createAssignment(t, db, child.ID, economy.LevelMedium)
	return NewTimerStore(db), a.ID
}

func TestTimerPauseResumeArithmetic(t *testing.T) {
	ts, id := timerFixture(t)
	t0 := time.Date(2026, 8, 1, 15, 0, 0, 0, time.UTC)

	// Start, work 5 minutes, pause for 3, work 12 more.
	if err := ts.Begin(id, t0); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := ts.Pause(id, t0.Add(5*time.Minute)); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := ts.Resume(id, t0.Add(8*time.Minute)); err != nil {
		t.Fatalf("resume: %v", err)
	}

	elapsed, err := ts.Elapsed(id, t0.Add(20*time.Minute))
	if err != nil {
		t.Fatalf("elapsed: %v", err)
	}
	if elapsed != 17*time.Minute {
		t.Errorf("elapsed = %v, want 17m", elapsed)
	}
}

func TestTimerElapsedWhilePaused(t *testing.T) {
	ts, id := timerFixture(t)
	t0 := time.Date(2026, 8, 1, 15, 0, 0, 0, time.UTC)

	if err := ts.Begin(id, t0); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := ts.Pause(id, t0.Add(4*time.Minute)); err != nil {
		t.Fatalf("pause: %v", err)
	}

	// The clock is stopped: elapsed stays at 4m no matter how long the pause runs.
	elapsed, err := ts.Elapsed(id, t0.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("elapsed: %v", err)
	}
	if elapsed != 4*time.Minute {
		t.Errorf("elapsed while paused = %v, want 4m", elapsed)
	}
}

func TestTimerPauseIdempotent(t *testing.T) {
	ts, id := timerFixture(t)
	t0 := time.Date(2026, 8, 1, 15, 0, 0, 0, time.UTC)

	if err := ts.Begin(id, t0); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := ts.Pause(id, t0.Add(2*time.Minute)); err != nil {
		t.Fatalf("first pause: %v", err)
	}
	// Second pause must not move the pause start.
	if err := ts.Pause(id, t0.Add(10*time.Minute)); err != nil {
		t.Fatalf("second pause: %v", err)
	}
	if err := ts.Resume(id, t0.Add(12*time.Minute)); err != nil {
		t.Fatalf("resume: %v", err)
	}

	// Worked 2m before the pause, pause lasted 10m, then measured right away.
	elapsed, err := ts.Elapsed(id, t0.Add(12*time.Minute))
	if err != nil {
		t.Fatalf("elapsed: %v", err)
	}
	if elapsed != 2*time.Minute {
		t.Errorf("elapsed = %v, want 2m", elapsed)
	}
}

func TestTimerResumeWithoutPause(t *testing.T) {
	ts, id := timerFixture(t)
	t0 := time.Date(2026, 8, 1, 15, 0, 0, 0, time.UTC)

	if err := ts.Begin(id, t0); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := ts.Resume(id, t0.Add(5*time.Minute)); err != nil {
		t.Fatalf("resume without pause should be a no-op: %v", err)
	}

	elapsed, err := ts.Elapsed(id, t0.Add(10*time.Minute))
	if err != nil {
		t.Fatalf("elapsed: %v", err)
	}
	if elapsed != 10*time.Minute {
		t.Errorf("elapsed = %v, want 10m", elapsed)
	}
}

func TestTimerSurvivesReconstruction(t *testing.T) {
	// Elapsed is derived purely from persisted fields, so a fresh store over
	// the same database (a process restart) reports the same value.
	db := testDB(t)
	child := createChild(t, db, "Milo")
	a := createAssignment(t, db, child.ID, economy.LevelMedium)
	t0 := time.Date(2026, 8, 1, 15, 0, 0, 0, time.UTC)

	ts := NewTimerStore(db)
	if err := ts.Begin(a.ID, t0); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := ts.Pause(a.ID, t0.Add(5*time.Minute)); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := ts.Resume(a.ID, t0.Add(8*time.Minute)); err != nil {
		t.Fatalf("resume: %v", err)
	}

	fresh := NewTimerStore(db)
	elapsed, err := fresh.Elapsed(a.ID, t0.Add(20*time.Minute))
	if err != nil {
		t.Fatalf("elapsed: %v", err)
	}
	if elapsed != 17*time.Minute {
		t.Errorf("elapsed after reconstruction = %v, want 17m", elapsed)
	}
}

func TestTimerMissing(t *testing.T) {
	ts, _ := timerFixture(t)
	other := uuid.New()

	if _, err := ts.Elapsed(other, time.Now()); err != ErrNoTimer {
		t.Errorf("elapsed on missing timer: got %v, want ErrNoTimer", err)
	}
	if err := ts.Pause(other, time.Now()); err != ErrNoTimer {
		t.Errorf("pause on missing timer: got %v, want ErrNoTimer", err)
	}
	if err := ts.Resume(other, time.Now()); err != ErrNoTimer {
		t.Errorf("resume on missing timer: got %v, want ErrNoTimer", err)
	}
	// End is idempotent even with nothing to delete.
	if err := ts.End(other); err != nil {
		t.Errorf("end on missing timer: %v", err)
	}
}

func TestTimerEndDiscardsState(t *testing.T) {
	ts, id := timerFixture(t)
	t0 := time.Date(2026, 8, 1, 15, 0, 0, 0, time.UTC)

	if err := ts.Begin(id, t0); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := ts.End(id); err != nil {
		t.Fatalf("end: %v", err)
	}
	state, err := ts.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if state != nil {
		t.Error("timer state should be gone after End")
	}
}

func TestTimerStateElapsedNeverNegative(t *testing.T) {
	t0 := time.Date(2026, 8, 1, 15, 0, 0, 0, time.UTC)
	state := model.TimerState{StartedAt: t0}

	if got := state.Elapsed(t0.Add(-time.Minute)); got != 0 {
		t.Errorf("elapsed before start = %v, want 0", got)
	}
}
