package store

import (
	"testing"

	"github.com/screenquest/screenquest/internal/economy"
)

func TestCredibilityDefaultsToFull(t *testing.T) {
	db := testDB(t)
	cs := NewCredibilityStore(db)

	score, err := cs.Score(7)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score != economy.DefaultScore {
		t.Errorf("unseen child score = %d, want %d", score, economy.DefaultScore)
	}
}

func TestCredibilityAdjust(t *testing.T) {
	db := testDB(t)
	child := createChild(t, db, "Milo")
	cs := NewCredibilityStore(db)

	score, err := cs.Adjust(child.ID, -economy.DeclinePenalty)
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if score != 90 {
		t.Errorf("after decline = %d, want 90", score)
	}

	score, err = cs.Adjust(child.ID, economy.ApproveBonus)
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if score != 95 {
		t.Errorf("after approve = %d, want 95", score)
	}
}

func TestCredibilityClampsAtBounds(t *testing.T) {
	db := testDB(t)
	child := createChild(t, db, "Milo")
	cs := NewCredibilityStore(db)

	// Already at the ceiling: a bonus must not push past 100.
	score, err := cs.Adjust(child.ID, economy.ApproveBonus)
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if score != economy.MaxScore {
		t.Errorf("score above ceiling = %d, want %d", score, economy.MaxScore)
	}

	// Hammer it down past the floor.
	for i := 0; i < 15; i++ {
		score, err = cs.Adjust(child.ID, -economy.DeclinePenalty)
		if err != nil {
			t.Fatalf("adjust: %v", err)
		}
	}
	if score != economy.MinScore {
		t.Errorf("score below floor = %d, want %d", score, economy.MinScore)
	}
}

func TestCredibilityReset(t *testing.T) {
	db := testDB(t)
	child := createChild(t, db, "Milo")
	cs := NewCredibilityStore(db)

	if _, err := cs.Adjust(child.ID, -50); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if err := cs.Reset(child.ID); err != nil {
		t.Fatalf("reset: %v", err)
	}

	score, err := cs.Score(child.ID)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score != economy.DefaultScore {
		t.Errorf("after reset = %d, want %d", score, economy.DefaultScore)
	}
}
