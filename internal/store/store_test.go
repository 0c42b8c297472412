package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/screenquest/screenquest/internal/database"
	"github.com/screenquest/screenquest/internal/economy"
	"github.com/screenquest/screenquest/internal/model"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createChild(t *testing.T, db *sql.DB, name string) *model.Member {
	t.Helper()
	m, err := NewMemberStore(db).Create(name, model.RoleChild, "#4287f5", "🦊")
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	return m
}

func createParent(t *testing.T, db *sql.DB, name string) *model.Member {
	t.Helper()
	m, err := NewMemberStore(db).Create(name, model.RoleParent, "#f54242", "🦉")
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	return m
}

func createAssignment(t *testing.T, db *sql.DB, childID int64, level economy.Level) *model.TaskAssignment {
	t.Helper()
	a, err := NewAssignmentStore(db).Create(&model.TaskAssignment{
		ID:         uuid.New(),
		ChildID:    childID,
		Title:      "Clean the kitchen",
		Category:   "chores",
		Level:      level,
		Status:     model.StatusAssigned,
		AssignedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("create assignment: %v", err)
	}
	return a
}
