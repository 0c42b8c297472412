package store

import (
	"testing"

	"github.com/screenquest/screenquest/internal/economy"
)

func TestTemplateSeedData(t *testing.T) {
	db := testDB(t)
	ts := NewTemplateStore(db)

	templates, err := ts.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(templates) != 7 {
		t.Fatalf("expected 7 builtin templates, got %d", len(templates))
	}
	for _, tpl := range templates {
		if !tpl.Builtin {
			t.Errorf("seed template %q should be builtin", tpl.Title)
		}
		if !tpl.SuggestedLevel.Valid() {
			t.Errorf("seed template %q has bad level %q", tpl.Title, tpl.SuggestedLevel)
		}
	}
}

func TestTemplateCRUD(t *testing.T) {
	db := testDB(t)
	parent := createParent(t, db, "Sam")
	ts := NewTemplateStore(db)

	// Create
	tpl, err := ts.Create("Weed the garden", "Front beds only", "outdoor", economy.LevelHard, &parent.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tpl.Builtin {
		t.Error("custom template should not be builtin")
	}
	if tpl.CreatedBy == nil || *tpl.CreatedBy != parent.ID {
		t.Errorf("created_by = %v, want %d", tpl.CreatedBy, parent.ID)
	}

	// Update
	updated, err := ts.Update(tpl.ID, "Weed the whole garden", "Front and back", "outdoor", economy.LevelEpic)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.SuggestedLevel != economy.LevelEpic {
		t.Errorf("level = %s, want epic", updated.SuggestedLevel)
	}

	// Delete
	if err := ts.Delete(tpl.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := ts.GetByID(tpl.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Error("template should be gone after delete")
	}
}

func TestTemplateBuiltinDeleteIgnored(t *testing.T) {
	db := testDB(t)
	ts := NewTemplateStore(db)

	templates, err := ts.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	builtin := templates[0]

	if err := ts.Delete(builtin.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := ts.GetByID(builtin.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Error("builtin template must survive delete")
	}
}

func TestTemplateListByCategory(t *testing.T) {
	db := testDB(t)
	ts := NewTemplateStore(db)

	bedroom, err := ts.ListByCategory("bedroom")
	if err != nil {
		t.Fatalf("list by category: %v", err)
	}
	if len(bedroom) != 3 {
		t.Errorf("expected 3 bedroom templates, got %d", len(bedroom))
	}
}
