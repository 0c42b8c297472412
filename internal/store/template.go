package store

import (
	"database/sql"
	"fmt"

	"github.com/screenquest/screenquest/internal/economy"
	"github.com/screenquest/screenquest/internal/model"
)

type TemplateStore struct {
	db DBTX
}

func NewTemplateStore(db DBTX) *TemplateStore {
	return &TemplateStore{db: db}
}

const templateCols = `id, title, description, category, suggested_level, builtin, created_by, created_at`

func scanTemplate(scanner interface{ Scan(...any) error }) (*model.TaskTemplate, error) {
	var t model.TaskTemplate
	var builtin int
	var createdBy sql.NullInt64

	err := scanner.Scan(&t.ID, &t.Title, &t.Description, &t.Category, &t.SuggestedLevel, &builtin, &createdBy, &t.CreatedAt)
	if err != nil {
		return nil, err
	}

	t.Builtin = builtin != 0
	if createdBy.Valid {
		t.CreatedBy = &createdBy.Int64
	}
	return &t, nil
}

// Create saves a custom template for reuse. Builtin templates are seeded by
// migration only.
func (s *TemplateStore) Create(title, description, category string, level economy.Level, createdBy *int64) (*model.TaskTemplate, error) {
	var cBy sql.NullInt64
	if createdBy != nil {
		cBy = sql.NullInt64{Int64: *createdBy, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO task_templates (title, description, category, suggested_level, builtin, created_by) VALUES (?, ?, ?, ?, 0, ?)`,
		title, description, category, level, cBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert template: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *TemplateStore) GetByID(id int64) (*model.TaskTemplate, error) {
	row := s.db.QueryRow(`SELECT `+templateCols+` FROM task_templates WHERE id = ?`, id)
	t, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return t, nil
}

func (s *TemplateStore) List() ([]model.TaskTemplate, error) {
	rows, err := s.db.Query(`SELECT ` + templateCols + ` FROM task_templates ORDER BY category ASC, title ASC`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []model.TaskTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

func (s *TemplateStore) ListByCategory(category string) ([]model.TaskTemplate, error) {
	rows, err := s.db.Query(
		`SELECT `+templateCols+` FROM task_templates WHERE category = ? ORDER BY title ASC`,
		category,
	)
	if err != nil {
		return nil, fmt.Errorf("list templates by category: %w", err)
	}
	defer rows.Close()

	var templates []model.TaskTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

func (s *TemplateStore) Update(id int64, title, description, category string, level economy.Level) (*model.TaskTemplate, error) {
	_, err := s.db.Exec(
		`UPDATE task_templates SET title = ?, description = ?, category = ?, suggested_level = ? WHERE id = ?`,
		title, description, category, level, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}
	return s.GetByID(id)
}

func (s *TemplateStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM task_templates WHERE id = ? AND builtin = 0`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}
