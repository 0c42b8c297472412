package store

import (
	"database/sql"
	"fmt"

	"github.com/screenquest/screenquest/internal/model"
)

type MemberStore struct {
	db DBTX
}

func NewMemberStore(db DBTX) *MemberStore {
	return &MemberStore{db: db}
}

const memberCols = `id, name, role, color, avatar_emoji, pin IS NOT NULL, sort_order, created_at, updated_at`

func scanMember(scanner interface{ Scan(...any) error }) (*model.Member, error) {
	var m model.Member
	err := scanner.Scan(&m.ID, &m.Name, &m.Role, &m.Color, &m.AvatarEmoji, &m.HasPIN, &m.SortOrder, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *MemberStore) Create(name string, role model.Role, color, avatarEmoji string) (*model.Member, error) {
	var maxOrder int
	err := s.db.QueryRow(`SELECT COALESCE(MAX(sort_order), -1) FROM members`).Scan(&maxOrder)
	if err != nil {
		return nil, fmt.Errorf("query max sort_order: %w", err)
	}

	result, err := s.db.Exec(
		`INSERT INTO members (name, role, color, avatar_emoji, sort_order) VALUES (?, ?, ?, ?, ?)`,
		name, role, color, avatarEmoji, maxOrder+1,
	)
	if err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *MemberStore) GetByID(id int64) (*model.Member, error) {
	row := s.db.QueryRow(`SELECT `+memberCols+` FROM members WHERE id = ?`, id)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *MemberStore) List() ([]model.Member, error) {
	rows, err := s.db.Query(`SELECT ` + memberCols + ` FROM members ORDER BY sort_order ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *MemberStore) ListByRole(role model.Role) ([]model.Member, error) {
	rows, err := s.db.Query(
		`SELECT `+memberCols+` FROM members WHERE role = ? ORDER BY sort_order ASC, name ASC`,
		role,
	)
	if err != nil {
		return nil, fmt.Errorf("list members by role: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *MemberStore) Update(id int64, name, color, avatarEmoji string) (*model.Member, error) {
	_, err := s.db.Exec(
		`UPDATE members SET name = ?, color = ?, avatar_emoji = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, color, avatarEmoji, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}
	return s.GetByID(id)
}

func (s *MemberStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}

// SetPIN stores a bcrypt hash for the member. Hashing happens in the handler
// layer; the store never sees the plain PIN.
func (s *MemberStore) SetPIN(id int64, pinHash string) error {
	_, err := s.db.Exec(
		`UPDATE members SET pin = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		pinHash, id,
	)
	if err != nil {
		return fmt.Errorf("set pin: %w", err)
	}
	return nil
}

func (s *MemberStore) ClearPIN(id int64) error {
	_, err := s.db.Exec(
		`UPDATE members SET pin = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("clear pin: %w", err)
	}
	return nil
}

// GetPINHash returns the stored bcrypt hash, or "" when no PIN is set.
func (s *MemberStore) GetPINHash(id int64) (string, error) {
	var hash sql.NullString
	err := s.db.QueryRow(`SELECT pin FROM members WHERE id = ?`, id).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get pin hash: %w", err)
	}
	return hash.String, nil
}
