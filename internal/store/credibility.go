package store

import (
	"database/sql"
	"fmt"

	"github.com/screenquest/screenquest/internal/economy"
)

// CredibilityStore maintains the per-child trust score. A child with no row
// yet is at the default score; rows appear on first adjustment.
type CredibilityStore struct {
	db DBTX
}

func NewCredibilityStore(db DBTX) *CredibilityStore {
	return &CredibilityStore{db: db}
}

// WithTx returns a copy of the store bound to the given transaction.
func (s *CredibilityStore) WithTx(tx *sql.Tx) *CredibilityStore {
	return &CredibilityStore{db: tx}
}

// Score returns the child's credibility in [0,100], defaulting to 100 for an
// unseen child.
func (s *CredibilityStore) Score(memberID int64) (int, error) {
	var score int
	err := s.db.QueryRow(`SELECT score FROM credibility WHERE member_id = ?`, memberID).Scan(&score)
	if err == sql.ErrNoRows {
		return economy.DefaultScore, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get credibility score: %w", err)
	}
	return score, nil
}

// Adjust applies delta to the child's score, clamped to [0,100], and returns
// the new score. The upsert keeps the read-modify-write atomic per row.
func (s *CredibilityStore) Adjust(memberID int64, delta int) (int, error) {
	_, err := s.db.Exec(
		`INSERT INTO credibility (member_id, score)
		 VALUES (?, MIN(?, MAX(?, ? + ?)))
		 ON CONFLICT(member_id) DO UPDATE SET
		   score = MIN(?, MAX(?, score + ?)),
		   updated_at = CURRENT_TIMESTAMP`,
		memberID, economy.MaxScore, economy.MinScore, economy.DefaultScore, delta,
		economy.MaxScore, economy.MinScore, delta,
	)
	if err != nil {
		return 0, fmt.Errorf("adjust credibility: %w", err)
	}
	return s.Score(memberID)
}

// Reset restores the child's score to the default. Administrative escape
// hatch, not part of the review lifecycle.
func (s *CredibilityStore) Reset(memberID int64) error {
	_, err := s.db.Exec(
		`INSERT INTO credibility (member_id, score) VALUES (?, ?)
		 ON CONFLICT(member_id) DO UPDATE SET score = ?, updated_at = CURRENT_TIMESTAMP`,
		memberID, economy.DefaultScore, economy.DefaultScore,
	)
	if err != nil {
		return fmt.Errorf("reset credibility: %w", err)
	}
	return nil
}
