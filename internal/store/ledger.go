package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/screenquest/screenquest/internal/model"
)

var (
	// ErrInvalidAmount is returned for negative deposit/withdraw amounts.
	ErrInvalidAmount = errors.New("xp amount must not be negative")

	// ErrInsufficientFunds is returned when a withdrawal exceeds the current
	// balance. The balance is left unchanged — no clamping.
	ErrInsufficientFunds = errors.New("insufficient xp balance")
)

// LedgerStore holds per-child XP as an append-only-transaction-backed balance.
type LedgerStore struct {
	db DBTX
}

func NewLedgerStore(db DBTX) *LedgerStore {
	return &LedgerStore{db: db}
}

// WithTx returns a copy of the store bound to the given transaction.
func (s *LedgerStore) WithTx(tx *sql.Tx) *LedgerStore {
	return &LedgerStore{db: tx}
}

// Balance returns the child's current and lifetime XP, zero for an unseen child.
func (s *LedgerStore) Balance(memberID int64) (*model.XPBalance, error) {
	b := &model.XPBalance{MemberID: memberID}
	err := s.db.QueryRow(
		`SELECT current_xp, lifetime_xp FROM xp_balances WHERE member_id = ?`, memberID,
	).Scan(&b.CurrentXP, &b.LifetimeXP)
	if err == sql.ErrNoRows {
		return b, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get xp balance: %w", err)
	}
	return b, nil
}

// Deposit adds amount to both current and lifetime XP and appends an award
// transaction. Amount must not be negative.
func (s *LedgerStore) Deposit(memberID int64, amount int, assignmentID *uuid.UUID, note string) (*model.XPBalance, error) {
	if amount < 0 {
		return nil, ErrInvalidAmount
	}

	_, err := s.db.Exec(
		`INSERT INTO xp_balances (member_id, current_xp, lifetime_xp) VALUES (?, ?, ?)
		 ON CONFLICT(member_id) DO UPDATE SET
		   current_xp = current_xp + excluded.current_xp,
		   lifetime_xp = lifetime_xp + excluded.lifetime_xp,
		   updated_at = CURRENT_TIMESTAMP`,
		memberID, amount, amount,
	)
	if err != nil {
		return nil, fmt.Errorf("deposit xp: %w", err)
	}

	if err := s.appendTransaction(memberID, amount, model.TxKindAward, assignmentID, note); err != nil {
		return nil, err
	}
	return s.Balance(memberID)
}

// Withdraw removes amount from current XP only. Fails with
// ErrInsufficientFunds if amount exceeds the balance; lifetime XP is untouched.
func (s *LedgerStore) Withdraw(memberID int64, amount int, note string) (*model.XPBalance, error) {
	if amount < 0 {
		return nil, ErrInvalidAmount
	}

	result, err := s.db.Exec(
		`UPDATE xp_balances SET current_xp = current_xp - ?, updated_at = CURRENT_TIMESTAMP
		 WHERE member_id = ? AND current_xp >= ?`,
		amount, memberID, amount,
	)
	if err != nil {
		return nil, fmt.Errorf("withdraw xp: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		// Either no balance row yet or the guard rejected the amount.
		if amount == 0 {
			return s.Balance(memberID)
		}
		return nil, ErrInsufficientFunds
	}

	if err := s.appendTransaction(memberID, -amount, model.TxKindRedeem, nil, note); err != nil {
		return nil, err
	}
	return s.Balance(memberID)
}

// Reset zeroes the child's balance. Administrative escape hatch.
func (s *LedgerStore) Reset(memberID int64) error {
	_, err := s.db.Exec(
		`INSERT INTO xp_balances (member_id, current_xp, lifetime_xp) VALUES (?, 0, 0)
		 ON CONFLICT(member_id) DO UPDATE SET current_xp = 0, lifetime_xp = 0, updated_at = CURRENT_TIMESTAMP`,
		memberID,
	)
	if err != nil {
		return fmt.Errorf("reset xp balance: %w", err)
	}
	return s.appendTransaction(memberID, 0, model.TxKindReset, nil, "balance reset")
}

// ClearHistory removes the child's transaction log. Administrative.
func (s *LedgerStore) ClearHistory(memberID int64) error {
	_, err := s.db.Exec(`DELETE FROM xp_transactions WHERE member_id = ?`, memberID)
	if err != nil {
		return fmt.Errorf("clear xp history: %w", err)
	}
	return nil
}

// Transactions returns the child's most recent ledger entries, newest first.
func (s *LedgerStore) Transactions(memberID int64, limit int) ([]model.XPTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, member_id, amount, kind, assignment_id, note, created_at
		 FROM xp_transactions WHERE member_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		memberID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list xp transactions: %w", err)
	}
	defer rows.Close()

	var txs []model.XPTransaction
	for rows.Next() {
		var t model.XPTransaction
		var assignmentID sql.NullString
		if err := rows.Scan(&t.ID, &t.MemberID, &t.Amount, &t.Kind, &assignmentID, &t.Note, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan xp transaction: %w", err)
		}
		if assignmentID.Valid {
			id, err := uuid.Parse(assignmentID.String)
			if err != nil {
				return nil, fmt.Errorf("parse assignment id %q: %w", assignmentID.String, err)
			}
			t.AssignmentID = &id
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (s *LedgerStore) appendTransaction(memberID int64, amount int, kind string, assignmentID *uuid.UUID, note string) error {
	var aID sql.NullString
	if assignmentID != nil {
		aID = sql.NullString{String: assignmentID.String(), Valid: true}
	}
	_, err := s.db.Exec(
		`INSERT INTO xp_transactions (member_id, amount, kind, assignment_id, note) VALUES (?, ?, ?, ?, ?)`,
		memberID, amount, kind, aID, note,
	)
	if err != nil {
		return fmt.Errorf("append xp transaction: %w", err)
	}
	return nil
}
