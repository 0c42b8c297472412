package store

import (
	"testing"

	"github.com/google/uuid"

	"github.com/screenquest/screenquest/internal/model"
)

func TestLedgerZeroBalanceForUnseenChild(t *testing.T) {
	db := testDB(t)
	ls := NewLedgerStore(db)

	b, err := ls.Balance(42)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if b.CurrentXP != 0 || b.LifetimeXP != 0 {
		t.Errorf("unseen child balance = %d/%d, want 0/0", b.CurrentXP, b.LifetimeXP)
	}
}

func TestLedgerDepositAndWithdraw(t *testing.T) {
	db := testDB(t)
	child := createChild(t, db, "Milo")
	ls := NewLedgerStore(db)

	aID := uuid.New()
	b, err := ls.Deposit(child.ID, 36, &aID, "approved: Clean the kitchen")
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if b.CurrentXP != 36 || b.LifetimeXP != 36 {
		t.Errorf("after deposit = %d/%d, want 36/36", b.CurrentXP, b.LifetimeXP)
	}

	b, err = ls.Withdraw(child.ID, 30, "screen time: 30 min")
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	// Spending reduces current XP only; lifetime keeps the full earn history.
	if b.CurrentXP != 6 {
		t.Errorf("current after withdraw = %d, want 6", b.CurrentXP)
	}
	if b.LifetimeXP != 36 {
		t.Errorf("lifetime after withdraw = %d, want 36", b.LifetimeXP)
	}
}

func TestLedgerWithdrawBeyondBalance(t *testing.T) {
	db := testDB(t)
	child := createChild(t, db, "Milo")
	ls := NewLedgerStore(db)

	if _, err := ls.Deposit(child.ID, 10, nil, "seed"); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := ls.Withdraw(child.ID, 11, "too much"); err != ErrInsufficientFunds {
		t.Fatalf("overdraw: got %v, want ErrInsufficientFunds", err)
	}

	// Failed withdrawal leaves the balance untouched.
	b, err := ls.Balance(child.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if b.CurrentXP != 10 {
		t.Errorf("balance after failed withdraw = %d, want 10", b.CurrentXP)
	}
}

func TestLedgerWithdrawFromEmptyAccount(t *testing.T) {
	db := testDB(t)
	ls := NewLedgerStore(db)

	if _, err := ls.Withdraw(99, 5, "nothing there"); err != ErrInsufficientFunds {
		t.Errorf("withdraw with no row: got %v, want ErrInsufficientFunds", err)
	}
}

func TestLedgerNegativeAmounts(t *testing.T) {
	db := testDB(t)
	ls := NewLedgerStore(db)

	if _, err := ls.Deposit(1, -5, nil, "bad"); err != ErrInvalidAmount {
		t.Errorf("negative deposit: got %v, want ErrInvalidAmount", err)
	}
	if _, err := ls.Withdraw(1, -5, "bad"); err != ErrInvalidAmount {
		t.Errorf("negative withdraw: got %v, want ErrInvalidAmount", err)
	}
}

func TestLedgerTransactionLog(t *testing.T) {
	db := testDB(t)
	child := createChild(t, db, "Milo")
	ls := NewLedgerStore(db)

	aID := uuid.New()
	if _, err := ls.Deposit(child.ID, 30, &aID, "approved: Mow the lawn"); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := ls.Withdraw(child.ID, 20, "screen time: 20 min"); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	txs, err := ls.Transactions(child.ID, 10)
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	// Newest first.
	if txs[0].Kind != model.TxKindRedeem || txs[0].Amount != -20 {
		t.Errorf("tx[0] = %s %d, want redeem -20", txs[0].Kind, txs[0].Amount)
	}
	if txs[1].Kind != model.TxKindAward || txs[1].Amount != 30 {
		t.Errorf("tx[1] = %s %d, want award 30", txs[1].Kind, txs[1].Amount)
	}
	if txs[1].AssignmentID == nil || *txs[1].AssignmentID != aID {
		t.Error("award transaction should reference its assignment")
	}
}

func TestLedgerResetAndClearHistory(t *testing.T) {
	db := testDB(t)
	child := createChild(t, db, "Milo")
	ls := NewLedgerStore(db)

	if _, err := ls.Deposit(child.ID, 50, nil, "seed"); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if err := ls.Reset(child.ID); err != nil {
		t.Fatalf("reset: %v", err)
	}

	b, err := ls.Balance(child.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if b.CurrentXP != 0 || b.LifetimeXP != 0 {
		t.Errorf("after reset = %d/%d, want 0/0", b.CurrentXP, b.LifetimeXP)
	}

	if err := ls.ClearHistory(child.ID); err != nil {
		t.Fatalf("clear history: %v", err)
	}
	txs, err := ls.Transactions(child.ID, 10)
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("expected empty history, got %d entries", len(txs))
	}
}
