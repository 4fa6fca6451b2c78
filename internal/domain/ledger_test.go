package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestLedger_Commit(t *testing.T) {
	t.Run("valid wager debits exactly the amount", func(t *testing.T) {
		l := NewLedger(decimal.NewFromInt(1000))

		if err := l.Commit(decimal.NewFromInt(50)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !l.Balance.Equal(decimal.NewFromInt(950)) {
			t.Errorf("expected balance 950, got %v", l.Balance)
		}
	})

	t.Run("all in succeeds and leaves zero", func(t *testing.T) {
		l := NewLedger(decimal.NewFromInt(1000))

		if err := l.Commit(decimal.NewFromInt(1000)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !l.Balance.IsZero() {
			t.Errorf("expected balance 0, got %v", l.Balance)
		}
	})

	t.Run("rejected wagers leave the ledger untouched", func(t *testing.T) {
		for _, amount := range []decimal.Decimal{
			decimal.Zero,
			decimal.NewFromInt(-10),
			decimal.NewFromInt(1001),
		} {
			l := NewLedger(decimal.NewFromInt(1000))
			err := l.Commit(amount)
			if !errors.Is(err, ErrInvalidWager) {
				t.Errorf("amount %v: expected ErrInvalidWager, got %v", amount, err)
			}
			if !l.Balance.Equal(decimal.NewFromInt(1000)) {
				t.Errorf("amount %v: balance changed to %v", amount, l.Balance)
			}
		}
	})
}

func TestLedger_CreditWin(t *testing.T) {
	l := NewLedger(decimal.NewFromInt(1000))
	wager := decimal.NewFromInt(50)

	if err := l.Commit(wager); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l.CreditWin(wager)

	// 1000 - 50 + 2*50 = 1050: principal back plus equal winnings
	if !l.Balance.Equal(decimal.NewFromInt(1050)) {
		t.Errorf("expected balance 1050, got %v", l.Balance)
	}
	if l.Wins != 1 || l.Losses != 0 {
		t.Errorf("expected 1 win 0 losses, got %d/%d", l.Wins, l.Losses)
	}
}

func TestLedger_RecordLoss(t *testing.T) {
	l := NewLedger(decimal.NewFromInt(1000))
	wager := decimal.NewFromInt(50)

	if err := l.Commit(wager); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l.RecordLoss()

	// The debit at commit time is the whole loss
	if !l.Balance.Equal(decimal.NewFromInt(950)) {
		t.Errorf("expected balance 950, got %v", l.Balance)
	}
	if l.Wins != 0 || l.Losses != 1 {
		t.Errorf("expected 0 wins 1 loss, got %d/%d", l.Wins, l.Losses)
	}
}

func TestLedger_Refund(t *testing.T) {
	l := NewLedger(decimal.NewFromInt(1000))
	wager := decimal.NewFromInt(200)

	if err := l.Commit(wager); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l.Refund(wager)

	if !l.Balance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected balance restored to 1000, got %v", l.Balance)
	}
	if l.Wins != 0 || l.Losses != 0 {
		t.Error("refund must not count as a result")
	}
}
