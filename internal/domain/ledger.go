package domain

import "github.com/shopspring/decimal"

// Ledger tracks the session's virtual coin balance and win/loss record.
// It survives across rounds but not across process restarts.
//
// Money model: the wager is debited when the bet is committed, and
// credited back doubled only on a win. A loss changes nothing beyond
// the debit that already happened.
type Ledger struct {
	Balance decimal.Decimal `json:"balance"`
	Wins    int             `json:"wins"`
	Losses  int             `json:"losses"`
}

// NewLedger starts a ledger with the given balance.
func NewLedger(starting decimal.Decimal) Ledger {
	return Ledger{Balance: starting}
}

// Commit debits a wager. Rejects amounts outside 0 < amount <= balance
// with ErrInvalidWager and leaves the ledger untouched. No clamping:
// the caller retries with a valid amount.
func (l *Ledger) Commit(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) || amount.GreaterThan(l.Balance) {
		return ErrInvalidWager
	}
	l.Balance = l.Balance.Sub(amount)
	return nil
}

// CreditWin pays out a winning wager: principal plus equal winnings.
func (l *Ledger) CreditWin(wager decimal.Decimal) {
	l.Balance = l.Balance.Add(wager.Mul(decimal.NewFromInt(2)))
	l.Wins++
}

// RecordLoss counts a lost round. The wager was already debited at
// commit time, so the balance stays put.
func (l *Ledger) RecordLoss() {
	l.Losses++
}

// Refund returns a committed wager for a round that never settled.
func (l *Ledger) Refund(wager decimal.Decimal) {
	l.Balance = l.Balance.Add(wager)
}
