package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Phase is the lifecycle stage of a round.
type Phase string

const (
	PhaseAwaitingBet       Phase = "awaiting_bet"
	PhaseAwaitingSelection Phase = "awaiting_selection"
	PhaseCounting          Phase = "counting"
	PhaseSettled           Phase = "settled"
)

// Round is the single live game round. Only the session loop mutates it;
// everyone else sees copies via RoundSnapshot.
type Round struct {
	ID    uuid.UUID
	Phase Phase

	AssetA Asset
	AssetB Asset

	PriceA float64
	PriceB float64

	// Histories are seeded with the locked-in price at selection time and
	// grow by one entry per tick. Append-only within a round.
	HistoryA []float64
	HistoryB []float64

	TicksRemaining  int
	SelectedAssetID string
	Wager           decimal.Decimal

	// Settlement output
	WinnerID string
	PctA     float64
	PctB     float64

	// True when one or both starting prices came from the static fallback.
	PricingDegraded bool
}

// ChangePct returns the percent change from the first to the last entry
// of a price history. Zero for histories too short to compare.
func ChangePct(history []float64) float64 {
	if len(history) < 2 || history[0] == 0 {
		return 0
	}
	return (history[len(history)-1] - history[0]) / history[0] * 100
}

// Winner resolves the round winner from the two percent changes.
// Strict greater-than: an exact tie goes to asset B, by rule.
func (r *Round) Winner(pctA, pctB float64) string {
	if pctA > pctB {
		return r.AssetA.ID
	}
	return r.AssetB.ID
}

// RoundSnapshot is the read-only projection of a round plus the session
// ledger, safe to hand to the presentation layer.
type RoundSnapshot struct {
	RoundID         string    `json:"round_id"`
	Phase           Phase     `json:"phase"`
	AssetA          Asset     `json:"asset_a"`
	AssetB          Asset     `json:"asset_b"`
	PriceA          float64   `json:"price_a"`
	PriceB          float64   `json:"price_b"`
	HistoryA        []float64 `json:"history_a"`
	HistoryB        []float64 `json:"history_b"`
	TicksRemaining  int       `json:"ticks_remaining"`
	SelectedAssetID string    `json:"selected_asset_id,omitempty"`
	WinnerID        string    `json:"winner_id,omitempty"`
	PctA            float64   `json:"pct_a"`
	PctB            float64   `json:"pct_b"`
	PricingDegraded bool      `json:"pricing_degraded"`
	Ledger          Ledger    `json:"ledger"`
}

// Snapshot builds a deep-copied projection of the round.
func (r *Round) Snapshot(ledger Ledger) RoundSnapshot {
	snap := RoundSnapshot{
		RoundID:         r.ID.String(),
		Phase:           r.Phase,
		AssetA:          r.AssetA,
		AssetB:          r.AssetB,
		PriceA:          r.PriceA,
		PriceB:          r.PriceB,
		TicksRemaining:  r.TicksRemaining,
		SelectedAssetID: r.SelectedAssetID,
		WinnerID:        r.WinnerID,
		PctA:            r.PctA,
		PctB:            r.PctB,
		PricingDegraded: r.PricingDegraded,
		Ledger:          ledger,
	}
	if len(r.HistoryA) > 0 {
		snap.HistoryA = append([]float64(nil), r.HistoryA...)
	}
	if len(r.HistoryB) > 0 {
		snap.HistoryB = append([]float64(nil), r.HistoryB...)
	}
	return snap
}
