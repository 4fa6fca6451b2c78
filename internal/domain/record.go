package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RoundRecord is the persisted form of a settled round
type RoundRecord struct {
	ID              string          `gorm:"primaryKey" json:"id"` // round uuid
	AssetA          string          `json:"asset_a"`
	AssetB          string          `json:"asset_b"`
	SelectedAssetID string          `json:"selected_asset_id"`
	WinnerID        string          `json:"winner_id" gorm:"index"`
	Won             bool            `json:"won"`
	PctA            float64         `json:"pct_a"`
	PctB            float64         `json:"pct_b"`
	Wager           decimal.Decimal `json:"wager" gorm:"type:numeric"`
	Payout          decimal.Decimal `json:"payout" gorm:"type:numeric"`
	PricingDegraded bool            `json:"pricing_degraded"`
	SettledAt       time.Time       `json:"settled_at" gorm:"index"`
}

// NewRoundRecord flattens a settled round into its persisted form.
// Payout is the gross credit on a win (2x wager) and zero on a loss.
func NewRoundRecord(r *Round, settledAt time.Time) *RoundRecord {
	rec := &RoundRecord{
		ID:              r.ID.String(),
		AssetA:          r.AssetA.ID,
		AssetB:          r.AssetB.ID,
		SelectedAssetID: r.SelectedAssetID,
		WinnerID:        r.WinnerID,
		Won:             r.SelectedAssetID == r.WinnerID,
		PctA:            r.PctA,
		PctB:            r.PctB,
		Wager:           r.Wager,
		Payout:          decimal.Zero,
		PricingDegraded: r.PricingDegraded,
		SettledAt:       settledAt,
	}
	if rec.Won {
		rec.Payout = r.Wager.Mul(decimal.NewFromInt(2))
	}
	return rec
}
