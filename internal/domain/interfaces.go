package domain

import "context"

// PricePair is the resolved starting prices for a round. Degraded is
// set when one or both prices came from the static fallback instead of
// the live lookup.
type PricePair struct {
	PriceA   float64
	PriceB   float64
	Degraded bool
}

// PriceSource resolves starting prices for the two round assets in one
// batched lookup. Implementations must not fail: any fault degrades to
// the per-asset fallback price and is reported via PricePair.Degraded.
type PriceSource interface {
	StartingPrices(ctx context.Context, a, b Asset) PricePair
}

// RoundRecorder persists settled rounds for diagnostics and stats.
// Gameplay only writes; live state is never restored from it.
type RoundRecorder interface {
	SaveRound(rec *RoundRecord) error
}
