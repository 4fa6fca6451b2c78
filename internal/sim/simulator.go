// Package sim implements the stochastic price evolution used during the
// countdown. A tick is a pure function of (price, volatility, rng state)
// so rounds are reproducible under a seeded generator.
package sim

import "math/rand"

// minPrice is the floor applied after a tick. With the volatilities used
// in practice (<0.001 per tick) this bound is never hit; it exists so a
// price can never reach zero or go negative.
const minPrice = 1e-9

// Tick advances a price by one random step: price * (1 + u) with u drawn
// uniformly from [-volatility, +volatility).
func Tick(price, volatility float64, rng *rand.Rand) float64 {
	u := (rng.Float64()*2 - 1) * volatility
	next := price * (1 + u)
	if next < minPrice {
		return minPrice
	}
	return next
}
