package domain

import (
	"fmt"
	"math/rand"
	"sync"
)

// Asset describes one playable cryptocurrency. Pricing fields are defined
// once at startup (config or DefaultAssets) and never mutated; IconPath
// is display metadata filled in later by the icon sync.
type Asset struct {
	ID            string  `json:"id" yaml:"id"`
	DisplayName   string  `json:"display_name" yaml:"display_name"`
	Symbol        string  `json:"symbol" yaml:"symbol"` // Ticker symbol, keys the icon CDN
	CoingeckoID   string  `json:"coingecko_id" yaml:"coingecko_id"`
	FallbackPrice float64 `json:"fallback_price" yaml:"fallback_price"` // Used when the live lookup fails
	Volatility    float64 `json:"volatility" yaml:"volatility"`         // Per-tick fractional spread
	Decimals      int     `json:"decimals" yaml:"decimals"`
	Color         string  `json:"color" yaml:"color"`
	IconPath      string  `json:"icon_path" yaml:"-"`
}

// Catalog is the registry of playable assets. Safe for concurrent use:
// the background icon sync writes display metadata while the session
// goroutine reads pairs.
type Catalog struct {
	mu     sync.RWMutex
	assets []Asset
	byID   map[string]int
}

// NewCatalog validates and indexes the asset list.
// At least two entries with unique IDs are required.
func NewCatalog(assets []Asset) (*Catalog, error) {
	if len(assets) < 2 {
		return nil, fmt.Errorf("catalog needs at least 2 assets, got %d", len(assets))
	}

	byID := make(map[string]int, len(assets))
	for i, a := range assets {
		if a.ID == "" {
			return nil, fmt.Errorf("asset at index %d has empty id", i)
		}
		if _, dup := byID[a.ID]; dup {
			return nil, fmt.Errorf("duplicate asset id: %s", a.ID)
		}
		if a.FallbackPrice <= 0 {
			return nil, fmt.Errorf("asset %s: fallback price must be positive", a.ID)
		}
		if a.Volatility <= 0 {
			return nil, fmt.Errorf("asset %s: volatility must be positive", a.ID)
		}
		byID[a.ID] = i
	}

	// Defensive copy so callers cannot mutate the registry
	own := make([]Asset, len(assets))
	copy(own, assets)

	return &Catalog{assets: own, byID: byID}, nil
}

// Assets returns the full ordered list as a copy.
func (c *Catalog) Assets() []Asset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Asset, len(c.assets))
	copy(out, c.assets)
	return out
}

// ByID looks up an asset by its id.
func (c *Catalog) ByID(id string) (Asset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok {
		return Asset{}, false
	}
	return c.assets[i], true
}

// Len returns the number of registered assets.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.assets)
}

// SetIconPath records the local icon path for an asset after a sync.
// Display metadata only; pricing fields stay immutable.
func (c *Catalog) SetIconPath(id, path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i, ok := c.byID[id]; ok {
		c.assets[i].IconPath = path
	}
}

// PickTwo selects two distinct assets uniformly at random without
// replacement. Deterministic for a seeded rng.
func (c *Catalog) PickTwo(rng *rand.Rand) (Asset, Asset) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := len(c.assets)
	i := rng.Intn(n)
	j := rng.Intn(n - 1)
	if j >= i {
		j++
	}
	return c.assets[i], c.assets[j]
}

// DefaultAssets is the built-in catalog used when the config file does
// not define one.
func DefaultAssets() []Asset {
	return []Asset{
		{ID: "bitcoin", DisplayName: "Bitcoin", Symbol: "btc", CoingeckoID: "bitcoin", FallbackPrice: 67000, Volatility: 0.0003, Decimals: 2, Color: "#f59e0b"},
		{ID: "ethereum", DisplayName: "Ethereum", Symbol: "eth", CoingeckoID: "ethereum", FallbackPrice: 3200, Volatility: 0.0004, Decimals: 2, Color: "#8b5cf6"},
		{ID: "solana", DisplayName: "Solana", Symbol: "sol", CoingeckoID: "solana", FallbackPrice: 140, Volatility: 0.0006, Decimals: 2, Color: "#10b981"},
		{ID: "cardano", DisplayName: "Cardano", Symbol: "ada", CoingeckoID: "cardano", FallbackPrice: 0.45, Volatility: 0.0005, Decimals: 4, Color: "#3b82f6"},
		{ID: "dogecoin", DisplayName: "Dogecoin", Symbol: "doge", CoingeckoID: "dogecoin", FallbackPrice: 0.15, Volatility: 0.0008, Decimals: 4, Color: "#eab308"},
		{ID: "polkadot", DisplayName: "Polkadot", Symbol: "dot", CoingeckoID: "polkadot", FallbackPrice: 6.8, Volatility: 0.0005, Decimals: 2, Color: "#ec4899"},
		{ID: "ripple", DisplayName: "XRP", Symbol: "xrp", CoingeckoID: "ripple", FallbackPrice: 0.52, Volatility: 0.0004, Decimals: 4, Color: "#0ea5e9"},
		{ID: "chainlink", DisplayName: "Chainlink", Symbol: "link", CoingeckoID: "chainlink", FallbackPrice: 14.2, Volatility: 0.0005, Decimals: 2, Color: "#06b6d4"},
	}
}
