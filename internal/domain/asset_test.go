package domain

import (
	"math/rand"
	"sync"
	"testing"
)

func testAssets() []Asset {
	return []Asset{
		{ID: "bitcoin", DisplayName: "Bitcoin", Symbol: "btc", CoingeckoID: "bitcoin", FallbackPrice: 67000, Volatility: 0.0003, Decimals: 2},
		{ID: "ethereum", DisplayName: "Ethereum", Symbol: "eth", CoingeckoID: "ethereum", FallbackPrice: 3200, Volatility: 0.0004, Decimals: 2},
		{ID: "dogecoin", DisplayName: "Dogecoin", Symbol: "doge", CoingeckoID: "dogecoin", FallbackPrice: 0.15, Volatility: 0.0008, Decimals: 4},
	}
}

func TestNewCatalog_Validation(t *testing.T) {
	t.Run("valid list", func(t *testing.T) {
		c, err := NewCatalog(testAssets())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.Len() != 3 {
			t.Errorf("expected 3 assets, got %d", c.Len())
		}
	})

	t.Run("too few assets", func(t *testing.T) {
		if _, err := NewCatalog(testAssets()[:1]); err == nil {
			t.Error("expected error for single-asset catalog")
		}
	})

	t.Run("duplicate id", func(t *testing.T) {
		assets := testAssets()
		assets[1].ID = assets[0].ID
		if _, err := NewCatalog(assets); err == nil {
			t.Error("expected error for duplicate id")
		}
	})

	t.Run("non-positive fallback price", func(t *testing.T) {
		assets := testAssets()
		assets[0].FallbackPrice = 0
		if _, err := NewCatalog(assets); err == nil {
			t.Error("expected error for zero fallback price")
		}
	})

	t.Run("non-positive volatility", func(t *testing.T) {
		assets := testAssets()
		assets[2].Volatility = -0.0001
		if _, err := NewCatalog(assets); err == nil {
			t.Error("expected error for negative volatility")
		}
	})
}

func TestCatalog_ByID(t *testing.T) {
	c, _ := NewCatalog(testAssets())

	a, ok := c.ByID("ethereum")
	if !ok {
		t.Fatal("ethereum should exist")
	}
	if a.FallbackPrice != 3200 {
		t.Errorf("expected fallback 3200, got %v", a.FallbackPrice)
	}

	if _, ok := c.ByID("nope"); ok {
		t.Error("unknown id should not resolve")
	}
}

func TestCatalog_PickTwo(t *testing.T) {
	c, _ := NewCatalog(testAssets())

	t.Run("always distinct", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))
		for i := 0; i < 1000; i++ {
			a, b := c.PickTwo(rng)
			if a.ID == b.ID {
				t.Fatalf("picked the same asset twice: %s", a.ID)
			}
		}
	})

	t.Run("deterministic under a fixed seed", func(t *testing.T) {
		r1 := rand.New(rand.NewSource(42))
		r2 := rand.New(rand.NewSource(42))
		for i := 0; i < 50; i++ {
			a1, b1 := c.PickTwo(r1)
			a2, b2 := c.PickTwo(r2)
			if a1.ID != a2.ID || b1.ID != b2.ID {
				t.Fatalf("seeded picks diverged at %d: (%s,%s) vs (%s,%s)", i, a1.ID, b1.ID, a2.ID, b2.ID)
			}
		}
	})

	t.Run("every asset reachable", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7))
		seen := make(map[string]bool)
		for i := 0; i < 200; i++ {
			a, b := c.PickTwo(rng)
			seen[a.ID] = true
			seen[b.ID] = true
		}
		if len(seen) != c.Len() {
			t.Errorf("expected all %d assets to appear, saw %d", c.Len(), len(seen))
		}
	})
}

// Icon sync writes display metadata from its own goroutines while the
// session keeps drawing pairs. Run with -race.
func TestCatalog_ConcurrentIconSyncAndReads(t *testing.T) {
	c, _ := NewCatalog(testAssets())

	var writers sync.WaitGroup
	for _, a := range c.Assets() {
		writers.Add(1)
		go func(id string) {
			defer writers.Done()
			for i := 0; i < 200; i++ {
				c.SetIconPath(id, "/tmp/icons/"+id+".png")
			}
		}(a.ID)
	}

	done := make(chan struct{})
	go func() {
		writers.Wait()
		close(done)
	}()

	rng := rand.New(rand.NewSource(9))
	for {
		select {
		case <-done:
			for _, a := range c.Assets() {
				if a.IconPath == "" {
					t.Errorf("asset %s missing icon path after sync", a.ID)
				}
			}
			return
		default:
		}

		a, b := c.PickTwo(rng)
		if a.ID == b.ID {
			t.Fatal("picked the same asset twice during icon sync")
		}
		c.ByID(a.ID)
		c.Assets()
	}
}

func TestDefaultAssets_CarryIconSymbols(t *testing.T) {
	for _, a := range DefaultAssets() {
		if a.Symbol == "" {
			t.Errorf("asset %s has no ticker symbol for the icon CDN", a.ID)
		}
		if a.Symbol == a.CoingeckoID {
			t.Errorf("asset %s: symbol %q must be the ticker, not the lookup id", a.ID, a.Symbol)
		}
	}
}

func TestCatalog_AssetsIsACopy(t *testing.T) {
	c, _ := NewCatalog(testAssets())

	list := c.Assets()
	list[0].FallbackPrice = -1

	a, _ := c.ByID(list[0].ID)
	if a.FallbackPrice != 67000 {
		t.Error("mutating the returned slice must not touch the registry")
	}
}
