package infra

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"cryptoduel/internal/domain"
)

var (
	btc = domain.Asset{ID: "bitcoin", CoingeckoID: "bitcoin", FallbackPrice: 67000, Volatility: 0.0003}
	eth = domain.Asset{ID: "ethereum", CoingeckoID: "ethereum", FallbackPrice: 3200, Volatility: 0.0004}
)

// newTestClient points a client at a test server. A single attempt keeps
// retry backoff out of the test runtime.
func newTestClient(baseURL string) *CoinGeckoClient {
	cfg := DefaultConfig()
	cfg.API.CoinGecko.BaseURL = baseURL
	cfg.API.CoinGecko.MaxAttempts = 1
	cfg.API.CoinGecko.TimeoutSec = 2
	return NewCoinGeckoClient(cfg)
}

func TestCoinGeckoClient_StartingPrices(t *testing.T) {
	t.Run("both prices resolved", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("vs_currencies"); got != "usd" {
				t.Errorf("vs_currencies = %q", got)
			}
			if got := r.URL.Query().Get("ids"); got != "bitcoin,ethereum" {
				t.Errorf("ids = %q, expected one batched request", got)
			}
			w.Write([]byte(`{"bitcoin":{"usd":67012.5},"ethereum":{"usd":3199.1}}`))
		}))
		defer srv.Close()

		pair := newTestClient(srv.URL).StartingPrices(context.Background(), btc, eth)

		if pair.PriceA != 67012.5 || pair.PriceB != 3199.1 {
			t.Errorf("got %v / %v", pair.PriceA, pair.PriceB)
		}
		if pair.Degraded {
			t.Error("successful lookup should not be degraded")
		}
	})

	t.Run("missing asset falls back alone", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"bitcoin":{"usd":67012.5}}`))
		}))
		defer srv.Close()

		pair := newTestClient(srv.URL).StartingPrices(context.Background(), btc, eth)

		if pair.PriceA != 67012.5 {
			t.Errorf("resolved price replaced by fallback: %v", pair.PriceA)
		}
		if pair.PriceB != eth.FallbackPrice {
			t.Errorf("missing asset should use its fallback, got %v", pair.PriceB)
		}
		if !pair.Degraded {
			t.Error("partial response must be marked degraded")
		}
	})

	t.Run("non-positive quote falls back", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"bitcoin":{"usd":0},"ethereum":{"usd":3199.1}}`))
		}))
		defer srv.Close()

		pair := newTestClient(srv.URL).StartingPrices(context.Background(), btc, eth)

		if pair.PriceA != btc.FallbackPrice {
			t.Errorf("zero quote should use the fallback, got %v", pair.PriceA)
		}
		if !pair.Degraded {
			t.Error("zero quote must be marked degraded")
		}
	})

	t.Run("server error degrades both", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		pair := newTestClient(srv.URL).StartingPrices(context.Background(), btc, eth)

		if pair.PriceA != btc.FallbackPrice || pair.PriceB != eth.FallbackPrice {
			t.Errorf("expected both fallbacks, got %v / %v", pair.PriceA, pair.PriceB)
		}
		if !pair.Degraded {
			t.Error("failed lookup must be marked degraded")
		}
	})

	t.Run("malformed payload degrades both", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}))
		defer srv.Close()

		pair := newTestClient(srv.URL).StartingPrices(context.Background(), btc, eth)

		if pair.PriceA != btc.FallbackPrice || pair.PriceB != eth.FallbackPrice {
			t.Errorf("expected both fallbacks, got %v / %v", pair.PriceA, pair.PriceB)
		}
		if !pair.Degraded {
			t.Error("undecodable response must be marked degraded")
		}
	})

	t.Run("unreachable host degrades both", func(t *testing.T) {
		// Closed server: connection refused
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		pair := newTestClient(srv.URL).StartingPrices(context.Background(), btc, eth)

		if pair.PriceA != btc.FallbackPrice || pair.PriceB != eth.FallbackPrice {
			t.Errorf("expected both fallbacks, got %v / %v", pair.PriceA, pair.PriceB)
		}
		if !pair.Degraded {
			t.Error("connection failure must be marked degraded")
		}
	})
}

func TestCoinGeckoClient_RetryClassification(t *testing.T) {
	t.Run("rate limit is retried", func(t *testing.T) {
		attempts := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts++
			if attempts == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.Write([]byte(`{"bitcoin":{"usd":67012.5},"ethereum":{"usd":3199.1}}`))
		}))
		defer srv.Close()

		cfg := DefaultConfig()
		cfg.API.CoinGecko.BaseURL = srv.URL
		cfg.API.CoinGecko.MaxAttempts = 2
		client := NewCoinGeckoClient(cfg)

		pair := client.StartingPrices(context.Background(), btc, eth)

		if attempts != 2 {
			t.Errorf("expected a retry after 429, got %d attempts", attempts)
		}
		if pair.Degraded {
			t.Error("retry succeeded, pair should not be degraded")
		}
	})

	t.Run("client error is not retried", func(t *testing.T) {
		attempts := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts++
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		cfg := DefaultConfig()
		cfg.API.CoinGecko.BaseURL = srv.URL
		cfg.API.CoinGecko.MaxAttempts = 3
		client := NewCoinGeckoClient(cfg)

		pair := client.StartingPrices(context.Background(), btc, eth)

		if attempts != 1 {
			t.Errorf("404 should not be retried, got %d attempts", attempts)
		}
		if !pair.Degraded {
			t.Error("failed lookup must be marked degraded")
		}
	})
}
