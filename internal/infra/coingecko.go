package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cryptoduel/internal/domain"
)

// CoinGeckoClient resolves live starting prices from the CoinGecko
// /simple/price endpoint. It implements domain.PriceSource: faults are
// absorbed into per-asset fallback pricing and never surface to gameplay.
type CoinGeckoClient struct {
	baseURL     string
	maxAttempts int
	httpClient  *http.Client
}

// NewCoinGeckoClient creates a client from config.
func NewCoinGeckoClient(cfg *Config) *CoinGeckoClient {
	timeout := time.Duration(cfg.API.CoinGecko.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	attempts := cfg.API.CoinGecko.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	return &CoinGeckoClient{
		baseURL:     strings.TrimSuffix(cfg.API.CoinGecko.BaseURL, "/"),
		maxAttempts: attempts,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// StartingPrices looks up both assets in one batched request. A missing
// id degrades only that asset to its fallback price; a failed request
// degrades both. The result is always usable.
func (c *CoinGeckoClient) StartingPrices(ctx context.Context, a, b domain.Asset) domain.PricePair {
	pair := domain.PricePair{PriceA: a.FallbackPrice, PriceB: b.FallbackPrice}

	prices, err := c.fetchSimplePrices(ctx, []string{a.CoingeckoID, b.CoingeckoID})
	if err != nil {
		slog.Warn("price lookup failed, using fallback prices",
			slog.String("asset_a", a.ID),
			slog.String("asset_b", b.ID),
			slog.Any("error", err),
		)
		GlobalMetrics.RecordFetchFailure()
		pair.Degraded = true
		return pair
	}

	if p, ok := prices[a.CoingeckoID]; ok && p > 0 {
		pair.PriceA = p
	} else {
		slog.Warn("price missing from response, using fallback", slog.String("asset", a.ID))
		pair.Degraded = true
	}
	if p, ok := prices[b.CoingeckoID]; ok && p > 0 {
		pair.PriceB = p
	} else {
		slog.Warn("price missing from response, using fallback", slog.String("asset", b.ID))
		pair.Degraded = true
	}
	if pair.Degraded {
		GlobalMetrics.RecordFetchFailure()
	}
	return pair
}

// fetchSimplePrices fetches usd prices for the given ids with retry logic
func (c *CoinGeckoClient) fetchSimplePrices(ctx context.Context, ids []string) (map[string]float64, error) {
	var lastErr error
	for i := 0; i < c.maxAttempts; i++ {
		if i > 0 {
			// Exponential backoff: 1s, 2s, 4s
			delay := time.Duration(1<<uint(i-1)) * time.Second
			slog.Debug("retrying price fetch", slog.Int("attempt", i), slog.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		prices, err := c.doFetch(ctx, ids)
		if err == nil {
			return prices, nil
		}
		lastErr = err
		if !domain.IsRetriable(err) {
			break
		}
	}
	return nil, lastErr
}

func (c *CoinGeckoClient) doFetch(ctx context.Context, ids []string) (map[string]float64, error) {
	endpoint := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd",
		c.baseURL, url.QueryEscape(strings.Join(ids, ",")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, domain.NewFatalPriceFetchError("request", err)
	}

	// Browser-like User-Agent to avoid bot detection
	req.Header.Set("User-Agent", DefaultUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewPriceFetchError("request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		// Rate limits and server faults are worth retrying; other client
		// errors are not.
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, domain.NewPriceFetchError("status", statusErr)
		}
		return nil, domain.NewFatalPriceFetchError("status", statusErr)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewPriceFetchError("read", err)
	}

	// Response shape: {"bitcoin":{"usd":67000.1},...}
	var payload map[string]map[string]float64
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, domain.NewFatalPriceFetchError("decode", err)
	}

	prices := make(map[string]float64, len(payload))
	for id, quote := range payload {
		if usd, ok := quote["usd"]; ok {
			prices[id] = usd
		}
	}
	return prices, nil
}
