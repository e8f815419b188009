// Package rates implements the live price and fee-estimate collaborators
// over public HTTP APIs. Both clients share the same posture: short
// timeouts, a couple of retries with backoff, a brief cache so chatty
// conversations do not hammer the upstream, and degradation to
// wallet.ErrUnavailable instead of blocking the conversation.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seijun/satomi/common/retry"
	"github.com/seijun/satomi/internal/satomi/wallet"
)

const (
	requestTimeout = 5 * time.Second
	cacheTTL       = 30 * time.Second

	defaultPriceURL = "https://api.coingecko.com/api/v3/simple/price"
	defaultFeesURL  = "https://mempool.space/api/v1/fees/recommended"
)

var retryConfig = retry.Config{
	MaxAttempts:  2,
	InitialDelay: 300 * time.Millisecond,
	MaxDelay:     time.Second,
}

// PriceClient quotes BTC prices from a CoinGecko-compatible endpoint.
// It implements wallet.PriceSource.
type PriceClient struct {
	baseURL string
	client  *http.Client

	mu    sync.Mutex
	cache map[string]pricePoint
}

type pricePoint struct {
	price decimal.Decimal
	at    time.Time
}

// NewPriceClient returns a PriceClient. An empty baseURL selects the public
// CoinGecko endpoint.
func NewPriceClient(baseURL string) *PriceClient {
	if baseURL == "" {
		baseURL = defaultPriceURL
	}
	return &PriceClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: requestTimeout},
		cache:   make(map[string]pricePoint),
	}
}

// Price returns the BTC price in the given ISO-4217 currency.
func (c *PriceClient) Price(ctx context.Context, currency string) (decimal.Decimal, error) {
	cur := strings.ToLower(currency)

	c.mu.Lock()
	if p, ok := c.cache[cur]; ok && time.Since(p.at) < cacheTTL {
		c.mu.Unlock()
		return p.price, nil
	}
	c.mu.Unlock()

	var price decimal.Decimal
	err := retry.Do(ctx, retryConfig, func() error {
		p, err := c.fetch(ctx, cur)
		if err != nil {
			return err
		}
		price = p
		return nil
	})
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: price %s: %v", wallet.ErrUnavailable, currency, err)
	}

	c.mu.Lock()
	c.cache[cur] = pricePoint{price: price, at: time.Now()}
	c.mu.Unlock()
	return price, nil
}

func (c *PriceClient) fetch(ctx context.Context, cur string) (decimal.Decimal, error) {
	q := url.Values{"ids": {"bitcoin"}, "vs_currencies": {cur}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return decimal.Decimal{}, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return decimal.Decimal{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return decimal.Decimal{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	// {"bitcoin": {"usd": 67123.45}}
	var payload map[string]map[string]json.Number
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Decimal{}, err
	}
	raw, ok := payload["bitcoin"][cur]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("no quote for %q", cur)
	}
	return decimal.NewFromString(raw.String())
}

// FeeClient fetches recommended fee rates from a mempool.space-compatible
// endpoint. It implements wallet.FeeSource.
type FeeClient struct {
	baseURL string
	client  *http.Client

	mu     sync.Mutex
	cached wallet.FeeEstimates
}

// NewFeeClient returns a FeeClient. An empty baseURL selects the public
// mempool.space endpoint.
func NewFeeClient(baseURL string) *FeeClient {
	if baseURL == "" {
		baseURL = defaultFeesURL
	}
	return &FeeClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

// Estimates returns the current slow/medium/fast rate triple.
func (c *FeeClient) Estimates(ctx context.Context) (wallet.FeeEstimates, error) {
	c.mu.Lock()
	if time.Since(c.cached.FetchedAt) < cacheTTL {
		est := c.cached
		c.mu.Unlock()
		return est, nil
	}
	c.mu.Unlock()

	var est wallet.FeeEstimates
	err := retry.Do(ctx, retryConfig, func() error {
		e, err := c.fetch(ctx)
		if err != nil {
			return err
		}
		est = e
		return nil
	})
	if err != nil {
		return wallet.FeeEstimates{}, fmt.Errorf("%w: fees: %v", wallet.ErrUnavailable, err)
	}

	c.mu.Lock()
	c.cached = est
	c.mu.Unlock()
	return est, nil
}

func (c *FeeClient) fetch(ctx context.Context) (wallet.FeeEstimates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return wallet.FeeEstimates{}, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return wallet.FeeEstimates{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return wallet.FeeEstimates{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		FastestFee  float64 `json:"fastestFee"`
		HalfHourFee float64 `json:"halfHourFee"`
		HourFee     float64 `json:"hourFee"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return wallet.FeeEstimates{}, err
	}
	return wallet.FeeEstimates{
		SlowSatVB:   payload.HourFee,
		MediumSatVB: payload.HalfHourFee,
		FastSatVB:   payload.FastestFee,
		FetchedAt:   time.Now(),
	}, nil
}
