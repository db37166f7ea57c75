// Package yield resolves live APY figures for catalog strategies from an
// external aggregator, with a TTL cache and layered static fallbacks.
package yield

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Pool is one aggregator record. APY fields are pointers because the feed
// reports null for pools it cannot compute.
type Pool struct {
	Chain   string   `json:"chain"`
	Project string   `json:"project"`
	Symbol  string   `json:"symbol"`
	TVLUsd  float64  `json:"tvlUsd"`
	APY     *float64 `json:"apy"`
	APYBase *float64 `json:"apyBase"`
}

func (p Pool) apy() float64 {
	if p.APY == nil {
		return 0
	}
	return *p.APY
}

// baseAPY is the unleveraged rate, falling back to the headline APY when the
// feed does not break it out.
func (p Pool) baseAPY() float64 {
	if p.APYBase != nil && *p.APYBase > 0 {
		return *p.APYBase
	}
	return p.apy()
}

// PoolSource supplies aggregator records. The service depends on this
// interface so tests can substitute a fixed pool set.
type PoolSource interface {
	Pools(ctx context.Context) ([]Pool, error)
}

// LlamaClient fetches the DeFiLlama yields listing.
type LlamaClient struct {
	url        string
	httpClient *http.Client
}

func NewLlamaClient(url string, timeout time.Duration) *LlamaClient {
	return &LlamaClient{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *LlamaClient) Pools(ctx context.Context) ([]Pool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("building pools request: %w", err)
	}
	req.Header.Set("User-Agent", "vaultpilot/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching pools: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pools endpoint returned %s", resp.Status)
	}

	var body struct {
		Data []Pool `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding pools response: %w", err)
	}
	return body.Data, nil
}
