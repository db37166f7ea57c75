package yield

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func f(v float64) *float64 { return &v }

func testMappings() map[string]Mapping {
	return map[string]Mapping{
		"AaveV3Supply":          {Chain: "Base", Project: "aave-v3", Symbol: "USDC", FallbackAPY: 4.5},
		"AaveV3SupplyLeveraged": {Chain: "Base", Project: "aave-v3", Symbol: "USDC", FallbackAPY: 8.0, Leveraged: true},
		"AnkrFlowStaking":       {Chain: "Flow", Project: "ankr-staking", FallbackAPY: 10.8},
	}
}

type erroringSource struct{}

func (erroringSource) Pools(context.Context) ([]Pool, error) {
	return nil, errors.New("connection refused")
}

func TestFetchAllUnreachableReturnsFullFallback(t *testing.T) {
	mappings := testMappings()
	svc, err := NewService(erroringSource{}, mappings, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	quotes := svc.FetchAll(context.Background())

	if len(quotes) != len(mappings) {
		t.Fatalf("got %d quotes, want %d (no partial map)", len(quotes), len(mappings))
	}
	for id, m := range mappings {
		q, ok := quotes[id]
		if !ok {
			t.Fatalf("missing quote for %s", id)
		}
		if q.Source != "fallback" || q.APY != m.FallbackAPY {
			t.Errorf("%s: got %v/%s, want fallback %v", id, q.APY, q.Source, m.FallbackAPY)
		}
	}
}

func poolsServer(t *testing.T, hits *atomic.Int64, pools []Pool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		json.NewEncoder(w).Encode(map[string]any{"data": pools})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchAllMatchingRules(t *testing.T) {
	pools := []Pool{
		// Wrong symbol but deeper TVL: must lose to the symbol match.
		{Chain: "Base", Project: "aave-v3", Symbol: "WETH", TVLUsd: 900e6, APY: f(2.1), APYBase: f(2.0)},
		{Chain: "Base", Project: "aave-v3", Symbol: "USDC", TVLUsd: 300e6, APY: f(5.2), APYBase: f(5.0)},
		// No symbol hint for Ankr: highest TVL wins.
		{Chain: "Flow", Project: "ankr-staking", Symbol: "ANKRFLOW", TVLUsd: 10e6, APY: f(11.5)},
		{Chain: "Flow", Project: "ankr-staking", Symbol: "OTHER", TVLUsd: 50e6, APY: f(9.9)},
	}
	var hits atomic.Int64
	srv := poolsServer(t, &hits, pools)

	svc, err := NewService(NewLlamaClient(srv.URL, time.Second), testMappings(), time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	quotes := svc.FetchAll(context.Background())

	if q := quotes["AaveV3Supply"]; q.APY != 5.2 || q.Source != "defillama" {
		t.Errorf("AaveV3Supply = %v/%s, want symbol-matched 5.2", q.APY, q.Source)
	}
	// Leveraged variant doubles the base rate of the matched pool.
	if q := quotes["AaveV3SupplyLeveraged"]; q.APY != 10.0 {
		t.Errorf("leveraged APY = %v, want 2x base 10.0", q.APY)
	}
	if q := quotes["AnkrFlowStaking"]; q.APY != 9.9 {
		t.Errorf("AnkrFlowStaking = %v, want highest-TVL 9.9", q.APY)
	}
}

func TestFetchAllTTLIdempotence(t *testing.T) {
	pools := []Pool{
		{Chain: "Base", Project: "aave-v3", Symbol: "USDC", TVLUsd: 300e6, APY: f(5.2), APYBase: f(5.0)},
	}
	var hits atomic.Int64
	srv := poolsServer(t, &hits, pools)

	svc, err := NewService(NewLlamaClient(srv.URL, time.Second), testMappings(), time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	first := svc.FetchAll(context.Background())
	second := svc.FetchAll(context.Background())

	if hits.Load() != 1 {
		t.Fatalf("aggregator hit %d times, want 1 (cache short-circuit)", hits.Load())
	}
	for id, q1 := range first {
		q2 := second[id]
		if q1.APY != q2.APY || q1.Source != q2.Source || !q1.FetchedAt.Equal(q2.FetchedAt) {
			t.Errorf("%s: quotes differ within TTL: %+v vs %+v", id, q1, q2)
		}
	}
}

func TestFetchAllPerStrategyMiss(t *testing.T) {
	// Aggregator answers, but only covers the Aave pools.
	pools := []Pool{
		{Chain: "Base", Project: "aave-v3", Symbol: "USDC", TVLUsd: 300e6, APY: f(5.2), APYBase: f(5.0)},
	}
	var hits atomic.Int64
	srv := poolsServer(t, &hits, pools)

	svc, err := NewService(NewLlamaClient(srv.URL, time.Second), testMappings(), time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	quotes := svc.FetchAll(context.Background())

	if q := quotes["AnkrFlowStaking"]; q.Source != "fallback" || q.APY != 10.8 {
		t.Errorf("uncovered strategy = %v/%s, want individual fallback 10.8", q.APY, q.Source)
	}
	if q := quotes["AaveV3Supply"]; q.Source != "defillama" {
		t.Errorf("covered strategy source = %s, want defillama", q.Source)
	}
}

func TestDefaultMappingsCoverKnownChains(t *testing.T) {
	for id, m := range DefaultMappings() {
		if m.Chain == "" || m.Project == "" {
			t.Errorf("%s: mapping missing chain or project", id)
		}
		if m.FallbackAPY <= 0 {
			t.Errorf("%s: fallback APY must be positive", id)
		}
	}
}
