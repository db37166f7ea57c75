package yield

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"
)

// Mapping ties one catalog strategy to its aggregator coordinates. Symbol is
// an optional hint; Leveraged marks variants whose effective rate is about
// double the base pool's.
type Mapping struct {
	Chain       string
	Project     string
	Symbol      string
	FallbackAPY float64
	Leveraged   bool
}

// Quote is one resolved APY figure.
type Quote struct {
	StrategyID string
	APY        float64
	Source     string // "defillama" or "fallback"
	FetchedAt  time.Time
}

// DefaultMappings covers every catalog strategy with aggregator coverage.
// Strategies absent here fall back to their static catalog APY at the
// allocation layer.
func DefaultMappings() map[string]Mapping {
	return map[string]Mapping{
		"AaveV3Supply":          {Chain: "Base", Project: "aave-v3", Symbol: "USDC", FallbackAPY: 4.5},
		"AaveV3SupplyLeveraged": {Chain: "Base", Project: "aave-v3", Symbol: "USDC", FallbackAPY: 8.0, Leveraged: true},
		"MorphoSupply":          {Chain: "Base", Project: "morpho-blue", Symbol: "USDC", FallbackAPY: 8.5},
		"FluidSupply":           {Chain: "Base", Project: "fluid", Symbol: "USDC", FallbackAPY: 5.7},
		"Re7Strategy":           {Chain: "Base", Project: "morpho-v1", Symbol: "RE7USDC", FallbackAPY: 8.2},
		"AvantisVaultSupply":    {Chain: "Base", Project: "avantis", Symbol: "USDC", FallbackAPY: 20.2},
		"CianVaultSupply":       {Chain: "Mantle", Project: "cian-yield-layer", Symbol: "USDC", FallbackAPY: 7.08},
		"StCeloStaking":         {Chain: "Celo", Project: "aave-v3", Symbol: "USDC", FallbackAPY: 3.3},
		"AaveV3SupplyCelo":      {Chain: "Celo", Project: "aave-v3", Symbol: "CELO", FallbackAPY: 2.5},
		"AaveV3SupplyUSDTCelo":  {Chain: "Celo", Project: "aave-v3", Symbol: "USDT", FallbackAPY: 1.01},
		"AaveV3SupplyBSC":       {Chain: "Binance", Project: "aave-v3", Symbol: "WBNB", FallbackAPY: 1.6},
		"AaveV3SupplyPolygon":   {Chain: "Polygon", Project: "aave-v3", Symbol: "USDC", FallbackAPY: 3.8},
		"AaveV3SupplyArbitrum":  {Chain: "Arbitrum", Project: "aave-v3", Symbol: "USDC", FallbackAPY: 4.2},
		"AnkrFlowStaking":       {Chain: "Flow", Project: "ankr-staking", FallbackAPY: 10.8},
	}
}

// Service resolves live APYs with a TTL cache in front of the aggregator.
// All state is carried by the instance; construct one and share it.
type Service struct {
	source   PoolSource
	cache    *ristretto.Cache
	ttl      time.Duration
	mappings map[string]Mapping
}

func NewService(source PoolSource, mappings map[string]Mapping, ttl time.Duration) (*Service, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Service{source: source, cache: cache, ttl: ttl, mappings: mappings}, nil
}

// FetchAll resolves a quote for every mapped strategy. It never fails: a
// transport or parse error yields the complete static fallback map, and a
// per-strategy miss yields that strategy's individual fallback. Within the
// TTL window a fully cached set short-circuits the aggregator entirely.
func (s *Service) FetchAll(ctx context.Context) map[string]Quote {
	if cached, ok := s.allCached(); ok {
		return cached
	}

	pools, err := s.source.Pools(ctx)
	if err != nil {
		slog.Warn("yield aggregator unavailable, using fallback rates", "error", err)
		return s.fallbackAll()
	}

	quotes := make(map[string]Quote, len(s.mappings))
	now := time.Now()
	for id, m := range s.mappings {
		q := Quote{StrategyID: id, FetchedAt: now}
		if pool, ok := findPool(pools, m); ok {
			q.APY = effectiveAPY(m, pool)
			q.Source = "defillama"
		} else {
			slog.Debug("no aggregator pool for strategy, using fallback",
				"strategy", id, "project", m.Project, "chain", m.Chain)
			q.APY = m.FallbackAPY
			q.Source = "fallback"
		}
		quotes[id] = q
		s.cache.SetWithTTL(id, q, 1, s.ttl)
	}
	s.cache.Wait()

	slog.Info("live yields refreshed", "strategies", len(quotes))
	return quotes
}

func (s *Service) allCached() (map[string]Quote, bool) {
	quotes := make(map[string]Quote, len(s.mappings))
	for id := range s.mappings {
		v, ok := s.cache.Get(id)
		if !ok {
			return nil, false
		}
		quotes[id] = v.(Quote)
	}
	return quotes, true
}

func (s *Service) fallbackAll() map[string]Quote {
	quotes := make(map[string]Quote, len(s.mappings))
	now := time.Now()
	for id, m := range s.mappings {
		quotes[id] = Quote{StrategyID: id, APY: m.FallbackAPY, Source: "fallback", FetchedAt: now}
	}
	return quotes
}

// findPool selects the best aggregator candidate for a mapping: filter by
// chain and project, prefer a symbol match when the mapping carries a hint,
// otherwise take the deepest pool by TVL.
func findPool(pools []Pool, m Mapping) (Pool, bool) {
	var candidates []Pool
	for _, p := range pools {
		if p.Chain == m.Chain && p.Project == m.Project {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return Pool{}, false
	}

	if m.Symbol != "" {
		want := strings.ToUpper(m.Symbol)
		for _, p := range candidates {
			if strings.Contains(strings.ToUpper(p.Symbol), want) {
				return p, true
			}
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].TVLUsd > candidates[j].TVLUsd
	})
	return candidates[0], true
}

func effectiveAPY(m Mapping, pool Pool) float64 {
	if m.Leveraged {
		return pool.baseAPY() * 2
	}
	return pool.apy()
}
