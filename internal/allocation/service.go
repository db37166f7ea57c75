package allocation

import (
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"vaultpilot/internal/strategy"
)

// Allocation assigns one selected strategy its percentage of the portfolio.
// A constructed set always sums to 100.
type Allocation struct {
	Strategy strategy.Identity
	Percent  int
}

// Service computes risk-tiered portfolio allocations over the strategy
// catalog. The rng drives the deliberate jitter in weight assignment;
// injecting it keeps the output reproducible under test.
type Service struct {
	catalog      []strategy.Descriptor
	pinnedMedium []string
	tiers        Thresholds
	rng          *rand.Rand
}

func NewService(catalog []strategy.Descriptor, pinnedMedium []string, tiers Thresholds, rng *rand.Rand) *Service {
	return &Service{catalog: catalog, pinnedMedium: pinnedMedium, tiers: tiers, rng: rng}
}

type candidate struct {
	desc strategy.Descriptor
	apy  float64
}

// SelectForRisk picks candidate strategies for the tier on the given chain
// and weights them. Live APYs override static catalog figures per strategy;
// a nil map degrades fully to static data.
func (s *Service) SelectForRisk(tier strategy.RiskTier, chainID uint64, live map[string]float64) []Allocation {
	selected := s.selectCandidates(tier, chainID, live)
	if len(selected) == 0 {
		return nil
	}

	weights := s.weights(selected, tier)

	out := make([]Allocation, len(selected))
	for i, c := range selected {
		out[i] = Allocation{Strategy: c.desc.Identity(), Percent: weights[i]}
	}

	slog.Info("portfolio allocation computed",
		"tier", tier, "chain_id", chainID, "strategies", len(out))
	return out
}

// FindByRisk lists active catalog strategies whose effective tier matches.
// Unlike allocation selection, which trusts the static catalog labels,
// discovery reclassifies each strategy by its live APY so a nominally
// low-risk strategy paying outsized yield surfaces under the higher tier.
func (s *Service) FindByRisk(tier strategy.RiskTier, live map[string]float64) []strategy.Descriptor {
	var out []strategy.Descriptor
	for _, d := range s.catalog {
		if d.Status != strategy.StatusActive {
			continue
		}
		if s.tiers.Effective(live[d.ID], d.Risk) == tier {
			out = append(out, d)
		}
	}
	return out
}

func (s *Service) selectCandidates(tier strategy.RiskTier, chainID uint64, live map[string]float64) []candidate {
	onChain := s.enrich(s.activeOn(chainID), live)

	switch tier {
	case strategy.RiskLow:
		return topByAPY(filterRisk(onChain, strategy.RiskLow), 2)

	case strategy.RiskMedium:
		// The pinned shortlist is looked up across the whole catalog,
		// deliberately ignoring the chain filter.
		if pinned := s.enrich(s.pinnedActive(), live); len(pinned) > 0 {
			sortByAPY(pinned)
			return pinned
		}
		return topByAPY(filterRisk(onChain, strategy.RiskMedium), 3)

	case strategy.RiskHigh:
		high := filterRisk(onChain, strategy.RiskHigh)
		if len(high) >= 2 {
			return topByAPY(high, 3)
		}
		return topByAPY(filterRisk(onChain, strategy.RiskMedium), 3)

	default:
		return nil
	}
}

func (s *Service) activeOn(chainID uint64) []strategy.Descriptor {
	var out []strategy.Descriptor
	for _, d := range s.catalog {
		if d.ChainID == chainID && d.Status == strategy.StatusActive {
			out = append(out, d)
		}
	}
	return out
}

func (s *Service) pinnedActive() []strategy.Descriptor {
	var out []strategy.Descriptor
	for _, id := range s.pinnedMedium {
		for _, d := range s.catalog {
			if d.ID == id && d.Status == strategy.StatusActive {
				out = append(out, d)
			}
		}
	}
	return out
}

func (s *Service) enrich(descs []strategy.Descriptor, live map[string]float64) []candidate {
	out := make([]candidate, 0, len(descs))
	for _, d := range descs {
		apy := d.StaticAPY
		if v, ok := live[d.ID]; ok && v > 0 {
			apy = v
		}
		out = append(out, candidate{desc: d, apy: apy})
	}
	return out
}

func filterRisk(cands []candidate, tier strategy.RiskTier) []candidate {
	var out []candidate
	for _, c := range cands {
		if c.desc.Risk == tier {
			out = append(out, c)
		}
	}
	return out
}

func sortByAPY(cands []candidate) {
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].apy > cands[j].apy })
}

func topByAPY(cands []candidate, n int) []candidate {
	sortByAPY(cands)
	if len(cands) > n {
		cands = cands[:n]
	}
	return cands
}

// weights computes the percentage split. Every branch ends with a set
// summing to exactly 100; rounding residue always lands on the first
// element.
func (s *Service) weights(cands []candidate, tier strategy.RiskTier) []int {
	switch {
	case len(cands) == 1:
		return []int{100}

	case len(cands) == 2:
		total := cands[0].apy + cands[1].apy
		base := 50.0
		if total > 0 {
			base = cands[0].apy / total * 100
		}
		jitter := s.rng.Intn(21) - 10 // -10 to +10
		first := clamp(int(math.Round(base))+jitter, 30, 70)
		return []int{first, 100 - first}

	case len(cands) == 3 && tier == strategy.RiskHigh:
		// Concentrate half or more in the top strategy.
		first := 50 + s.rng.Intn(11)
		remaining := 100 - first
		second := int(float64(remaining)*0.4) + s.rng.Intn(10)
		return []int{first, second, 100 - first - second}

	case len(cands) == 3:
		total := 0.0
		for _, c := range cands {
			total += c.apy
		}
		weights := make([]int, 3)
		sum := 0
		for i, c := range cands {
			share := 100.0 / 3
			if total > 0 {
				share = c.apy / total * 100
			}
			weights[i] = int(math.Round(share))
			sum += weights[i]
		}
		weights[0] += 100 - sum

		// Bound each leg, then renormalize and push the residue first.
		newSum := 0
		for i := range weights {
			weights[i] = clamp(weights[i], 20, 50)
			newSum += weights[i]
		}
		factor := 100.0 / float64(newSum)
		finalSum := 0
		for i := range weights {
			weights[i] = int(math.Round(float64(weights[i]) * factor))
			finalSum += weights[i]
		}
		weights[0] += 100 - finalSum
		return weights

	default:
		base := 100 / len(cands)
		weights := make([]int, len(cands))
		for i := range weights {
			weights[i] = base
		}
		weights[0] += 100 - base*len(cands)
		return weights
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
