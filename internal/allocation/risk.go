// Package allocation selects a bounded strategy set for a risk tier and
// computes allocation percentages that always sum to 100.
package allocation

import "vaultpilot/internal/strategy"

// Thresholds map APY figures onto risk tiers: higher yield is treated as
// higher risk. Values come from the allocation config section.
type Thresholds struct {
	LowMaxAPY    float64
	MediumMaxAPY float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{LowMaxAPY: 6.5, MediumMaxAPY: 8.5}
}

// Tier derives a strategy's risk from its current APY.
func (t Thresholds) Tier(apy float64) strategy.RiskTier {
	switch {
	case apy <= t.LowMaxAPY:
		return strategy.RiskLow
	case apy <= t.MediumMaxAPY:
		return strategy.RiskMedium
	default:
		return strategy.RiskHigh
	}
}

// Effective prefers the dynamic APY-derived tier and degrades to the
// static catalog label when the APY is unknown.
func (t Thresholds) Effective(apy float64, static strategy.RiskTier) strategy.RiskTier {
	if apy <= 0 {
		return static
	}
	return t.Tier(apy)
}
