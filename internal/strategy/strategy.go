package strategy

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"vaultpilot/internal/chain"
)

// Identity names one strategy binding: one protocol mechanism on one chain.
// It is the join key between allocation decisions, live yield data and
// on-chain adapters, and is stable across restarts.
type Identity struct {
	ID          string
	Protocol    string
	ChainID     uint64
	DisplayName string
}

// RiskTier classifies a strategy for selection and weighting.
type RiskTier string

const (
	RiskLow    RiskTier = "low"
	RiskMedium RiskTier = "medium"
	RiskHigh   RiskTier = "high"
)

// PositionInfo is the slice of a recorded position that profit estimation
// needs. Adapters never see the full persisted record.
type PositionInfo struct {
	Amount    decimal.Decimal
	TokenName string
	Decimals  int32
	CreatedAt time.Time
}

// Adapter encodes one strategy's invest and redeem operations as call
// descriptors. Implementations may issue read-only chain queries to discover
// derived state (share balances, conversion rates, market parameters), but
// never submit transactions themselves.
//
// Profit has a no-throw contract: it feeds a best-effort display path, so on
// any read failure it degrades to a static APY times elapsed-days estimate,
// or zero when even the position's creation date is unavailable.
type Adapter interface {
	Identity() Identity
	InvestCalls(ctx context.Context, amount *big.Int, user, asset chain.Address) ([]chain.Call, error)
	RedeemCalls(ctx context.Context, amount *big.Int, user, asset chain.Address) ([]chain.Call, error)
	Profit(ctx context.Context, user chain.Address, pos PositionInfo) decimal.Decimal
	SupportsChain(chainID uint64) bool
}

// ValidationError reports a missing or mismatched caller-supplied parameter.
// Never retried, surfaced immediately.
type ValidationError struct {
	Strategy string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Strategy, e.Reason)
}

// UnsupportedChainError reports a strategy invoked on a chain absent from its
// contract table.
type UnsupportedChainError struct {
	Strategy string
	ChainID  uint64
}

func (e *UnsupportedChainError) Error() string {
	return fmt.Sprintf("%s: chain %d not supported", e.Strategy, e.ChainID)
}

// MarketResolutionError reports an on-chain parameter lookup that returned an
// invalid or zero value, carrying the market identifier for diagnosis.
type MarketResolutionError struct {
	MarketID string
	Err      error
}

func (e *MarketResolutionError) Error() string {
	return fmt.Sprintf("resolving market %s: %v", e.MarketID, e.Err)
}

func (e *MarketResolutionError) Unwrap() error { return e.Err }

func validateInvest(name string, amount *big.Int, asset, want chain.Address) error {
	if amount == nil || amount.Sign() <= 0 {
		return &ValidationError{Strategy: name, Reason: "amount must be greater than 0"}
	}
	if asset.IsZero() {
		return &ValidationError{Strategy: name, Reason: "asset address is required"}
	}
	if !want.IsZero() && !asset.Equal(want) {
		return &ValidationError{
			Strategy: name,
			Reason:   fmt.Sprintf("asset %s not supported, expected %s", asset, want),
		}
	}
	return nil
}

// estimatedProfit is the shared APY-model fallback: amount times the daily
// rate times whole elapsed days. Zero when the creation date is missing.
func estimatedProfit(pos PositionInfo, apy float64) decimal.Decimal {
	if pos.CreatedAt.IsZero() {
		return decimal.Zero
	}
	days := int64(time.Since(pos.CreatedAt).Hours() / 24)
	if days <= 0 {
		return decimal.Zero
	}
	dailyRate := decimal.NewFromFloat(apy / 100 / 365)
	return pos.Amount.Mul(dailyRate).Mul(decimal.NewFromInt(days))
}

// tokenAmount converts a raw integer token balance to a decimal in whole
// token units.
func tokenAmount(raw *big.Int, decimals int32) decimal.Decimal {
	return decimal.NewFromBigInt(raw, -decimals)
}
