package strategy

import (
	"context"
	"math/big"

	"github.com/shopspring/decimal"

	"vaultpilot/internal/chain"
)

// Weighted pairs an adapter with its allocation percentage within a
// composed portfolio.
type Weighted struct {
	Adapter Adapter
	Percent int
}

// MultiStrategy splits an amount across several adapters by allocation
// percentage and concatenates their calls in order. It relies on, but does
// not verify, that percentages sum to 100: an under-summing set deploys
// less than the full amount and leaves the remainder in the wallet.
type MultiStrategy struct {
	id    Identity
	parts []Weighted
}

func NewMultiStrategy(chainID uint64, parts ...Weighted) *MultiStrategy {
	return &MultiStrategy{
		id: Identity{
			ID:          "MultiStrategy",
			Protocol:    "composed",
			ChainID:     chainID,
			DisplayName: "Multi-Strategy Portfolio",
		},
		parts: parts,
	}
}

func (m *MultiStrategy) Identity() Identity { return m.id }

// SupportsChain holds only when every component supports the chain.
func (m *MultiStrategy) SupportsChain(chainID uint64) bool {
	for _, p := range m.parts {
		if !p.Adapter.SupportsChain(chainID) {
			return false
		}
	}
	return len(m.parts) > 0
}

// SubAmounts returns each component's floored share of the total, in part
// order. The sum never exceeds the total; rounding loss is below the
// component count.
func (m *MultiStrategy) SubAmounts(total *big.Int) []*big.Int {
	out := make([]*big.Int, len(m.parts))
	for i, p := range m.parts {
		sub := new(big.Int).Mul(total, big.NewInt(int64(p.Percent)))
		out[i] = sub.Div(sub, big.NewInt(100))
	}
	return out
}

func (m *MultiStrategy) InvestCalls(ctx context.Context, amount *big.Int, user, asset chain.Address) ([]chain.Call, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, &ValidationError{Strategy: m.id.ID, Reason: "amount must be greater than 0"}
	}

	var calls []chain.Call
	for i, sub := range m.SubAmounts(amount) {
		if sub.Sign() == 0 {
			continue
		}
		part, err := m.parts[i].Adapter.InvestCalls(ctx, sub, user, asset)
		if err != nil {
			return nil, err
		}
		calls = append(calls, part...)
	}
	return calls, nil
}

func (m *MultiStrategy) RedeemCalls(ctx context.Context, amount *big.Int, user, asset chain.Address) ([]chain.Call, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, &ValidationError{Strategy: m.id.ID, Reason: "amount must be greater than 0"}
	}

	var calls []chain.Call
	for i, sub := range m.SubAmounts(amount) {
		if sub.Sign() == 0 {
			continue
		}
		part, err := m.parts[i].Adapter.RedeemCalls(ctx, sub, user, asset)
		if err != nil {
			return nil, err
		}
		calls = append(calls, part...)
	}
	return calls, nil
}

// Profit sums component profits over each component's share of the
// position.
func (m *MultiStrategy) Profit(ctx context.Context, user chain.Address, pos PositionInfo) decimal.Decimal {
	total := decimal.Zero
	for _, p := range m.parts {
		share := pos
		share.Amount = pos.Amount.Mul(decimal.NewFromInt(int64(p.Percent))).Div(decimal.NewFromInt(100))
		total = total.Add(p.Adapter.Profit(ctx, user, share))
	}
	return total
}
