package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/shopspring/decimal"

	"vaultpilot/internal/chain"
)

// NativeStaking stakes the chain's native token with a liquid staking
// contract and receives a share token in return. Invest is a single call
// carrying native value, no approval step.
type NativeStaking struct {
	id        Identity
	staking   chain.Address
	contracts map[uint64]chain.Address
	reader    chain.Reader

	staticAPY float64
	decimals  int32
}

func NewNativeStaking(id Identity, contracts map[uint64]chain.Address, reader chain.Reader, staticAPY float64, decimals int32) *NativeStaking {
	return &NativeStaking{
		id:        id,
		staking:   contracts[id.ChainID],
		contracts: contracts,
		reader:    reader,
		staticAPY: staticAPY,
		decimals:  decimals,
	}
}

func (n *NativeStaking) Identity() Identity { return n.id }

func (n *NativeStaking) SupportsChain(chainID uint64) bool {
	_, ok := n.contracts[chainID]
	return ok
}

// InvestCalls ignores the asset parameter: the staked token is the chain's
// native one, carried as call value.
func (n *NativeStaking) InvestCalls(_ context.Context, amount *big.Int, _, _ chain.Address) ([]chain.Call, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, &ValidationError{Strategy: n.id.ID, Reason: "amount must be greater than 0"}
	}

	return []chain.Call{
		{To: n.staking, Data: chain.EncodeStake(), Value: amount},
	}, nil
}

// RedeemCalls unstakes the user's full share-token balance.
func (n *NativeStaking) RedeemCalls(ctx context.Context, _ *big.Int, user, _ chain.Address) ([]chain.Call, error) {
	resp, err := n.reader.EthCall(ctx, n.id.ChainID, n.staking, chain.EncodeBalanceOf(user))
	if err != nil {
		return nil, fmt.Errorf("%s redeem: reading share balance: %w", n.id.ID, err)
	}
	shares := chain.DecodeUint256(resp)

	return []chain.Call{
		{To: n.staking, Data: chain.EncodeUnstake(shares)},
	}, nil
}

// Profit converts the user's share balance to native-token terms and
// compares it to the staked principal.
func (n *NativeStaking) Profit(ctx context.Context, user chain.Address, pos PositionInfo) decimal.Decimal {
	resp, err := n.reader.EthCall(ctx, n.id.ChainID, n.staking, chain.EncodeBalanceOf(user))
	if err != nil {
		slog.Warn("staking profit read failed, using APY model",
			"strategy", n.id.ID, "error", err)
		return estimatedProfit(pos, n.staticAPY)
	}
	shares := chain.DecodeUint256(resp)

	resp, err = n.reader.EthCall(ctx, n.id.ChainID, n.staking, chain.EncodeSharesToBonds(shares))
	if err != nil {
		slog.Warn("staking share conversion failed, using APY model",
			"strategy", n.id.ID, "error", err)
		return estimatedProfit(pos, n.staticAPY)
	}
	value := chain.DecodeUint256(resp)

	return tokenAmount(value, pos.Decimals).Sub(pos.Amount)
}
