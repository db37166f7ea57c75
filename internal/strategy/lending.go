package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/shopspring/decimal"

	"vaultpilot/internal/chain"
)

// LendingSupply deposits an asset into an Aave-style lending pool and earns
// the pool's supply rate. The receipt token (aToken) accrues value against
// the principal.
type LendingSupply struct {
	id     Identity
	pool   chain.Address
	asset  chain.Address
	pools  map[uint64]chain.Address
	reader chain.Reader

	staticAPY float64
	decimals  int32
}

// NewLendingSupply binds the adapter to one chain's pool. The pools table
// holds every chain the protocol is deployed on and backs SupportsChain.
func NewLendingSupply(id Identity, pools map[uint64]chain.Address, asset chain.Address, reader chain.Reader, staticAPY float64, decimals int32) *LendingSupply {
	return &LendingSupply{
		id:        id,
		pool:      pools[id.ChainID],
		asset:     asset,
		pools:     pools,
		reader:    reader,
		staticAPY: staticAPY,
		decimals:  decimals,
	}
}

func (l *LendingSupply) Identity() Identity { return l.id }

func (l *LendingSupply) SupportsChain(chainID uint64) bool {
	_, ok := l.pools[chainID]
	return ok
}

func (l *LendingSupply) InvestCalls(_ context.Context, amount *big.Int, user, asset chain.Address) ([]chain.Call, error) {
	if err := validateInvest(l.id.ID, amount, asset, l.asset); err != nil {
		return nil, err
	}

	return []chain.Call{
		{To: asset, Data: chain.EncodeApprove(l.pool, amount)},
		{To: l.pool, Data: chain.EncodePoolSupply(asset, amount, user)},
	}, nil
}

// RedeemCalls withdraws the user's full aToken balance. The receipt token is
// resolved from the pool's reserve data so accrued interest is included.
func (l *LendingSupply) RedeemCalls(ctx context.Context, amount *big.Int, user, asset chain.Address) ([]chain.Call, error) {
	if asset.IsZero() {
		return nil, &ValidationError{Strategy: l.id.ID, Reason: "asset address is required"}
	}

	balance, err := l.receiptBalance(ctx, user, asset)
	if err != nil {
		return nil, fmt.Errorf("%s redeem: %w", l.id.ID, err)
	}

	return []chain.Call{
		{To: l.pool, Data: chain.EncodePoolWithdraw(asset, balance, user)},
	}, nil
}

func (l *LendingSupply) Profit(ctx context.Context, user chain.Address, pos PositionInfo) decimal.Decimal {
	balance, err := l.receiptBalance(ctx, user, l.asset)
	if err != nil {
		slog.Warn("lending profit read failed, using APY model",
			"strategy", l.id.ID, "error", err)
		return estimatedProfit(pos, l.staticAPY)
	}
	return tokenAmount(balance, pos.Decimals).Sub(pos.Amount)
}

func (l *LendingSupply) receiptBalance(ctx context.Context, user, asset chain.Address) (*big.Int, error) {
	resp, err := l.reader.EthCall(ctx, l.id.ChainID, l.pool, chain.EncodeGetReserveData(asset))
	if err != nil {
		return nil, fmt.Errorf("reading reserve data: %w", err)
	}
	aToken, ok := chain.ReserveATokenFromReserveData(resp)
	if !ok {
		return nil, fmt.Errorf("no reserve for asset %s", asset)
	}

	resp, err = l.reader.EthCall(ctx, l.id.ChainID, aToken, chain.EncodeBalanceOf(user))
	if err != nil {
		return nil, fmt.Errorf("reading aToken balance: %w", err)
	}
	return chain.DecodeUint256(resp), nil
}
