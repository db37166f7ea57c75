package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/shopspring/decimal"

	"vaultpilot/internal/chain"
)

// VaultSupply deposits an asset into an ERC-4626 style vault. Covers the
// MetaMorpho curated vaults, Harvest vaults and the CIAN yield layer, which
// all share the deposit/withdraw/redeem share-accounting surface.
type VaultSupply struct {
	id     Identity
	vault  chain.Address
	asset  chain.Address
	vaults map[uint64]chain.Address
	reader chain.Reader

	staticAPY float64
	decimals  int32
}

func NewVaultSupply(id Identity, vaults map[uint64]chain.Address, asset chain.Address, reader chain.Reader, staticAPY float64, decimals int32) *VaultSupply {
	return &VaultSupply{
		id:        id,
		vault:     vaults[id.ChainID],
		asset:     asset,
		vaults:    vaults,
		reader:    reader,
		staticAPY: staticAPY,
		decimals:  decimals,
	}
}

func (v *VaultSupply) Identity() Identity { return v.id }

func (v *VaultSupply) SupportsChain(chainID uint64) bool {
	_, ok := v.vaults[chainID]
	return ok
}

func (v *VaultSupply) InvestCalls(_ context.Context, amount *big.Int, user, asset chain.Address) ([]chain.Call, error) {
	if err := validateInvest(v.id.ID, amount, asset, v.asset); err != nil {
		return nil, err
	}

	return []chain.Call{
		{To: asset, Data: chain.EncodeApprove(v.vault, amount)},
		{To: v.vault, Data: chain.EncodeVaultDeposit(amount, user)},
	}, nil
}

// RedeemCalls prefers the exact-assets withdraw primitive, which avoids
// rounding from price-per-share drift. When the vault does not answer the
// withdraw preview it falls back to redeeming a computed share amount.
func (v *VaultSupply) RedeemCalls(ctx context.Context, amount *big.Int, user, _ chain.Address) ([]chain.Call, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, &ValidationError{Strategy: v.id.ID, Reason: "amount must be greater than 0"}
	}

	_, err := v.reader.EthCall(ctx, v.id.ChainID, v.vault, chain.EncodePreviewWithdraw(amount))
	if err == nil {
		return []chain.Call{
			{To: v.vault, Data: chain.EncodeVaultWithdraw(amount, user, user)},
		}, nil
	}
	slog.Warn("vault withdraw preview failed, redeeming by shares",
		"strategy", v.id.ID, "error", err)

	shares, err := v.SharesForAmount(ctx, amount)
	if err != nil {
		return nil, fmt.Errorf("%s redeem: %w", v.id.ID, err)
	}
	return []chain.Call{
		{To: v.vault, Data: chain.EncodeVaultRedeem(shares, user, user)},
	}, nil
}

// SharesForAmount converts an underlying amount to vault shares, first via
// the vault's own convertToShares, then via the totalSupply/totalAssets
// ratio when that read fails.
func (v *VaultSupply) SharesForAmount(ctx context.Context, amount *big.Int) (*big.Int, error) {
	resp, err := v.reader.EthCall(ctx, v.id.ChainID, v.vault, chain.EncodeConvertToShares(amount))
	if err == nil {
		return chain.DecodeUint256(resp), nil
	}

	totalAssets, err := v.readUint(ctx, chain.EncodeTotalAssets())
	if err != nil {
		return nil, fmt.Errorf("reading totalAssets: %w", err)
	}
	totalSupply, err := v.readUint(ctx, chain.EncodeTotalSupply())
	if err != nil {
		return nil, fmt.Errorf("reading totalSupply: %w", err)
	}
	if totalAssets.Sign() == 0 {
		return big.NewInt(0), nil
	}

	shares := new(big.Int).Mul(amount, totalSupply)
	return shares.Div(shares, totalAssets), nil
}

// AmountForShares converts vault shares back to the underlying amount.
// previewRedeem reflects redemption fees where the vault charges them;
// vaults without the preview fall back to the idealized conversion rate.
func (v *VaultSupply) AmountForShares(ctx context.Context, shares *big.Int) (*big.Int, error) {
	if resp, err := v.reader.EthCall(ctx, v.id.ChainID, v.vault, chain.EncodePreviewRedeem(shares)); err == nil {
		return chain.DecodeUint256(resp), nil
	}
	resp, err := v.reader.EthCall(ctx, v.id.ChainID, v.vault, chain.EncodeConvertToAssets(shares))
	if err != nil {
		return nil, fmt.Errorf("reading convertToAssets: %w", err)
	}
	return chain.DecodeUint256(resp), nil
}

// Profit compares the current underlying value of the user's shares to the
// recorded principal.
func (v *VaultSupply) Profit(ctx context.Context, user chain.Address, pos PositionInfo) decimal.Decimal {
	resp, err := v.reader.EthCall(ctx, v.id.ChainID, v.vault, chain.EncodeBalanceOf(user))
	if err != nil {
		slog.Warn("vault profit read failed, using APY model",
			"strategy", v.id.ID, "error", err)
		return estimatedProfit(pos, v.staticAPY)
	}
	shares := chain.DecodeUint256(resp)

	value, err := v.AmountForShares(ctx, shares)
	if err != nil {
		slog.Warn("vault share conversion failed, using APY model",
			"strategy", v.id.ID, "error", err)
		return estimatedProfit(pos, v.staticAPY)
	}
	return tokenAmount(value, pos.Decimals).Sub(pos.Amount)
}

func (v *VaultSupply) readUint(ctx context.Context, calldata []byte) (*big.Int, error) {
	resp, err := v.reader.EthCall(ctx, v.id.ChainID, v.vault, calldata)
	if err != nil {
		return nil, err
	}
	return chain.DecodeUint256(resp), nil
}
