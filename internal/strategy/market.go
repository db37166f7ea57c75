package strategy

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"vaultpilot/internal/chain"
)

// MarketSupply lends into a single Morpho Blue market, identified by its
// 32-byte market ID. Market parameters are resolved on-chain per operation
// so a stale local copy can never be supplied against the wrong tokens.
type MarketSupply struct {
	id       Identity
	morpho   chain.Address
	marketID [32]byte
	asset    chain.Address
	morphos  map[uint64]chain.Address
	reader   chain.Reader

	staticAPY float64
	decimals  int32
}

func NewMarketSupply(id Identity, morphos map[uint64]chain.Address, marketID [32]byte, asset chain.Address, reader chain.Reader, staticAPY float64, decimals int32) *MarketSupply {
	return &MarketSupply{
		id:        id,
		morpho:    morphos[id.ChainID],
		marketID:  marketID,
		asset:     asset,
		morphos:   morphos,
		reader:    reader,
		staticAPY: staticAPY,
		decimals:  decimals,
	}
}

// ParseMarketID decodes a 0x-prefixed 32-byte hex market identifier.
func ParseMarketID(s string) ([32]byte, error) {
	var id [32]byte
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.ToLower(s), "0x"))
	if err != nil {
		return id, fmt.Errorf("market id %q: %w", s, err)
	}
	if len(raw) != 32 {
		return id, fmt.Errorf("market id %q: expected 32 bytes, got %d", s, len(raw))
	}
	copy(id[:], raw)
	return id, nil
}

func (m *MarketSupply) Identity() Identity { return m.id }

func (m *MarketSupply) SupportsChain(chainID uint64) bool {
	_, ok := m.morphos[chainID]
	return ok
}

func (m *MarketSupply) InvestCalls(ctx context.Context, amount *big.Int, user, asset chain.Address) ([]chain.Call, error) {
	if err := validateInvest(m.id.ID, amount, asset, m.asset); err != nil {
		return nil, err
	}

	params, err := m.resolveMarket(ctx)
	if err != nil {
		return nil, err
	}
	if !params.LoanToken.Equal(asset) {
		return nil, &ValidationError{
			Strategy: m.id.ID,
			Reason:   fmt.Sprintf("market loan token %s does not match asset %s", params.LoanToken, asset),
		}
	}

	return []chain.Call{
		{To: asset, Data: chain.EncodeApprove(m.morpho, amount)},
		{To: m.morpho, Data: chain.EncodeMarketSupply(params, amount, user)},
	}, nil
}

func (m *MarketSupply) RedeemCalls(ctx context.Context, amount *big.Int, user, _ chain.Address) ([]chain.Call, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, &ValidationError{Strategy: m.id.ID, Reason: "amount must be greater than 0"}
	}

	params, err := m.resolveMarket(ctx)
	if err != nil {
		return nil, err
	}

	return []chain.Call{
		{To: m.morpho, Data: chain.EncodeMarketWithdraw(params, amount, user, user)},
	}, nil
}

// Profit uses the APY model only: per-market share accounting is not worth
// two extra reads for a display value.
func (m *MarketSupply) Profit(_ context.Context, _ chain.Address, pos PositionInfo) decimal.Decimal {
	return estimatedProfit(pos, m.staticAPY)
}

func (m *MarketSupply) resolveMarket(ctx context.Context) (chain.MarketParams, error) {
	marketHex := "0x" + hex.EncodeToString(m.marketID[:])

	resp, err := m.reader.EthCall(ctx, m.id.ChainID, m.morpho, chain.EncodeIDToMarketParams(m.marketID))
	if err != nil {
		return chain.MarketParams{}, &MarketResolutionError{MarketID: marketHex, Err: err}
	}

	params, ok := chain.DecodeMarketParams(resp)
	if !ok {
		return chain.MarketParams{}, &MarketResolutionError{
			MarketID: marketHex,
			Err:      fmt.Errorf("malformed market parameters response"),
		}
	}
	if params.LoanToken.IsZero() {
		return chain.MarketParams{}, &MarketResolutionError{
			MarketID: marketHex,
			Err:      fmt.Errorf("loan token is zero address"),
		}
	}
	return params, nil
}
