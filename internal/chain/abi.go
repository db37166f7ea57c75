package chain

import (
	"math/big"

	"golang.org/x/crypto/sha3"
)

// Function selectors are the first 4 bytes of the legacy Keccak-256 hash of
// the canonical signature. They are computed once at package init.
var (
	// ERC-20
	selApprove   = selector("approve(address,uint256)")
	selTransfer  = selector("transfer(address,uint256)")
	selBalanceOf = selector("balanceOf(address)")
	selAllowance = selector("allowance(address,address)")

	// Lending pool (Aave V3 and V2-lineage forks)
	selPoolSupply     = selector("supply(address,uint256,address,uint16)")
	selPoolDeposit    = selector("deposit(address,uint256,address,uint16)")
	selPoolWithdraw   = selector("withdraw(address,uint256,address)")
	selGetReserveData = selector("getReserveData(address)")

	// ERC-4626 vault
	selVaultDeposit    = selector("deposit(uint256,address)")
	selVaultWithdraw   = selector("withdraw(uint256,address,address)")
	selVaultRedeem     = selector("redeem(uint256,address,address)")
	selConvertToAssets = selector("convertToAssets(uint256)")
	selConvertToShares = selector("convertToShares(uint256)")
	selPreviewWithdraw = selector("previewWithdraw(uint256)")
	selPreviewRedeem   = selector("previewRedeem(uint256)")
	selTotalAssets     = selector("totalAssets()")
	selTotalSupply     = selector("totalSupply()")

	// Morpho-style isolated market
	selMarketSupply   = selector("supply((address,address,address,address,uint256),uint256,uint256,address,bytes)")
	selMarketWithdraw = selector("withdraw((address,address,address,address,uint256),uint256,uint256,address,address)")
	selIDToMarket     = selector("idToMarketParams(bytes32)")

	// Liquid staking
	selStake         = selector("stake()")
	selUnstake       = selector("unstake(uint256)")
	selSharesToBonds = selector("sharesToBonds(uint256)")

	// Wrapped native token
	selWrapDeposit = selector("deposit()")

	// Uniswap-v3-lineage swap router (with deadline field, as deployed by
	// Agni and other forks)
	selExactInputSingle = selector("exactInputSingle((address,address,uint24,address,uint256,uint256,uint256,uint160))")
)

func selector(signature string) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	return h.Sum(nil)[:4]
}

// word encoders: every static ABI value occupies one left-padded 32-byte word.

func wordAddress(a Address) []byte {
	padded := make([]byte, 32)
	copy(padded[12:], a.bytes())
	return padded
}

func wordUint(n *big.Int) []byte {
	padded := make([]byte, 32)
	if n != nil {
		b := n.Bytes()
		copy(padded[32-len(b):], b)
	}
	return padded
}

func wordUint64(n uint64) []byte {
	return wordUint(new(big.Int).SetUint64(n))
}

func wordBytes32(b [32]byte) []byte {
	out := make([]byte, 32)
	copy(out, b[:])
	return out
}

// DecodeUint256 reads one 32-byte big-endian word into a big.Int.
func DecodeUint256(data []byte) *big.Int {
	return new(big.Int).SetBytes(data)
}

// DecodeAddress reads the address held in one 32-byte word.
func DecodeAddress(word []byte) Address {
	if len(word) < 32 {
		return ZeroAddress
	}
	a, err := ParseAddress("0x" + hexEncode(word[12:32]))
	if err != nil {
		return ZeroAddress
	}
	return a
}

func hexEncode(b []byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, 0, len(b)*2)
	for _, c := range b {
		out = append(out, digits[c>>4], digits[c&0x0f])
	}
	return string(out)
}

func encodeCall(sel []byte, words ...[]byte) []byte {
	data := make([]byte, 0, 4+32*len(words))
	data = append(data, sel...)
	for _, w := range words {
		data = append(data, w...)
	}
	return data
}

// ERC-20 calldata builders.

func EncodeApprove(spender Address, amount *big.Int) []byte {
	return encodeCall(selApprove, wordAddress(spender), wordUint(amount))
}

func EncodeTransfer(to Address, amount *big.Int) []byte {
	return encodeCall(selTransfer, wordAddress(to), wordUint(amount))
}

func EncodeBalanceOf(account Address) []byte {
	return encodeCall(selBalanceOf, wordAddress(account))
}

func EncodeAllowance(owner, spender Address) []byte {
	return encodeCall(selAllowance, wordAddress(owner), wordAddress(spender))
}

// Lending pool calldata builders. Supply and deposit are the same semantic
// entry point under two names; V2-lineage forks kept deposit, V3 renamed it
// to supply, and some isolated-market forks answer to only one of the two.

func EncodePoolSupply(asset Address, amount *big.Int, onBehalfOf Address) []byte {
	return encodeCall(selPoolSupply,
		wordAddress(asset), wordUint(amount), wordAddress(onBehalfOf), wordUint64(0))
}

func EncodePoolDeposit(asset Address, amount *big.Int, onBehalfOf Address) []byte {
	return encodeCall(selPoolDeposit,
		wordAddress(asset), wordUint(amount), wordAddress(onBehalfOf), wordUint64(0))
}

func EncodePoolWithdraw(asset Address, amount *big.Int, to Address) []byte {
	return encodeCall(selPoolWithdraw,
		wordAddress(asset), wordUint(amount), wordAddress(to))
}

func EncodeGetReserveData(asset Address) []byte {
	return encodeCall(selGetReserveData, wordAddress(asset))
}

// ReserveATokenFromReserveData extracts the interest-bearing receipt token
// address from a getReserveData response. The ReserveData struct encodes as
// consecutive 32-byte words: configuration, liquidityIndex,
// currentLiquidityRate, variableBorrowIndex, currentVariableBorrowRate,
// currentStableBorrowRate, lastUpdateTimestamp, id, aTokenAddress, ...
// so the aToken occupies words [8*32 : 9*32].
func ReserveATokenFromReserveData(data []byte) (Address, bool) {
	const offset = 8 * 32
	if len(data) < offset+32 {
		return ZeroAddress, false
	}
	addr := DecodeAddress(data[offset : offset+32])
	return addr, !addr.IsZero()
}

// ERC-4626 vault calldata builders.

func EncodeVaultDeposit(assets *big.Int, receiver Address) []byte {
	return encodeCall(selVaultDeposit, wordUint(assets), wordAddress(receiver))
}

func EncodeVaultWithdraw(assets *big.Int, receiver, owner Address) []byte {
	return encodeCall(selVaultWithdraw, wordUint(assets), wordAddress(receiver), wordAddress(owner))
}

func EncodeVaultRedeem(shares *big.Int, receiver, owner Address) []byte {
	return encodeCall(selVaultRedeem, wordUint(shares), wordAddress(receiver), wordAddress(owner))
}

func EncodeConvertToAssets(shares *big.Int) []byte {
	return encodeCall(selConvertToAssets, wordUint(shares))
}

func EncodeConvertToShares(assets *big.Int) []byte {
	return encodeCall(selConvertToShares, wordUint(assets))
}

func EncodePreviewWithdraw(assets *big.Int) []byte {
	return encodeCall(selPreviewWithdraw, wordUint(assets))
}

func EncodePreviewRedeem(shares *big.Int) []byte {
	return encodeCall(selPreviewRedeem, wordUint(shares))
}

func EncodeTotalAssets() []byte { return encodeCall(selTotalAssets) }

func EncodeTotalSupply() []byte { return encodeCall(selTotalSupply) }

// MarketParams identifies one isolated lending market.
type MarketParams struct {
	LoanToken       Address
	CollateralToken Address
	Oracle          Address
	IRM             Address
	LLTV            *big.Int
}

func (p MarketParams) words() [][]byte {
	return [][]byte{
		wordAddress(p.LoanToken),
		wordAddress(p.CollateralToken),
		wordAddress(p.Oracle),
		wordAddress(p.IRM),
		wordUint(p.LLTV),
	}
}

// DecodeMarketParams parses an idToMarketParams response (five words).
func DecodeMarketParams(data []byte) (MarketParams, bool) {
	if len(data) < 5*32 {
		return MarketParams{}, false
	}
	return MarketParams{
		LoanToken:       DecodeAddress(data[0:32]),
		CollateralToken: DecodeAddress(data[32:64]),
		Oracle:          DecodeAddress(data[64:96]),
		IRM:             DecodeAddress(data[96:128]),
		LLTV:            DecodeUint256(data[128:160]),
	}, true
}

func EncodeIDToMarketParams(marketID [32]byte) []byte {
	return encodeCall(selIDToMarket, wordBytes32(marketID))
}

// EncodeMarketSupply builds calldata for
// supply(MarketParams, assets, shares, onBehalfOf, data) with empty bytes
// data. The static tuple encodes inline; the trailing dynamic bytes argument
// is an offset into the tail followed by a zero length.
func EncodeMarketSupply(params MarketParams, assets *big.Int, onBehalfOf Address) []byte {
	words := params.words()
	words = append(words,
		wordUint(assets),
		wordUint(big.NewInt(0)), // shares: exact-assets mode
		wordAddress(onBehalfOf),
		wordUint64(9*32), // offset of the bytes tail
		wordUint64(0),    // bytes length
	)
	return encodeCall(selMarketSupply, words...)
}

func EncodeMarketWithdraw(params MarketParams, assets *big.Int, onBehalfOf, receiver Address) []byte {
	words := params.words()
	words = append(words,
		wordUint(assets),
		wordUint(big.NewInt(0)),
		wordAddress(onBehalfOf),
		wordAddress(receiver),
	)
	return encodeCall(selMarketWithdraw, words...)
}

// Liquid staking calldata builders.

func EncodeStake() []byte { return encodeCall(selStake) }

func EncodeUnstake(shares *big.Int) []byte {
	return encodeCall(selUnstake, wordUint(shares))
}

func EncodeSharesToBonds(shares *big.Int) []byte {
	return encodeCall(selSharesToBonds, wordUint(shares))
}

// EncodeWrapDeposit builds calldata for a wrapped-native token's deposit().
// The wrap amount travels as the call's native value, not as an argument.
func EncodeWrapDeposit() []byte { return encodeCall(selWrapDeposit) }

// SwapParams describes one exact-input single-pool swap.
type SwapParams struct {
	TokenIn           Address
	TokenOut          Address
	FeeTier           uint64 // pool fee in hundredths of a bip (100, 500, 2500, 10000)
	Recipient         Address
	Deadline          *big.Int
	AmountIn          *big.Int
	AmountOutMinimum  *big.Int
	SqrtPriceLimitX96 *big.Int
}

// EncodeExactInputSingle builds calldata for a v3-style router swap. All
// struct fields are static, so the tuple encodes inline.
func EncodeExactInputSingle(p SwapParams) []byte {
	return encodeCall(selExactInputSingle,
		wordAddress(p.TokenIn),
		wordAddress(p.TokenOut),
		wordUint64(p.FeeTier),
		wordAddress(p.Recipient),
		wordUint(p.Deadline),
		wordUint(p.AmountIn),
		wordUint(p.AmountOutMinimum),
		wordUint(p.SqrtPriceLimitX96),
	)
}
