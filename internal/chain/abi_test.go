package chain

import (
	"bytes"
	"encoding/hex"
	"math/big"
	"testing"
)

const (
	testSpender = Address("0x794a61358d6845594f94dc1db02a252b5b4814ad")
	testUser    = Address("0x724dc807b04555b71ed48a6896b6f41593b8c637")
)

// Selector values cross-checked against the canonical published signatures.
func TestSelectors(t *testing.T) {
	cases := []struct {
		name string
		sel  []byte
		want string
	}{
		{"approve", selApprove, "095ea7b3"},
		{"transfer", selTransfer, "a9059cbb"},
		{"balanceOf", selBalanceOf, "70a08231"},
		{"allowance", selAllowance, "dd62ed3e"},
		{"pool supply", selPoolSupply, "617ba037"},
		{"pool withdraw", selPoolWithdraw, "69328dec"},
		{"getReserveData", selGetReserveData, "35ea6a75"},
		{"vault deposit", selVaultDeposit, "6e553f65"},
		{"vault withdraw", selVaultWithdraw, "b460af94"},
		{"vault redeem", selVaultRedeem, "ba087652"},
		{"convertToAssets", selConvertToAssets, "07a2d13a"},
		{"totalSupply", selTotalSupply, "18160ddd"},
		{"wrap deposit", selWrapDeposit, "d0e30db0"},
	}
	for _, tc := range cases {
		want, err := hex.DecodeString(tc.want)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(tc.sel, want) {
			t.Errorf("%s selector = %x, want %s", tc.name, tc.sel, tc.want)
		}
	}
}

func TestEncodeApprove(t *testing.T) {
	amount := big.NewInt(1_000_000)
	data := EncodeApprove(testSpender, amount)

	if len(data) != 4+64 {
		t.Fatalf("approve calldata length = %d, want 68", len(data))
	}
	if !bytes.Equal(data[:4], selApprove) {
		t.Errorf("wrong selector: %x", data[:4])
	}
	// Address word is left-padded to 32 bytes.
	if !bytes.Equal(data[4:16], make([]byte, 12)) {
		t.Error("address word not left-padded")
	}
	if got := DecodeAddress(data[4:36]); !got.Equal(testSpender) {
		t.Errorf("encoded spender = %s, want %s", got, testSpender)
	}
	if got := DecodeUint256(data[36:68]); got.Cmp(amount) != 0 {
		t.Errorf("encoded amount = %s, want %s", got, amount)
	}
}

func TestEncodePoolSupply(t *testing.T) {
	asset := Address("0x833589fcd6edb6e08f4c7c32d4f71b54bda02913")
	data := EncodePoolSupply(asset, big.NewInt(500), testUser)

	// selector + asset + amount + onBehalfOf + referralCode
	if len(data) != 4+4*32 {
		t.Fatalf("supply calldata length = %d, want 132", len(data))
	}
	if got := DecodeUint256(data[4+3*32:]); got.Sign() != 0 {
		t.Errorf("referral code = %s, want 0", got)
	}
}

func TestEncodeMarketSupply_EmptyBytesTail(t *testing.T) {
	params := MarketParams{
		LoanToken:       Address("0x833589fcd6edb6e08f4c7c32d4f71b54bda02913"),
		CollateralToken: ZeroAddress,
		Oracle:          ZeroAddress,
		IRM:             ZeroAddress,
		LLTV:            big.NewInt(0),
	}
	data := EncodeMarketSupply(params, big.NewInt(123), testUser)

	// 5 tuple words + assets + shares + onBehalfOf + offset + length
	if len(data) != 4+10*32 {
		t.Fatalf("market supply calldata length = %d, want %d", len(data), 4+10*32)
	}
	offset := DecodeUint256(data[4+8*32 : 4+9*32])
	if offset.Int64() != 9*32 {
		t.Errorf("bytes offset = %s, want %d", offset, 9*32)
	}
	length := DecodeUint256(data[4+9*32:])
	if length.Sign() != 0 {
		t.Errorf("bytes length = %s, want 0", length)
	}
}

func TestDecodeMarketParams_RoundTrip(t *testing.T) {
	params := MarketParams{
		LoanToken:       Address("0x833589fcd6edb6e08f4c7c32d4f71b54bda02913"),
		CollateralToken: Address("0x4200000000000000000000000000000000000006"),
		Oracle:          Address("0x794a61358d6845594f94dc1db02a252b5b4814ad"),
		IRM:             Address("0x724dc807b04555b71ed48a6896b6f41593b8c637"),
		LLTV:            big.NewInt(860000000000000000),
	}
	var encoded []byte
	for _, w := range params.words() {
		encoded = append(encoded, w...)
	}

	got, ok := DecodeMarketParams(encoded)
	if !ok {
		t.Fatal("decode failed")
	}
	if !got.LoanToken.Equal(params.LoanToken) {
		t.Errorf("loan token = %s, want %s", got.LoanToken, params.LoanToken)
	}
	if got.LLTV.Cmp(params.LLTV) != 0 {
		t.Errorf("lltv = %s, want %s", got.LLTV, params.LLTV)
	}
}

func TestDecodeMarketParams_TooShort(t *testing.T) {
	if _, ok := DecodeMarketParams(make([]byte, 4*32)); ok {
		t.Error("expected decode failure on truncated data")
	}
}

func TestReserveAToken(t *testing.T) {
	data := make([]byte, 15*32)
	copy(data[8*32:], wordAddress(testUser))

	got, ok := ReserveATokenFromReserveData(data)
	if !ok {
		t.Fatal("expected aToken extraction to succeed")
	}
	if !got.Equal(testUser) {
		t.Errorf("aToken = %s, want %s", got, testUser)
	}

	if _, ok := ReserveATokenFromReserveData(data[:5*32]); ok {
		t.Error("expected failure on short response")
	}
	// Zero aToken means the asset has no reserve.
	if _, ok := ReserveATokenFromReserveData(make([]byte, 15*32)); ok {
		t.Error("expected failure on zero aToken")
	}
}

func TestEncodeExactInputSingle(t *testing.T) {
	p := SwapParams{
		TokenIn:           Address("0x09bc4e0d864854c6afb6eb9a9cdf58ac190d0df9"),
		TokenOut:          Address("0x5d3a1ff2b6bab83b63cd9ad0787074081a52ef34"),
		FeeTier:           500,
		Recipient:         testUser,
		Deadline:          big.NewInt(1700000000),
		AmountIn:          big.NewInt(1_000_000),
		AmountOutMinimum:  big.NewInt(0),
		SqrtPriceLimitX96: big.NewInt(0),
	}
	data := EncodeExactInputSingle(p)

	if len(data) != 4+8*32 {
		t.Fatalf("swap calldata length = %d, want %d", len(data), 4+8*32)
	}
	if got := DecodeUint256(data[4+2*32 : 4+3*32]); got.Uint64() != 500 {
		t.Errorf("fee tier = %s, want 500", got)
	}
}

func TestParseAddress(t *testing.T) {
	got, err := ParseAddress("0x794A61358D6845594F94dc1DB02A252b5b4814aD")
	if err != nil {
		t.Fatal(err)
	}
	if got != "0x794a61358d6845594f94dc1db02a252b5b4814ad" {
		t.Errorf("address not normalized: %s", got)
	}

	if _, err := ParseAddress("0x1234"); err == nil {
		t.Error("expected error for short address")
	}
	if _, err := ParseAddress("0xzz4a61358d6845594f94dc1db02a252b5b4814ad"); err == nil {
		t.Error("expected error for non-hex address")
	}
}

func TestAddressIsZero(t *testing.T) {
	if !ZeroAddress.IsZero() {
		t.Error("zero address should be zero")
	}
	if !Address("").IsZero() {
		t.Error("empty address should be zero")
	}
	if testUser.IsZero() {
		t.Error("real address should not be zero")
	}
}
