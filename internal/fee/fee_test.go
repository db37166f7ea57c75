package fee

import (
	"math/big"
	"testing"

	"vaultpilot/internal/chain"
)

const collector = chain.Address("0x794a61358d6845594f94dc1db02a252b5b4814ad")

func TestCalculate(t *testing.T) {
	cases := []struct {
		name    string
		rate    int64
		amount  int64
		wantFee int64
	}{
		{"half percent", 5, 1_000_000, 5_000},
		{"zero rate", 0, 1_000_000, 0},
		{"full permille", 1000, 500, 500},
		{"rounds down", 5, 1, 0},
		{"one permille", 1, 999, 0},
		{"small amount", 10, 100, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := New(collector, tc.rate)
			amount := big.NewInt(tc.amount)

			fee, after := e.Calculate(amount)

			if fee.Int64() != tc.wantFee {
				t.Errorf("fee = %s, want %d", fee, tc.wantFee)
			}
			// The split is exact: nothing is created or lost.
			if sum := new(big.Int).Add(fee, after); sum.Cmp(amount) != 0 {
				t.Errorf("fee %s + after %s != amount %s", fee, after, amount)
			}
		})
	}
}

func TestCallERC20(t *testing.T) {
	e := New(collector, 5)
	asset := chain.Address("0x833589fcd6edb6e08f4c7c32d4f71b54bda02913")

	call := e.Call(asset, false, big.NewInt(5000))

	if !call.To.Equal(asset) {
		t.Errorf("call target = %s, want asset contract", call.To)
	}
	if call.HasValue() {
		t.Error("ERC-20 fee transfer must not carry native value")
	}
	if len(call.Data) != 4+64 {
		t.Errorf("calldata length = %d, want transfer shape", len(call.Data))
	}
}

func TestCallNative(t *testing.T) {
	e := New(collector, 5)

	call := e.Call(chain.ZeroAddress, true, big.NewInt(5000))

	if !call.To.Equal(collector) {
		t.Errorf("call target = %s, want collector", call.To)
	}
	if !call.HasValue() || call.Value.Int64() != 5000 {
		t.Errorf("call value = %v, want 5000", call.Value)
	}
	if len(call.Data) != 0 {
		t.Error("native fee transfer must have empty calldata")
	}
}
