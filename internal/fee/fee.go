// Package fee deducts the platform's proportional cut from a requested
// amount and builds the call that forwards it to the collector.
package fee

import (
	"math/big"

	"vaultpilot/internal/chain"
)

// Engine computes fees in permille: fee = amount * rate / 1000. The rate is
// integer permille, so a rate of 5 takes 0.5%.
type Engine struct {
	Collector    chain.Address
	RatePermille int64
}

func New(collector chain.Address, ratePermille int64) *Engine {
	return &Engine{Collector: collector, RatePermille: ratePermille}
}

// Calculate splits an amount into the fee and the remainder. Integer
// arithmetic, fee + afterFee == amount always.
func (e *Engine) Calculate(amount *big.Int) (fee, afterFee *big.Int) {
	fee = new(big.Int).Mul(amount, big.NewInt(e.RatePermille))
	fee.Div(fee, big.NewInt(1000))
	afterFee = new(big.Int).Sub(amount, fee)
	return fee, afterFee
}

// Call builds the transfer that forwards the fee to the collector: a
// native-value send for the chain's own token, an ERC-20 transfer
// otherwise. Callers skip the call entirely when the fee is zero.
func (e *Engine) Call(asset chain.Address, isNative bool, fee *big.Int) chain.Call {
	if isNative {
		return chain.Call{To: e.Collector, Value: fee}
	}
	return chain.Call{To: asset, Data: chain.EncodeTransfer(e.Collector, fee)}
}
