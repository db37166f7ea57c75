package chain

import (
	"encoding/hex"
	"math/big"
)

// Call is one on-chain call descriptor: target, calldata and an optional
// native-token value. Calls are immutable once built; ordering within a
// batch is significant because later calls may rely on state mutated by
// earlier ones (an approval before a deposit).
type Call struct {
	To    Address
	Data  []byte
	Value *big.Int // nil for plain contract calls
}

// HasValue reports whether the call carries native value.
func (c Call) HasValue() bool {
	return c.Value != nil && c.Value.Sign() > 0
}

// DataHex returns the 0x-prefixed hex encoding of the calldata.
func (c Call) DataHex() string {
	return "0x" + hex.EncodeToString(c.Data)
}
