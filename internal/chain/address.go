package chain

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Address is a 0x-prefixed, 20-byte EVM address in hex form.
type Address string

// ZeroAddress is the canonical zero address, used as a sentinel for
// "no address configured".
const ZeroAddress Address = "0x0000000000000000000000000000000000000000"

// ParseAddress validates and normalizes a hex address to lowercase.
func ParseAddress(s string) (Address, error) {
	raw := strings.TrimPrefix(strings.ToLower(s), "0x")
	if len(raw) != 40 {
		return "", fmt.Errorf("address %q: expected 20 bytes, got %d hex chars", s, len(raw))
	}
	if _, err := hex.DecodeString(raw); err != nil {
		return "", fmt.Errorf("address %q: %w", s, err)
	}
	return Address("0x" + raw), nil
}

// IsZero reports whether the address is empty or the zero address.
func (a Address) IsZero() bool {
	return a == "" || strings.EqualFold(string(a), string(ZeroAddress))
}

// Equal compares two addresses case-insensitively.
func (a Address) Equal(b Address) bool {
	return strings.EqualFold(string(a), string(b))
}

func (a Address) String() string { return string(a) }

// bytes returns the 20 raw bytes of the address. Invalid input yields a
// zero-filled slice; callers validate addresses at the configuration edge.
func (a Address) bytes() []byte {
	raw := strings.TrimPrefix(string(a), "0x")
	b, err := hex.DecodeString(raw)
	if err != nil || len(b) != 20 {
		return make([]byte, 20)
	}
	return b
}
