package execution

import (
	"context"
	"fmt"
	"time"

	"vaultpilot/internal/chain"
)

// Wallet is the signing boundary. Implementations hold keys or delegate to a
// session elsewhere; this package only describes what to send.
type Wallet interface {
	Address() chain.Address
	// ActiveChain reports the chain the wallet is currently pointed at.
	ActiveChain(ctx context.Context) (uint64, error)
	// SwitchChain repoints the wallet. A failed switch aborts the whole
	// operation before anything is sent.
	SwitchChain(ctx context.Context, chainID uint64) error
	// SendBatch submits calls as one atomic operation and returns an
	// operation handle to wait on.
	SendBatch(ctx context.Context, chainID uint64, calls []chain.Call) (string, error)
	// SendCall submits one call with an explicit nonce and returns the
	// transaction hash.
	SendCall(ctx context.Context, chainID uint64, call chain.Call, nonce uint64) (string, error)
}

// Receipt is the confirmed outcome of a submitted operation.
type Receipt struct {
	Hash    string
	Success bool
}

// ReceiptWaiter blocks until an operation handle or transaction hash is
// confirmed on chain.
type ReceiptWaiter interface {
	WaitReceipt(ctx context.Context, chainID uint64, handle string) (Receipt, error)
}

// waitBounded applies the configured receipt timeout, when one is set, on
// top of whatever deadline the caller's context already carries.
func waitBounded(ctx context.Context, waiter ReceiptWaiter, chainID uint64, handle string, timeout time.Duration) (Receipt, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return waiter.WaitReceipt(ctx, chainID, handle)
}

// NonceSource reads the pending nonce for an account. chain.Client satisfies
// this.
type NonceSource interface {
	PendingNonce(ctx context.Context, chainID uint64, account chain.Address) (uint64, error)
}

// RevertError reports an operation that was mined but failed on chain.
type RevertError struct {
	TxHash string
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("transaction %s reverted", e.TxHash)
}

// StepError reports the failure of one step in a sequential flow, after all
// of its fallbacks and parameter retries were exhausted. Hashes of steps
// confirmed before the failure are reported alongside by the flow runner.
type StepError struct {
	Step       string
	LastTxHash string
	Attempts   int
	Err        error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s failed after %d attempts: %v", e.Step, e.Attempts, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
