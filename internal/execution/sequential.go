package execution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"vaultpilot/internal/chain"
	"vaultpilot/internal/config"
)

// ErrSkipStep, returned from a Step's Build, drops the step without failing
// the flow. Used when a build-time read shows there is nothing to do.
var ErrSkipStep = errors.New("skip step")

// Step is one transaction in a sequential flow. Build constructs the call
// for a parameter candidate; flows without a parameter space leave Params
// empty and Build receives zero. Build may issue read-only chain queries,
// since earlier steps change the state it depends on. Fallback, when set,
// is an alternate call tried once after every Build candidate has failed.
type Step struct {
	Name     string
	Build    func(ctx context.Context, param uint64) (chain.Call, error)
	Fallback func(ctx context.Context) (chain.Call, error)
	Params   []uint64
}

// SequentialFlow submits steps one transaction at a time on wallets that
// cannot batch. The pending nonce is fetched once up front and advanced
// locally per confirmed step; any failure invalidates the local counter, so
// a fresh nonce is fetched before every fallback and retry candidate.
type SequentialFlow struct {
	wallet         Wallet
	waiter         ReceiptWaiter
	nonces         NonceSource
	chainID        uint64
	receiptTimeout time.Duration
}

func NewSequentialFlow(wallet Wallet, waiter ReceiptWaiter, nonces NonceSource, chainID uint64, cfg config.ExecutionConfig) *SequentialFlow {
	return &SequentialFlow{
		wallet:         wallet,
		waiter:         waiter,
		nonces:         nonces,
		chainID:        chainID,
		receiptTimeout: cfg.ReceiptTimeout.Duration,
	}
}

// Run executes the steps in order and returns the hashes of every confirmed
// transaction. On failure the confirmed hashes are still returned alongside
// a StepError; completed steps are not compensated.
func (f *SequentialFlow) Run(ctx context.Context, steps []Step) ([]string, error) {
	nonce, err := f.nonces.PendingNonce(ctx, f.chainID, f.wallet.Address())
	if err != nil {
		return nil, fmt.Errorf("fetching pending nonce: %w", err)
	}

	var txHashes []string
	for _, step := range steps {
		hash, err := f.runStep(ctx, step, &nonce)
		if errors.Is(err, ErrSkipStep) {
			slog.Info("step skipped", "step", step.Name)
			continue
		}
		if err != nil {
			return txHashes, err
		}
		txHashes = append(txHashes, hash)
		slog.Info("step confirmed", "step", step.Name, "tx_hash", hash, "chain", f.chainID)
	}
	return txHashes, nil
}

func (f *SequentialFlow) runStep(ctx context.Context, step Step, nonce *uint64) (string, error) {
	params := step.Params
	if len(params) == 0 {
		params = []uint64{0}
	}

	attempts := 0
	var lastHash string
	var lastErr error

	for i, param := range params {
		if i > 0 {
			if err := f.refreshNonce(ctx, nonce); err != nil {
				return "", &StepError{Step: step.Name, LastTxHash: lastHash, Attempts: attempts, Err: err}
			}
		}

		call, err := step.Build(ctx, param)
		if errors.Is(err, ErrSkipStep) {
			return "", err
		}
		if err != nil {
			return "", &StepError{Step: step.Name, LastTxHash: lastHash, Attempts: attempts, Err: err}
		}

		attempts++
		hash, err := f.submit(ctx, call, nonce)
		if err == nil {
			return hash, nil
		}
		if hash != "" {
			lastHash = hash
		}
		lastErr = err
		slog.Warn("step attempt failed",
			"step", step.Name, "attempt", attempts, "param", param, "error", err)
	}

	if step.Fallback != nil {
		if err := f.refreshNonce(ctx, nonce); err != nil {
			return "", &StepError{Step: step.Name, LastTxHash: lastHash, Attempts: attempts, Err: err}
		}
		call, err := step.Fallback(ctx)
		if err != nil {
			return "", &StepError{Step: step.Name, LastTxHash: lastHash, Attempts: attempts, Err: err}
		}
		attempts++
		hash, err := f.submit(ctx, call, nonce)
		if err == nil {
			slog.Info("step recovered via fallback", "step", step.Name, "tx_hash", hash)
			return hash, nil
		}
		if hash != "" {
			lastHash = hash
		}
		lastErr = err
	}

	return "", &StepError{Step: step.Name, LastTxHash: lastHash, Attempts: attempts, Err: lastErr}
}

// submit sends one call with the current nonce and advances it only when the
// transaction confirms successfully. A reverted transaction still consumed
// the nonce on chain, which is why callers re-fetch instead of trusting the
// local counter after any failure.
func (f *SequentialFlow) submit(ctx context.Context, call chain.Call, nonce *uint64) (string, error) {
	hash, err := f.wallet.SendCall(ctx, f.chainID, call, *nonce)
	if err != nil {
		return "", fmt.Errorf("sending call to %s: %w", call.To, err)
	}
	*nonce++

	receipt, err := waitBounded(ctx, f.waiter, f.chainID, hash, f.receiptTimeout)
	if err != nil {
		*nonce--
		return hash, fmt.Errorf("waiting for %s: %w", hash, err)
	}
	if !receipt.Success {
		*nonce--
		return receipt.Hash, &RevertError{TxHash: receipt.Hash}
	}
	return receipt.Hash, nil
}

func (f *SequentialFlow) refreshNonce(ctx context.Context, nonce *uint64) error {
	fresh, err := f.nonces.PendingNonce(ctx, f.chainID, f.wallet.Address())
	if err != nil {
		return fmt.Errorf("re-fetching pending nonce: %w", err)
	}
	*nonce = fresh
	return nil
}
