package execution

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"vaultpilot/internal/chain"
	"vaultpilot/internal/config"
	"vaultpilot/internal/fee"
	"vaultpilot/internal/ledger"
	"vaultpilot/internal/strategy"
)

// Orchestrator drives the batched execution path: every call a strategy
// needs, plus the fee transfer, submitted as one atomic operation.
type Orchestrator struct {
	wallet         Wallet
	waiter         ReceiptWaiter
	fees           *fee.Engine
	positions      ledger.PositionLedger
	txLog          ledger.TransactionLog
	receiptTimeout time.Duration
}

func NewOrchestrator(wallet Wallet, waiter ReceiptWaiter, fees *fee.Engine, positions ledger.PositionLedger, txLog ledger.TransactionLog, cfg config.ExecutionConfig) *Orchestrator {
	return &Orchestrator{
		wallet:         wallet,
		waiter:         waiter,
		fees:           fees,
		positions:      positions,
		txLog:          txLog,
		receiptTimeout: cfg.ReceiptTimeout.Duration,
	}
}

// InvestRequest describes one deposit to execute.
type InvestRequest struct {
	Adapter     strategy.Adapter
	Amount      *big.Int // raw token units, fee not yet deducted
	Asset       chain.Address
	AssetName   string
	Decimals    int32
	NativeAsset bool
}

// Invest switches to the strategy's chain, batches the adapter's calls with
// the fee transfer, waits for confirmation, and records the position and
// transaction. The fee is deducted first; only the remainder is invested.
func (o *Orchestrator) Invest(ctx context.Context, req InvestRequest) (Receipt, error) {
	id := req.Adapter.Identity()

	if !req.Adapter.SupportsChain(id.ChainID) {
		return Receipt{}, &strategy.UnsupportedChainError{Strategy: id.ID, ChainID: id.ChainID}
	}
	if err := o.ensureChain(ctx, id.ChainID); err != nil {
		return Receipt{}, err
	}

	feeAmount, invested := o.fees.Calculate(req.Amount)

	calls, err := req.Adapter.InvestCalls(ctx, invested, o.wallet.Address(), req.Asset)
	if err != nil {
		return Receipt{}, fmt.Errorf("building invest calls for %s: %w", id.ID, err)
	}
	if feeAmount.Sign() > 0 {
		calls = append(calls, o.fees.Call(req.Asset, req.NativeAsset, feeAmount))
	}

	receipt, err := o.sendBatch(ctx, id.ChainID, calls)
	if err != nil {
		return receipt, err
	}

	o.record(ctx, id, req, invested, receipt, ledger.TxDeposit)
	return receipt, nil
}

// RedeemRequest describes one full position exit.
type RedeemRequest struct {
	Adapter  strategy.Adapter
	Position ledger.Position
	Asset    chain.Address
	Decimals int32
}

// Redeem batches the adapter's redeem calls, waits for confirmation, closes
// the position, and records the withdrawal. No fee is charged on exit.
func (o *Orchestrator) Redeem(ctx context.Context, req RedeemRequest) (Receipt, error) {
	id := req.Adapter.Identity()

	if !req.Adapter.SupportsChain(id.ChainID) {
		return Receipt{}, &strategy.UnsupportedChainError{Strategy: id.ID, ChainID: id.ChainID}
	}
	if err := o.ensureChain(ctx, id.ChainID); err != nil {
		return Receipt{}, err
	}

	raw := req.Position.Amount.Shift(req.Decimals).BigInt()
	calls, err := req.Adapter.RedeemCalls(ctx, raw, o.wallet.Address(), req.Asset)
	if err != nil {
		return Receipt{}, fmt.Errorf("building redeem calls for %s: %w", id.ID, err)
	}

	receipt, err := o.sendBatch(ctx, id.ChainID, calls)
	if err != nil {
		return receipt, err
	}

	if err := o.positions.Close(ctx, req.Position.ID); err != nil {
		slog.Error("failed to close position", "position", req.Position.ID, "error", err)
	}
	entry := ledger.TransactionEntry{
		Owner:      o.wallet.Address(),
		ChainID:    id.ChainID,
		StrategyID: id.ID,
		TxHash:     receipt.Hash,
		Amount:     req.Position.Amount,
		TokenName:  req.Position.TokenName,
		Type:       ledger.TxWithdraw,
	}
	if err := o.txLog.Record(ctx, entry); err != nil {
		slog.Error("failed to record transaction", "tx_hash", receipt.Hash, "error", err)
	}
	return receipt, nil
}

func (o *Orchestrator) ensureChain(ctx context.Context, chainID uint64) error {
	active, err := o.wallet.ActiveChain(ctx)
	if err != nil {
		return fmt.Errorf("reading active chain: %w", err)
	}
	if active == chainID {
		return nil
	}
	if err := o.wallet.SwitchChain(ctx, chainID); err != nil {
		return fmt.Errorf("switching to chain %d: %w", chainID, err)
	}
	return nil
}

func (o *Orchestrator) sendBatch(ctx context.Context, chainID uint64, calls []chain.Call) (Receipt, error) {
	handle, err := o.wallet.SendBatch(ctx, chainID, calls)
	if err != nil {
		return Receipt{}, fmt.Errorf("submitting batch: %w", err)
	}
	receipt, err := waitBounded(ctx, o.waiter, chainID, handle, o.receiptTimeout)
	if err != nil {
		return Receipt{}, fmt.Errorf("waiting for receipt of %s: %w", handle, err)
	}
	if !receipt.Success {
		return receipt, &RevertError{TxHash: receipt.Hash}
	}
	return receipt, nil
}

func (o *Orchestrator) record(ctx context.Context, id strategy.Identity, req InvestRequest, invested *big.Int, receipt Receipt, txType string) {
	amount := decimal.NewFromBigInt(invested, -req.Decimals)

	_, err := o.positions.Record(ctx, ledger.PositionDelta{
		Owner:      o.wallet.Address(),
		StrategyID: id.ID,
		ChainID:    id.ChainID,
		TokenName:  req.AssetName,
		Amount:     amount,
	})
	if err != nil {
		slog.Error("failed to record position", "strategy", id.ID, "error", err)
	}

	entry := ledger.TransactionEntry{
		Owner:      o.wallet.Address(),
		ChainID:    id.ChainID,
		StrategyID: id.ID,
		TxHash:     receipt.Hash,
		Amount:     amount,
		TokenName:  req.AssetName,
		Type:       txType,
	}
	if err := o.txLog.Record(ctx, entry); err != nil {
		slog.Error("failed to record transaction", "tx_hash", receipt.Hash, "error", err)
	}
}
