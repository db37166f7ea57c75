package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"vaultpilot/internal/chain"
)

// Position status values.
const (
	StatusActive = "active"
	StatusClosed = "closed"
)

// Transaction types.
const (
	TxDeposit  = "deposit"
	TxWithdraw = "withdraw"
)

// Position is an open or closed holding in a single strategy on a single
// chain. At most one active position exists per (owner, strategy, chain);
// repeated deposits merge into it.
type Position struct {
	ID         string
	Owner      chain.Address
	StrategyID string
	ChainID    uint64
	TokenName  string
	Amount     decimal.Decimal
	EntryPrice decimal.Decimal
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PositionDelta describes a deposit to record against the ledger. If an
// active position already exists for the (owner, strategy, chain) key the
// amount is added to it, otherwise a new position is created.
type PositionDelta struct {
	Owner      chain.Address
	StrategyID string
	ChainID    uint64
	TokenName  string
	Amount     decimal.Decimal
	EntryPrice decimal.Decimal
}

// TransactionEntry is one confirmed on-chain transaction attributed to an
// owner and strategy.
type TransactionEntry struct {
	Owner      chain.Address
	ChainID    uint64
	StrategyID string
	TxHash     string
	Amount     decimal.Decimal
	TokenName  string
	Type       string
}

// PositionLedger is the persistence boundary for positions.
type PositionLedger interface {
	// Record applies a deposit delta, merging into an existing active
	// position when one exists.
	Record(ctx context.Context, delta PositionDelta) (Position, error)
	// Close marks a position closed. Closing an already-closed position
	// is an error.
	Close(ctx context.Context, id string) error
	// Active returns the active position for the key, or ok=false.
	Active(ctx context.Context, owner chain.Address, strategyID string, chainID uint64) (Position, bool, error)
	// ByOwner returns all positions for an owner, newest first.
	ByOwner(ctx context.Context, owner chain.Address) ([]Position, error)
}

// TransactionLog is the persistence boundary for the transaction history.
type TransactionLog interface {
	Record(ctx context.Context, entry TransactionEntry) error
}
