package ledger

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"

	"vaultpilot/internal/chain"
	"vaultpilot/internal/db"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })
	if err := db.Migrate(database); err != nil {
		t.Fatal(err)
	}
	return database
}

func TestRecord_CreatesPosition(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()

	pos, err := store.Record(ctx, PositionDelta{
		Owner:      "0x1111111111111111111111111111111111111111",
		StrategyID: "AaveV3Supply",
		ChainID:    8453,
		TokenName:  "USDC",
		Amount:     decimal.NewFromInt(100),
		EntryPrice: decimal.NewFromInt(1),
	})
	if err != nil {
		t.Fatal(err)
	}

	if pos.ID == "" {
		t.Error("expected generated position id")
	}
	if pos.Status != StatusActive {
		t.Errorf("status = %q, want %q", pos.Status, StatusActive)
	}
	if !pos.Amount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("amount = %s, want 100", pos.Amount)
	}
	if pos.CreatedAt.IsZero() || pos.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be populated")
	}
}

func TestRecord_MergesIntoActivePosition(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()

	delta := PositionDelta{
		Owner:      "0x1111111111111111111111111111111111111111",
		StrategyID: "MorphoSupply",
		ChainID:    8453,
		TokenName:  "USDC",
		Amount:     decimal.NewFromInt(100),
	}

	first, err := store.Record(ctx, delta)
	if err != nil {
		t.Fatal(err)
	}

	delta.Amount = decimal.RequireFromString("50.5")
	second, err := store.Record(ctx, delta)
	if err != nil {
		t.Fatal(err)
	}

	if second.ID != first.ID {
		t.Errorf("expected merge into %s, got new position %s", first.ID, second.ID)
	}
	if want := decimal.RequireFromString("150.5"); !second.Amount.Equal(want) {
		t.Errorf("merged amount = %s, want %s", second.Amount, want)
	}

	positions, err := store.ByOwner(ctx, delta.Owner)
	if err != nil {
		t.Fatal(err)
	}
	if len(positions) != 1 {
		t.Fatalf("expected 1 position, got %d", len(positions))
	}
}

func TestRecord_SeparateKeysSeparatePositions(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()
	owner := chain.Address("0x1111111111111111111111111111111111111111")

	base := PositionDelta{
		Owner:      owner,
		StrategyID: "AaveV3Supply",
		ChainID:    8453,
		TokenName:  "USDC",
		Amount:     decimal.NewFromInt(100),
	}
	if _, err := store.Record(ctx, base); err != nil {
		t.Fatal(err)
	}

	other := base
	other.ChainID = 42220
	if _, err := store.Record(ctx, other); err != nil {
		t.Fatal(err)
	}

	positions, err := store.ByOwner(ctx, owner)
	if err != nil {
		t.Fatal(err)
	}
	if len(positions) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(positions))
	}
}

func TestClose_FlipsStatusAndAllowsNewPosition(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()

	delta := PositionDelta{
		Owner:      "0x2222222222222222222222222222222222222222",
		StrategyID: "CianVaultSupply",
		ChainID:    5000,
		TokenName:  "USDC",
		Amount:     decimal.NewFromInt(200),
	}

	pos, err := store.Record(ctx, delta)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Close(ctx, pos.ID); err != nil {
		t.Fatal(err)
	}

	if _, ok, err := store.Active(ctx, delta.Owner, delta.StrategyID, delta.ChainID); err != nil {
		t.Fatal(err)
	} else if ok {
		t.Error("expected no active position after close")
	}

	// Closing again is an error.
	if err := store.Close(ctx, pos.ID); err == nil {
		t.Error("expected error closing an already-closed position")
	}

	// A fresh deposit after close opens a new position rather than merging.
	reopened, err := store.Record(ctx, delta)
	if err != nil {
		t.Fatal(err)
	}
	if reopened.ID == pos.ID {
		t.Error("expected a new position id after close")
	}
	if !reopened.Amount.Equal(decimal.NewFromInt(200)) {
		t.Errorf("reopened amount = %s, want 200", reopened.Amount)
	}
}

func TestClose_UnknownID(t *testing.T) {
	store := NewStore(openTestDB(t))
	if err := store.Close(context.Background(), "nope"); err == nil {
		t.Error("expected error for unknown position id")
	}
}

func TestTxLog_RecordAndList(t *testing.T) {
	database := openTestDB(t)
	log := NewTxLog(database)
	ctx := context.Background()
	owner := chain.Address("0x3333333333333333333333333333333333333333")

	entries := []TransactionEntry{
		{Owner: owner, ChainID: 8453, StrategyID: "AaveV3Supply", TxHash: "0xaaa", Amount: decimal.NewFromInt(100), TokenName: "USDC", Type: TxDeposit},
		{Owner: owner, ChainID: 8453, StrategyID: "AaveV3Supply", TxHash: "0xbbb", Amount: decimal.RequireFromString("99.5"), TokenName: "USDC", Type: TxWithdraw},
	}
	for _, e := range entries {
		if err := log.Record(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	got, err := log.ByOwner(ctx, owner)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	// Newest first.
	if got[0].TxHash != "0xbbb" || got[0].Type != TxWithdraw {
		t.Errorf("unexpected first entry: %+v", got[0])
	}
	if !got[1].Amount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("amount = %s, want 100", got[1].Amount)
	}

	other, err := log.ByOwner(ctx, "0x4444444444444444444444444444444444444444")
	if err != nil {
		t.Fatal(err)
	}
	if len(other) != 0 {
		t.Errorf("expected no entries for other owner, got %d", len(other))
	}
}
