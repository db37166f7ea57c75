package db

import (
	"testing"
)

func TestMigrate_CreatesAllTables(t *testing.T) {
	database, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()

	if err := Migrate(database); err != nil {
		t.Fatal(err)
	}

	tables := []string{
		"schema_version",
		"positions",
		"transactions",
	}

	for _, table := range tables {
		row := database.QueryRow(
			`SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?`, table)
		var count int
		if err := row.Scan(&count); err != nil {
			t.Fatalf("checking table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("table %s not found", table)
		}
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	database, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()

	// Run twice — should not error.
	if err := Migrate(database); err != nil {
		t.Fatal(err)
	}
	if err := Migrate(database); err != nil {
		t.Fatal(err)
	}
}

func TestMigrate_InsertAndQuery(t *testing.T) {
	database, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()

	if err := Migrate(database); err != nil {
		t.Fatal(err)
	}

	// Insert a position.
	_, err = database.Exec(`
		INSERT INTO positions (id, owner, strategy_id, chain_id, token_name, amount)
		VALUES ('p1', '0xabc', 'AaveV3Supply', 8453, 'USDC', '100')`)
	if err != nil {
		t.Fatal(err)
	}

	// Insert a transaction.
	_, err = database.Exec(`
		INSERT INTO transactions (owner, chain_id, strategy_id, tx_hash, amount, token_name, tx_type)
		VALUES ('0xabc', 8453, 'AaveV3Supply', '0xhash', '100', 'USDC', 'deposit')`)
	if err != nil {
		t.Fatal(err)
	}

	// A second open position for the same owner+strategy+chain violates
	// the merge constraint.
	_, err = database.Exec(`
		INSERT INTO positions (id, owner, strategy_id, chain_id, token_name, amount)
		VALUES ('p2', '0xabc', 'AaveV3Supply', 8453, 'USDC', '50')`)
	if err == nil {
		t.Error("expected unique constraint violation for duplicate open position")
	}

	var count int
	row := database.QueryRow(`SELECT COUNT(*) FROM transactions`)
	if err := row.Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected 1 transaction, got %d", count)
	}
}
