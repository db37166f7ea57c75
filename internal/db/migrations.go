package db

const schemaSQL = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS positions (
    id TEXT PRIMARY KEY,
    owner TEXT NOT NULL,
    strategy_id TEXT NOT NULL,
    chain_id INTEGER NOT NULL,
    token_name TEXT NOT NULL,
    amount TEXT NOT NULL,
    entry_price TEXT NOT NULL DEFAULT '0',
    status TEXT NOT NULL DEFAULT 'active',
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_positions_owner ON positions(owner);
CREATE UNIQUE INDEX IF NOT EXISTS idx_positions_open
    ON positions(owner, strategy_id, chain_id) WHERE status = 'active';

CREATE TABLE IF NOT EXISTS transactions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    owner TEXT NOT NULL,
    chain_id INTEGER NOT NULL,
    strategy_id TEXT NOT NULL,
    tx_hash TEXT NOT NULL,
    amount TEXT NOT NULL,
    token_name TEXT NOT NULL,
    tx_type TEXT NOT NULL,
    created_at TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_transactions_owner ON transactions(owner);
CREATE INDEX IF NOT EXISTS idx_transactions_strategy ON transactions(strategy_id);
`
