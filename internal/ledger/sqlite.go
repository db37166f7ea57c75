package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"vaultpilot/internal/chain"
)

// Store implements PositionLedger and TransactionLog on SQLite.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const timeLayout = "2006-01-02 15:04:05"

// Record applies a deposit delta. An existing active position for the same
// (owner, strategy, chain) key absorbs the amount; otherwise a new position
// row is created.
func (s *Store) Record(ctx context.Context, delta PositionDelta) (Position, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Position{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT id, amount FROM positions
		WHERE owner = ? AND strategy_id = ? AND chain_id = ? AND status = 'active'`,
		string(delta.Owner), delta.StrategyID, delta.ChainID)

	var id, amountText string
	err = row.Scan(&id, &amountText)
	switch {
	case err == sql.ErrNoRows:
		id = uuid.NewString()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO positions (id, owner, strategy_id, chain_id, token_name, amount, entry_price)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, string(delta.Owner), delta.StrategyID, delta.ChainID,
			delta.TokenName, delta.Amount.String(), delta.EntryPrice.String())
		if err != nil {
			return Position{}, fmt.Errorf("inserting position: %w", err)
		}
	case err != nil:
		return Position{}, fmt.Errorf("querying active position: %w", err)
	default:
		existing, err := decimal.NewFromString(amountText)
		if err != nil {
			return Position{}, fmt.Errorf("parsing stored amount %q: %w", amountText, err)
		}
		merged := existing.Add(delta.Amount)
		_, err = tx.ExecContext(ctx, `
			UPDATE positions SET amount = ?, updated_at = datetime('now') WHERE id = ?`,
			merged.String(), id)
		if err != nil {
			return Position{}, fmt.Errorf("merging position: %w", err)
		}
	}

	pos, err := s.fetch(ctx, tx, id)
	if err != nil {
		return Position{}, err
	}
	if err := tx.Commit(); err != nil {
		return Position{}, fmt.Errorf("committing: %w", err)
	}
	return pos, nil
}

// Close flips a position's status to closed.
func (s *Store) Close(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE positions SET status = 'closed', updated_at = datetime('now')
		WHERE id = ? AND status = 'active'`, id)
	if err != nil {
		return fmt.Errorf("closing position: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no active position with id %s", id)
	}
	return nil
}

// Active returns the open position for the key, if any.
func (s *Store) Active(ctx context.Context, owner chain.Address, strategyID string, chainID uint64) (Position, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner, strategy_id, chain_id, token_name, amount, entry_price, status, created_at, updated_at
		FROM positions
		WHERE owner = ? AND strategy_id = ? AND chain_id = ? AND status = 'active'`,
		string(owner), strategyID, chainID)

	pos, err := scanPosition(row)
	if err == sql.ErrNoRows {
		return Position{}, false, nil
	}
	if err != nil {
		return Position{}, false, err
	}
	return pos, true, nil
}

// ByOwner returns all positions for an owner, newest first.
func (s *Store) ByOwner(ctx context.Context, owner chain.Address) ([]Position, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner, strategy_id, chain_id, token_name, amount, entry_price, status, created_at, updated_at
		FROM positions WHERE owner = ? ORDER BY created_at DESC, id`,
		string(owner))
	if err != nil {
		return nil, fmt.Errorf("querying positions: %w", err)
	}
	defer rows.Close()

	var positions []Position
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, pos)
	}
	return positions, rows.Err()
}

// TxLog implements TransactionLog on SQLite.
type TxLog struct {
	db *sql.DB
}

func NewTxLog(db *sql.DB) *TxLog {
	return &TxLog{db: db}
}

// Record appends a transaction entry to the log.
func (l *TxLog) Record(ctx context.Context, entry TransactionEntry) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO transactions (owner, chain_id, strategy_id, tx_hash, amount, token_name, tx_type)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(entry.Owner), entry.ChainID, entry.StrategyID,
		entry.TxHash, entry.Amount.String(), entry.TokenName, entry.Type)
	if err != nil {
		return fmt.Errorf("inserting transaction: %w", err)
	}
	return nil
}

// ByOwner returns the owner's transaction history, newest first.
func (l *TxLog) ByOwner(ctx context.Context, owner chain.Address) ([]TransactionEntry, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT owner, chain_id, strategy_id, tx_hash, amount, token_name, tx_type
		FROM transactions WHERE owner = ? ORDER BY id DESC`,
		string(owner))
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var entries []TransactionEntry
	for rows.Next() {
		var e TransactionEntry
		var ownerText, amountText string
		if err := rows.Scan(&ownerText, &e.ChainID, &e.StrategyID, &e.TxHash, &amountText, &e.TokenName, &e.Type); err != nil {
			return nil, err
		}
		e.Owner = chain.Address(ownerText)
		e.Amount, err = decimal.NewFromString(amountText)
		if err != nil {
			return nil, fmt.Errorf("parsing stored amount %q: %w", amountText, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) fetch(ctx context.Context, tx *sql.Tx, id string) (Position, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT id, owner, strategy_id, chain_id, token_name, amount, entry_price, status, created_at, updated_at
		FROM positions WHERE id = ?`, id)
	return scanPosition(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosition(row rowScanner) (Position, error) {
	var pos Position
	var ownerText, amountText, priceText, createdText, updatedText string
	err := row.Scan(&pos.ID, &ownerText, &pos.StrategyID, &pos.ChainID,
		&pos.TokenName, &amountText, &priceText, &pos.Status, &createdText, &updatedText)
	if err != nil {
		return Position{}, err
	}
	pos.Owner = chain.Address(ownerText)
	if pos.Amount, err = decimal.NewFromString(amountText); err != nil {
		return Position{}, fmt.Errorf("parsing stored amount %q: %w", amountText, err)
	}
	if pos.EntryPrice, err = decimal.NewFromString(priceText); err != nil {
		return Position{}, fmt.Errorf("parsing stored entry price %q: %w", priceText, err)
	}
	if pos.CreatedAt, err = time.Parse(timeLayout, createdText); err != nil {
		return Position{}, fmt.Errorf("parsing created_at %q: %w", createdText, err)
	}
	if pos.UpdatedAt, err = time.Parse(timeLayout, updatedText); err != nil {
		return Position{}, fmt.Errorf("parsing updated_at %q: %w", updatedText, err)
	}
	return pos, nil
}
