package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"optrader/internal/domain"
)

// Compile-time interface check.
var _ FillJournal = (*SQLiteJournal)(nil)

// SQLiteJournal implements FillJournal backed by a SQLite database.
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLiteJournal opens (or creates) the journal database at dbPath and
// ensures the schema exists.
func NewSQLiteJournal(dbPath string) (*SQLiteJournal, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	j := &SQLiteJournal{db: db}
	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

// Close closes the underlying database connection.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

func (j *SQLiteJournal) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS fills (
			id          TEXT PRIMARY KEY,
			order_id    TEXT NOT NULL,
			mode        TEXT NOT NULL,
			symbol      TEXT NOT NULL,
			side        TEXT NOT NULL,
			qty         INTEGER NOT NULL,
			price       REAL NOT NULL,
			realized_pl REAL NOT NULL DEFAULT 0,
			filled_at   DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_fills_mode_symbol ON fills(mode, symbol);`,
		`CREATE INDEX IF NOT EXISTS idx_fills_filled_at ON fills(filled_at);`,
	}

	for _, q := range queries {
		if _, err := j.db.Exec(q); err != nil {
			return fmt.Errorf("initializing journal schema: %w", err)
		}
	}
	return nil
}

// RecordFill appends a fill to the journal. Re-recording the same
// transaction ID is a no-op, so replays after a crash stay idempotent.
func (j *SQLiteJournal) RecordFill(ctx context.Context, mode domain.Mode, tx *domain.Transaction) error {
	const q = `INSERT OR IGNORE INTO fills
		(id, order_id, mode, symbol, side, qty, price, realized_pl, filled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := j.db.ExecContext(ctx, q,
		tx.ID, tx.OrderID, string(mode), tx.Symbol, string(tx.Side),
		tx.Qty, tx.Price, tx.RealizedPL, tx.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording fill %s: %w", tx.ID, err)
	}
	return nil
}

// ListFills returns the most recent fills for a mode, newest first,
// optionally filtered by symbol.
func (j *SQLiteJournal) ListFills(ctx context.Context, mode domain.Mode, symbol string, limit int) ([]domain.Transaction, error) {
	q := `SELECT id, order_id, symbol, side, qty, price, realized_pl, filled_at
		FROM fills WHERE mode = ?`
	args := []any{string(mode)}

	if symbol != "" {
		q += ` AND symbol = ?`
		args = append(args, symbol)
	}
	q += ` ORDER BY filled_at DESC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fills []domain.Transaction
	for rows.Next() {
		var (
			tx       domain.Transaction
			side     string
			filledAt string
		)
		if err := rows.Scan(&tx.ID, &tx.OrderID, &tx.Symbol, &side, &tx.Qty, &tx.Price, &tx.RealizedPL, &filledAt); err != nil {
			return nil, err
		}
		tx.Side = domain.Side(side)
		ts, err := time.Parse(time.RFC3339Nano, filledAt)
		if err != nil {
			return nil, fmt.Errorf("parsing fill timestamp %q: %w", filledAt, err)
		}
		tx.Timestamp = ts
		fills = append(fills, tx)
	}
	return fills, rows.Err()
}
