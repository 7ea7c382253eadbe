// Package store persists trading state: the authoritative portfolio files
// (one JSON file per mode), the append-only fill journal in SQLite, and the
// equity-curve snapshots in Parquet.
//
// The portfolio files assume a single writer. Nothing here takes a
// cross-process lock; running two processes against the same portfolio
// directory is unsupported and is the caller's responsibility to avoid.
package store

import (
	"context"
	"time"

	"optrader/internal/domain"
)

// PortfolioStore loads and saves the authoritative portfolio for a mode.
type PortfolioStore interface {
	// Load reads the portfolio file for mode, initializing it with defaults
	// when absent. A file that exists but cannot be parsed fails with an
	// error matching domain.ErrCorruptPortfolio.
	Load(mode domain.Mode) (*domain.Portfolio, error)

	// Save writes the full portfolio state atomically (temp file + rename),
	// so a crash mid-write never corrupts the existing file.
	Save(p *domain.Portfolio, mode domain.Mode) error
}

// FillJournal records every completed fill for reporting. The journal is a
// derived record: the portfolio file remains authoritative.
type FillJournal interface {
	// RecordFill appends a fill to the journal.
	RecordFill(ctx context.Context, mode domain.Mode, tx *domain.Transaction) error

	// ListFills returns the most recent fills for a mode, newest first,
	// optionally filtered by symbol. limit <= 0 means no limit.
	ListFills(ctx context.Context, mode domain.Mode, symbol string, limit int) ([]domain.Transaction, error)
}

// EquitySnapshot is one observation of portfolio value over time.
type EquitySnapshot struct {
	Timestamp    time.Time
	Mode         domain.Mode
	Cash         float64
	Equity       float64
	UnrealizedPL float64
	Positions    int
}

// SnapshotStore persists the equity curve produced by the monitor loop.
type SnapshotStore interface {
	// Append adds a snapshot to the store.
	Append(snap EquitySnapshot) error

	// List returns snapshots for a mode within [start, end], oldest first.
	List(mode domain.Mode, start, end time.Time) ([]EquitySnapshot, error)
}
