package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/parquet-go/parquet-go"

	"optrader/internal/domain"
)

// Compile-time interface check.
var _ SnapshotStore = (*ParquetSnapshots)(nil)

// ParquetSnapshots implements SnapshotStore with one Parquet file per mode
// and year under <DataDir>/snapshots/<mode>/<YYYY>.parquet.
type ParquetSnapshots struct {
	DataDir string
}

// NewParquetSnapshots creates a ParquetSnapshots rooted at dataDir.
func NewParquetSnapshots(dataDir string) *ParquetSnapshots {
	return &ParquetSnapshots{DataDir: dataDir}
}

// snapshotRecord is the Parquet schema for equity snapshots.
type snapshotRecord struct {
	Timestamp    int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Cash         float64 `parquet:"cash"`
	Equity       float64 `parquet:"equity"`
	UnrealizedPL float64 `parquet:"unrealized_pl"`
	Positions    int32   `parquet:"positions"`
}

// Append adds a snapshot, merging it into the file for its mode and year.
func (s *ParquetSnapshots) Append(snap EquitySnapshot) error {
	path := s.path(snap.Mode, snap.Timestamp)

	existing, _ := readParquetFile[snapshotRecord](path)
	merged := mergeSnapshotRecords(existing, []snapshotRecord{{
		Timestamp:    snap.Timestamp.UnixMilli(),
		Cash:         snap.Cash,
		Equity:       snap.Equity,
		UnrealizedPL: snap.UnrealizedPL,
		Positions:    int32(snap.Positions),
	}})

	if err := writeParquetFile(path, merged); err != nil {
		return fmt.Errorf("writing snapshot for %s: %w", snap.Mode, err)
	}
	return nil
}

// List returns snapshots for mode within [start, end], oldest first.
func (s *ParquetSnapshots) List(mode domain.Mode, start, end time.Time) ([]EquitySnapshot, error) {
	var snaps []EquitySnapshot
	for year := start.Year(); year <= end.Year(); year++ {
		path := s.path(mode, time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC))

		records, err := readParquetFile[snapshotRecord](path)
		if err != nil {
			// No file for this year — skip.
			continue
		}

		for _, r := range records {
			ts := time.UnixMilli(r.Timestamp)
			if ts.Before(start) || ts.After(end) {
				continue
			}
			snaps = append(snaps, EquitySnapshot{
				Timestamp:    ts,
				Mode:         mode,
				Cash:         r.Cash,
				Equity:       r.Equity,
				UnrealizedPL: r.UnrealizedPL,
				Positions:    int(r.Positions),
			})
		}
	}
	return snaps, nil
}

// path returns the snapshot file path for a mode and timestamp.
// Layout: <DataDir>/snapshots/<mode>/<YYYY>.parquet
func (s *ParquetSnapshots) path(mode domain.Mode, t time.Time) string {
	return filepath.Join(s.DataDir, "snapshots", string(mode), fmt.Sprintf("%d.parquet", t.Year()))
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	return parquet.ReadFile[T](path)
}

// mergeSnapshotRecords deduplicates by timestamp, preferring new records,
// and sorts chronologically.
func mergeSnapshotRecords(existing, incoming []snapshotRecord) []snapshotRecord {
	seen := make(map[int64]snapshotRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.Timestamp] = r
	}
	for _, r := range incoming {
		seen[r.Timestamp] = r
	}

	merged := make([]snapshotRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return merged
}
