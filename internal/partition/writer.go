// Package partition maintains a monitor's date-partitioned detection store
// and consolidates it into the master dataset.
package partition

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/couchcryptid/bird-detect-etl/internal/adapter/parquetstore"
	"github.com/couchcryptid/bird-detect-etl/internal/domain"
)

// Writer appends detection records to batch partitions.
//
// Writes are read-merge-write and not transactional: two writers on the same
// partition lose updates. Rows are never deduplicated here; the manifest
// keeps a recording from being written twice.
type Writer struct {
	layout domain.Layout
	store  *parquetstore.Store
}

// NewWriter creates a Writer.
func NewWriter(layout domain.Layout, store *parquetstore.Store) *Writer {
	return &Writer{layout: layout, store: store}
}

// Write appends records to the partition identified by key. An absent
// partition is created. No records is a no-op. It returns the partition's
// row count after the write.
func (w *Writer) Write(monitor, key string, records []domain.DetectionRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	if key == "" {
		return 0, errors.New("partition key is required")
	}

	path := w.layout.PartitionPath(monitor, key)
	existing, err := parquetstore.Read[domain.DetectionRecord](w.store, path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("load partition %s: %w", key, err)
	}

	merged := make([]domain.DetectionRecord, 0, len(existing)+len(records))
	merged = append(merged, existing...)
	merged = append(merged, records...)
	if err := parquetstore.Write(w.store, path, merged); err != nil {
		return 0, fmt.Errorf("rewrite partition %s: %w", key, err)
	}
	return len(merged), nil
}

// Key is the partition key for a recording: its capture date.
func Key(rec domain.RecordingFile) string {
	return rec.Date
}
