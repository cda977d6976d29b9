package partition

import (
	"fmt"
	"log/slog"

	"github.com/couchcryptid/bird-detect-etl/internal/adapter/parquetstore"
	"github.com/couchcryptid/bird-detect-etl/internal/domain"
)

// Master describes a freshly written master dataset.
type Master struct {
	Path       string
	Partitions int
	Rows       int
}

// Consolidator rebuilds a monitor's master dataset from its partitions.
type Consolidator struct {
	layout domain.Layout
	store  *parquetstore.Store
	logger *slog.Logger
}

// NewConsolidator creates a Consolidator.
func NewConsolidator(layout domain.Layout, store *parquetstore.Store, logger *slog.Logger) *Consolidator {
	return &Consolidator{layout: layout, store: store, logger: logger}
}

// Consolidate concatenates every partition of monitor and overwrites the
// master dataset. It returns nil without error when no partitions exist.
// Empty partitions are skipped; a partition that cannot be decoded fails
// the consolidation so the previous master stays in place.
func (c *Consolidator) Consolidate(monitor string) (*Master, error) {
	paths, err := parquetstore.Glob(c.layout.PartitionGlob(monitor))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		c.logger.Warn("no partitions to consolidate", "monitor", monitor)
		return nil, nil
	}

	var (
		rows []domain.DetectionRecord
		used int
	)
	for _, p := range paths {
		part, err := parquetstore.Read[domain.DetectionRecord](c.store, p)
		if err != nil {
			return nil, fmt.Errorf("load partition: %w", err)
		}
		if len(part) == 0 {
			c.logger.Warn("skipping empty partition", "monitor", monitor, "path", p)
			continue
		}
		rows = append(rows, part...)
		used++
	}

	path := c.layout.MasterPath(monitor)
	if err := parquetstore.Write(c.store, path, rows); err != nil {
		return nil, fmt.Errorf("write master dataset: %w", err)
	}
	c.logger.Info("master dataset written", "monitor", monitor, "path", path, "partitions", used, "rows", len(rows))
	return &Master{Path: path, Partitions: used, Rows: len(rows)}, nil
}
