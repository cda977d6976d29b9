// Package artifacts is the read path behind the presentation API. It decodes
// finished view artifacts into row collections and never writes.
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/bird-detect-etl/internal/adapter/parquetstore"
	"github.com/couchcryptid/bird-detect-etl/internal/domain"
)

// NotFoundError reports a named artifact that does not exist yet.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", domain.ErrArtifactNotFound, e.Path)
}

func (e *NotFoundError) Unwrap() error { return domain.ErrArtifactNotFound }

// ArtifactPath returns the path that was looked up.
func (e *NotFoundError) ArtifactPath() string { return e.Path }

// Reader loads view artifacts from the analytics directory.
type Reader struct {
	layout domain.Layout
	store  *parquetstore.Store
	logger *slog.Logger
}

// NewReader creates a Reader over layout.
func NewReader(layout domain.Layout, store *parquetstore.Store, logger *slog.Logger) *Reader {
	return &Reader{layout: layout, store: store, logger: logger}
}

// View returns the rows of a monitor's view artifact. A missing artifact
// returns a *NotFoundError.
func (r *Reader) View(monitor string, v domain.View) (any, error) {
	return r.load(r.layout.ViewPath(monitor, v), v)
}

// Latest returns the rows of the most recently modified view artifact of a
// monitor. When none exist it returns an empty collection and no error.
func (r *Reader) Latest(monitor string) (any, error) {
	path, v, ok, err := r.freshest(monitor)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []map[string]any{}, nil
	}
	r.logger.Debug("serving freshest artifact", "monitor", monitor, "path", path)
	return r.load(path, v)
}

// CheckReadiness reports whether the analytics root is accessible.
func (r *Reader) CheckReadiness(_ context.Context) error {
	info, err := os.Stat(r.layout.AnalyticsDir)
	if err != nil {
		return fmt.Errorf("analytics directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("analytics directory %s is not a directory", r.layout.AnalyticsDir)
	}
	return nil
}

func (r *Reader) freshest(monitor string) (string, domain.View, bool, error) {
	matches, err := parquetstore.Glob(filepath.Join(r.layout.MonitorAnalyticsDir(monitor), "*.parquet"))
	if err != nil {
		return "", "", false, err
	}

	var (
		best     string
		bestView domain.View
		bestTime time.Time
	)
	for _, m := range matches {
		v, ok := domain.ViewForFile(filepath.Base(m))
		if !ok {
			continue
		}
		mt, err := parquetstore.ModTime(m)
		if err != nil {
			return "", "", false, err
		}
		if best == "" || mt.After(bestTime) {
			best, bestView, bestTime = m, v, mt
		}
	}
	return best, bestView, best != "", nil
}

func (r *Reader) load(path string, v domain.View) (any, error) {
	rows, err := decode(r.store, path, v)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &NotFoundError{Path: path}
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", v, err)
	}
	return rows, nil
}

func decode(s *parquetstore.Store, path string, v domain.View) (any, error) {
	switch v {
	case domain.ViewDailyStats:
		return readRows[domain.DailyStat](s, path)
	case domain.ViewSpeciesTotals:
		return readRows[domain.SpeciesTotal](s, path)
	case domain.ViewHourlyPatterns:
		return readRows[domain.HourlyActivity](s, path)
	case domain.ViewDailySpecies:
		return readRows[domain.DailySpeciesCount](s, path)
	case domain.ViewDailyUniqueSpecies:
		return readRows[domain.DailyUniqueSpecies](s, path)
	case domain.ViewSpeciesDailyProfile:
		return readRows[domain.SpeciesDailyProfile](s, path)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownView, v)
	}
}

// readRows never returns a nil slice so empty artifacts encode as [].
func readRows[T any](s *parquetstore.Store, path string) ([]T, error) {
	rows, err := parquetstore.Read[T](s, path)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, nil
}
