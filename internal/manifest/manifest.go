// Package manifest tracks per-recording processing state for a monitor.
//
// The manifest is a map keyed by filename, so at most one entry exists per
// recording after every operation. It is not safe for concurrent use; the
// pipeline funnels all updates through a single writer goroutine.
package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/couchcryptid/bird-detect-etl/internal/adapter/parquetstore"
	"github.com/couchcryptid/bird-detect-etl/internal/domain"
)

// Manifest is the in-memory processing ledger of one monitor.
type Manifest struct {
	entries map[string]domain.ManifestEntry
}

// New returns an empty manifest.
func New() *Manifest {
	return &Manifest{entries: make(map[string]domain.ManifestEntry)}
}

// Load reads the manifest at path. A missing file is the cold-start case and
// yields an empty manifest. A file that cannot be decoded returns
// domain.ErrManifestCorrupt.
func Load(s *parquetstore.Store, path string) (*Manifest, error) {
	rows, err := parquetstore.Read[domain.ManifestEntry](s, path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrManifestCorrupt, err)
	}

	m := New()
	for i, row := range rows {
		if row.FileName == "" {
			return nil, fmt.Errorf("%w: %s: row %d has no file_name", domain.ErrManifestCorrupt, path, i)
		}
		// Later rows win, matching the append order of older ledgers.
		m.entries[row.FileName] = row
	}
	return m, nil
}

// IsDone reports whether fileName has an entry with processed set.
// Entries with processed=false are reprocessed.
func (m *Manifest) IsDone(fileName string) bool {
	e, ok := m.entries[fileName]
	return ok && e.Processed
}

// Get returns the entry for fileName.
func (m *Manifest) Get(fileName string) (domain.ManifestEntry, bool) {
	e, ok := m.entries[fileName]
	return e, ok
}

// Upsert replaces any entry for fileName with a freshly stamped one.
func (m *Manifest) Upsert(fileName string, processed, success bool) domain.ManifestEntry {
	e := domain.NewManifestEntry(fileName, processed, success)
	m.entries[fileName] = e
	return e
}

// Len is the number of tracked recordings.
func (m *Manifest) Len() int {
	return len(m.entries)
}

// Entries returns all entries ordered by filename.
func (m *Manifest) Entries() []domain.ManifestEntry {
	out := make([]domain.ManifestEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FileName < out[j].FileName })
	return out
}

// Persist writes the whole manifest to path.
func (m *Manifest) Persist(s *parquetstore.Store, path string) error {
	if err := parquetstore.Write(s, path, m.Entries()); err != nil {
		return fmt.Errorf("persist manifest: %w", err)
	}
	return nil
}
