package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/couchcryptid/bird-detect-etl/internal/domain"
)

// Candidate is a recording found under a DataLoad folder.
type Candidate struct {
	Batch string
	Name  string
	Path  string
}

// ListCandidates returns the WAV recordings of each batch's Data folder in
// batch order, then name order. A filename seen in an earlier batch is
// dropped so one recording never reaches two partitions in the same run.
// A batch without a Data folder is logged and skipped.
func ListCandidates(layout domain.Layout, monitor string, batches []string, logger *slog.Logger) ([]Candidate, error) {
	seen := make(map[string]string)
	var out []Candidate
	for _, batch := range batches {
		dir := layout.RecordingsDir(monitor, batch)
		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("no recordings folder in batch", "monitor", monitor, "batch", batch, "dir", dir)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("list recordings: %w", err)
		}

		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !domain.IsWAV(e.Name()) {
				continue
			}
			names = append(names, e.Name())
		}
		sort.Strings(names)

		for _, name := range names {
			if first, dup := seen[name]; dup {
				logger.Warn("duplicate recording name, keeping first", "monitor", monitor, "file", name, "batch", batch, "first_batch", first)
				continue
			}
			seen[name] = batch
			out = append(out, Candidate{Batch: batch, Name: name, Path: filepath.Join(dir, name)})
		}
	}
	return out, nil
}
