package analytics

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/hashicorp/go-multierror"

	"github.com/couchcryptid/bird-detect-etl/internal/adapter/parquetstore"
	"github.com/couchcryptid/bird-detect-etl/internal/domain"
)

// ViewRecorder receives the outcome of each view write.
type ViewRecorder interface {
	ViewWritten(view string, err error)
}

// Result lists the views written by one aggregation.
type Result struct {
	MasterRows int
	Views      map[domain.View]int
}

// Engine reads the master dataset and writes every view artifact.
type Engine struct {
	layout   domain.Layout
	store    *parquetstore.Store
	logger   *slog.Logger
	recorder ViewRecorder
}

// NewEngine creates an Engine. recorder may be nil.
func NewEngine(layout domain.Layout, store *parquetstore.Store, logger *slog.Logger, recorder ViewRecorder) *Engine {
	return &Engine{layout: layout, store: store, logger: logger, recorder: recorder}
}

// Aggregate recomputes every view of monitor. A missing master dataset is
// logged and returns nil without error. A failing view does not stop the
// others; all failures are returned together.
func (e *Engine) Aggregate(monitor string) (*Result, error) {
	master := e.layout.MasterPath(monitor)
	rows, err := parquetstore.Read[domain.DetectionRecord](e.store, master)
	if errors.Is(err, fs.ErrNotExist) {
		e.logger.Warn("no master dataset to aggregate", "monitor", monitor, "path", master)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load master dataset: %w", err)
	}

	res := &Result{MasterRows: len(rows), Views: make(map[domain.View]int)}
	var errs *multierror.Error
	for _, v := range domain.Views() {
		n, err := e.writeView(monitor, v, rows)
		if e.recorder != nil {
			e.recorder.ViewWritten(string(v), err)
		}
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("view %s: %w", v, err))
			continue
		}
		res.Views[v] = n
		e.logger.Debug("view written", "monitor", monitor, "view", string(v), "rows", n)
	}

	e.logger.Info("aggregation complete", "monitor", monitor, "master_rows", len(rows), "views", len(res.Views))
	return res, errs.ErrorOrNil()
}

func (e *Engine) writeView(monitor string, v domain.View, rows []domain.DetectionRecord) (int, error) {
	path := e.layout.ViewPath(monitor, v)
	switch v {
	case domain.ViewDailyStats:
		return write(e.store, path, DailyStats(rows))
	case domain.ViewSpeciesTotals:
		return write(e.store, path, SpeciesTotals(rows))
	case domain.ViewHourlyPatterns:
		return write(e.store, path, HourlyActivity(rows))
	case domain.ViewDailySpecies:
		return write(e.store, path, DailySpecies(rows))
	case domain.ViewDailyUniqueSpecies:
		return write(e.store, path, DailyUniqueSpecies(rows))
	case domain.ViewSpeciesDailyProfile:
		return write(e.store, path, SpeciesDailyProfile(rows))
	default:
		return 0, fmt.Errorf("%w: %q", domain.ErrUnknownView, v)
	}
}

func write[T any](s *parquetstore.Store, path string, rows []T) (int, error) {
	if err := parquetstore.Write(s, path, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}
