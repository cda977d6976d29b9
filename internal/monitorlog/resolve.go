package monitorlog

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"strings"

	"github.com/couchcryptid/bird-detect-etl/internal/adapter/parquetstore"
	"github.com/couchcryptid/bird-detect-etl/internal/domain"
)

// Resolver derives a monitor's coordinates from its summary log.
type Resolver struct {
	layout   domain.Layout
	store    *parquetstore.Store
	fallback domain.Coordinates
	logger   *slog.Logger
}

// NewResolver creates a Resolver that returns fallback for monitors
// without a summary log.
func NewResolver(layout domain.Layout, store *parquetstore.Store, fallback domain.Coordinates, logger *slog.Logger) *Resolver {
	return &Resolver{layout: layout, store: store, fallback: fallback, logger: logger}
}

// Resolve returns the position of the last summary log row. A missing or
// empty log is a soft failure: the fallback is returned and a warning
// logged. Only a log that exists but cannot be read returns an error.
func (r *Resolver) Resolve(monitor string) (domain.Coordinates, error) {
	path := r.layout.MonitorLogPath(monitor)
	rows, err := parquetstore.Read[domain.MonitorLogEntry](r.store, path)
	if errors.Is(err, fs.ErrNotExist) {
		r.logger.Warn("no summary log found, using default coordinates",
			"monitor", monitor, "path", path, "lat", r.fallback.Lat, "lon", r.fallback.Lon)
		return r.fallback, nil
	}
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("read summary log: %w", err)
	}
	if len(rows) == 0 {
		r.logger.Warn("summary log is empty, using default coordinates", "monitor", monitor, "path", path)
		return r.fallback, nil
	}

	c := Normalize(rows[len(rows)-1])
	r.logger.Info("resolved monitor coordinates", "monitor", monitor, "lat", c.Lat, "lon", c.Lon)
	return c, nil
}

// Normalize applies the hemisphere markers to a log row. The stored sign
// is not trusted: W forces a negative longitude and S a negative latitude.
func Normalize(e domain.MonitorLogEntry) domain.Coordinates {
	c := domain.Coordinates{Lat: e.Lat, Lon: e.Lon}
	switch strings.ToLower(strings.TrimSpace(e.EW)) {
	case "w", "west":
		c.Lon = -math.Abs(c.Lon)
	}
	switch strings.ToLower(strings.TrimSpace(e.NS)) {
	case "s", "south":
		c.Lat = -math.Abs(c.Lat)
	}
	return c
}
