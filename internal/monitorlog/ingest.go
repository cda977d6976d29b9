// Package monitorlog ingests SM4 summary logs and resolves monitor
// coordinates from them.
package monitorlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/couchcryptid/bird-detect-etl/internal/adapter/parquetstore"
	"github.com/couchcryptid/bird-detect-etl/internal/domain"
)

// column aliases as they appear in SM4 summary headers, matched after
// trimming and upper-casing.
var columnAliases = map[string][]string{
	"date":  {"DATE"},
	"time":  {"TIME"},
	"lat":   {"LAT"},
	"ns":    {"NS", "N-S", "N/S"},
	"lon":   {"LON"},
	"ew":    {"EW", "E-W", "E/W"},
	"power": {"POWER(V)", "POWER"},
	"temp":  {"TEMP(C)", "TEMP"},
	"files": {"#FILES", "FILES"},
}

// Ingester consolidates every DataLoad summary of a monitor into the
// monitor's summary log artifact.
type Ingester struct {
	layout domain.Layout
	store  *parquetstore.Store
	logger *slog.Logger
}

// NewIngester creates an Ingester.
func NewIngester(layout domain.Layout, store *parquetstore.Store, logger *slog.Logger) *Ingester {
	return &Ingester{layout: layout, store: store, logger: logger}
}

// Ingest parses RAW/<monitor>/DataLoad_*/*.txt in folder order and rewrites
// the monitor summary log. It returns the number of rows written; zero rows
// leave any existing log untouched.
func (i *Ingester) Ingest(monitor string) (int, error) {
	batches, err := DataloadBatches(i.layout, monitor)
	if err != nil {
		return 0, err
	}
	if len(batches) == 0 {
		i.logger.Warn("no dataload folders found", "monitor", monitor, "dir", i.layout.MonitorRawDir(monitor))
		return 0, nil
	}

	var rows []domain.MonitorLogEntry
	for _, batch := range batches {
		dir := filepath.Join(i.layout.MonitorRawDir(monitor), batch)
		summaries, err := summaryFiles(dir)
		if err != nil {
			return 0, err
		}
		for _, name := range summaries {
			parsed, skipped, err := parseSummaryFile(filepath.Join(dir, name))
			if err != nil {
				i.logger.Warn("skipping unreadable summary", "monitor", monitor, "file", name, "error", err)
				continue
			}
			if skipped > 0 {
				i.logger.Warn("skipped summary rows without coordinates", "monitor", monitor, "file", name, "rows", skipped)
			}
			for k := range parsed {
				parsed[k].MonitorName = monitor
				parsed[k].DataloadBatch = batch
				parsed[k].LoadDate = domain.LoadDate(batch)
				parsed[k].SourceFile = name
			}
			rows = append(rows, parsed...)
			i.logger.Info("parsed summary", "monitor", monitor, "batch", batch, "file", name, "rows", len(parsed))
		}
	}

	if len(rows) == 0 {
		i.logger.Warn("no summary rows found", "monitor", monitor)
		return 0, nil
	}
	path := i.layout.MonitorLogPath(monitor)
	if err := parquetstore.Write(i.store, path, rows); err != nil {
		return 0, fmt.Errorf("write summary log: %w", err)
	}
	i.logger.Info("summary log written", "monitor", monitor, "path", path, "rows", len(rows))
	return len(rows), nil
}

// DataloadBatches lists the DataLoad_* folders of a monitor in name order.
// A missing monitor directory yields no batches.
func DataloadBatches(layout domain.Layout, monitor string) ([]string, error) {
	entries, err := os.ReadDir(layout.MonitorRawDir(monitor))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list dataload folders: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), domain.DataloadPrefix) {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func summaryFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func parseSummaryFile(path string) ([]domain.MonitorLogEntry, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	return ParseSummary(f)
}

// ParseSummary decodes one SM4 summary. Rows whose LAT or LON do not parse
// are dropped and counted in the second return value.
func ParseSummary(r io.Reader) ([]domain.MonitorLogEntry, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read summary header: %w", err)
	}
	cols := indexColumns(header)
	if _, ok := cols["lat"]; !ok {
		return nil, 0, errors.New("summary has no LAT column")
	}
	if _, ok := cols["lon"]; !ok {
		return nil, 0, errors.New("summary has no LON column")
	}

	var rows []domain.MonitorLogEntry
	skipped := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read summary row: %w", err)
		}
		get := func(key string) string {
			idx, ok := cols[key]
			if !ok || idx >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[idx])
		}

		lat, errLat := strconv.ParseFloat(get("lat"), 64)
		lon, errLon := strconv.ParseFloat(get("lon"), 64)
		if errLat != nil || errLon != nil {
			skipped++
			continue
		}
		files, _ := strconv.ParseInt(get("files"), 10, 64)
		rows = append(rows, domain.MonitorLogEntry{
			Date:   get("date"),
			Time:   get("time"),
			Lat:    lat,
			NS:     get("ns"),
			Lon:    lon,
			EW:     get("ew"),
			PowerV: parseFloatOrZero(get("power")),
			TempC:  parseFloatOrZero(get("temp")),
			Files:  files,
		})
	}
	return rows, skipped, nil
}

func indexColumns(header []string) map[string]int {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToUpper(strings.TrimSpace(h))
		if _, dup := byName[name]; !dup {
			byName[name] = i
		}
	}
	cols := make(map[string]int, len(columnAliases))
	for key, aliases := range columnAliases {
		for _, a := range aliases {
			if idx, ok := byName[a]; ok {
				cols[key] = idx
				break
			}
		}
	}
	return cols
}

func parseFloatOrZero(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
