package monitorlog

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/bird-detect-etl/internal/adapter/parquetstore"
	"github.com/couchcryptid/bird-detect-etl/internal/domain"
)

const monitor = "wrangcombe_audio1"

const sampleSummary = `DATE,TIME,LAT,NS,LON,EW,POWER(V),TEMP(C),#FILES
2026-01-20, 06:00:00, 50.9480, N, 3.2500, W, 5.2, 7.25, 3
2026-01-21, 06:00:00, 50.9481, N, 3.2503, W, 5.1, 6.50, 4
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEnv(t *testing.T) (domain.Layout, *parquetstore.Store) {
	t.Helper()
	root := t.TempDir()
	s, err := parquetstore.New("NONE")
	require.NoError(t, err)
	return domain.Layout{
		RawDir:       filepath.Join(root, "raw"),
		ProcessedDir: filepath.Join(root, "processed"),
		AnalyticsDir: filepath.Join(root, "analytics"),
	}, s
}

func writeSummary(t *testing.T, layout domain.Layout, batch, name, body string) {
	t.Helper()
	dir := filepath.Join(layout.MonitorRawDir(monitor), batch)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestParseSummary(t *testing.T) {
	rows, skipped, err := ParseSummary(strings.NewReader(sampleSummary))

	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, rows, 2)
	assert.Equal(t, domain.MonitorLogEntry{
		Date: "2026-01-21", Time: "06:00:00",
		Lat: 50.9481, NS: "N", Lon: 3.2503, EW: "W",
		PowerV: 5.1, TempC: 6.5, Files: 4,
	}, rows[1])
}

func TestParseSummary_HeaderAliasesAndBadRows(t *testing.T) {
	body := " date , time , lat , n-s , lon , e-w\n" +
		"2026-01-21,06:00:00,,N,3.25,W\n" +
		"2026-01-21,07:00:00,50.1,N,3.25,W\n"

	rows, skipped, err := ParseSummary(strings.NewReader(body))

	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, rows, 1)
	assert.Equal(t, "W", rows[0].EW)
	assert.Equal(t, "N", rows[0].NS)
}

func TestParseSummary_MissingCoordinateColumns(t *testing.T) {
	_, _, err := ParseSummary(strings.NewReader("DATE,TIME\n2026-01-21,06:00:00\n"))
	require.Error(t, err)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		entry domain.MonitorLogEntry
		want  domain.Coordinates
	}{
		{"west forces negative", domain.MonitorLogEntry{Lat: 50.9481, Lon: 3.2503, EW: "W"}, domain.Coordinates{Lat: 50.9481, Lon: -3.2503}},
		{"west already negative", domain.MonitorLogEntry{Lat: 50.9481, Lon: -3.2503, EW: " w "}, domain.Coordinates{Lat: 50.9481, Lon: -3.2503}},
		{"east keeps sign", domain.MonitorLogEntry{Lat: 50.0, Lon: 3.25, EW: "E"}, domain.Coordinates{Lat: 50.0, Lon: 3.25}},
		{"south forces negative", domain.MonitorLogEntry{Lat: 33.9, NS: "South", Lon: 18.4, EW: "E"}, domain.Coordinates{Lat: -33.9, Lon: 18.4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.entry))
		})
	}
}

func TestResolve_LastEntryWins(t *testing.T) {
	layout, s := testEnv(t)
	require.NoError(t, parquetstore.Write(s, layout.MonitorLogPath(monitor), []domain.MonitorLogEntry{
		{Lat: 10, Lon: 10, EW: "E"},
		{Lat: 50.9481, Lon: 3.2503, EW: "W"},
	}))

	got, err := NewResolver(layout, s, domain.DefaultCoordinates, testLogger()).Resolve(monitor)

	require.NoError(t, err)
	assert.Equal(t, domain.Coordinates{Lat: 50.9481, Lon: -3.2503}, got)
}

func TestResolve_NoLogUsesFallback(t *testing.T) {
	layout, s := testEnv(t)

	got, err := NewResolver(layout, s, domain.DefaultCoordinates, testLogger()).Resolve(monitor)

	require.NoError(t, err)
	assert.Equal(t, domain.Coordinates{Lat: 50.9481, Lon: -3.2503}, got)
}

func TestIngest(t *testing.T) {
	layout, s := testEnv(t)
	writeSummary(t, layout, "DataLoad_20260122", "S4A00001_Summary.txt",
		"DATE,TIME,LAT,NS,LON,EW\n2026-01-22,06:00:00,51.0,N,3.3,W\n")
	writeSummary(t, layout, "DataLoad_20260121", "S4A00001_Summary.txt", sampleSummary)
	require.NoError(t, os.MkdirAll(filepath.Join(layout.MonitorRawDir(monitor), "notes"), 0o755))

	n, err := NewIngester(layout, s, testLogger()).Ingest(monitor)

	require.NoError(t, err)
	assert.Equal(t, 3, n)
	rows, err := parquetstore.Read[domain.MonitorLogEntry](s, layout.MonitorLogPath(monitor))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "DataLoad_20260121", rows[0].DataloadBatch)
	assert.Equal(t, "20260121", rows[0].LoadDate)
	assert.Equal(t, monitor, rows[0].MonitorName)
	assert.Equal(t, "S4A00001_Summary.txt", rows[0].SourceFile)
	assert.Equal(t, "DataLoad_20260122", rows[2].DataloadBatch, "folders are read in name order")

	got, err := NewResolver(layout, s, domain.DefaultCoordinates, testLogger()).Resolve(monitor)
	require.NoError(t, err)
	assert.Equal(t, domain.Coordinates{Lat: 51.0, Lon: -3.3}, got)
}

func TestIngest_NoFolders(t *testing.T) {
	layout, s := testEnv(t)

	n, err := NewIngester(layout, s, testLogger()).Ingest(monitor)

	require.NoError(t, err)
	assert.Zero(t, n)
	exists, err := parquetstore.Exists(layout.MonitorLogPath(monitor))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDataloadBatches(t *testing.T) {
	layout, _ := testEnv(t)
	for _, d := range []string{"DataLoad_20260201", "DataLoad_20260115", "other"} {
		require.NoError(t, os.MkdirAll(filepath.Join(layout.MonitorRawDir(monitor), d), 0o755))
	}

	got, err := DataloadBatches(layout, monitor)

	require.NoError(t, err)
	assert.Equal(t, []string{"DataLoad_20260115", "DataLoad_20260201"}, got)
}
