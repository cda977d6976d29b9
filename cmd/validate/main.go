// Command validate performs integrity checks over a monitor's persisted
// artifacts: the processing manifest, batch partitions, the master dataset
// and every aggregate view. It verifies uniqueness, cross-artifact
// agreement and row-count conservation.
//
// Usage:
//
//	go run ./cmd/validate -monitor wrangcombe_audio1
//
// Directories default to PROCESSED_DATA_DIR / ANALYTICS_DATA_DIR.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/couchcryptid/bird-detect-etl/internal/adapter/parquetstore"
	"github.com/couchcryptid/bird-detect-etl/internal/config"
	"github.com/couchcryptid/bird-detect-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		os.Exit(1)
	}

	monitor := flag.String("monitor", cfg.MonitorName, "monitor to validate")
	flag.StringVar(&cfg.ProcessedDataDir, "processed-dir", cfg.ProcessedDataDir, "processed data root")
	flag.StringVar(&cfg.AnalyticsDataDir, "analytics-dir", cfg.AnalyticsDataDir, "analytics data root")
	flag.Parse()

	if code := run(cfg.Layout(), *monitor); code != 0 {
		os.Exit(code)
	}
}

// artifacts holds everything loaded for one monitor.
type artifacts struct {
	manifest   []domain.ManifestEntry
	partitions map[string][]domain.DetectionRecord // keyed by partition key
	master     []domain.DetectionRecord
	masterOK   bool
}

func run(layout domain.Layout, monitor string) int {
	if err := domain.ValidateMonitor(monitor); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	fmt.Printf("=== Bird Detection Integrity Validation: %s ===\n\n", monitor)

	store, err := parquetstore.New("NONE")
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	a, err := load(layout, store, monitor)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateManifest(a),
		validatePartitions(a),
		validateMaster(a),
		validateViews(layout, store, monitor, a),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-46s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Artifacts: %d manifest rows, %d partitions, %d master rows\n",
		len(a.manifest), len(a.partitions), len(a.master))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func load(layout domain.Layout, store *parquetstore.Store, monitor string) (*artifacts, error) {
	a := &artifacts{partitions: map[string][]domain.DetectionRecord{}}

	var err error
	a.manifest, err = readOptional[domain.ManifestEntry](store, layout.ManifestPath(monitor))
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}

	paths, err := parquetstore.Glob(layout.PartitionGlob(monitor))
	if err != nil {
		return nil, err
	}
	for _, path := range paths {
		key, ok := domain.PartitionKey(path)
		if !ok {
			continue
		}
		rows, err := parquetstore.Read[domain.DetectionRecord](store, path)
		if err != nil {
			return nil, fmt.Errorf("partition %s: %w", key, err)
		}
		a.partitions[key] = rows
	}

	masterPath := layout.MasterPath(monitor)
	a.master, err = parquetstore.Read[domain.DetectionRecord](store, masterPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("master: %w", err)
	default:
		a.masterOK = true
	}
	return a, nil
}

func readOptional[T any](store *parquetstore.Store, path string) ([]T, error) {
	rows, err := parquetstore.Read[T](store, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return rows, err
}

// ── Phase 1: Manifest ──

func validateManifest(a *artifacts) *phase {
	p := &phase{name: "Phase 1: Manifest (one entry per file)"}

	seen := map[string]int{}
	for i, e := range a.manifest {
		if e.FileName == "" {
			p.errorf("manifest row %d: empty file_name", i)
			continue
		}
		seen[e.FileName]++
		if e.Success && !e.Processed {
			p.errorf("%s: success=true but processed=false", e.FileName)
		}
		if _, err := domain.ParseRecordingFile(e.FileName); err != nil && e.Success {
			p.errorf("%s: successful entry with unparseable name", e.FileName)
		}
	}
	for name, n := range seen {
		if n > 1 {
			p.errorf("%s: %d manifest entries", name, n)
		}
	}
	return p
}

// ── Phase 2: Partitions ──

func validatePartitions(a *artifacts) *phase {
	p := &phase{name: "Phase 2: Partitions (agree with manifest)"}

	succeeded := map[string]bool{}
	for _, e := range a.manifest {
		if e.Success {
			succeeded[e.FileName] = true
		}
	}

	for key, rows := range a.partitions {
		for i, r := range rows {
			if r.FileDate != key {
				p.errorf("partition %s row %d: file_date %q does not match key", key, i, r.FileDate)
			}
			if !succeeded[r.FileName] {
				p.errorf("partition %s row %d: %s has no successful manifest entry", key, i, r.FileName)
			}
		}
	}
	return p
}

// ── Phase 3: Master ──

func validateMaster(a *artifacts) *phase {
	p := &phase{name: "Phase 3: Master (equals sum of partitions)"}

	total := 0
	for _, rows := range a.partitions {
		total += len(rows)
	}
	if !a.masterOK {
		if total > 0 {
			p.errorf("master missing but partitions hold %d rows", total)
		}
		return p
	}
	if len(a.master) != total {
		p.errorf("master has %d rows, partitions hold %d", len(a.master), total)
	}
	return p
}

// ── Phase 4: Views ──

func validateViews(layout domain.Layout, store *parquetstore.Store, monitor string, a *artifacts) *phase {
	p := &phase{name: "Phase 4: Views (conserve master row count)"}
	if !a.masterOK {
		return p
	}
	want := int64(len(a.master))

	check := func(v domain.View, sum func() (int64, error)) {
		got, err := sum()
		if errors.Is(err, fs.ErrNotExist) {
			p.errorf("%s: artifact missing", v)
			return
		}
		if err != nil {
			p.errorf("%s: %v", v, err)
			return
		}
		if got != want {
			p.errorf("%s: rows sum to %d, master has %d", v, got, want)
		}
	}

	check(domain.ViewDailyStats, func() (int64, error) {
		return sumView(store, layout.ViewPath(monitor, domain.ViewDailyStats), func(r domain.DailyStat) int64 { return r.TotalDetections })
	})
	check(domain.ViewSpeciesTotals, func() (int64, error) {
		return sumView(store, layout.ViewPath(monitor, domain.ViewSpeciesTotals), func(r domain.SpeciesTotal) int64 { return r.Count })
	})
	check(domain.ViewHourlyPatterns, func() (int64, error) {
		return sumView(store, layout.ViewPath(monitor, domain.ViewHourlyPatterns), func(r domain.HourlyActivity) int64 { return r.Count })
	})
	check(domain.ViewDailySpecies, func() (int64, error) {
		return sumView(store, layout.ViewPath(monitor, domain.ViewDailySpecies), func(r domain.DailySpeciesCount) int64 { return r.Count })
	})
	check(domain.ViewSpeciesDailyProfile, func() (int64, error) {
		return sumView(store, layout.ViewPath(monitor, domain.ViewSpeciesDailyProfile), func(r domain.SpeciesDailyProfile) int64 { return r.Calls })
	})
	return p
}

func sumView[T any](store *parquetstore.Store, path string, count func(T) int64) (int64, error) {
	rows, err := parquetstore.Read[T](store, path)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, r := range rows {
		total += count(r)
	}
	return total, nil
}
