package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/bird-detect-etl/internal/adapter/classifier"
	"github.com/couchcryptid/bird-detect-etl/internal/adapter/parquetstore"
	"github.com/couchcryptid/bird-detect-etl/internal/analytics"
	"github.com/couchcryptid/bird-detect-etl/internal/config"
	"github.com/couchcryptid/bird-detect-etl/internal/domain"
	"github.com/couchcryptid/bird-detect-etl/internal/monitorlog"
	"github.com/couchcryptid/bird-detect-etl/internal/observability"
	"github.com/couchcryptid/bird-detect-etl/internal/partition"
	"github.com/couchcryptid/bird-detect-etl/internal/pipeline"
)

// app holds the collaborators shared by every subcommand.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	layout  domain.Layout
	store   *parquetstore.Store
}

type flagValues struct {
	monitor  string
	dataload string
	workers  int
}

// rootCommand creates the CLI. Flags override the matching environment
// settings for a single invocation.
func rootCommand() *cobra.Command {
	var (
		a     = &app{}
		flags flagValues
	)

	rootCmd := &cobra.Command{
		Use:           "birdetl",
		Short:         "Bird detection ETL",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.monitor, "monitor", "", "monitor name (overrides MONITOR_NAME)")
	rootCmd.PersistentFlags().StringVar(&flags.dataload, "dataload", "", "DataLoad_YYYYMMDD folder to process (overrides DATALOAD_BATCH)")
	rootCmd.PersistentFlags().IntVar(&flags.workers, "workers", 0, "concurrent classifier invocations (overrides WORKERS)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return a.setup(cmd, flags)
	}

	rootCmd.AddCommand(
		runCommand(a),
		summaryLogCommand(a),
		consolidateCommand(a),
		aggregateCommand(a),
		dailyCommand(a),
		serveCommand(a),
	)
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command, flags flagValues) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("monitor") {
		cfg.MonitorName = flags.monitor
	}
	if cmd.Flags().Changed("dataload") {
		cfg.DataloadBatch = flags.dataload
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = flags.workers
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, err := parquetstore.New(cfg.ParquetCompression)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = observability.NewLogger(cfg)
	a.metrics = observability.NewMetrics()
	a.layout = cfg.Layout()
	a.store = store
	slog.SetDefault(a.logger)
	return nil
}

// batches is nil when every DataLoad folder should be considered.
func (a *app) batches() []string {
	if a.cfg.DataloadBatch == "" {
		return nil
	}
	return []string{a.cfg.DataloadBatch}
}

func (a *app) resolver() *monitorlog.Resolver {
	return monitorlog.NewResolver(a.layout, a.store, a.cfg.DefaultCoordinates(), a.logger)
}

func (a *app) runner(notifier pipeline.Notifier) *pipeline.Runner {
	cls := classifier.NewCommand(a.cfg.ClassifierCommand, a.cfg.ClassifierArgs, a.cfg.ClassifierTimeout, a.logger)
	opts := pipeline.Options{
		Workers:       a.cfg.Workers,
		MinConfidence: a.cfg.MinConfidence,
		Notifier:      notifier,
	}
	return pipeline.New(a.layout, a.store, cls, a.resolver(), partition.NewWriter(a.layout, a.store), a.logger, a.metrics, opts)
}

func (a *app) ingester() *monitorlog.Ingester {
	return monitorlog.NewIngester(a.layout, a.store, a.logger)
}

func (a *app) consolidator() *partition.Consolidator {
	return partition.NewConsolidator(a.layout, a.store, a.logger)
}

func (a *app) engine() *analytics.Engine {
	return analytics.NewEngine(a.layout, a.store, a.logger, a.metrics)
}

func viewCounts(views map[domain.View]int) string {
	parts := make([]string, 0, len(views))
	for _, v := range domain.Views() {
		if n, ok := views[v]; ok {
			parts = append(parts, fmt.Sprintf("%s=%d", v, n))
		}
	}
	return strings.Join(parts, " ")
}
