package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/bird-detect-etl/internal/analytics"
	"github.com/couchcryptid/bird-detect-etl/internal/domain"
	"github.com/couchcryptid/bird-detect-etl/internal/observability"
	"github.com/couchcryptid/bird-detect-etl/internal/partition"
)

// SummaryIngester refreshes a monitor's summary log.
type SummaryIngester interface {
	Ingest(monitor string) (int, error)
}

// Consolidator rebuilds a monitor's master dataset.
type Consolidator interface {
	Consolidate(monitor string) (*partition.Master, error)
}

// Aggregator recomputes a monitor's views.
type Aggregator interface {
	Aggregate(monitor string) (*analytics.Result, error)
}

// DailyReport is the outcome of one scheduled job step.
type DailyReport struct {
	SummaryRows int
	Run         domain.RunSummary
	Master      *partition.Master
	Views       *analytics.Result
}

// Daily chains the stages of the scheduled job: summary-log ingestion,
// processing, consolidation and aggregation. Soft per-monitor failures
// (no summaries, no partitions, no master) are logged by each stage and do
// not fail the job; any returned error does.
type Daily struct {
	ingester     SummaryIngester
	runner       *Runner
	consolidator Consolidator
	aggregator   Aggregator
	logger       *slog.Logger
	metrics      *observability.Metrics
}

// NewDaily creates the scheduled job.
func NewDaily(ingester SummaryIngester, runner *Runner, consolidator Consolidator, aggregator Aggregator,
	logger *slog.Logger, metrics *observability.Metrics) *Daily {
	return &Daily{
		ingester:     ingester,
		runner:       runner,
		consolidator: consolidator,
		aggregator:   aggregator,
		logger:       logger,
		metrics:      metrics,
	}
}

// Run executes every stage for monitor in order.
func (d *Daily) Run(ctx context.Context, monitor string, batches []string) (DailyReport, error) {
	var report DailyReport

	rows, err := d.ingester.Ingest(monitor)
	if err != nil {
		return report, fmt.Errorf("ingest summary log: %w", err)
	}
	report.SummaryRows = rows

	report.Run, err = d.runner.Run(ctx, monitor, batches)
	if err != nil {
		return report, fmt.Errorf("process recordings: %w", err)
	}

	report.Master, err = Consolidate(d.consolidator, d.metrics, monitor)
	if err != nil {
		return report, err
	}

	report.Views, err = d.aggregator.Aggregate(monitor)
	if err != nil {
		return report, fmt.Errorf("aggregate views: %w", err)
	}

	d.logger.Info("daily job complete", "monitor", monitor, "run_id", report.Run.RunID)
	return report, nil
}

// Consolidate runs a consolidation and records its size.
func Consolidate(c Consolidator, metrics *observability.Metrics, monitor string) (*partition.Master, error) {
	master, err := c.Consolidate(monitor)
	if err != nil {
		return nil, fmt.Errorf("consolidate partitions: %w", err)
	}
	if master != nil {
		metrics.PartitionsConsolidated.Set(float64(master.Partitions))
		metrics.MasterRows.Set(float64(master.Rows))
	}
	return master, nil
}
