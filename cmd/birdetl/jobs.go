package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	kafkaadapter "github.com/couchcryptid/bird-detect-etl/internal/adapter/kafka"
	"github.com/couchcryptid/bird-detect-etl/internal/pipeline"
)

// withNotifier runs fn with the run-completion publisher when Kafka is
// enabled, closing it afterwards.
func (a *app) withNotifier(fn func(pipeline.Notifier) error) error {
	if !a.cfg.KafkaEnabled {
		return fn(nil)
	}
	pub := kafkaadapter.NewPublisher(a.cfg, a.logger)
	defer func() {
		if err := pub.Close(); err != nil {
			a.logger.Error("kafka publisher close error", "error", err)
		}
	}()
	return fn(pub)
}

// pushTimeout bounds the final metrics push so an unreachable gateway
// cannot hold a finished job open.
const pushTimeout = 10 * time.Second

// batch runs one batch command and then pushes its metrics when a
// Pushgateway is configured. The push happens on failure too, and a push
// error is logged without changing the command's result.
func (a *app) batch(fn func(context.Context) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		err := fn(cmd.Context())
		if a.cfg.PushgatewayURL == "" {
			return err
		}
		ctx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), pushTimeout)
		defer cancel()
		if perr := a.metrics.Push(ctx, a.cfg.PushgatewayURL, a.cfg.PushgatewayJob, a.cfg.MonitorName); perr != nil {
			a.logger.Error("metrics push failed", "error", perr)
		}
		return err
	}
}

func runCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Classify unprocessed recordings and append detections to batch partitions",
		RunE: a.batch(func(ctx context.Context) error {
			return a.withNotifier(func(n pipeline.Notifier) error {
				_, err := a.runner(n).Run(ctx, a.cfg.MonitorName, a.batches())
				return err
			})
		}),
	}
}

func summaryLogCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary-log",
		Short: "Rebuild the monitor summary log from SM4 summary files",
		RunE: a.batch(func(context.Context) error {
			_, err := a.ingester().Ingest(a.cfg.MonitorName)
			return err
		}),
	}
}

func consolidateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "consolidate",
		Short: "Rebuild the master dataset from batch partitions",
		RunE: a.batch(func(context.Context) error {
			_, err := pipeline.Consolidate(a.consolidator(), a.metrics, a.cfg.MonitorName)
			return err
		}),
	}
}

func aggregateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "aggregate",
		Short: "Recompute every aggregate view from the master dataset",
		RunE: a.batch(func(context.Context) error {
			res, err := a.engine().Aggregate(a.cfg.MonitorName)
			if err != nil {
				return err
			}
			if res != nil {
				a.logger.Info("views written", "monitor", a.cfg.MonitorName, "rows", viewCounts(res.Views))
			}
			return nil
		}),
	}
}

func dailyCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "daily",
		Short: "Summary log, run, consolidate and aggregate in one scheduled step",
		RunE: a.batch(func(ctx context.Context) error {
			return a.withNotifier(func(n pipeline.Notifier) error {
				daily := pipeline.NewDaily(a.ingester(), a.runner(n), a.consolidator(), a.engine(), a.logger, a.metrics)
				report, err := daily.Run(ctx, a.cfg.MonitorName, a.batches())
				if err != nil {
					return err
				}
				if report.Views != nil {
					a.logger.Info("views written", "monitor", a.cfg.MonitorName, "rows", viewCounts(report.Views.Views))
				}
				return nil
			})
		}),
	}
}
