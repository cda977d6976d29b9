// Package pipeline runs the incremental processing loop for a monitor:
// select recordings the manifest has not seen, classify them, append their
// detections to date partitions and record each outcome in the manifest.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/bird-detect-etl/internal/adapter/parquetstore"
	"github.com/couchcryptid/bird-detect-etl/internal/domain"
	"github.com/couchcryptid/bird-detect-etl/internal/manifest"
	"github.com/couchcryptid/bird-detect-etl/internal/monitorlog"
	"github.com/couchcryptid/bird-detect-etl/internal/observability"
	"github.com/couchcryptid/bird-detect-etl/internal/partition"
)

// CoordinateResolver supplies the monitor position passed to the classifier.
type CoordinateResolver interface {
	Resolve(monitor string) (domain.Coordinates, error)
}

// PartitionWriter appends detection records to a partition.
type PartitionWriter interface {
	Write(monitor, key string, records []domain.DetectionRecord) (int, error)
}

// Notifier publishes the summary of a finished run.
type Notifier interface {
	Publish(ctx context.Context, summary domain.RunSummary) error
}

// Options tune a Runner.
type Options struct {
	Workers       int
	MinConfidence float64
	Notifier      Notifier // optional
}

// Runner processes one monitor's backlog per call to Run. Runs on the same
// monitor must not overlap.
type Runner struct {
	layout     domain.Layout
	store      *parquetstore.Store
	classifier domain.Classifier
	resolver   CoordinateResolver
	writer     PartitionWriter
	logger     *slog.Logger
	metrics    *observability.Metrics
	opts       Options
}

// New creates a Runner with the given collaborators and observability.
func New(layout domain.Layout, store *parquetstore.Store, classifier domain.Classifier, resolver CoordinateResolver,
	writer PartitionWriter, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Runner{
		layout:     layout,
		store:      store,
		classifier: classifier,
		resolver:   resolver,
		writer:     writer,
		logger:     logger,
		metrics:    metrics,
		opts:       opts,
	}
}

// job is one recording handed to a worker.
type job struct {
	candidate Candidate
}

// outcome is a worker's result for one recording.
type outcome struct {
	candidate Candidate
	recording domain.RecordingFile
	records   []domain.DetectionRecord
	err       error
}

// Run processes every unprocessed recording of monitor across batches. An
// empty batches list means every DataLoad folder of the monitor.
//
// Per-recording failures are recorded in the manifest as processed but
// unsuccessful and never end the run. Storage failures and a corrupt
// manifest are returned; everything persisted before them stays valid.
func (r *Runner) Run(ctx context.Context, monitor string, batches []string) (domain.RunSummary, error) {
	summary := domain.RunSummary{
		RunID:     uuid.NewString(),
		Monitor:   monitor,
		StartedAt: domain.Now(),
	}
	r.metrics.PipelineRunning.Set(1)
	defer r.metrics.PipelineRunning.Set(0)
	start := time.Now()

	err := r.run(ctx, monitor, batches, &summary)

	summary.FinishedAt = domain.Now()
	r.metrics.RunDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		r.logger.Error("run failed", "monitor", monitor, "run_id", summary.RunID, "error", err)
		return summary, err
	}

	r.logger.Info("run complete",
		"monitor", monitor,
		"run_id", summary.RunID,
		"candidates", summary.Candidates,
		"skipped", summary.Skipped,
		"succeeded", summary.Succeeded,
		"empty", summary.Empty,
		"failed", summary.Failed,
		"detections", summary.Detections,
	)
	r.notify(ctx, summary)
	return summary, nil
}

func (r *Runner) run(ctx context.Context, monitor string, batches []string, summary *domain.RunSummary) error {
	if len(batches) == 0 {
		found, err := monitorlog.DataloadBatches(r.layout, monitor)
		if err != nil {
			return err
		}
		batches = found
	}
	summary.DataloadBatch = batches
	if len(batches) == 0 {
		r.logger.Warn("no dataload batches to process", "monitor", monitor)
		return nil
	}

	coords, err := r.resolver.Resolve(monitor)
	if err != nil {
		return fmt.Errorf("resolve coordinates: %w", err)
	}
	summary.Coordinates = coords

	manifestPath := r.layout.ManifestPath(monitor)
	m, err := manifest.Load(r.store, manifestPath)
	if err != nil {
		return err
	}

	candidates, err := ListCandidates(r.layout, monitor, batches, r.logger)
	if err != nil {
		return err
	}
	summary.Candidates = len(candidates)

	pending := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if m.IsDone(c.Name) {
			summary.Skipped++
			continue
		}
		pending = append(pending, c)
	}
	r.metrics.FilesSkipped.Add(float64(summary.Skipped))
	r.logger.Info("run started",
		"monitor", monitor,
		"run_id", summary.RunID,
		"batches", batches,
		"candidates", len(candidates),
		"pending", len(pending),
		"workers", r.opts.Workers,
		"lat", coords.Lat,
		"lon", coords.Lon,
	)
	if len(pending) == 0 {
		return nil
	}

	return r.process(ctx, monitor, coords, m, manifestPath, pending, summary)
}

// process fans recordings out to the classifier workers and funnels every
// outcome through a single writer, which owns the partitions and manifest.
func (r *Runner) process(ctx context.Context, monitor string, coords domain.Coordinates, m *manifest.Manifest,
	manifestPath string, pending []Candidate, summary *domain.RunSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan job)
	results := make(chan outcome)

	g.Go(func() error {
		defer close(jobs)
		for _, c := range pending {
			select {
			case jobs <- job{candidate: c}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var workers sync.WaitGroup
	for range r.opts.Workers {
		workers.Add(1)
		g.Go(func() error {
			defer workers.Done()
			for j := range jobs {
				res := r.analyze(gctx, monitor, coords, j.candidate)
				select {
				case results <- res:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		workers.Wait()
		close(results)
	}()

	g.Go(func() error {
		for res := range results {
			if res.err != nil && gctx.Err() != nil {
				// Interrupted, not failed: leave it for the next run.
				continue
			}
			if err := r.record(monitor, m, manifestPath, res, summary); err != nil {
				return err
			}
		}
		return nil
	})

	err := g.Wait()
	if err != nil && ctx.Err() != nil {
		r.logger.Info("run interrupted", "monitor", monitor, "reason", ctx.Err())
		return ctx.Err()
	}
	return err
}

// analyze parses and classifies one recording. It never touches shared state.
func (r *Runner) analyze(ctx context.Context, monitor string, coords domain.Coordinates, c Candidate) outcome {
	res := outcome{candidate: c}
	rec, err := domain.ParseRecordingFile(c.Name)
	if err != nil {
		res.err = err
		return res
	}
	res.recording = rec

	start := time.Now()
	dets, err := r.classifier.Analyze(ctx, domain.AnalyzeRequest{
		Path:          c.Path,
		Lat:           coords.Lat,
		Lon:           coords.Lon,
		Date:          rec.CaptureDate(),
		MinConfidence: r.opts.MinConfidence,
	})
	r.metrics.ClassifierDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		res.err = err
		return res
	}
	res.records = domain.EnrichDetections(dets, rec, monitor, c.Batch)
	return res
}

// record applies one outcome: partition first, then the manifest, so a crash
// between the two reprocesses the file instead of losing its detections.
func (r *Runner) record(monitor string, m *manifest.Manifest, manifestPath string, res outcome, summary *domain.RunSummary) error {
	name := res.candidate.Name
	switch {
	case res.err != nil:
		r.logger.Warn("recording failed, marking processed without success",
			"monitor", monitor, "batch", res.candidate.Batch, "file", name, "error", res.err)
		r.metrics.FilesProcessed.WithLabelValues("failed").Inc()
		summary.Failed++
		m.Upsert(name, true, false)

	case len(res.records) == 0:
		r.logger.Debug("no detections", "monitor", monitor, "file", name)
		r.metrics.FilesProcessed.WithLabelValues("empty").Inc()
		summary.Empty++
		m.Upsert(name, true, false)

	default:
		key := partition.Key(res.recording)
		if _, err := r.writer.Write(monitor, key, res.records); err != nil {
			return fmt.Errorf("write detections for %s: %w", name, err)
		}
		r.logger.Info("detections written", "monitor", monitor, "file", name, "partition", key, "detections", len(res.records))
		r.metrics.FilesProcessed.WithLabelValues("success").Inc()
		r.metrics.DetectionsWritten.Add(float64(len(res.records)))
		summary.Succeeded++
		summary.Detections += len(res.records)
		m.Upsert(name, true, true)
	}

	if err := m.Persist(r.store, manifestPath); err != nil {
		return err
	}
	r.metrics.ManifestWrites.Inc()
	return nil
}

func (r *Runner) notify(ctx context.Context, summary domain.RunSummary) {
	if r.opts.Notifier == nil {
		return
	}
	if err := r.opts.Notifier.Publish(ctx, summary); err != nil {
		r.logger.Warn("publish run summary failed", "monitor", summary.Monitor, "run_id", summary.RunID, "error", err)
	}
}
