package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bird_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the pipeline.
type Metrics struct {
	FilesProcessed     *prometheus.CounterVec // labels: outcome={success,empty,failed}
	FilesSkipped       prometheus.Counter
	DetectionsWritten  prometheus.Counter
	ClassifierDuration prometheus.Histogram
	RunDuration        prometheus.Histogram
	ManifestWrites     prometheus.Counter
	PipelineRunning    prometheus.Gauge

	// Consolidation and aggregation.
	PartitionsConsolidated prometheus.Gauge
	MasterRows             prometheus.Gauge
	ViewsWritten           *prometheus.CounterVec // labels: view, outcome={success,error}

	// Presentation read path.
	ArtifactCache *prometheus.CounterVec // labels: result={hit,miss}

	// Site geocoding.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeAPIDuration prometheus.Histogram
}

func newMetrics() *Metrics {
	return &Metrics{
		FilesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_processed_total",
			Help:      "Recordings submitted to the classifier by outcome.",
		}, []string{"outcome"}),
		FilesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_skipped_total",
			Help:      "Recordings skipped because the manifest marks them processed.",
		}),
		DetectionsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_written_total",
			Help:      "Detection records appended to batch partitions.",
		}),
		ClassifierDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classifier_duration_seconds",
			Help:      "Duration of one classifier invocation.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120, 300},
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete processing run.",
			Buckets:   []float64{1, 10, 30, 60, 300, 900, 1800, 3600, 7200},
		}),
		ManifestWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "manifest_writes_total",
			Help:      "Manifest persists.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a processing run is active, 0 otherwise.",
		}),
		PartitionsConsolidated: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "partitions_consolidated",
			Help:      "Partitions merged by the last consolidation.",
		}),
		MasterRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "master_rows",
			Help:      "Rows in the master dataset after the last consolidation.",
		}),
		ViewsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "views_written_total",
			Help:      "Aggregate view writes by view and outcome.",
		}, []string{"view", "outcome"}),
		ArtifactCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_artifact_cache_total",
			Help:      "Artifact cache lookups by result.",
		}, []string{"result"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Reverse geocoding requests by outcome.",
		}, []string{"outcome"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return append(m.batchCollectors(),
		m.ArtifactCache,
		m.GeocodeRequests,
		m.GeocodeAPIDuration,
	)
}

// batchCollectors are the metrics recorded by the batch commands.
func (m *Metrics) batchCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.FilesProcessed,
		m.FilesSkipped,
		m.DetectionsWritten,
		m.ClassifierDuration,
		m.RunDuration,
		m.ManifestWrites,
		m.PipelineRunning,
		m.PartitionsConsolidated,
		m.MasterRows,
		m.ViewsWritten,
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	prometheus.NewRegistry().MustRegister(m.collectors()...)
	return m
}

// ViewWritten records the outcome of one aggregate view write.
func (m *Metrics) ViewWritten(view string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.ViewsWritten.WithLabelValues(view, outcome).Inc()
}
