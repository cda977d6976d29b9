//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/bird-detect-etl/internal/adapter/classifier"
	"github.com/couchcryptid/bird-detect-etl/internal/adapter/kafka"
	"github.com/couchcryptid/bird-detect-etl/internal/adapter/parquetstore"
	"github.com/couchcryptid/bird-detect-etl/internal/config"
	"github.com/couchcryptid/bird-detect-etl/internal/domain"
	"github.com/couchcryptid/bird-detect-etl/internal/mockmonitor"
	"github.com/couchcryptid/bird-detect-etl/internal/monitorlog"
	"github.com/couchcryptid/bird-detect-etl/internal/observability"
	"github.com/couchcryptid/bird-detect-etl/internal/partition"
	"github.com/couchcryptid/bird-detect-etl/internal/pipeline"
)

const testTopic = "test-bird-detect-runs"

// readSummary reads a single run summary from the topic.
func readSummary(ctx context.Context, t *testing.T, consumer *kafkago.Reader) (domain.RunSummary, kafkago.Message) {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from run topic")

	var summary domain.RunSummary
	require.NoError(t, json.Unmarshal(msg.Value, &summary), "unmarshal run summary")
	return summary, msg
}

// TestRunPublishesSummary wires a full processing run over a mock monitor
// with a real broker and verifies the published run summary.
func TestRunPublishesSummary(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	root := t.TempDir()
	cfg := &config.Config{
		RawDataDir:       filepath.Join(root, "raw"),
		ProcessedDataDir: filepath.Join(root, "processed"),
		AnalyticsDataDir: filepath.Join(root, "analytics"),
		KafkaBrokers:     []string{broker},
		KafkaTopic:       testTopic,
	}
	layout := cfg.Layout()
	opts := mockmonitor.DefaultOptions()
	mock, err := mockmonitor.Write(layout.RawDir, opts)
	require.NoError(t, err)

	store, err := parquetstore.New("SNAPPY")
	require.NoError(t, err)
	logger := discardLogger()
	publisher := kafka.NewPublisher(cfg, logger)
	t.Cleanup(func() { _ = publisher.Close() })

	_, err = monitorlog.NewIngester(layout, store, logger).Ingest(opts.Monitor)
	require.NoError(t, err)
	runner := pipeline.New(layout, store,
		classifier.NewCommand("cat", []string{"{input}.csv"}, time.Minute, logger),
		monitorlog.NewResolver(layout, store, domain.DefaultCoordinates, logger),
		partition.NewWriter(layout, store),
		logger, observability.NewMetricsForTesting(),
		pipeline.Options{Workers: 2, Notifier: publisher})

	first, err := runner.Run(ctx, opts.Monitor, nil)
	require.NoError(t, err)
	second, err := runner.Run(ctx, opts.Monitor, nil)
	require.NoError(t, err)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		GroupID:     fmt.Sprintf("test-runs-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	got, msg := readSummary(ctx, t, consumer)
	assert.Equal(t, opts.Monitor, string(msg.Key))
	assert.Equal(t, first.RunID, got.RunID)
	assert.Equal(t, len(mock.Recordings), got.Processed())
	assert.Equal(t, mock.Batch, got.DataloadBatch[0])
	assert.Equal(t, domain.Coordinates{Lat: 50.9481, Lon: -3.2503}, got.Coordinates)

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, first.RunID, headers["run_id"])
	_, err = time.Parse(time.RFC3339, headers["finished_at"])
	assert.NoError(t, err, "finished_at should be valid RFC3339")

	rerun, _ := readSummary(ctx, t, consumer)
	assert.Equal(t, second.RunID, rerun.RunID)
	assert.Zero(t, rerun.Processed(), "rerun must not resubmit recordings")
	assert.Equal(t, len(mock.Recordings), rerun.Skipped)
}
