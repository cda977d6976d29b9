package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/bird-detect-etl/internal/domain"
)

type mockWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, msgs...)
	return nil
}

func (m *mockWriter) Close() error {
	m.closed = true
	return nil
}

func testSummary() domain.RunSummary {
	finished := time.Date(2026, 1, 23, 2, 5, 0, 0, time.UTC)
	return domain.RunSummary{
		RunID:         "7f1c2c4e-1111-4b7a-9c3e-2a1d0f8e9b10",
		Monitor:       "wrangcombe_audio1",
		DataloadBatch: []string{"DataLoad_20260122"},
		Coordinates:   domain.Coordinates{Lat: 50.9481, Lon: -3.2503},
		Candidates:    12,
		Succeeded:     9,
		Empty:         2,
		Failed:        1,
		Detections:    27,
		StartedAt:     finished.Add(-5 * time.Minute),
		FinishedAt:    finished,
	}
}

func TestSerializeToMessage(t *testing.T) {
	summary := testSummary()

	msg, err := serializeToMessage(summary)
	require.NoError(t, err)

	assert.Equal(t, []byte("wrangcombe_audio1"), msg.Key)
	assert.Contains(t, string(msg.Value), `"dataload_batches":["DataLoad_20260122"]`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "run_id", msg.Headers[0].Key)
	assert.Equal(t, []byte(summary.RunID), msg.Headers[0].Value)
	assert.Equal(t, "finished_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2026-01-23T02:05:00Z"), msg.Headers[1].Value)

	var roundtrip domain.RunSummary
	require.NoError(t, json.Unmarshal(msg.Value, &roundtrip))
	assert.Equal(t, summary, roundtrip)
}

func TestPublisher_Publish(t *testing.T) {
	w := &mockWriter{}
	p := &Publisher{writer: w, topic: "bird-detect-runs", logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	require.NoError(t, p.Publish(context.Background(), testSummary()))
	require.NoError(t, p.Close())

	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("wrangcombe_audio1"), w.msgs[0].Key)
	assert.True(t, w.closed)
}

func TestPublisher_PublishError(t *testing.T) {
	w := &mockWriter{err: errors.New("leader not available")}
	p := &Publisher{writer: w, topic: "bird-detect-runs", logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	err := p.Publish(context.Background(), testSummary())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bird-detect-runs")
}
