package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/bird-detect-etl/internal/config"
	"github.com/couchcryptid/bird-detect-etl/internal/domain"
)

// messageWriter is the subset of kafkago.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces run-completion events to a Kafka topic.
// It implements pipeline.Notifier.
type Publisher struct {
	writer messageWriter
	topic  string
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured run topic.
// Messages are keyed by monitor so one monitor's runs stay ordered.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, topic: cfg.KafkaTopic, logger: logger}
}

// Publish sends one run summary.
func (p *Publisher) Publish(ctx context.Context, summary domain.RunSummary) error {
	msg, err := serializeToMessage(summary)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish run summary to %s: %w", p.topic, err)
	}
	p.logger.Debug("run summary published", "topic", p.topic, "monitor", summary.Monitor, "run_id", summary.RunID)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a RunSummary into a Kafka message.
func serializeToMessage(summary domain.RunSummary) (kafkago.Message, error) {
	data, err := json.Marshal(summary)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize run summary: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(summary.Monitor),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(summary.RunID)},
			{Key: "finished_at", Value: []byte(summary.FinishedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
