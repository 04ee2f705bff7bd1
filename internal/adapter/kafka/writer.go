package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/quake-trends-etl/internal/domain"
)

// batchSize caps the number of messages per WriteMessages call.
const batchSize = 500

// Writer publishes event records to a Kafka topic.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the given brokers and topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    batchSize,
	}
	return &Writer{writer: w, logger: logger}
}

// Name identifies the sink in logs and metrics.
func (w *Writer) Name() string { return "kafka" }

// Write serializes and publishes the events, keyed by event ID so that
// updates to the same event land on the same partition.
func (w *Writer) Write(ctx context.Context, events []domain.Event) error {
	ingestedAt := domain.Now()
	for start := 0; start < len(events); start += batchSize {
		end := min(start+batchSize, len(events))
		msgs := make([]kafkago.Message, 0, end-start)
		for i := start; i < end; i++ {
			msg, err := serializeToMessage(events[i], ingestedAt)
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
			return fmt.Errorf("publish events %d-%d: %w", start, end-1, err)
		}
	}
	w.logger.Info("events published", "topic", w.writer.Topic, "count", len(events))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an Event into a Kafka message.
func serializeToMessage(event domain.Event, ingestedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize event %s: %w", event.ID, err)
	}
	eventType := "earthquake"
	if event.EventType != nil {
		eventType = *event.EventType
	}
	return kafkago.Message{
		Key:   []byte(event.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(eventType)},
			{Key: "ingested_at", Value: []byte(ingestedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
