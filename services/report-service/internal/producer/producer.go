// Package producer publishes report requests, report created events, and
// dead-lettered requests to Kafka.
package producer

import (
	"context"
	"fmt"
	"log/slog"

	kafkautil "github.com/ugurcanyksl/PhoneBookApp/pkg/kafka"

	"github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafka.Writer the publishers use.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// topicWriter owns one synchronous writer bound to one topic.
type topicWriter struct {
	writer messageWriter
	topic  string
}

func newTopicWriter(kind, brokers, topic string) (*topicWriter, error) {
	if err := kafkautil.ValidateProducerParams(brokers, topic); err != nil {
		return nil, err
	}

	brokerList := kafkautil.ParseBrokers(brokers)
	slog.Info("Initializing Kafka producer",
		"producer", kind,
		"brokers", brokerList,
		"topic", topic,
	)

	w := kafkautil.NewWriter(brokerList, topic)
	slog.Info("Kafka producer configured",
		"producer", kind,
		"write_timeout", kafkautil.WriteTimeout,
		"required_acks", "RequireOne",
		"async", false,
	)

	return &topicWriter{writer: w, topic: topic}, nil
}

func (t *topicWriter) write(ctx context.Context, msg kafka.Message) error {
	if err := t.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write to topic %s: %w", t.topic, err)
	}
	return nil
}

// Close flushes and releases the underlying writer.
func (t *topicWriter) Close() error {
	slog.Info("Closing Kafka producer", "topic", t.topic)
	if err := t.writer.Close(); err != nil {
		slog.Error("Error closing Kafka producer", "topic", t.topic, "error", err)
		return err
	}
	slog.Info("Kafka producer closed successfully", "topic", t.topic)
	return nil
}

// Topic returns the destination topic.
func (t *topicWriter) Topic() string {
	return t.topic
}
