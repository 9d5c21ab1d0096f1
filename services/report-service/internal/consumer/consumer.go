// Package consumer subscribes to the report request topic.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafkautil "github.com/ugurcanyksl/PhoneBookApp/pkg/kafka"
	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/events"

	"github.com/segmentio/kafka-go"
)

// ErrNoMessage means a poll's wait elapsed without a message arriving.
var ErrNoMessage = errors.New("no message within poll wait")

// messageReader is the subset of *kafka.Reader the consumer uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads report requests under a fixed consumer group. Offsets are
// committed explicitly once a message has been handled.
type Consumer struct {
	reader messageReader
	topic  string
	wait   time.Duration
}

// NewConsumer joins groupID on topic. pollWait bounds each Fetch; zero uses
// kafkautil.DefaultPollWait.
func NewConsumer(brokers, topic, groupID string, pollWait time.Duration) (*Consumer, error) {
	if err := kafkautil.ValidateConsumerParams(brokers, topic, groupID); err != nil {
		return nil, err
	}
	if pollWait <= 0 {
		pollWait = kafkautil.DefaultPollWait
	}

	brokerList := kafkautil.ParseBrokers(brokers)
	slog.Info("Initializing Kafka consumer",
		"brokers", brokerList,
		"topic", topic,
		"group_id", groupID,
	)

	cfg := kafkautil.NewReaderConfig(brokerList, topic, groupID)
	kafkautil.LogReaderConfig(cfg)

	return &Consumer{
		reader: kafka.NewReader(cfg),
		topic:  topic,
		wait:   pollWait,
	}, nil
}

// Fetch waits up to the poll wait for the next message. It returns
// ErrNoMessage when the wait elapses, ctx.Err() once ctx is done, and an
// error wrapping events.ErrConsume for broker failures.
func (c *Consumer) Fetch(ctx context.Context) (kafka.Message, error) {
	pollCtx, cancel := context.WithTimeout(ctx, c.wait)
	defer cancel()

	msg, err := c.reader.FetchMessage(pollCtx)
	if err == nil {
		return msg, nil
	}
	if ctx.Err() != nil {
		return kafka.Message{}, ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return kafka.Message{}, ErrNoMessage
	}
	return kafka.Message{}, fmt.Errorf("%w: fetch from %s: %v", events.ErrConsume, c.topic, err)
}

// Commit marks msg as handled. It uses its own deadline so a commit still
// lands while the worker is shutting down.
func (c *Consumer) Commit(msg kafka.Message) error {
	ctx, cancel := context.WithTimeout(context.Background(), kafkautil.CommitTimeout)
	defer cancel()

	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		return fmt.Errorf("%w: commit offset %d on partition %d: %v", events.ErrConsume, msg.Offset, msg.Partition, err)
	}
	return nil
}

// Close leaves the consumer group and releases the reader.
func (c *Consumer) Close() error {
	slog.Info("Closing Kafka consumer", "topic", c.topic)
	if err := c.reader.Close(); err != nil {
		slog.Error("Error closing Kafka consumer", "error", err)
		return err
	}
	slog.Info("Kafka consumer closed successfully")
	return nil
}
