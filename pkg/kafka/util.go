// Package kafka provides shared Kafka utilities for all services.
package kafka

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	// DefaultPollWait bounds a single fetch from the broker so a consumer loop
	// can observe cancellation between polls.
	DefaultPollWait = 2 * time.Second
	// MaxBrokerWait is how long the broker may hold a fetch request open.
	MaxBrokerWait = 500 * time.Millisecond
	// WriteTimeout is the maximum time to wait for a Kafka write operation.
	WriteTimeout = 10 * time.Second
	// CommitTimeout bounds an explicit offset commit.
	CommitTimeout = 5 * time.Second
)

// ParseBrokers parses a comma-separated broker list and trims whitespace.
// Empty entries are dropped.
func ParseBrokers(brokers string) []string {
	if brokers == "" {
		return nil
	}
	var brokerList []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokerList = append(brokerList, b)
		}
	}
	return brokerList
}

// ValidateConsumerParams validates common consumer parameters.
func ValidateConsumerParams(brokers, topic, groupID string) error {
	if strings.TrimSpace(brokers) == "" {
		return fmt.Errorf("brokers cannot be empty")
	}
	if topic == "" {
		return fmt.Errorf("topic cannot be empty")
	}
	if groupID == "" {
		return fmt.Errorf("groupID cannot be empty")
	}
	return nil
}

// ValidateProducerParams validates common producer parameters.
func ValidateProducerParams(brokers, topic string) error {
	if strings.TrimSpace(brokers) == "" {
		return fmt.Errorf("brokers cannot be empty")
	}
	if topic == "" {
		return fmt.Errorf("topic cannot be empty")
	}
	return nil
}

// NewReaderConfig creates the reader configuration shared by every consumer
// group in the platform. Offsets are committed explicitly (CommitInterval 0)
// after a message has been handled, which gives at-least-once delivery.
func NewReaderConfig(brokers []string, topic, groupID string) kafka.ReaderConfig {
	return kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,    // Return immediately when any data is available
		MaxBytes:       10e6, // 10MB
		MaxWait:        MaxBrokerWait,
		CommitInterval: 0,                 // Synchronous commits
		StartOffset:    kafka.FirstOffset, // Start from beginning if no committed offset
	}
}

// LogReaderConfig logs the reader configuration values.
func LogReaderConfig(cfg kafka.ReaderConfig) {
	slog.Info("Kafka consumer configured",
		"topic", cfg.Topic,
		"group_id", cfg.GroupID,
		"min_bytes", cfg.MinBytes,
		"max_bytes", cfg.MaxBytes,
		"max_wait", cfg.MaxWait.String(),
		"commit_interval", cfg.CommitInterval.String(),
	)
}

// NewWriter creates a synchronous writer that waits for the partition
// leader's acknowledgement before returning.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{}, // Key-based partitioning (hashes the message key)
		WriteTimeout:           WriteTimeout,
		RequiredAcks:           kafka.RequireOne,
		Async:                  false,
		AllowAutoTopicCreation: true,
	}
}
