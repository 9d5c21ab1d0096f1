package producer

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// DeadLetterWriter parks request messages that could not become reports.
type DeadLetterWriter struct {
	*topicWriter
}

// NewDeadLetterWriter creates a writer for the dead-letter topic.
func NewDeadLetterWriter(brokers, topic string) (*DeadLetterWriter, error) {
	tw, err := newTopicWriter("report-dlq", brokers, topic)
	if err != nil {
		return nil, err
	}
	return &DeadLetterWriter{topicWriter: tw}, nil
}

func buildDeadLetter(src kafka.Message, cause error) kafka.Message {
	headers := make([]kafka.Header, 0, len(src.Headers)+4)
	headers = append(headers, src.Headers...)
	headers = append(headers,
		kafka.Header{Key: "error", Value: []byte(cause.Error())},
		kafka.Header{Key: "source_topic", Value: []byte(src.Topic)},
		kafka.Header{Key: "source_partition", Value: []byte(strconv.Itoa(src.Partition))},
		kafka.Header{Key: "source_offset", Value: []byte(strconv.FormatInt(src.Offset, 10))},
	)
	return kafka.Message{
		Key:     src.Key,
		Value:   src.Value,
		Headers: headers,
		Time:    time.Now(),
	}
}

// DeadLetter copies src, untouched, to the dead-letter topic with the failure
// and source coordinates attached as headers.
func (d *DeadLetterWriter) DeadLetter(ctx context.Context, src kafka.Message, cause error) error {
	if err := d.write(ctx, buildDeadLetter(src, cause)); err != nil {
		return fmt.Errorf("dead-letter offset %d: %w", src.Offset, err)
	}
	slog.Warn("Report request dead-lettered",
		"source_topic", src.Topic,
		"partition", src.Partition,
		"offset", src.Offset,
		"dlq_topic", d.topic,
		"error", cause,
	)
	return nil
}
