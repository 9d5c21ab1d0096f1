package producer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/events"

	"github.com/segmentio/kafka-go"
)

// ErrEmptyLocation rejects a request that could never produce a report.
var ErrEmptyLocation = errors.New("location cannot be empty")

// RequestPublisher enqueues report requests on the request topic.
// A nil error means the partition leader acknowledged the write; it says
// nothing about when, or whether, the request will be consumed.
type RequestPublisher struct {
	*topicWriter
}

// NewRequestPublisher creates a publisher for the request topic.
func NewRequestPublisher(brokers, topic string) (*RequestPublisher, error) {
	tw, err := newTopicWriter("report-request", brokers, topic)
	if err != nil {
		return nil, err
	}
	return &RequestPublisher{topicWriter: tw}, nil
}

// Publish serializes req and writes it synchronously. Requests are keyed by
// location so repeated requests for one location share a partition and are
// processed in submission order. Failures wrap events.ErrPublish and are not
// retried here.
func (p *RequestPublisher) Publish(ctx context.Context, req events.ReportRequest) error {
	req.Location = strings.TrimSpace(req.Location)
	if req.Location == "" {
		return fmt.Errorf("%w: %w", events.ErrPublish, ErrEmptyLocation)
	}

	payload, err := events.EncodeReportRequest(req)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(req.Location),
		Value: payload,
		Time:  time.Now(),
	}
	if err := p.write(ctx, msg); err != nil {
		slog.Error("Failed to publish report request",
			"location", req.Location,
			"topic", p.topic,
			"error", err,
		)
		return fmt.Errorf("%w: %w", events.ErrPublish, err)
	}

	slog.Info("Published report request", "location", req.Location, "topic", p.topic)
	return nil
}
