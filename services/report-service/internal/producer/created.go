package producer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/events"

	"github.com/segmentio/kafka-go"
)

// CreatedPublisher emits ReportCreatedEvent on the completion topic.
type CreatedPublisher struct {
	*topicWriter
}

// NewCreatedPublisher creates a publisher for the completion topic.
func NewCreatedPublisher(brokers, topic string) (*CreatedPublisher, error) {
	tw, err := newTopicWriter("report-created", brokers, topic)
	if err != nil {
		return nil, err
	}
	return &CreatedPublisher{topicWriter: tw}, nil
}

func buildCreatedMessage(evt events.ReportCreatedEvent) (kafka.Message, error) {
	payload, err := events.EncodeReportCreated(evt)
	if err != nil {
		return kafka.Message{}, err
	}

	id := evt.ReportID.String()
	return kafka.Message{
		Key:   []byte(id),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "report_id", Value: []byte(id)},
			{Key: "status", Value: []byte(evt.Status)},
		},
		Time: time.Now(),
	}, nil
}

// PublishCreated writes evt keyed by report id. The report has already been
// committed when this runs, so a failure is reported to the caller and
// nothing is undone.
func (p *CreatedPublisher) PublishCreated(ctx context.Context, evt events.ReportCreatedEvent) error {
	msg, err := buildCreatedMessage(evt)
	if err != nil {
		slog.Error("Failed to build report created message", "report_id", evt.ReportID, "error", err)
		return err
	}

	if err := p.write(ctx, msg); err != nil {
		slog.Error("Failed to publish report created event",
			"report_id", evt.ReportID,
			"topic", p.topic,
			"error", err,
		)
		return fmt.Errorf("%w: %w", events.ErrPublish, err)
	}

	slog.Info("Published report created event",
		"report_id", evt.ReportID,
		"status", evt.Status,
	)
	return nil
}
