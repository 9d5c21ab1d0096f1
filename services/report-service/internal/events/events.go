// Package events defines the payloads carried on the report request and
// report created topics, and their wire encoding.
package events

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// ReportRequest asks for a report over every contact at Location.
// It only ever exists as a broker message.
type ReportRequest struct {
	Location string `json:"Location" validate:"required,max=200"`
}

// ReportCreatedEvent announces a persisted, completed report. Delivery is
// at-least-once, so consumers must treat a repeated ReportID+Status pair as
// a no-op.
type ReportCreatedEvent struct {
	ReportID  uuid.UUID `json:"ReportId"`
	Status    string    `json:"Status"`
	CreatedAt time.Time `json:"CreatedAt"`
	FilePath  *string   `json:"FilePath"`
}

// EncodeReportRequest serializes a request for the request topic.
func EncodeReportRequest(req ReportRequest) ([]byte, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal report request: %v", ErrPublish, err)
	}
	return data, nil
}

// DecodeReportRequest parses a request-topic payload. A payload without a
// location cannot produce a report and is rejected as malformed.
func DecodeReportRequest(data []byte) (ReportRequest, error) {
	var req ReportRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return ReportRequest{}, fmt.Errorf("%w: report request: %v", ErrDeserialization, err)
	}
	req.Location = strings.TrimSpace(req.Location)
	if req.Location == "" {
		return ReportRequest{}, fmt.Errorf("%w: report request has no location", ErrDeserialization)
	}
	return req, nil
}

// EncodeReportCreated serializes a completion event. CreatedAt is written in
// UTC as RFC 3339 with nanoseconds.
func EncodeReportCreated(evt ReportCreatedEvent) ([]byte, error) {
	evt.CreatedAt = evt.CreatedAt.UTC()
	data, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal report created event: %v", ErrPublish, err)
	}
	return data, nil
}

// DecodeReportCreated parses a completion-topic payload.
func DecodeReportCreated(data []byte) (ReportCreatedEvent, error) {
	var evt ReportCreatedEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return ReportCreatedEvent{}, fmt.Errorf("%w: report created event: %v", ErrDeserialization, err)
	}
	return evt, nil
}
