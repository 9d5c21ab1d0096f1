// Package models holds the report aggregate and its read-model projection.
package models

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// ReportStatus is persisted as an integer and rendered by name.
type ReportStatus int

const (
	StatusPreparing ReportStatus = 0
	StatusCompleted ReportStatus = 1
)

func (s ReportStatus) String() string {
	switch s {
	case StatusPreparing:
		return "Preparing"
	case StatusCompleted:
		return "Completed"
	default:
		return fmt.Sprintf("ReportStatus(%d)", int(s))
	}
}

// Valid reports whether s is a known status.
func (s ReportStatus) Valid() bool {
	return s == StatusPreparing || s == StatusCompleted
}

func (s ReportStatus) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("unknown report status %d", int(s))
	}
	return json.Marshal(s.String())
}

func (s *ReportStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		switch name {
		case "Preparing":
			*s = StatusPreparing
		case "Completed":
			*s = StatusCompleted
		default:
			return fmt.Errorf("unknown report status %q", name)
		}
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("report status must be a name or integer: %w", err)
	}
	if !ReportStatus(n).Valid() {
		return fmt.Errorf("unknown report status %d", n)
	}
	*s = ReportStatus(n)
	return nil
}

// Report is the aggregate root. Status only ever moves Preparing to
// Completed, and Details is populated in the same step.
type Report struct {
	ID          uuid.UUID
	RequestedAt time.Time
	Status      ReportStatus
	Details     []ReportDetail
}

// ReportDetail carries the aggregates for one location.
type ReportDetail struct {
	ID                uuid.UUID
	Location          string
	TotalContacts     int
	TotalPhoneNumbers int
	ReportID          uuid.UUID
}

// NewReport allocates a Preparing report stamped with now in UTC.
func NewReport(now time.Time) *Report {
	return &Report{
		ID:          uuid.New(),
		RequestedAt: now.UTC(),
		Status:      StatusPreparing,
	}
}

// Complete attaches the computed details and marks the report Completed.
// It refuses an empty detail set and a report that is already complete.
func (r *Report) Complete(details ...ReportDetail) error {
	if r.Status != StatusPreparing {
		return fmt.Errorf("report %s is %s, not Preparing", r.ID, r.Status)
	}
	if len(details) == 0 {
		return fmt.Errorf("report %s cannot complete without details", r.ID)
	}
	for i := range details {
		details[i].ReportID = r.ID
	}
	r.Details = append(r.Details[:0:0], details...)
	r.Status = StatusCompleted
	return nil
}

// Consistent checks the status/details pairing invariant.
func (r *Report) Consistent() bool {
	switch r.Status {
	case StatusPreparing:
		return len(r.Details) == 0
	case StatusCompleted:
		return len(r.Details) > 0
	default:
		return false
	}
}

// ReportDto is the read-model served by the API and cached in Redis.
type ReportDto struct {
	ID          uuid.UUID         `json:"Id"`
	RequestedAt time.Time         `json:"RequestedAt"`
	Status      ReportStatus      `json:"Status"`
	Details     []ReportDetailDto `json:"ReportDetails"`
}

// ReportDetailDto is the projection of a ReportDetail.
type ReportDetailDto struct {
	ID                uuid.UUID `json:"Id"`
	Location          string    `json:"Location"`
	TotalContacts     int       `json:"TotalContacts"`
	TotalPhoneNumbers int       `json:"TotalPhoneNumbers"`
}

// ToDto projects a report for readers.
func (r *Report) ToDto() ReportDto {
	dto := ReportDto{
		ID:          r.ID,
		RequestedAt: r.RequestedAt,
		Status:      r.Status,
		Details:     make([]ReportDetailDto, 0, len(r.Details)),
	}
	for _, d := range r.Details {
		dto.Details = append(dto.Details, ReportDetailDto{
			ID:                d.ID,
			Location:          d.Location,
			TotalContacts:     d.TotalContacts,
			TotalPhoneNumbers: d.TotalPhoneNumbers,
		})
	}
	return dto
}
