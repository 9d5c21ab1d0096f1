// Package processor turns report requests into persisted reports and serves
// the read side of the report API.
package processor

import (
	"context"

	"github.com/ugurcanyksl/PhoneBookApp/pkg/phonebook"
	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/events"
	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/models"

	"github.com/google/uuid"
)

// ContactSource answers the contact-by-location query.
type ContactSource interface {
	ContactsByLocation(ctx context.Context, location string) ([]phonebook.Person, error)
}

// ReportStore persists and loads reports.
type ReportStore interface {
	// InsertReport writes a report with all of its details atomically.
	InsertReport(ctx context.Context, r *models.Report) error
	GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error)
	ListReports(ctx context.Context, limit, offset int) ([]*models.Report, error)
	ListAllReports(ctx context.Context) ([]*models.Report, error)
}

// EventPublisher emits report created events.
type EventPublisher interface {
	PublishCreated(ctx context.Context, evt events.ReportCreatedEvent) error
}

// ReportCache holds completed report projections.
type ReportCache interface {
	Get(ctx context.Context, id uuid.UUID) (*models.ReportDto, error)
	Put(ctx context.Context, dto models.ReportDto) error
}

// Exporter renders a report to a file and returns its location.
type Exporter interface {
	Export(ctx context.Context, dto models.ReportDto) (string, error)
}
