package handlers

import (
	"context"

	"github.com/ugurcanyksl/PhoneBookApp/pkg/metrics"
	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/events"
	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/models"

	"github.com/google/uuid"
)

// mockPublisher implements RequestPublisher for testing.
type mockPublisher struct {
	PublishFn func(ctx context.Context, req events.ReportRequest) error
	published []events.ReportRequest
}

func (m *mockPublisher) Publish(ctx context.Context, req events.ReportRequest) error {
	if m.PublishFn != nil {
		if err := m.PublishFn(ctx, req); err != nil {
			return err
		}
	}
	m.published = append(m.published, req)
	return nil
}

// mockReports implements ReportReader for testing.
type mockReports struct {
	GetByIDFn     func(ctx context.Context, id uuid.UUID) (*models.ReportDto, error)
	GetAllPagedFn func(ctx context.Context, page, pageSize int) ([]models.ReportDto, error)
}

func (m *mockReports) GetByID(ctx context.Context, id uuid.UUID) (*models.ReportDto, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return &models.ReportDto{ID: id, Status: models.StatusCompleted}, nil
}

func (m *mockReports) GetAllPaged(ctx context.Context, page, pageSize int) ([]models.ReportDto, error) {
	if m.GetAllPagedFn != nil {
		return m.GetAllPagedFn(ctx, page, pageSize)
	}
	return []models.ReportDto{}, nil
}

// mockPinger implements Pinger for testing.
type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error { return m.err }

// mockSnapshots implements SnapshotReader for testing.
type mockSnapshots struct {
	snap    *metrics.Snapshot
	err     error
	service string
}

func (m *mockSnapshots) Get(ctx context.Context, service string) (*metrics.Snapshot, error) {
	m.service = service
	return m.snap, m.err
}
