// Package handlers provides HTTP handlers for the report API.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ugurcanyksl/PhoneBookApp/pkg/metrics"
	"github.com/ugurcanyksl/PhoneBookApp/pkg/validation"
	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/events"
	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/models"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// RequestPublisher enqueues report requests.
type RequestPublisher interface {
	Publish(ctx context.Context, req events.ReportRequest) error
}

// ReportReader serves stored reports.
type ReportReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.ReportDto, error)
	GetAllPaged(ctx context.Context, page, pageSize int) ([]models.ReportDto, error)
}

// SnapshotReader loads the pipeline counters a service last flushed.
type SnapshotReader interface {
	Get(ctx context.Context, service string) (*metrics.Snapshot, error)
}

// Pinger checks a dependency for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers wraps the dependencies of the report API.
type Handlers struct {
	publisher RequestPublisher
	reports   ReportReader
	db        Pinger
	snapshots SnapshotReader
}

// NewHandlers creates the report handlers. db may be nil, in which case the
// health endpoint only reports liveness. snapshots may be nil when Redis is
// not configured.
func NewHandlers(publisher RequestPublisher, reports ReportReader, db Pinger, snapshots SnapshotReader) *Handlers {
	return &Handlers{
		publisher: publisher,
		reports:   reports,
		db:        db,
		snapshots: snapshots,
	}
}

// CreateReportRequest is the body of POST /api/reports.
type CreateReportRequest struct {
	Location string `json:"Location" validate:"required,max=200"`
}

// CreateReportResponse acknowledges a queued request.
type CreateReportResponse struct {
	Message  string `json:"Message"`
	Location string `json:"Location"`
}

// PagedReports is the body of GET /api/reports.
type PagedReports struct {
	Data     []models.ReportDto `json:"Data"`
	Page     int                `json:"Page"`
	PageSize int                `json:"PageSize"`
}

// decodeJSON decodes the request body as JSON into v.
// Returns true on success, false on error (and writes error response).
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// validate runs struct validation and writes a 400 on failure.
func validate(w http.ResponseWriter, v any) bool {
	if err := validation.Struct(v); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// writeJSON writes the value as JSON with appropriate headers.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// parsePositive reads an optional positive integer query parameter.
func parsePositive(r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// parsePagination extracts page and pageSize. pageSize is capped at
// MaxPageSize.
func parsePagination(w http.ResponseWriter, r *http.Request) (page, pageSize int, ok bool) {
	page, ok = parsePositive(r, "page", DefaultPage)
	if !ok {
		http.Error(w, "page must be a positive integer", http.StatusBadRequest)
		return 0, 0, false
	}
	pageSize, ok = parsePositive(r, "pageSize", DefaultPageSize)
	if !ok {
		http.Error(w, "pageSize must be a positive integer", http.StatusBadRequest)
		return 0, 0, false
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize, true
}
