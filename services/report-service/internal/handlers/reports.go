package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/database"
	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/events"
	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/processor"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// CreateReport queues a report request. The report itself is built
// asynchronously; the response only confirms the broker took the request.
func (h *Handlers) CreateReport(w http.ResponseWriter, r *http.Request) {
	var req CreateReportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Location = strings.TrimSpace(req.Location)
	if !validate(w, &req) {
		return
	}

	if err := h.publisher.Publish(r.Context(), events.ReportRequest{Location: req.Location}); err != nil {
		slog.Error("Failed to queue report request", "location", req.Location, "error", err)
		http.Error(w, "Report request could not be queued", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, CreateReportResponse{
		Message:  "Report request queued",
		Location: req.Location,
	})
}

// GetReport returns one report by id.
func (h *Handlers) GetReport(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "id must be a valid UUID", http.StatusBadRequest)
		return
	}

	dto, err := h.reports.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrReportNotFound) {
			http.Error(w, "Report not found", http.StatusNotFound)
			return
		}
		slog.Error("Failed to get report", "report_id", id, "error", err)
		http.Error(w, "Failed to get report", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, dto)
}

// ListReports returns one page of reports, newest first.
func (h *Handlers) ListReports(w http.ResponseWriter, r *http.Request) {
	page, pageSize, ok := parsePagination(w, r)
	if !ok {
		return
	}

	reports, err := h.reports.GetAllPaged(r.Context(), page, pageSize)
	if err != nil {
		if errors.Is(err, processor.ErrInvalidPagination) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("Failed to list reports", "page", page, "page_size", pageSize, "error", err)
		http.Error(w, "Failed to list reports", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, PagedReports{Data: reports, Page: page, PageSize: pageSize})
}

// Health reports whether the report store is reachable.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			slog.Warn("Health check failed", "error", err)
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
