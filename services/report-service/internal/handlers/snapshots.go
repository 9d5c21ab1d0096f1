package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ugurcanyksl/PhoneBookApp/pkg/metrics"

	"github.com/go-chi/chi/v5"
)

// GetServiceMetrics returns the latest counters snapshot of a service.
func (h *Handlers) GetServiceMetrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		http.Error(w, "metrics store not configured", http.StatusServiceUnavailable)
		return
	}

	service := chi.URLParam(r, "service")
	snap, err := h.snapshots.Get(r.Context(), service)
	if err != nil {
		if errors.Is(err, metrics.ErrNoSnapshot) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		slog.Error("Failed to read metrics snapshot", "service", service, "error", err)
		http.Error(w, "Failed to read metrics", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, snap)
}
