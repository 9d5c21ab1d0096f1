// Package router provides HTTP routing configuration for the report API.
package router

import (
	"net/http"
	"time"

	"github.com/ugurcanyksl/PhoneBookApp/pkg/httpmw"
	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/handlers"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config holds the router's middleware settings.
type Config struct {
	CORSOrigins  []string
	RateLimitRPS int
}

// NewRouter creates the report API routes. Rate limiting applies to /api
// only so health probes and scrapes are never throttled.
func NewRouter(h *handlers.Handlers, cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(httpmw.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(httpmw.Metrics)
	r.Use(httpmw.CORS(cfg.CORSOrigins))

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/reports", func(r chi.Router) {
		r.Use(httpmw.RateLimit(cfg.RateLimitRPS))
		r.Post("/", h.CreateReport)
		r.Get("/", h.ListReports)
		r.Get("/{id}", h.GetReport)
	})
	r.Get("/api/metrics/{service}", h.GetServiceMetrics)

	return r
}

// NewServer creates a new HTTP server with the router configured.
func NewServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
