// Package router provides HTTP routing configuration for the contact API.
package router

import (
	"net/http"
	"time"

	"github.com/ugurcanyksl/PhoneBookApp/pkg/httpmw"
	"github.com/ugurcanyksl/PhoneBookApp/services/contact-service/internal/handlers"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config holds the router's middleware settings.
type Config struct {
	CORSOrigins  []string
	RateLimitRPS int
}

// NewRouter creates the contact API routes.
func NewRouter(h *handlers.Handlers, cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(httpmw.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(httpmw.Metrics)
	r.Use(httpmw.CORS(cfg.CORSOrigins))

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/contacts", func(r chi.Router) {
		r.Use(httpmw.RateLimit(cfg.RateLimitRPS))
		r.Post("/", h.CreateContact)
		r.Get("/", h.ListContacts)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetContact)
			r.Put("/", h.UpdateContact)
			r.Delete("/", h.DeleteContact)
			r.Post("/contact-info", h.AddContactInfo)
			r.Delete("/contact-info/{infoId}", h.DeleteContactInfo)
		})
	})

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
