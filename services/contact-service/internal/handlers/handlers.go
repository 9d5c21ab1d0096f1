// Package handlers provides HTTP handlers for the contact API.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ugurcanyksl/PhoneBookApp/pkg/phonebook"
	"github.com/ugurcanyksl/PhoneBookApp/pkg/validation"
	"github.com/ugurcanyksl/PhoneBookApp/services/contact-service/internal/database"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Repository defines the contact store operations the handlers need.
type Repository interface {
	CreateContact(ctx context.Context, p *phonebook.Person) error
	GetContact(ctx context.Context, id uuid.UUID) (*phonebook.Person, error)
	ListContacts(ctx context.Context, location string) ([]phonebook.Person, error)
	UpdateContact(ctx context.Context, id uuid.UUID, u database.ContactUpdate) error
	DeleteContact(ctx context.Context, id uuid.UUID) error
	AddContactInfo(ctx context.Context, contactID uuid.UUID, info *phonebook.ContactInfo) error
	DeleteContactInfo(ctx context.Context, contactID, infoID uuid.UUID) error
	Ping(ctx context.Context) error
}

// Handlers wraps the dependencies of the contact API.
type Handlers struct {
	db Repository
}

// NewHandlers creates the contact handlers.
func NewHandlers(db Repository) *Handlers {
	return &Handlers{db: db}
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

// pathUUID parses a chi URL parameter as a UUID, writing a 400 on failure.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		http.Error(w, name+" must be a valid UUID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// handleStoreError maps store errors to responses.
func handleStoreError(w http.ResponseWriter, err error, action string, attrs ...any) {
	switch {
	case errors.Is(err, database.ErrContactNotFound):
		http.Error(w, "Contact not found", http.StatusNotFound)
	case errors.Is(err, database.ErrContactInfoNotFound):
		http.Error(w, "Contact info not found", http.StatusNotFound)
	default:
		slog.Error("Failed to "+action, append(attrs, "error", err)...)
		http.Error(w, "Failed to "+action, http.StatusInternalServerError)
	}
}
