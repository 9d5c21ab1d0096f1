package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ugurcanyksl/PhoneBookApp/pkg/phonebook"
	"github.com/ugurcanyksl/PhoneBookApp/services/contact-service/internal/database"

	"github.com/google/uuid"
)

// ContactInfoRequest is one contact info in a request body.
type ContactInfoRequest struct {
	InfoType    phonebook.InfoType `json:"InfoType" validate:"gte=0,lte=2"`
	InfoContent string             `json:"InfoContent" validate:"required,max=500"`
}

// CreateContactRequest is the body of POST /api/contacts.
type CreateContactRequest struct {
	FirstName    string               `json:"FirstName" validate:"required,max=100"`
	LastName     string               `json:"LastName" validate:"required,max=100"`
	Company      string               `json:"Company" validate:"max=200"`
	ContactInfos []ContactInfoRequest `json:"ContactInfos" validate:"dive"`
}

// UpdateContactRequest is the body of PUT /api/contacts/{id}.
type UpdateContactRequest struct {
	FirstName string `json:"FirstName" validate:"required,max=100"`
	LastName  string `json:"LastName" validate:"required,max=100"`
	Company   string `json:"Company" validate:"max=200"`
}

func (r *ContactInfoRequest) normalize() {
	r.InfoContent = strings.TrimSpace(r.InfoContent)
}

func (r *ContactInfoRequest) toInfo() phonebook.ContactInfo {
	return phonebook.ContactInfo{ID: uuid.New(), InfoType: r.InfoType, InfoContent: r.InfoContent}
}

// CreateContact stores a new contact with its infos.
func (h *Handlers) CreateContact(w http.ResponseWriter, r *http.Request) {
	var req CreateContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Company = strings.TrimSpace(req.Company)
	for i := range req.ContactInfos {
		req.ContactInfos[i].normalize()
	}
	if !validate(w, &req) {
		return
	}

	person := phonebook.Person{
		ID:           uuid.New(),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Company:      req.Company,
		ContactInfos: make([]phonebook.ContactInfo, 0, len(req.ContactInfos)),
	}
	for i := range req.ContactInfos {
		person.ContactInfos = append(person.ContactInfos, req.ContactInfos[i].toInfo())
	}

	if err := h.db.CreateContact(r.Context(), &person); err != nil {
		handleStoreError(w, err, "create contact")
		return
	}

	slog.Info("Contact created", "contact_id", person.ID, "infos", len(person.ContactInfos))
	writeJSON(w, http.StatusCreated, person)
}

// GetContact returns one contact by id.
func (h *Handlers) GetContact(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	person, err := h.db.GetContact(r.Context(), id)
	if err != nil {
		handleStoreError(w, err, "get contact", "contact_id", id)
		return
	}
	writeJSON(w, http.StatusOK, person)
}

// ListContacts returns all contacts, or those at ?location= when given.
// The report service aggregates over the filtered form.
func (h *Handlers) ListContacts(w http.ResponseWriter, r *http.Request) {
	location := strings.TrimSpace(r.URL.Query().Get("location"))

	people, err := h.db.ListContacts(r.Context(), location)
	if err != nil {
		handleStoreError(w, err, "list contacts", "location", location)
		return
	}
	if people == nil {
		people = []phonebook.Person{}
	}
	writeJSON(w, http.StatusOK, people)
}

// UpdateContact overwrites a contact's names and company.
func (h *Handlers) UpdateContact(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Company = strings.TrimSpace(req.Company)
	if !validate(w, &req) {
		return
	}

	err := h.db.UpdateContact(r.Context(), id, database.ContactUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Company:   req.Company,
	})
	if err != nil {
		handleStoreError(w, err, "update contact", "contact_id", id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteContact removes a contact and its infos.
func (h *Handlers) DeleteContact(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.db.DeleteContact(r.Context(), id); err != nil {
		handleStoreError(w, err, "delete contact", "contact_id", id)
		return
	}
	slog.Info("Contact deleted", "contact_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// AddContactInfo attaches one info to a contact.
func (h *Handlers) AddContactInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req ContactInfoRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.normalize()
	if !validate(w, &req) {
		return
	}

	info := req.toInfo()
	if err := h.db.AddContactInfo(r.Context(), id, &info); err != nil {
		handleStoreError(w, err, "add contact info", "contact_id", id)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

// DeleteContactInfo removes one info from a contact.
func (h *Handlers) DeleteContactInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	infoID, ok := pathUUID(w, r, "infoId")
	if !ok {
		return
	}

	if err := h.db.DeleteContactInfo(r.Context(), id, infoID); err != nil {
		handleStoreError(w, err, "delete contact info", "contact_id", id, "info_id", infoID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Health reports whether the contact store is reachable.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		slog.Warn("Health check failed", "error", err)
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
