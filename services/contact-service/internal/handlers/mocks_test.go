package handlers

import (
	"context"

	"github.com/ugurcanyksl/PhoneBookApp/pkg/phonebook"
	"github.com/ugurcanyksl/PhoneBookApp/services/contact-service/internal/database"

	"github.com/google/uuid"
)

// mockRepository implements Repository for testing. Unset funcs succeed.
type mockRepository struct {
	CreateContactFn     func(ctx context.Context, p *phonebook.Person) error
	GetContactFn        func(ctx context.Context, id uuid.UUID) (*phonebook.Person, error)
	ListContactsFn      func(ctx context.Context, location string) ([]phonebook.Person, error)
	UpdateContactFn     func(ctx context.Context, id uuid.UUID, u database.ContactUpdate) error
	DeleteContactFn     func(ctx context.Context, id uuid.UUID) error
	AddContactInfoFn    func(ctx context.Context, contactID uuid.UUID, info *phonebook.ContactInfo) error
	DeleteContactInfoFn func(ctx context.Context, contactID, infoID uuid.UUID) error
	PingFn              func(ctx context.Context) error

	created []phonebook.Person
	updates []database.ContactUpdate
}

func (m *mockRepository) CreateContact(ctx context.Context, p *phonebook.Person) error {
	if m.CreateContactFn != nil {
		if err := m.CreateContactFn(ctx, p); err != nil {
			return err
		}
	}
	m.created = append(m.created, *p)
	return nil
}

func (m *mockRepository) GetContact(ctx context.Context, id uuid.UUID) (*phonebook.Person, error) {
	if m.GetContactFn != nil {
		return m.GetContactFn(ctx, id)
	}
	return &phonebook.Person{ID: id, FirstName: "Ada", LastName: "Lovelace"}, nil
}

func (m *mockRepository) ListContacts(ctx context.Context, location string) ([]phonebook.Person, error) {
	if m.ListContactsFn != nil {
		return m.ListContactsFn(ctx, location)
	}
	return nil, nil
}

func (m *mockRepository) UpdateContact(ctx context.Context, id uuid.UUID, u database.ContactUpdate) error {
	if m.UpdateContactFn != nil {
		if err := m.UpdateContactFn(ctx, id, u); err != nil {
			return err
		}
	}
	m.updates = append(m.updates, u)
	return nil
}

func (m *mockRepository) DeleteContact(ctx context.Context, id uuid.UUID) error {
	if m.DeleteContactFn != nil {
		return m.DeleteContactFn(ctx, id)
	}
	return nil
}

func (m *mockRepository) AddContactInfo(ctx context.Context, contactID uuid.UUID, info *phonebook.ContactInfo) error {
	if m.AddContactInfoFn != nil {
		return m.AddContactInfoFn(ctx, contactID, info)
	}
	return nil
}

func (m *mockRepository) DeleteContactInfo(ctx context.Context, contactID, infoID uuid.UUID) error {
	if m.DeleteContactInfoFn != nil {
		return m.DeleteContactInfoFn(ctx, contactID, infoID)
	}
	return nil
}

func (m *mockRepository) Ping(ctx context.Context) error {
	if m.PingFn != nil {
		return m.PingFn(ctx)
	}
	return nil
}
