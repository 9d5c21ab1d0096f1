// Package database persists contacts and their contact infos in PostgreSQL
// through a pgx connection pool.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ugurcanyksl/PhoneBookApp/pkg/phonebook"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrContactNotFound is returned when no contact has the requested id.
	ErrContactNotFound = errors.New("contact not found")
	// ErrContactInfoNotFound is returned when the contact has no info with
	// the requested id.
	ErrContactInfoNotFound = errors.New("contact info not found")
)

const foreignKeyViolation = "23503"

const selectContacts = `
	SELECT c.id, c.first_name, c.last_name, c.company,
	       ci.id, ci.info_type, ci.info_content
	FROM contacts c
	LEFT JOIN contact_infos ci ON ci.person_id = c.id`

const orderContacts = `
	ORDER BY c.last_name, c.first_name, c.id, ci.info_type, ci.id`

// ContactUpdate carries the editable fields of a contact.
type ContactUpdate struct {
	FirstName string
	LastName  string
	Company   string
}

// DB wraps a pgx pool and provides contact operations.
type DB struct {
	pool *pgxpool.Pool
}

// NewDB creates the pool and verifies it with a ping.
func NewDB(ctx context.Context, databaseURL string) (*DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL cannot be empty")
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	cfg.MaxConns = 25
	cfg.MaxConnLifetime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pg pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping pg: %w", err)
	}
	return &DB{pool: pool}, nil
}

// Ping checks the pool for health endpoints.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Close releases every pooled connection.
func (db *DB) Close() {
	db.pool.Close()
}

// CreateContact inserts the contact and its infos in one transaction.
func (db *DB) CreateContact(ctx context.Context, p *phonebook.Person) error {
	err := pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO contacts (id, first_name, last_name, company)
			VALUES ($1, $2, $3, $4)
		`, p.ID, p.FirstName, p.LastName, p.Company); err != nil {
			return fmt.Errorf("insert contact: %w", err)
		}

		if len(p.ContactInfos) == 0 {
			return nil
		}
		batch := &pgx.Batch{}
		for _, info := range p.ContactInfos {
			batch.Queue(`
				INSERT INTO contact_infos (id, info_type, info_content, person_id)
				VALUES ($1, $2, $3, $4)
			`, info.ID, int(info.InfoType), info.InfoContent, p.ID)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert contact infos: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Debug("Contact created", "contact_id", p.ID, "infos", len(p.ContactInfos))
	return nil
}

// GetContact returns one contact with its infos.
func (db *DB) GetContact(ctx context.Context, id uuid.UUID) (*phonebook.Person, error) {
	people, err := db.queryContacts(ctx, selectContacts+` WHERE c.id = $1`+orderContacts, id)
	if err != nil {
		return nil, err
	}
	if len(people) == 0 {
		return nil, ErrContactNotFound
	}
	return &people[0], nil
}

// ListContacts returns every contact, or only those with a Location info
// equal to location when location is non-empty.
func (db *DB) ListContacts(ctx context.Context, location string) ([]phonebook.Person, error) {
	if location == "" {
		return db.queryContacts(ctx, selectContacts+orderContacts)
	}
	return db.queryContacts(ctx, selectContacts+`
		WHERE EXISTS (
			SELECT 1 FROM contact_infos l
			WHERE l.person_id = c.id AND l.info_type = $1 AND l.info_content = $2
		)`+orderContacts, int(phonebook.Location), location)
}

// UpdateContact overwrites the editable fields of a contact.
func (db *DB) UpdateContact(ctx context.Context, id uuid.UUID, u ContactUpdate) error {
	tag, err := db.pool.Exec(ctx, `
		UPDATE contacts
		SET first_name = $2, last_name = $3, company = $4
		WHERE id = $1
	`, id, u.FirstName, u.LastName, u.Company)
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrContactNotFound
	}
	return nil
}

// DeleteContact removes a contact; its infos go with it.
func (db *DB) DeleteContact(ctx context.Context, id uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrContactNotFound
	}
	return nil
}

// DeleteAllContacts empties the contact tables and returns how many contacts
// were removed.
func (db *DB) DeleteAllContacts(ctx context.Context) (int64, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM contacts`)
	if err != nil {
		return 0, fmt.Errorf("delete contacts: %w", err)
	}
	return tag.RowsAffected(), nil
}

// AddContactInfo attaches info to an existing contact.
func (db *DB) AddContactInfo(ctx context.Context, contactID uuid.UUID, info *phonebook.ContactInfo) error {
	_, err := db.pool.Exec(ctx, `
		INSERT INTO contact_infos (id, info_type, info_content, person_id)
		VALUES ($1, $2, $3, $4)
	`, info.ID, int(info.InfoType), info.InfoContent, contactID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrContactNotFound
		}
		return fmt.Errorf("insert contact info: %w", err)
	}
	return nil
}

// DeleteContactInfo removes one info of a contact.
func (db *DB) DeleteContactInfo(ctx context.Context, contactID, infoID uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `
		DELETE FROM contact_infos WHERE id = $1 AND person_id = $2
	`, infoID, contactID)
	if err != nil {
		return fmt.Errorf("delete contact info: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrContactInfoNotFound
	}
	return nil
}

// contactRow is one row of the contacts LEFT JOIN contact_infos query.
type contactRow struct {
	ID          uuid.UUID
	FirstName   string
	LastName    string
	Company     string
	InfoID      pgtype.UUID
	InfoType    pgtype.Int4
	InfoContent pgtype.Text
}

func (db *DB) queryContacts(ctx context.Context, query string, args ...any) ([]phonebook.Person, error) {
	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query contacts: %w", err)
	}
	joined, err := pgx.CollectRows(rows, pgx.RowToStructByPos[contactRow])
	if err != nil {
		return nil, fmt.Errorf("scan contacts: %w", err)
	}
	return groupContacts(joined), nil
}

// groupContacts folds joined rows into people. Rows of one contact must be
// adjacent, which the ORDER BY guarantees. A contact without infos has one
// row with a NULL info id.
func groupContacts(rows []contactRow) []phonebook.Person {
	people := make([]phonebook.Person, 0, len(rows))
	for _, row := range rows {
		if len(people) == 0 || people[len(people)-1].ID != row.ID {
			people = append(people, phonebook.Person{
				ID:           row.ID,
				FirstName:    row.FirstName,
				LastName:     row.LastName,
				Company:      row.Company,
				ContactInfos: []phonebook.ContactInfo{},
			})
		}
		if !row.InfoID.Valid {
			continue
		}
		p := &people[len(people)-1]
		p.ContactInfos = append(p.ContactInfos, phonebook.ContactInfo{
			ID:          uuid.UUID(row.InfoID.Bytes),
			InfoType:    phonebook.InfoType(row.InfoType.Int32),
			InfoContent: row.InfoContent.String,
		})
	}
	return people
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}
