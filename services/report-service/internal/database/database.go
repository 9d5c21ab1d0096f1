// Package database persists reports and their details in PostgreSQL.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/events"
	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ErrReportNotFound is returned when no report has the requested id.
var ErrReportNotFound = errors.New("report not found")

// DB wraps a database connection and provides report operations.
type DB struct {
	conn *sql.DB
}

// NewDB opens a pooled connection using the lib/pq driver and verifies it.
func NewDB(dsn string) (*DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN cannot be empty")
	}

	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Successfully connected to PostgreSQL database")
	return &DB{conn: conn}, nil
}

// Conn exposes the pool for migrations.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping checks the connection for health endpoints.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn != nil {
		slog.Info("Closing database connection")
		return db.conn.Close()
	}
	return nil
}

// InsertReport writes a report and all of its details in one transaction.
// Either every row lands or none do. Failures wrap events.ErrPersistence.
func (db *DB) InsertReport(ctx context.Context, r *models.Report) (err error) {
	if !r.Consistent() {
		return fmt.Errorf("%w: report %s is %s with %d details", events.ErrPersistence, r.ID, r.Status, len(r.Details))
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", events.ErrPersistence, err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				slog.Error("Failed to roll back report insert", "report_id", r.ID, "error", rbErr)
			}
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO reports (id, requested_at, status) VALUES ($1, $2, $3)`,
		r.ID, r.RequestedAt, int(r.Status),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("%w: report %s already exists", events.ErrPersistence, r.ID)
		}
		return fmt.Errorf("%w: insert report: %v", events.ErrPersistence, err)
	}

	for _, d := range r.Details {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO report_details (id, location, total_contacts, total_phone_numbers, contact_report_id)
			 VALUES ($1, $2, $3, $4, $5)`,
			d.ID, d.Location, d.TotalContacts, d.TotalPhoneNumbers, r.ID,
		)
		if err != nil {
			return fmt.Errorf("%w: insert report detail for %q: %v", events.ErrPersistence, d.Location, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit report: %v", events.ErrPersistence, err)
	}

	slog.Info("Inserted report",
		"report_id", r.ID,
		"status", r.Status.String(),
		"details", len(r.Details),
	)
	return nil
}

// GetReport loads one report with its details.
func (db *DB) GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var r models.Report
	var status int
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, requested_at, status FROM reports WHERE id = $1`, id,
	).Scan(&r.ID, &r.RequestedAt, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	r.Status = models.ReportStatus(status)
	r.RequestedAt = r.RequestedAt.UTC()

	reports := []*models.Report{&r}
	if err := db.loadDetails(ctx, reports); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListReports returns one page of reports, newest first.
func (db *DB) ListReports(ctx context.Context, limit, offset int) ([]*models.Report, error) {
	if limit <= 0 || offset < 0 {
		return nil, fmt.Errorf("invalid page window limit=%d offset=%d", limit, offset)
	}
	return db.listReports(ctx,
		`SELECT id, requested_at, status FROM reports ORDER BY requested_at DESC, id LIMIT $1 OFFSET $2`,
		limit, offset,
	)
}

// ListAllReports returns every report, newest first.
func (db *DB) ListAllReports(ctx context.Context) ([]*models.Report, error) {
	return db.listReports(ctx, `SELECT id, requested_at, status FROM reports ORDER BY requested_at DESC, id`)
}

func (db *DB) listReports(ctx context.Context, query string, args ...any) ([]*models.Report, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	reports := []*models.Report{}
	for rows.Next() {
		var r models.Report
		var status int
		if err := rows.Scan(&r.ID, &r.RequestedAt, &status); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		r.Status = models.ReportStatus(status)
		r.RequestedAt = r.RequestedAt.UTC()
		reports = append(reports, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}

	if err := db.loadDetails(ctx, reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// loadDetails fills Details for every report in one round trip.
func (db *DB) loadDetails(ctx context.Context, reports []*models.Report) error {
	if len(reports) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*models.Report, len(reports))
	ids := make([]string, 0, len(reports))
	for _, r := range reports {
		byID[r.ID] = r
		ids = append(ids, r.ID.String())
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, location, total_contacts, total_phone_numbers, contact_report_id
		 FROM report_details
		 WHERE contact_report_id = ANY($1::uuid[])
		 ORDER BY location, id`,
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("failed to load report details: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d models.ReportDetail
		if err := rows.Scan(&d.ID, &d.Location, &d.TotalContacts, &d.TotalPhoneNumbers, &d.ReportID); err != nil {
			return fmt.Errorf("failed to scan report detail: %w", err)
		}
		if r, ok := byID[d.ReportID]; ok {
			r.Details = append(r.Details, d)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating report details: %w", err)
	}
	return nil
}
