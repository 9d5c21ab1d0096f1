package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/events"
	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	reportColumns = []string{"id", "requested_at", "status"}
	detailColumns = []string{"id", "location", "total_contacts", "total_phone_numbers", "contact_report_id"}
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &DB{conn: conn}, mock
}

func completedReport(t *testing.T, location string, contacts, phones int) *models.Report {
	t.Helper()
	r := models.NewReport(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	if err := r.Complete(models.ReportDetail{ID: uuid.New(), Location: location, TotalContacts: contacts, TotalPhoneNumbers: phones}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	return r
}

func TestNewDB(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
	}{
		{name: "empty DSN", dsn: ""},
		{name: "invalid DSN", dsn: "invalid-dsn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := NewDB(tt.dsn)
			if err == nil {
				db.Close()
				t.Error("NewDB() error = nil, want error")
			}
		})
	}
}

func TestDB_Close(t *testing.T) {
	db := &DB{conn: nil}
	if err := db.Close(); err != nil {
		t.Errorf("Close() with nil conn error = %v, want nil", err)
	}
}

func TestDB_InsertReport(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock, r *models.Report)
		wantErr   bool
	}{
		{
			name: "report and detail committed together",
			setupMock: func(mock sqlmock.Sqlmock, r *models.Report) {
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO reports").
					WithArgs(r.ID, r.RequestedAt, int(models.StatusCompleted)).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec("INSERT INTO report_details").
					WithArgs(r.Details[0].ID, "Istanbul", 3, 3, r.ID).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "detail failure rolls back",
			setupMock: func(mock sqlmock.Sqlmock, r *models.Report) {
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO reports").WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec("INSERT INTO report_details").WillReturnError(sql.ErrConnDone)
				mock.ExpectRollback()
			},
			wantErr: true,
		},
		{
			name: "duplicate id rolls back",
			setupMock: func(mock sqlmock.Sqlmock, r *models.Report) {
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO reports").WillReturnError(&pq.Error{Code: "23505"})
				mock.ExpectRollback()
			},
			wantErr: true,
		},
		{
			name: "begin failure",
			setupMock: func(mock sqlmock.Sqlmock, r *models.Report) {
				mock.ExpectBegin().WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
		{
			name: "commit failure",
			setupMock: func(mock sqlmock.Sqlmock, r *models.Report) {
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO reports").WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec("INSERT INTO report_details").WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit().WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			r := completedReport(t, "Istanbul", 3, 3)
			tt.setupMock(mock, r)

			err := db.InsertReport(ctx, r)
			if tt.wantErr {
				if !errors.Is(err, events.ErrPersistence) {
					t.Errorf("InsertReport() error = %v, want ErrPersistence", err)
				}
			} else if err != nil {
				t.Errorf("InsertReport() unexpected error = %v", err)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestDB_InsertReportRejectsInconsistentReport(t *testing.T) {
	db, mock := newMockDB(t)

	preparing := models.NewReport(time.Now())
	if err := db.InsertReport(context.Background(), preparing); !errors.Is(err, events.ErrPersistence) {
		t.Errorf("InsertReport(Preparing) error = %v, want ErrPersistence", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("database was touched: %v", err)
	}
}

func TestDB_GetReport(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	detailID := uuid.New()
	requested := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	t.Run("found with details", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT id, requested_at, status FROM reports WHERE id").
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(reportColumns).AddRow(id.String(), requested, 1))
		mock.ExpectQuery("FROM report_details").
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows(detailColumns).AddRow(detailID.String(), "Istanbul", 3, 3, id.String()))

		r, err := db.GetReport(ctx, id)
		if err != nil {
			t.Fatalf("GetReport() error = %v", err)
		}
		if r.ID != id || r.Status != models.StatusCompleted || !r.RequestedAt.Equal(requested) {
			t.Errorf("report = %+v", r)
		}
		if len(r.Details) != 1 || r.Details[0].TotalPhoneNumbers != 3 || r.Details[0].ID != detailID {
			t.Errorf("details = %+v", r.Details)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT id, requested_at, status FROM reports WHERE id").
			WithArgs(id).
			WillReturnError(sql.ErrNoRows)

		if _, err := db.GetReport(ctx, id); !errors.Is(err, ErrReportNotFound) {
			t.Errorf("GetReport() error = %v, want ErrReportNotFound", err)
		}
	})

	t.Run("query error", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT id, requested_at, status FROM reports WHERE id").
			WillReturnError(sql.ErrConnDone)

		_, err := db.GetReport(ctx, id)
		if err == nil || errors.Is(err, ErrReportNotFound) {
			t.Errorf("GetReport() error = %v, want a non-NotFound error", err)
		}
	})
}

func TestDB_ListReports(t *testing.T) {
	ctx := context.Background()
	newer, older := uuid.New(), uuid.New()
	t1 := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	t0 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	t.Run("page with details", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("FROM reports ORDER BY requested_at DESC, id LIMIT").
			WithArgs(2, 0).
			WillReturnRows(sqlmock.NewRows(reportColumns).
				AddRow(newer.String(), t1, 1).
				AddRow(older.String(), t0, 1))
		mock.ExpectQuery("FROM report_details").
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows(detailColumns).
				AddRow(uuid.NewString(), "Ankara", 0, 0, older.String()).
				AddRow(uuid.NewString(), "Istanbul", 3, 3, newer.String()))

		reports, err := db.ListReports(ctx, 2, 0)
		if err != nil {
			t.Fatalf("ListReports() error = %v", err)
		}
		if len(reports) != 2 || reports[0].ID != newer || reports[1].ID != older {
			t.Fatalf("reports out of order: %+v", reports)
		}
		if reports[0].Details[0].Location != "Istanbul" || reports[1].Details[0].Location != "Ankara" {
			t.Errorf("details attached to the wrong report")
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
	})

	t.Run("beyond last page", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("FROM reports ORDER BY requested_at DESC, id LIMIT").
			WithArgs(10, 100).
			WillReturnRows(sqlmock.NewRows(reportColumns))

		reports, err := db.ListReports(ctx, 10, 100)
		if err != nil {
			t.Fatalf("ListReports() error = %v", err)
		}
		if reports == nil || len(reports) != 0 {
			t.Errorf("reports = %v, want empty non-nil slice", reports)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
	})

	t.Run("invalid window", func(t *testing.T) {
		db, _ := newMockDB(t)
		if _, err := db.ListReports(ctx, 0, 0); err == nil {
			t.Error("ListReports(0, 0) error = nil, want error")
		}
	})
}

func TestDB_ListAllReports(t *testing.T) {
	db, mock := newMockDB(t)
	id := uuid.New()

	mock.ExpectQuery("FROM reports ORDER BY requested_at DESC, id$").
		WillReturnRows(sqlmock.NewRows(reportColumns).AddRow(id.String(), time.Now(), 1))
	mock.ExpectQuery("FROM report_details").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(detailColumns).AddRow(uuid.NewString(), "Izmir", 1, 2, id.String()))

	reports, err := db.ListAllReports(context.Background())
	if err != nil {
		t.Fatalf("ListAllReports() error = %v", err)
	}
	if len(reports) != 1 || len(reports[0].Details) != 1 {
		t.Errorf("reports = %+v", reports)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
