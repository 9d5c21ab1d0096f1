package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ugurcanyksl/PhoneBookApp/pkg/phonebook"
	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/events"
	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/models"

	"github.com/google/uuid"
)

// ErrInvalidPagination rejects a page or page size below one.
var ErrInvalidPagination = errors.New("page and pageSize must be greater than zero")

// Aggregator builds reports from contact data and serves stored reports.
type Aggregator struct {
	contacts  ContactSource
	store     ReportStore
	publisher EventPublisher
	cache     ReportCache
	exporter  Exporter
	metrics   MetricsRecorder
	clock     *monotonicClock
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithMetrics records pipeline metrics. A nil recorder keeps the no-op.
func WithMetrics(m MetricsRecorder) Option {
	return func(a *Aggregator) {
		if m != nil {
			a.metrics = m
		}
	}
}

// WithCache enables the read-through cache.
func WithCache(c ReportCache) Option {
	return func(a *Aggregator) { a.cache = c }
}

// WithExporter renders each completed report to a file whose location is
// carried on the report created event.
func WithExporter(e Exporter) Option {
	return func(a *Aggregator) { a.exporter = e }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.clock = &monotonicClock{now: now}
		}
	}
}

// NewAggregator wires the required collaborators.
func NewAggregator(contacts ContactSource, store ReportStore, publisher EventPublisher, opts ...Option) (*Aggregator, error) {
	if contacts == nil {
		return nil, fmt.Errorf("contact source cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("report store cannot be nil")
	}
	if publisher == nil {
		return nil, fmt.Errorf("event publisher cannot be nil")
	}

	a := &Aggregator{
		contacts:  contacts,
		store:     store,
		publisher: publisher,
		metrics:   &NoOpMetrics{},
		clock:     &monotonicClock{now: time.Now},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Scope is the explicit per-message processing context. The worker opens a
// fresh one for every message; nothing in it outlives that message.
type Scope struct {
	agg    *Aggregator
	logger *slog.Logger
}

// NewScope opens a processing scope. logger should already carry the
// message coordinates.
func (a *Aggregator) NewScope(logger *slog.Logger) *Scope {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scope{agg: a, logger: logger}
}

// CreateReport runs one aggregation in a scope of its own.
func (a *Aggregator) CreateReport(ctx context.Context, req events.ReportRequest) (*models.ReportDto, error) {
	return a.NewScope(nil).CreateReport(ctx, req)
}

// HandleRequest is the worker entry point: one scope per consumed message.
func (a *Aggregator) HandleRequest(ctx context.Context, logger *slog.Logger, req events.ReportRequest) error {
	_, err := a.NewScope(logger).CreateReport(ctx, req)
	return err
}

// CreateReport fetches the contacts at req.Location, computes the totals,
// persists a Completed report in one transaction, and publishes a report
// created event.
//
// Nothing is written when the contact fetch fails. Once the report is
// committed it stays committed: a failed publish returns the projection
// together with an error wrapping events.ErrPublish.
func (s *Scope) CreateReport(ctx context.Context, req events.ReportRequest) (*models.ReportDto, error) {
	a := s.agg
	start := time.Now()

	report := models.NewReport(a.clock.Now())
	log := s.logger.With("report_id", report.ID, "location", req.Location)
	log.Debug("Preparing report")

	people, err := a.contacts.ContactsByLocation(ctx, req.Location)
	if err != nil {
		log.Error("Failed to fetch contacts for report", "error", err)
		return nil, fmt.Errorf("report for %q: %w", req.Location, err)
	}

	detail := models.ReportDetail{
		ID:                uuid.New(),
		Location:          req.Location,
		TotalContacts:     len(people),
		TotalPhoneNumbers: phonebook.CountPhoneNumbers(people),
	}
	if err := report.Complete(detail); err != nil {
		return nil, err
	}

	if err := a.store.InsertReport(ctx, report); err != nil {
		log.Error("Failed to persist report", "error", err)
		return nil, fmt.Errorf("report for %q: %w", req.Location, err)
	}
	a.metrics.RecordCompleted(time.Since(start))

	dto := report.ToDto()

	var filePath *string
	if a.exporter != nil {
		path, err := a.exporter.Export(ctx, dto)
		if err != nil {
			log.Warn("Report export failed, publishing without a file", "error", err)
			a.metrics.Increment("export_failures")
		} else {
			filePath = &path
		}
	}

	if a.cache != nil {
		if err := a.cache.Put(ctx, dto); err != nil {
			log.Warn("Failed to cache report", "error", err)
		}
	}

	evt := events.ReportCreatedEvent{
		ReportID:  report.ID,
		Status:    report.Status.String(),
		CreatedAt: a.clock.Now(),
		FilePath:  filePath,
	}
	if err := a.publisher.PublishCreated(ctx, evt); err != nil {
		a.metrics.RecordPublishFailure()
		log.Error("Report persisted but completion event was not published", "error", err)
		if !errors.Is(err, events.ErrPublish) {
			err = fmt.Errorf("%w: %w", events.ErrPublish, err)
		}
		return &dto, err
	}
	a.metrics.RecordPublished()

	log.Info("Report completed",
		"total_contacts", detail.TotalContacts,
		"total_phone_numbers", detail.TotalPhoneNumbers,
		"duration", time.Since(start),
	)
	return &dto, nil
}

// GetByID returns a report projection, served from the cache when possible.
// Unknown ids yield database.ErrReportNotFound from the store.
func (a *Aggregator) GetByID(ctx context.Context, id uuid.UUID) (*models.ReportDto, error) {
	if a.cache != nil {
		dto, err := a.cache.Get(ctx, id)
		if err == nil {
			a.metrics.Increment("cache_hits")
			return dto, nil
		}
		a.metrics.Increment("cache_misses")
	}

	report, err := a.store.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := report.ToDto()

	if a.cache != nil {
		if err := a.cache.Put(ctx, dto); err != nil {
			slog.Warn("Failed to cache report", "report_id", id, "error", err)
		}
	}
	return &dto, nil
}

// GetAllPaged returns page (1-based) of reports, newest first. A page past
// the end is empty rather than an error.
func (a *Aggregator) GetAllPaged(ctx context.Context, page, pageSize int) ([]models.ReportDto, error) {
	if page <= 0 || pageSize <= 0 {
		return nil, ErrInvalidPagination
	}

	const maxInt = int(^uint(0) >> 1)
	if page-1 > maxInt/pageSize {
		return []models.ReportDto{}, nil
	}

	reports, err := a.store.ListReports(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	return toDtos(reports), nil
}

// GetAll returns every report, newest first.
func (a *Aggregator) GetAll(ctx context.Context) ([]models.ReportDto, error) {
	reports, err := a.store.ListAllReports(ctx)
	if err != nil {
		return nil, err
	}
	return toDtos(reports), nil
}

func toDtos(reports []*models.Report) []models.ReportDto {
	out := make([]models.ReportDto, 0, len(reports))
	for _, r := range reports {
		out = append(out, r.ToDto())
	}
	return out
}

// monotonicClock never returns a time earlier than one it already handed
// out, so reports created one after another have non-decreasing
// requestedAt even if the wall clock steps back.
type monotonicClock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

func (c *monotonicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	// The report store keeps microseconds; truncating here keeps cached,
	// stored and published timestamps identical.
	t := c.now().UTC().Truncate(time.Microsecond)
	if t.Before(c.last) {
		t = c.last
	}
	c.last = t
	return t
}
