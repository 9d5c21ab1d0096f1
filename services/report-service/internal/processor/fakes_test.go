package processor

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ugurcanyksl/PhoneBookApp/pkg/phonebook"
	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/database"
	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/events"
	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/models"

	"github.com/google/uuid"
)

// FakeContacts serves a fixed directory keyed by location.
type FakeContacts struct {
	ByLocation map[string][]phonebook.Person
	Err        error
	Calls      int
}

func (f *FakeContacts) ContactsByLocation(ctx context.Context, location string) ([]phonebook.Person, error) {
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	return f.ByLocation[location], nil
}

// FakeStore is an in-memory ReportStore.
type FakeStore struct {
	mu        sync.Mutex
	Reports   map[uuid.UUID]*models.Report
	InsertErr error
	Inserts   int
	Gets      int
	// Precision truncates stored timestamps the way the database column does.
	Precision time.Duration
}

func NewFakeStore() *FakeStore {
	return &FakeStore{Reports: map[uuid.UUID]*models.Report{}}
}

func (f *FakeStore) InsertReport(ctx context.Context, r *models.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Inserts++
	if f.InsertErr != nil {
		return f.InsertErr
	}
	if !r.Consistent() {
		return errors.New("inconsistent report")
	}
	cp := *r
	cp.Details = append([]models.ReportDetail(nil), r.Details...)
	if f.Precision > 0 {
		cp.RequestedAt = cp.RequestedAt.Truncate(f.Precision)
	}
	f.Reports[r.ID] = &cp
	return nil
}

func (f *FakeStore) GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Gets++
	r, ok := f.Reports[id]
	if !ok {
		return nil, database.ErrReportNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *FakeStore) sorted() []*models.Report {
	out := make([]*models.Report, 0, len(f.Reports))
	for _, r := range f.Reports {
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RequestedAt.Equal(out[j].RequestedAt) {
			return out[i].RequestedAt.After(out[j].RequestedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (f *FakeStore) ListReports(ctx context.Context, limit, offset int) ([]*models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.sorted()
	if offset >= len(all) {
		return []*models.Report{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (f *FakeStore) ListAllReports(ctx context.Context) ([]*models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(), nil
}

// FakePublisher records published events.
type FakePublisher struct {
	Published  []events.ReportCreatedEvent
	PublishErr error
}

func (f *FakePublisher) PublishCreated(ctx context.Context, evt events.ReportCreatedEvent) error {
	if f.PublishErr != nil {
		return f.PublishErr
	}
	f.Published = append(f.Published, evt)
	return nil
}

// FakeCache is an in-memory ReportCache.
type FakeCache struct {
	Entries map[uuid.UUID]models.ReportDto
	PutErr  error
}

func NewFakeCache() *FakeCache {
	return &FakeCache{Entries: map[uuid.UUID]models.ReportDto{}}
}

func (f *FakeCache) Get(ctx context.Context, id uuid.UUID) (*models.ReportDto, error) {
	dto, ok := f.Entries[id]
	if !ok {
		return nil, errors.New("miss")
	}
	return &dto, nil
}

func (f *FakeCache) Put(ctx context.Context, dto models.ReportDto) error {
	if f.PutErr != nil {
		return f.PutErr
	}
	f.Entries[dto.ID] = dto
	return nil
}

// FakeExporter returns a fixed path or error.
type FakeExporter struct {
	Path string
	Err  error
}

func (f *FakeExporter) Export(ctx context.Context, dto models.ReportDto) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	return f.Path, nil
}

// FakeMetrics counts recorder calls.
type FakeMetrics struct {
	Completed       int
	Published       int
	PublishFailures int
	Custom          map[string]int
}

func (f *FakeMetrics) RecordCompleted(time.Duration) { f.Completed++ }
func (f *FakeMetrics) RecordPublished()              { f.Published++ }
func (f *FakeMetrics) RecordPublishFailure()         { f.PublishFailures++ }
func (f *FakeMetrics) Increment(name string) {
	if f.Custom == nil {
		f.Custom = map[string]int{}
	}
	f.Custom[name]++
}

func info(t phonebook.InfoType, content string) phonebook.ContactInfo {
	return phonebook.ContactInfo{ID: uuid.New(), InfoType: t, InfoContent: content}
}

// istanbulDirectory is three contacts: two phones and an email, one phone,
// and nothing.
func istanbulDirectory() map[string][]phonebook.Person {
	return map[string][]phonebook.Person{
		"Istanbul": {
			{ID: uuid.New(), FirstName: "Ayse", LastName: "Yilmaz", ContactInfos: []phonebook.ContactInfo{
				info(phonebook.PhoneNumber, "+90 555 000 0001"),
				info(phonebook.PhoneNumber, "+90 555 000 0002"),
				info(phonebook.Email, "ayse@example.com"),
			}},
			{ID: uuid.New(), FirstName: "Mehmet", LastName: "Kaya", ContactInfos: []phonebook.ContactInfo{
				info(phonebook.PhoneNumber, "+90 555 000 0003"),
			}},
			{ID: uuid.New(), FirstName: "Zeynep", LastName: "Demir"},
		},
		"Ankara": {},
	}
}
