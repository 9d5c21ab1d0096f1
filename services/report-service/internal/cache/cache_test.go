package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type fakeKV struct {
	data   map[string]string
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeKV) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	f.data[key] = string(value.([]byte))
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func completedDto() models.ReportDto {
	r := models.NewReport(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	_ = r.Complete(models.ReportDetail{ID: uuid.New(), Location: "Istanbul", TotalContacts: 3, TotalPhoneNumbers: 3})
	return r.ToDto()
}

func TestPutThenGet(t *testing.T) {
	store := newFakeKV()
	c := newCache(store, time.Minute)
	ctx := context.Background()
	dto := completedDto()

	if err := c.Put(ctx, dto); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if store.ttls["report:"+dto.ID.String()] != time.Minute {
		t.Errorf("ttl = %v, want 1m", store.ttls["report:"+dto.ID.String()])
	}

	got, err := c.Get(ctx, dto.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != dto.ID || got.Status != models.StatusCompleted || !got.RequestedAt.Equal(dto.RequestedAt) {
		t.Errorf("Get() = %+v, want %+v", got, dto)
	}
	if len(got.Details) != 1 || got.Details[0].TotalPhoneNumbers != 3 {
		t.Errorf("Get() details = %+v", got.Details)
	}
}

func TestPutSkipsPreparing(t *testing.T) {
	store := newFakeKV()
	c := newCache(store, 0)

	dto := models.NewReport(time.Now()).ToDto()
	if err := c.Put(context.Background(), dto); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if len(store.data) != 0 {
		t.Error("Preparing report was cached")
	}
	if c.ttl != DefaultTTL {
		t.Errorf("ttl = %v, want DefaultTTL", c.ttl)
	}
}

func TestGetMissAndErrors(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	c := newCache(newFakeKV(), time.Minute)
	if _, err := c.Get(ctx, id); !errors.Is(err, ErrMiss) {
		t.Errorf("Get() on empty cache error = %v, want ErrMiss", err)
	}

	corrupt := newFakeKV()
	corrupt.data["report:"+id.String()] = "{not json"
	if _, err := newCache(corrupt, time.Minute).Get(ctx, id); !errors.Is(err, ErrMiss) {
		t.Errorf("Get() on corrupt entry error = %v, want ErrMiss", err)
	}

	down := newFakeKV()
	down.getErr = errors.New("connection refused")
	_, err := newCache(down, time.Minute).Get(ctx, id)
	if err == nil || errors.Is(err, ErrMiss) {
		t.Errorf("Get() with Redis down error = %v, want transport error", err)
	}
}
