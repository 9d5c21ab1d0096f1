// Package cache keeps completed report projections in Redis. Completed
// reports never change, so entries need no invalidation beyond their TTL.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/models"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "report:"
	// DefaultTTL is used when no TTL is configured.
	DefaultTTL = 10 * time.Minute
)

// ErrMiss means the report is not cached.
var ErrMiss = errors.New("cache miss")

// kv is the subset of redis.Cmdable the cache uses.
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// ReportCache is a Redis-backed cache of ReportDto values.
type ReportCache struct {
	client kv
	ttl    time.Duration
}

// New creates a cache over client. A non-positive ttl uses DefaultTTL.
func New(client *redis.Client, ttl time.Duration) *ReportCache {
	return newCache(client, ttl)
}

func newCache(client kv, ttl time.Duration) *ReportCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ReportCache{client: client, ttl: ttl}
}

func key(id uuid.UUID) string {
	return keyPrefix + id.String()
}

// Get returns the cached projection or ErrMiss.
func (c *ReportCache) Get(ctx context.Context, id uuid.UUID) (*models.ReportDto, error) {
	data, err := c.client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache get %s: %w", id, err)
	}

	var dto models.ReportDto
	if err := json.Unmarshal(data, &dto); err != nil {
		slog.Warn("Discarding unreadable cache entry", "report_id", id, "error", err)
		return nil, ErrMiss
	}
	return &dto, nil
}

// Put stores dto when it is Completed. Other statuses are skipped since
// they may still change.
func (c *ReportCache) Put(ctx context.Context, dto models.ReportDto) error {
	if dto.Status != models.StatusCompleted {
		return nil
	}

	data, err := json.Marshal(dto)
	if err != nil {
		return fmt.Errorf("cache marshal %s: %w", dto.ID, err)
	}
	if err := c.client.Set(ctx, key(dto.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", dto.ID, err)
	}
	return nil
}
