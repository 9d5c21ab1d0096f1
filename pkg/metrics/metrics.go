// Package metrics collects per-service pipeline counters. Snapshots are
// periodically written to Redis so any process can inspect the health of the
// report pipeline, and the same events are mirrored into Prometheus.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const (
	// KeyPrefix is the Redis key prefix for service snapshots.
	KeyPrefix = "metrics:"
	// SnapshotTTL is how long a snapshot stays in Redis if not refreshed.
	SnapshotTTL = 2 * time.Minute
	// DefaultFlushInterval is how often snapshots are written to Redis.
	DefaultFlushInterval = 30 * time.Second
)

// ReportService is the service name the report pipeline records under.
const ReportService = "report-service"

// ErrNoSnapshot is returned by Reader.Get when no collector has written a
// snapshot for the service, or it expired.
var ErrNoSnapshot = errors.New("no metrics found")

// Snapshot is the point-in-time view of a service's counters.
type Snapshot struct {
	Service     string    `json:"service"`
	StartedAt   time.Time `json:"started_at"`
	LastUpdated time.Time `json:"last_updated"`
	Status      string    `json:"status"` // "healthy" or "stale"

	RequestsReceived uint64 `json:"requests_received"`
	ReportsCompleted uint64 `json:"reports_completed"`
	EventsPublished  uint64 `json:"events_published"`
	Failures         uint64 `json:"failures"`
	DeadLettered     uint64 `json:"dead_lettered"`

	ReportsPerSecond   float64 `json:"reports_per_second"`
	AvgAggregationTime float64 `json:"avg_aggregation_ms"`

	Custom map[string]uint64 `json:"custom,omitempty"`
}

// Collector accumulates counters and flushes them to Redis.
type Collector struct {
	service  string
	redis    *redis.Client
	started  time.Time
	interval time.Duration

	received     atomic.Uint64
	completed    atomic.Uint64
	published    atomic.Uint64
	failures     atomic.Uint64
	deadLettered atomic.Uint64

	totalLatencyNs atomic.Uint64
	latencyCount   atomic.Uint64

	// guarded by flushMu; only the flush loop advances them
	flushMu       sync.Mutex
	lastFlush     time.Time
	lastCompleted uint64

	customMu sync.RWMutex
	custom   map[string]*atomic.Uint64

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewCollector creates a collector. A nil Redis client keeps counters in
// memory only.
func NewCollector(service string, redisClient *redis.Client) *Collector {
	now := time.Now().UTC()
	return &Collector{
		service:   service,
		redis:     redisClient,
		started:   now,
		interval:  DefaultFlushInterval,
		lastFlush: now,
		custom:    make(map[string]*atomic.Uint64),
		stopCh:    make(chan struct{}),
	}
}

// SetFlushInterval overrides the flush interval. Call before Start.
func (c *Collector) SetFlushInterval(interval time.Duration) {
	if interval > 0 {
		c.interval = interval
	}
}

// Start begins periodic flushing until ctx is done or Stop is called.
func (c *Collector) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				c.flush(context.Background())
				return
			case <-c.stopCh:
				c.flush(context.Background())
				return
			case <-ticker.C:
				c.flush(ctx)
			}
		}
	}()
}

// Stop halts flushing after a final write. Safe to call more than once.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.wg.Wait()
}

// RecordReceived counts a consumed report request.
func (c *Collector) RecordReceived() {
	c.received.Add(1)
	RequestsConsumed.Inc()
}

// RecordCompleted counts a persisted report and its aggregation latency.
func (c *Collector) RecordCompleted(latency time.Duration) {
	c.completed.Add(1)
	c.totalLatencyNs.Add(uint64(latency.Nanoseconds()))
	c.latencyCount.Add(1)
	ReportsCompleted.Inc()
	AggregationDuration.Observe(latency.Seconds())
}

// RecordPublished counts a delivered completion event.
func (c *Collector) RecordPublished() {
	c.published.Add(1)
	EventsPublished.WithLabelValues("ok").Inc()
}

// RecordPublishFailure counts a completion event the broker rejected.
func (c *Collector) RecordPublishFailure() {
	EventsPublished.WithLabelValues("failed").Inc()
	c.Increment("publish_failures")
}

// RecordFailure counts a request that could not be turned into a report.
func (c *Collector) RecordFailure(kind string) {
	c.failures.Add(1)
	PipelineFailures.WithLabelValues(kind).Inc()
}

// RecordDeadLettered counts a request routed to the dead-letter topic.
func (c *Collector) RecordDeadLettered() {
	c.deadLettered.Add(1)
	DeadLettered.Inc()
}

// Increment bumps a named custom counter.
func (c *Collector) Increment(name string) {
	c.counter(name).Add(1)
}

func (c *Collector) counter(name string) *atomic.Uint64 {
	c.customMu.RLock()
	ctr, ok := c.custom[name]
	c.customMu.RUnlock()
	if ok {
		return ctr
	}

	c.customMu.Lock()
	defer c.customMu.Unlock()
	if ctr, ok = c.custom[name]; !ok {
		ctr = &atomic.Uint64{}
		c.custom[name] = ctr
	}
	return ctr
}

// Snapshot returns the current counters without writing them anywhere.
func (c *Collector) Snapshot() *Snapshot {
	now := time.Now().UTC()
	completed := c.completed.Load()

	c.flushMu.Lock()
	elapsed := now.Sub(c.lastFlush).Seconds()
	sinceLast := completed - c.lastCompleted
	c.flushMu.Unlock()

	var rate float64
	if elapsed > 0 {
		rate = float64(sinceLast) / elapsed
	}

	var avgMs float64
	if n := c.latencyCount.Load(); n > 0 {
		avgMs = float64(c.totalLatencyNs.Load()) / float64(n) / float64(time.Millisecond)
	}

	c.customMu.RLock()
	custom := make(map[string]uint64, len(c.custom))
	for name, ctr := range c.custom {
		custom[name] = ctr.Load()
	}
	c.customMu.RUnlock()

	return &Snapshot{
		Service:            c.service,
		StartedAt:          c.started,
		LastUpdated:        now,
		Status:             "healthy",
		RequestsReceived:   c.received.Load(),
		ReportsCompleted:   completed,
		EventsPublished:    c.published.Load(),
		Failures:           c.failures.Load(),
		DeadLettered:       c.deadLettered.Load(),
		ReportsPerSecond:   rate,
		AvgAggregationTime: avgMs,
		Custom:             custom,
	}
}

func (c *Collector) flush(ctx context.Context) {
	if c.redis == nil {
		return
	}

	snap := c.Snapshot()

	c.flushMu.Lock()
	c.lastFlush = snap.LastUpdated
	c.lastCompleted = snap.ReportsCompleted
	c.flushMu.Unlock()

	data, err := json.Marshal(snap)
	if err != nil {
		slog.Error("Failed to marshal metrics snapshot", "service", c.service, "error", err)
		return
	}

	key := KeyPrefix + c.service
	if err := c.redis.Set(ctx, key, data, SnapshotTTL).Err(); err != nil {
		slog.Error("Failed to write metrics snapshot", "service", c.service, "error", err)
		return
	}
	slog.Debug("Metrics snapshot written", "service", c.service, "key", key)
}

// Reader loads snapshots written by collectors.
type Reader struct {
	redis *redis.Client
}

// NewReader creates a snapshot reader.
func NewReader(redisClient *redis.Client) *Reader {
	return &Reader{redis: redisClient}
}

// Get returns the latest snapshot for service, marking it stale when the
// writer has stopped refreshing it.
func (r *Reader) Get(ctx context.Context, service string) (*Snapshot, error) {
	data, err := r.redis.Get(ctx, KeyPrefix+service).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w for service: %s", ErrNoSnapshot, service)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read metrics: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metrics: %w", err)
	}
	if time.Since(snap.LastUpdated) > SnapshotTTL {
		snap.Status = "stale"
	}
	return &snap, nil
}
