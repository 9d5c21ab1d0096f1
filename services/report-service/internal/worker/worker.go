// Package worker runs the report request consumer loop.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	kafkautil "github.com/ugurcanyksl/PhoneBookApp/pkg/kafka"
	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/consumer"
	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/events"
	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/retry"

	"github.com/segmentio/kafka-go"
)

var (
	// ErrAlreadyStarted is returned by Start and Serve unless the worker is Stopped.
	ErrAlreadyStarted = errors.New("worker already started")
	// ErrStopTimeout means the poll loop was still running when Stop gave up.
	ErrStopTimeout = errors.New("worker did not stop before deadline")
)

const (
	// DefaultProcessTimeout bounds one aggregation, retries included.
	DefaultProcessTimeout = 60 * time.Second
	// DefaultConsumeBackoff is the pause after a broker read failure.
	DefaultConsumeBackoff = time.Second
)

// State is the worker lifecycle position.
type State int32

const (
	Stopped State = iota
	Starting
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Subscription is the broker side of the loop. *consumer.Consumer
// implements it.
type Subscription interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(msg kafka.Message) error
	Close() error
}

// SubscriptionFactory opens a subscription each time the loop starts, so a
// supervised restart gets a fresh consumer group member.
type SubscriptionFactory func() (Subscription, error)

// Handler turns one decoded request into a persisted report.
type Handler interface {
	HandleRequest(ctx context.Context, logger *slog.Logger, req events.ReportRequest) error
}

// DeadLetterer parks messages the loop gave up on.
type DeadLetterer interface {
	DeadLetter(ctx context.Context, src kafka.Message, cause error) error
}

// MetricsRecorder is the slice of the metrics collector the loop uses.
type MetricsRecorder interface {
	RecordReceived()
	RecordFailure(kind string)
	RecordDeadLettered()
}

// NoOpMetrics is a null-object MetricsRecorder.
type NoOpMetrics struct{}

// RecordReceived does nothing.
func (NoOpMetrics) RecordReceived() {}

// RecordFailure does nothing.
func (NoOpMetrics) RecordFailure(string) {}

// RecordDeadLettered does nothing.
func (NoOpMetrics) RecordDeadLettered() {}

// Worker consumes report requests one at a time, hands each to the Handler,
// and commits its offset once the message has been dealt with.
type Worker struct {
	name           string
	subscribe      SubscriptionFactory
	handler        Handler
	dlq            DeadLetterer
	metrics        MetricsRecorder
	retry          retry.Config
	processTimeout time.Duration
	consumeBackoff time.Duration

	state atomic.Int32

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Worker.
type Option func(*Worker)

// WithName sets the name used in logs and by the supervisor.
func WithName(name string) Option {
	return func(w *Worker) { w.name = name }
}

// WithDeadLetter enables the dead-letter topic for failed messages.
func WithDeadLetter(d DeadLetterer) Option {
	return func(w *Worker) { w.dlq = d }
}

// WithMetrics records loop metrics. A nil recorder keeps the no-op.
func WithMetrics(m MetricsRecorder) Option {
	return func(w *Worker) {
		if m != nil {
			w.metrics = m
		}
	}
}

// WithRetry sets the in-process retry policy for transient failures.
func WithRetry(cfg retry.Config) Option {
	return func(w *Worker) { w.retry = cfg }
}

// WithProcessTimeout bounds one aggregation including its retries.
func WithProcessTimeout(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.processTimeout = d
		}
	}
}

// WithConsumeBackoff sets the pause after a broker read failure.
func WithConsumeBackoff(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.consumeBackoff = d
		}
	}
}

// New creates a Stopped worker.
func New(subscribe SubscriptionFactory, handler Handler, opts ...Option) (*Worker, error) {
	if subscribe == nil {
		return nil, fmt.Errorf("subscription factory cannot be nil")
	}
	if handler == nil {
		return nil, fmt.Errorf("handler cannot be nil")
	}

	w := &Worker{
		name:           "report-worker",
		subscribe:      subscribe,
		handler:        handler,
		metrics:        NoOpMetrics{},
		retry:          retry.DefaultConfig(),
		processTimeout: DefaultProcessTimeout,
		consumeBackoff: DefaultConsumeBackoff,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// String names the worker for the supervisor.
func (w *Worker) String() string { return w.name }

// State returns the current lifecycle state.
func (w *Worker) State() State { return State(w.state.Load()) }

// Start runs the poll loop on a goroutine of its own. Stop ends it.
//
// mu is held from the state transition until cancel and done are published,
// so a concurrent Stop never acts on the handles of a previous run.
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.state.CompareAndSwap(int32(Stopped), int32(Starting)) {
		return ErrAlreadyStarted
	}

	sub, err := w.subscribe()
	if err != nil {
		w.state.Store(int32(Stopped))
		return fmt.Errorf("open subscription: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	w.cancel = cancel
	w.done = done

	go func() {
		defer close(done)
		defer w.release(done)
		w.run(ctx, sub)
	}()
	return nil
}

// release forgets the handles of the run that owns done.
func (w *Worker) release(done chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done == done {
		w.cancel()
		w.cancel = nil
		w.done = nil
	}
}

// Stop cancels the loop started by Start and waits up to deadline for it to
// exit. An aggregation in flight runs to completion first. Stop on a worker
// that was never started returns nil.
func (w *Worker) Stop(deadline time.Duration) error {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	if cancel == nil {
		return nil
	}

	w.state.CompareAndSwap(int32(Running), int32(Stopping))
	w.state.CompareAndSwap(int32(Starting), int32(Stopping))
	cancel()

	timer := time.NewTimer(deadline)
	defer timer.Stop()
	select {
	case <-done:
		slog.Info("Worker stopped", "worker", w.name)
		return nil
	case <-timer.C:
		slog.Warn("Worker did not stop in time", "worker", w.name, "deadline", deadline)
		return ErrStopTimeout
	}
}

// Serve runs the poll loop in the caller's goroutine until ctx is done,
// which makes the worker a suture.Service.
func (w *Worker) Serve(ctx context.Context) error {
	if !w.state.CompareAndSwap(int32(Stopped), int32(Starting)) {
		return ErrAlreadyStarted
	}

	sub, err := w.subscribe()
	if err != nil {
		w.state.Store(int32(Stopped))
		return fmt.Errorf("open subscription: %w", err)
	}

	w.run(ctx, sub)
	return ctx.Err()
}

func (w *Worker) run(ctx context.Context, sub Subscription) {
	defer func() {
		if err := sub.Close(); err != nil {
			slog.Error("Failed to close subscription", "worker", w.name, "error", err)
		}
		w.state.Store(int32(Stopped))
	}()

	w.state.CompareAndSwap(int32(Starting), int32(Running))
	slog.Info("Worker started", "worker", w.name)

	for ctx.Err() == nil {
		msg, err := sub.Fetch(ctx)
		switch {
		case err == nil:
			w.handleMessage(ctx, sub, msg)
		case errors.Is(err, consumer.ErrNoMessage):
		case ctx.Err() != nil:
			return
		default:
			slog.Error("Failed to fetch report request", "worker", w.name, "error", err)
			w.metrics.RecordFailure(events.Kind(err))
			if !sleep(ctx, w.consumeBackoff) {
				return
			}
		}
	}
}

// handleMessage always commits msg: a message either becomes a report, is
// dead-lettered, or is dropped. None of them is redelivered in-process.
func (w *Worker) handleMessage(ctx context.Context, sub Subscription, msg kafka.Message) {
	w.metrics.RecordReceived()
	logger := slog.With(
		"topic", msg.Topic,
		"partition", msg.Partition,
		"offset", msg.Offset,
	)

	req, err := events.DecodeReportRequest(msg.Value)
	if err == nil {
		logger = logger.With("location", req.Location)
		err = w.process(ctx, logger, req)
	}
	if err != nil {
		w.fail(logger, msg, err)
	}

	if err := sub.Commit(msg); err != nil {
		logger.Error("Failed to commit offset", "error", err)
	}
}

// process runs the handler on a context detached from the loop's cancel, so
// Stop never interrupts an aggregation half way.
func (w *Worker) process(ctx context.Context, logger *slog.Logger, req events.ReportRequest) error {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.processTimeout)
	defer cancel()

	attempts, err := retry.Do(pctx, w.retry, "create_report", events.Transient, func(ctx context.Context) error {
		return w.handler.HandleRequest(ctx, logger, req)
	})
	if err != nil {
		return fmt.Errorf("after %d attempt(s): %w", attempts, err)
	}
	return nil
}

func (w *Worker) fail(logger *slog.Logger, msg kafka.Message, err error) {
	kind := events.Kind(err)
	w.metrics.RecordFailure(kind)

	// The report is committed; replaying the request would duplicate it.
	if errors.Is(err, events.ErrPublish) {
		logger.Warn("Report stored without completion event", "error", err)
		return
	}

	if w.dlq == nil {
		logger.Error("Dropping report request", "kind", kind, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), kafkautil.WriteTimeout)
	defer cancel()
	if dlqErr := w.dlq.DeadLetter(ctx, msg, err); dlqErr != nil {
		logger.Error("Failed to dead-letter report request, dropping it",
			"kind", kind,
			"error", err,
			"dlq_error", dlqErr,
		)
		return
	}
	w.metrics.RecordDeadLettered()
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
