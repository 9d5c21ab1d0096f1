package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/consumer"
	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/events"

	"github.com/segmentio/kafka-go"
)

// FakeSubscription hands out queued messages and fetch errors, and reports
// an empty poll otherwise.
type FakeSubscription struct {
	msgs chan kafka.Message
	errs chan error
	next int64

	mu        sync.Mutex
	committed []kafka.Message
	closed    int
}

func NewFakeSubscription() *FakeSubscription {
	return &FakeSubscription{
		msgs: make(chan kafka.Message, 16),
		errs: make(chan error, 4),
	}
}

func (f *FakeSubscription) Push(value string) {
	f.msgs <- kafka.Message{Topic: "report-request-topic", Offset: f.next, Value: []byte(value)}
	f.next++
}

func (f *FakeSubscription) Fetch(ctx context.Context) (kafka.Message, error) {
	select {
	case msg := <-f.msgs:
		return msg, nil
	case err := <-f.errs:
		return kafka.Message{}, err
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	case <-time.After(5 * time.Millisecond):
		return kafka.Message{}, consumer.ErrNoMessage
	}
}

func (f *FakeSubscription) Commit(msg kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.committed = append(f.committed, msg)
	return nil
}

func (f *FakeSubscription) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *FakeSubscription) Committed() []kafka.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]kafka.Message(nil), f.committed...)
}

func (f *FakeSubscription) Closed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *FakeSubscription) Factory() SubscriptionFactory {
	return func() (Subscription, error) { return f, nil }
}

// FakeHandler records requests and returns errors from a script.
type FakeHandler struct {
	mu       sync.Mutex
	requests []events.ReportRequest
	errs     []error
	block    chan struct{}
}

func (f *FakeHandler) HandleRequest(ctx context.Context, _ *slog.Logger, req events.ReportRequest) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func (f *FakeHandler) Requests() []events.ReportRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]events.ReportRequest(nil), f.requests...)
}

// FakeDLQ records dead-lettered messages.
type FakeDLQ struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	causes []error
	Err    error
}

func (f *FakeDLQ) DeadLetter(ctx context.Context, src kafka.Message, cause error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.msgs = append(f.msgs, src)
	f.causes = append(f.causes, cause)
	return nil
}

func (f *FakeDLQ) Causes() []error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]error(nil), f.causes...)
}

// FakeMetrics counts recorder calls.
type FakeMetrics struct {
	mu           sync.Mutex
	Received     int
	Failures     map[string]int
	DeadLettered int
}

func (f *FakeMetrics) RecordReceived() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Received++
}

func (f *FakeMetrics) RecordFailure(kind string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Failures == nil {
		f.Failures = map[string]int{}
	}
	f.Failures[kind]++
}

func (f *FakeMetrics) RecordDeadLettered() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DeadLettered++
}

func (f *FakeMetrics) failures(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Failures[kind]
}

var errBrokerDown = errors.New("broker down")

// waitFor polls cond until it holds or a second passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
