// Package contacts is the report service's client for the contact service's
// location query, guarded by a timeout and a circuit breaker.
package contacts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ugurcanyksl/PhoneBookApp/pkg/metrics"
	"github.com/ugurcanyksl/PhoneBookApp/pkg/phonebook"
	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/events"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
)

const (
	// DefaultTimeout bounds a single location query.
	DefaultTimeout = 10 * time.Second
	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 8 << 20
	breakerName  = "contact-service"
)

// Client queries contacts by location.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[[]phonebook.Person]
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	timeout    time.Duration
	httpClient *http.Client
	settings   gobreaker.Settings
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client. A client without a Timeout gets
// the configured one on a copy; the caller's client is not modified.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

// WithBreakerTrip opens the breaker after n consecutive failures and keeps
// it open for openFor.
func WithBreakerTrip(n uint32, openFor time.Duration) Option {
	return func(o *clientOptions) {
		o.settings.ReadyToTrip = func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= n }
		if openFor > 0 {
			o.settings.Timeout = openFor
		}
	}
}

// NewClient builds a client for the contact service rooted at baseURL, for
// example http://contact-service:8081/api.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("contact service URL cannot be empty")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid contact service URL %q: %w", baseURL, err)
	}

	o := &clientOptions{
		timeout: DefaultTimeout,
		settings: gobreaker.Settings{
			Name:        breakerName,
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 5 },
		},
	}
	for _, opt := range opts {
		opt(o)
	}

	hc := o.httpClient
	switch {
	case hc == nil:
		hc = &http.Client{Timeout: o.timeout}
	case hc.Timeout == 0:
		cp := *hc
		cp.Timeout = o.timeout
		hc = &cp
	}

	settings := o.settings
	// A caller giving up is not evidence the contact service is unhealthy.
	settings.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, context.Canceled)
	}
	settings.OnStateChange = func(name string, from, to gobreaker.State) {
		slog.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
	}
	metrics.CircuitBreakerState.WithLabelValues(settings.Name).Set(0)

	slog.Info("Contact client configured",
		"base_url", baseURL,
		"timeout", hc.Timeout,
	)

	return &Client{
		baseURL:    baseURL,
		httpClient: hc,
		cb:         gobreaker.NewCircuitBreaker[[]phonebook.Person](settings),
	}, nil
}

// ContactsByLocation returns every contact having a Location info equal to
// location. Transport failures, non-2xx answers and an open breaker wrap
// events.ErrUpstreamFetch; an unparseable body wraps
// events.ErrDeserialization.
func (c *Client) ContactsByLocation(ctx context.Context, location string) ([]phonebook.Person, error) {
	people, err := c.cb.Execute(func() ([]phonebook.Person, error) {
		return c.fetch(ctx, location)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
			return nil, fmt.Errorf("%w: contact service: %v", events.ErrUpstreamFetch, err)
		}
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "failure").Inc()
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
	return people, nil
}

func (c *Client) fetch(ctx context.Context, location string) ([]phonebook.Person, error) {
	endpoint := c.baseURL + "/contacts?" + url.Values{"location": {location}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", events.ErrUpstreamFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: %w", events.ErrUpstreamFetch, context.Canceled)
		}
		slog.Error("Contact service request failed", "location", location, "error", err)
		return nil, fmt.Errorf("%w: GET %s: %v", events.ErrUpstreamFetch, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		slog.Error("Contact service returned error status",
			"status_code", resp.StatusCode,
			"location", location,
		)
		return nil, fmt.Errorf("%w: contact service returned status %d", events.ErrUpstreamFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", events.ErrUpstreamFetch, err)
	}

	var people []phonebook.Person
	if err := json.Unmarshal(body, &people); err != nil {
		return nil, fmt.Errorf("%w: contact list: %v", events.ErrDeserialization, err)
	}
	if people == nil {
		people = []phonebook.Person{}
	}

	slog.Debug("Fetched contacts by location", "location", location, "count", len(people))
	return people, nil
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
