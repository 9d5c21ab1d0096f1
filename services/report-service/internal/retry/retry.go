// Package retry re-runs an operation with exponential backoff while its
// failures are classified as transient.
package retry

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"
)

// Config defines retry behaviour.
type Config struct {
	MaxRetries     int           // retries after the first attempt; 0 disables retrying
	InitialBackoff time.Duration // wait before the first retry
	MaxBackoff     time.Duration // cap on any single wait
	BackoffFactor  float64       // growth per attempt
}

// DefaultConfig returns the policy used for report aggregation.
func DefaultConfig() Config {
	return Config{
		MaxRetries:     2,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		BackoffFactor:  2.0,
	}
}

// Do calls fn until it succeeds, returns an error retryable rejects, the
// retry budget is spent, or ctx ends. It returns the last error seen and the
// number of attempts made.
func Do(ctx context.Context, cfg Config, operation string, retryable func(error) bool, fn func(ctx context.Context) error) (int, error) {
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				slog.Info("Operation succeeded after retry",
					"operation", operation,
					"attempt", attempt+1,
				)
			}
			return attempt + 1, nil
		}
		lastErr = err

		if retryable == nil || !retryable(err) {
			return attempt + 1, err
		}
		if attempt >= cfg.MaxRetries {
			slog.Warn("Max retries exceeded",
				"operation", operation,
				"attempts", attempt+1,
				"error", err,
			)
			return attempt + 1, err
		}

		backoff := Backoff(cfg, attempt)
		slog.Warn("Operation failed, retrying",
			"operation", operation,
			"attempt", attempt+1,
			"max_attempts", cfg.MaxRetries+1,
			"backoff", backoff,
			"error", err,
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt + 1, lastErr
		case <-timer.C:
		}
	}

	return cfg.MaxRetries + 1, lastErr
}

// Backoff returns the wait before retry number attempt+1, with ±25% jitter.
func Backoff(cfg Config, attempt int) time.Duration {
	factor := cfg.BackoffFactor
	if factor < 1 {
		factor = 1
	}
	backoff := float64(cfg.InitialBackoff) * math.Pow(factor, float64(attempt))
	if cfg.MaxBackoff > 0 && backoff > float64(cfg.MaxBackoff) {
		backoff = float64(cfg.MaxBackoff)
	}

	jitter := backoff * 0.25 * (rand.Float64()*2 - 1)
	return time.Duration(backoff + jitter)
}
