package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"wabridge/internal/errors"
)

// BackoffConfig contains configuration for exponential backoff
type BackoffConfig struct {
	InitialDelay time.Duration `json:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay"`
	Multiplier   float64       `json:"multiplier"`
	MaxAttempts  int           `json:"max_attempts"`
	Jitter       bool          `json:"jitter"`
}

// DefaultBackoffConfig returns a sensible default configuration
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		MaxAttempts:  4,
		Jitter:       true,
	}
}

// Backoff implements exponential backoff with optional jitter
type Backoff struct {
	config BackoffConfig
}

// NewBackoff creates a new exponential backoff instance
func NewBackoff(config BackoffConfig) *Backoff {
	return &Backoff{config: config}
}

// Retry executes fn with exponential backoff between attempts. It stops
// early when fn returns an error that is not retryable, or when the
// context is cancelled.
func (b *Backoff) Retry(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt < b.config.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(b.delay(attempt)):
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !errors.IsRetryable(lastErr) {
			return lastErr
		}
	}

	return lastErr
}

// delay returns the wait duration before the given attempt (1-based).
func (b *Backoff) delay(attempt int) time.Duration {
	d := float64(b.config.InitialDelay) * math.Pow(b.config.Multiplier, float64(attempt-1))
	if d > float64(b.config.MaxDelay) {
		d = float64(b.config.MaxDelay)
	}
	if b.config.Jitter {
		// Full jitter keeps concurrent retries from synchronizing.
		d = rand.Float64() * d
	}
	return time.Duration(d)
}
