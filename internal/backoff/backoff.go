// Package backoff provides the retry policy used by transport adapters for
// broker dials and other transient failures.
package backoff

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Policy decides whether and when an operation should be retried.
type Policy interface {
	// ShouldRetry determines if a retry should be attempted after attempt
	// failures, and how long to wait before it.
	ShouldRetry(attempt int, err error) (bool, time.Duration)
}

// Exponential implements exponential backoff with optional jitter.
type Exponential struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	MaxAttempts     int
	Jitter          bool
}

// NewExponential creates an exponential backoff policy with jitter enabled.
func NewExponential(initial, max time.Duration, multiplier float64, maxAttempts int) *Exponential {
	return &Exponential{
		InitialInterval: initial,
		MaxInterval:     max,
		Multiplier:      multiplier,
		MaxAttempts:     maxAttempts,
		Jitter:          true,
	}
}

// ShouldRetry implements Policy.
func (e *Exponential) ShouldRetry(attempt int, err error) (bool, time.Duration) {
	if err == nil || attempt >= e.MaxAttempts {
		return false, 0
	}
	return true, e.nextDelay(attempt)
}

func (e *Exponential) nextDelay(attempt int) time.Duration {
	delay := float64(e.InitialInterval) * math.Pow(e.Multiplier, float64(attempt))

	if delay > float64(e.MaxInterval) {
		delay = float64(e.MaxInterval)
	}

	if e.Jitter {
		jitter := rand.Float64() * 0.3 * delay // ±15% jitter
		delay = delay + jitter - (0.15 * delay)
	}

	return time.Duration(delay)
}

// Retry runs fn until it succeeds, the policy gives up, or ctx is done.
func Retry(ctx context.Context, policy Policy, fn func() error) error {
	var lastErr error

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		retry, delay := policy.ShouldRetry(attempt, lastErr)
		if !retry {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}
