// Package retry runs an operation with bounded, backoff-spaced attempts.
// Submission uses it so a flaky clinic connection gets a second chance while
// validation and auth failures fail fast.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy controls how an operation is retried.
type Policy struct {
	// MaxAttempts caps total attempts, first try included. Values below 1
	// are treated as 1.
	MaxAttempts int
	// Backoff returns the pause before attempt n (1-based, so the delay
	// after the first failure is Backoff(1)). Nil means no pause.
	Backoff func(attempt int) time.Duration
	// Retryable decides whether an error deserves another attempt. Nil
	// retries everything.
	Retryable func(err error) bool
}

// Attempts returns the effective attempt cap.
func (p Policy) Attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// ExponentialBackoff doubles the base delay on each attempt, capped at max.
func ExponentialBackoff(base, max time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		d := base
		for i := 1; i < attempt; i++ {
			d *= 2
			if d >= max {
				return max
			}
		}
		if d > max {
			return max
		}
		return d
	}
}

// Do runs fn under the policy. It returns nil on the first success, the last
// error once attempts are exhausted or the error is not retryable, and the
// context error if the context ends while waiting between attempts.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	attempts := p.Attempts()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		if p.Backoff != nil {
			if d := p.Backoff(attempt); d > 0 {
				timer := time.NewTimer(d)
				select {
				case <-ctx.Done():
					timer.Stop()
					return ctx.Err()
				case <-timer.C:
				}
			}
		}
	}
	return fmt.Errorf("retry: %d attempts: %w", attempts, lastErr)
}
