package retry

import (
	"context"
	"errors"
	"time"

	"github.com/spetersoncode/probe"
)

// retryAfterFromError extracts the RetryAfter duration from a CategorizedError.
// Returns 0 if the error doesn't implement CategorizedError or has no RetryAfter.
func retryAfterFromError(err error) time.Duration {
	var ce probe.CategorizedError
	if errors.As(err, &ce) {
		return ce.RetryAfter()
	}
	return 0
}

// effectiveDelay returns the delay to use, honoring server's Retry-After if larger.
func effectiveDelay(configuredDelay time.Duration, err error) time.Duration {
	serverDelay := retryAfterFromError(err)
	if serverDelay > configuredDelay {
		return serverDelay
	}
	return configuredDelay
}

// Do executes the given function with retry logic.
// It respects context cancellation during backoff waits.
// Returns the result on success, or the last error if all attempts fail.
func Do[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	result, _, err := DoCount(ctx, cfg, fn)
	return result, err
}

// DoCount is like Do but also reports the number of attempts made, so
// callers can record retry counts (attempts - 1) in their traces.
//
// Transient errors (per IsTransient) are retried with exponential backoff up
// to cfg.MaxAttempts total attempts; on exhaustion the last error is surfaced
// unmodified. Non-transient errors surface immediately without retry.
func DoCount[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, int, error) {
	var zero T
	var lastErr error

	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, attempt + 1, nil
		}

		lastErr = err

		// Check if error is retryable
		if !IsTransient(err) {
			return zero, attempt + 1, err
		}

		// Don't sleep after the last attempt
		if attempt < maxAttempts-1 {
			delay := effectiveDelay(cfg.Delay(attempt), err)

			// Respect context cancellation during sleep
			select {
			case <-ctx.Done():
				return zero, attempt + 1, ctx.Err()
			case <-time.After(delay):
				// Continue to next attempt
			}
		}
	}

	return zero, maxAttempts, lastErr
}
