package cache

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for caching operations.
var (
	// ErrBackend is returned when the cache backend cannot be reached.
	ErrBackend = errors.New("cache backend unavailable")

	// ErrCacheMiss is returned by helpers that require a hit.
	ErrCacheMiss = errors.New("cache miss")
)

// RetryableError wraps an error to indicate it should trigger a retry.
type RetryableError struct{ Err error }

// Retryable wraps an error as a RetryableError.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// Error returns the error message of the wrapped error.
func (e *RetryableError) Error() string { return e.Err.Error() }

// Unwrap returns the wrapped error.
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable checks if an error is wrapped with RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Backoff configures [Retry].
type Backoff struct {
	Attempts int           // total calls of fn, at least 1
	Delay    time.Duration // wait before the second call, doubled afterwards
}

// DefaultBackoff is used by [RetryWithBackoff].
var DefaultBackoff = Backoff{Attempts: 3, Delay: time.Second}

// RetryWithBackoff retries fn with [DefaultBackoff].
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return Retry(ctx, DefaultBackoff, fn)
}

// Retry calls fn until it succeeds, returns an error not wrapped with
// [Retryable], or the attempts are used up. The last error is returned.
func Retry(ctx context.Context, b Backoff, fn func() error) error {
	attempts := max(b.Attempts, 1)
	delay := b.Delay
	var lastErr error

	for i := 0; i < attempts; i++ {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}
