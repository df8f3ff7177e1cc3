package httputil

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// DefaultRetryDelay is the wait before the first retry.
const DefaultRetryDelay = 500 * time.Millisecond

// RetryableError marks a failure that another attempt may fix.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retry executes fn up to attempts times, doubling delay after each failed
// attempt. Only errors wrapped with [RetryableError] are retried. The error
// returned is the last one from fn with the RetryableError wrapper removed,
// or ctx.Err() if ctx ends while waiting.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryable(err) {
			return unwrapRetryable(err)
		}

		if i < attempts-1 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
				delay *= 2
			}
		}
	}
	return unwrapRetryable(lastErr)
}

// IsTransientStatus reports whether an HTTP status usually means "try again
// later": 429 and the gateway-style 502, 503 and 504.
func IsTransientStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func isRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

func unwrapRetryable(err error) error {
	if re, ok := err.(*RetryableError); ok {
		return re.Err
	}
	return err
}
