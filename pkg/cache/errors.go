package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnsupportedBackend is returned by Open for a URL scheme other than
	// none, file, redis or mongodb.
	ErrUnsupportedBackend = errors.New("unsupported cache backend")

	// ErrUnavailable means a Redis or MongoDB server did not answer its ping.
	ErrUnavailable = errors.New("cache backend unavailable")
)

// Ping schedule for remote backends at Open.
const (
	pingAttempts = 3
	pingDelay    = time.Second
)

// RetryableError marks a failure worth another ping, such as a refused
// connection while a Redis container is still starting.
type RetryableError struct{ Err error }

// Retryable marks err for RetryWithBackoff. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err carries a Retryable mark.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// RetryWithBackoff calls fn until it succeeds, returns an unmarked error, or
// has run pingAttempts times. The delay doubles after each failure and is
// cut short by ctx.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	delay := pingDelay
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil || !IsRetryable(err) || attempt == pingAttempts {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
}
