package retry

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotIdempotent is returned by Execute for specs that must not be retried.
	// Callers use ExecuteOnce for side-effecting operations.
	ErrNotIdempotent = errors.New("request is not idempotent, use ExecuteOnce")

	// ErrCancelled is matched by errors returned after caller cancellation.
	ErrCancelled = errors.New("request cancelled")

	// ErrExhausted is matched by a FailedError whose retryable failures used every attempt.
	ErrExhausted = errors.New("retry attempts exhausted")

	// ErrConfiguration is matched by a FailedError produced before any attempt.
	ErrConfiguration = errors.New("request configuration error")
)

// FailedError is the terminal outcome of a call that did not succeed.
type FailedError struct {
	// Target is the RequestSpec target, for logs.
	Target string

	// Attempts is the number of transport invocations made. Zero for configuration errors.
	Attempts int

	// Classification of the last cause.
	Classification Classification

	// Exhausted is true when the last cause was retryable but no attempts remained.
	Exhausted bool

	// Err is the last cause.
	Err error
}

func (e *FailedError) Error() string {
	switch {
	case e.Attempts == 0:
		return fmt.Sprintf("%s: %v: %v", e.Target, ErrConfiguration, e.Err)
	case e.Exhausted:
		return fmt.Sprintf("%s: failed after %d attempts: %v", e.Target, e.Attempts, e.Err)
	default:
		return fmt.Sprintf("%s: failed on attempt %d (%s): %v",
			e.Target, e.Attempts, e.Classification, e.Err)
	}
}

func (e *FailedError) Unwrap() error {
	return e.Err
}

// Is lets callers match ErrExhausted and ErrConfiguration with errors.Is.
func (e *FailedError) Is(target error) bool {
	switch target {
	case ErrExhausted:
		return e.Exhausted
	case ErrConfiguration:
		return e.Attempts == 0
	}
	return false
}

// Transient reports whether the failure is worth retrying later as-is
// ("try again") rather than needing a fix first ("fix and retry").
func (e *FailedError) Transient() bool {
	return e.Attempts > 0 && e.Classification == Retryable
}

// TimeoutError is the failure value produced when an attempt exceeds its deadline.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("attempt timed out after %v", e.After)
}

// Timeout implements net.Error-style inspection.
func (e *TimeoutError) Timeout() bool {
	return true
}

func cancelled(cause error) error {
	return fmt.Errorf("%w: %w", ErrCancelled, cause)
}
