package apperrors

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrUnavailable indicates that the upstream rate source is degraded
// (authentication failure, malformed request, timeout, server error or the
// upstream's own rate limit).
var ErrUnavailable = errors.New("upstream unavailable")

// ErrNoData signals that the upstream has no rows for the requested range
// (holiday, weekend). It is not a failure: callers are expected to fall back
// to the most recent known value before surfacing anything.
var ErrNoData = errors.New("no data for range")

// ErrRateLimited indicates that local admission control denied an upstream call.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimitError carries the admission state at the moment a call was denied.
type RateLimitError struct {
	Count        int64
	Limit        int64
	RequiredWait time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %d/%d calls in window, retry after %s",
		e.Count, e.Limit, e.RequiredWait)
}

// Unwrap makes errors.Is(err, ErrRateLimited) work on wrapped RateLimitErrors.
func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}
