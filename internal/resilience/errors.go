// Package resilience provides fault tolerance for outbound calls: retry
// with exponential backoff and jitter, a circuit breaker, and a bulkhead.
package resilience

import (
	"errors"

	"github.com/LongNgn204/studykit/internal/faults"
)

var (
	// ErrCircuitOpen is returned without invoking the wrapped operation
	// while the breaker is open.
	ErrCircuitOpen = errors.New("resilience: circuit breaker open")

	// ErrBulkheadFull is returned when the bulkhead queue is at capacity.
	ErrBulkheadFull = errors.New("resilience: bulkhead at capacity")

	// ErrBulkheadTimeout is returned when a queued call times out waiting
	// for a slot.
	ErrBulkheadTimeout = errors.New("resilience: bulkhead acquire timeout")
)

// IsCircuitOpen reports whether the error is a circuit-open rejection.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}

// defaultShouldRetry is the predicate used when a policy does not supply its
// own. Breaker and bulkhead rejections are never retried - the guard exists
// precisely to stop more attempts.
func defaultShouldRetry(err error, _ int) bool {
	if errors.Is(err, ErrCircuitOpen) ||
		errors.Is(err, ErrBulkheadFull) ||
		errors.Is(err, ErrBulkheadTimeout) {
		return false
	}
	return faults.IsRetryable(err)
}
