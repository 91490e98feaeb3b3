package resilience

import (
	"context"
	"time"

	"github.com/LongNgn204/studykit/internal/config"
	"github.com/LongNgn204/studykit/internal/types"
)

// Stack layers the resilience patterns around one downstream dependency.
//
// Execution order is bulkhead -> retry -> circuit breaker -> operation.
// The bulkhead sits outermost so queued work does not burn retry budget,
// and the breaker sits innermost so every individual attempt counts toward
// its failure threshold. Wrapping the other way round, one failing request
// would exhaust all its retries before registering as a single breaker
// failure, and the breaker would never trip in time.
type Stack struct {
	name    string
	retry   Policy
	breaker *CircuitBreaker
	barrier *Bulkhead
	metrics types.MetricsRecorder

	retryEnabled   bool
	breakerEnabled bool
	barrierEnabled bool
}

// NewStack builds a stack from configuration. Disabled components become
// pass-throughs rather than nil checks at every call site.
func NewStack(name string, cfg *config.Config) *Stack {
	s := &Stack{
		name:           name,
		retryEnabled:   cfg.Retry.Enabled,
		breakerEnabled: cfg.CircuitBreaker.Enabled,
		barrierEnabled: cfg.Bulkhead.Enabled,
	}

	s.retry = FromConfig(cfg.Retry)
	if s.breakerEnabled {
		s.breaker = NewCircuitBreaker(name, cfg.CircuitBreaker)
	}
	if s.barrierEnabled {
		s.barrier = NewBulkhead(cfg.Bulkhead)
	}
	return s
}

// WithPolicy returns a shallow copy of the stack using a different retry
// policy, sharing the same breaker and bulkhead. Used for routes that need
// their own backoff shape (AI generation, mutations).
func (s *Stack) WithPolicy(p Policy) *Stack {
	clone := *s
	clone.retry = p
	clone.retryEnabled = true
	return &clone
}

// Execute runs fn through the full stack.
func (s *Stack) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := ExecuteValue(ctx, s, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// ExecuteValue runs fn through the full stack and returns its result.
func ExecuteValue[T any](ctx context.Context, s *Stack, fn func(ctx context.Context) (T, error)) (T, error) {
	attempt := func(ctx context.Context) (T, error) {
		return retried(ctx, s, fn)
	}

	if !s.barrierEnabled {
		return attempt(ctx)
	}

	var result T
	err := s.barrier.Execute(ctx, func(ctx context.Context) error {
		var innerErr error
		result, innerErr = attempt(ctx)
		return innerErr
	})
	return result, err
}

func retried[T any](ctx context.Context, s *Stack, fn func(ctx context.Context) (T, error)) (T, error) {
	guarded := func(ctx context.Context) (T, error) {
		return guardedCall(ctx, s, fn)
	}
	if !s.retryEnabled {
		return guarded(ctx)
	}
	return DoValue(ctx, s.instrumented(), guarded)
}

// instrumented returns the retry policy with metrics recording layered onto
// its OnRetry hook. WithPolicy clones carry the recorder, so derived stacks
// report under the same name.
func (s *Stack) instrumented() Policy {
	if s.metrics == nil {
		return s.retry
	}
	p := s.retry
	inner := p.OnRetry
	p.OnRetry = func(err error, attempt int, delay time.Duration) {
		s.metrics.RecordRetry(s.name, attempt, delay)
		if inner != nil {
			inner(err, attempt, delay)
		}
	}
	return p
}

func guardedCall[T any](ctx context.Context, s *Stack, fn func(ctx context.Context) (T, error)) (T, error) {
	if !s.breakerEnabled {
		return fn(ctx)
	}

	var zero T
	if !s.breaker.Allow() {
		return zero, ErrCircuitOpen
	}

	result, err := fn(ctx)
	if err != nil {
		s.breaker.RecordFailure()
	} else {
		s.breaker.RecordSuccess()
	}
	return result, err
}

// Breaker exposes the circuit breaker, nil when disabled.
func (s *Stack) Breaker() *CircuitBreaker { return s.breaker }

// IsCircuitOpen reports whether the breaker is currently rejecting calls.
func (s *Stack) IsCircuitOpen() bool {
	return s.breakerEnabled && s.breaker.IsOpen()
}

// CircuitState returns the breaker state, StateClosed when disabled.
func (s *Stack) CircuitState() State {
	if !s.breakerEnabled {
		return StateClosed
	}
	return s.breaker.State()
}

// SetMetricsRecorder registers a recorder for retry attempts.
func (s *Stack) SetMetricsRecorder(rec types.MetricsRecorder) {
	s.metrics = rec
}

// SetOnCircuitStateChange registers a breaker transition callback.
func (s *Stack) SetOnCircuitStateChange(fn func(from, to State)) {
	if s.breakerEnabled {
		s.breaker.SetOnStateChange(fn)
	}
}

// BulkheadStats returns bulkhead occupancy, zero when disabled.
func (s *Stack) BulkheadStats() BulkheadStats {
	if !s.barrierEnabled {
		return BulkheadStats{}
	}
	return s.barrier.Stats()
}
