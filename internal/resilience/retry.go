package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/LongNgn204/studykit/internal/faults"
)

// Policy describes one retried operation. It is a value object passed
// per-call, never persisted.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt, so an
	// operation runs at most MaxRetries+1 times.
	MaxRetries int

	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64

	// Jitter applies a symmetric perturbation of up to ±10% of each delay
	// so clients failing together do not retry together.
	Jitter bool

	// ShouldRetry overrides the default retryability predicate. The
	// attempt index is zero-based.
	ShouldRetry func(err error, attempt int) bool

	// OnRetry is invoked before each backoff sleep with the failed
	// attempt's error, the upcoming attempt number (1-based), and the
	// chosen delay. It must not block.
	OnRetry func(err error, attempt int, delay time.Duration)
}

func (p Policy) normalized() Policy {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = time.Second
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 10 * time.Second
	}
	if p.Multiplier < 1 {
		p.Multiplier = 2.0
	}
	if p.ShouldRetry == nil {
		p.ShouldRetry = defaultShouldRetry
	}
	return p
}

// backoffDelay computes the capped exponential delay for a zero-based
// attempt index, before jitter.
func (p Policy) backoffDelay(attempt int) time.Duration {
	delay := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt))
	if delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	return time.Duration(delay)
}

func (p Policy) jittered(delay time.Duration) time.Duration {
	if !p.Jitter {
		return delay
	}
	offset := (rand.Float64()*2 - 1) * 0.1 * float64(delay)
	d := time.Duration(float64(delay) + offset)
	if d < 0 {
		d = 0
	}
	return d
}

// Do runs fn with retries per the policy. The last observed error is
// returned unchanged once retries are exhausted or the predicate rejects
// further attempts - never a synthesized one, so diagnosis is not obscured.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	_, err := DoValue(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoValue runs fn with retries per the policy and returns its result.
func DoValue[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.normalized()

	var zero T
	var lastErr error

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}

		lastErr = err

		if attempt == p.MaxRetries || !p.ShouldRetry(err, attempt) {
			break
		}

		delay := p.jittered(p.backoffDelay(attempt))

		if p.OnRetry != nil {
			p.OnRetry(err, attempt+1, delay)
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	return zero, lastErr
}

// DoWithTimeout races the retrying operation against a hard deadline. On
// timeout the caller receives a Timeout fault immediately; the underlying
// operation keeps running but nobody waits for it.
func DoWithTimeout(ctx context.Context, timeout time.Duration, p Policy, fn func(ctx context.Context) error) error {
	done := make(chan error, 1)

	go func() {
		done <- Do(ctx, p, fn)
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return faults.New(faults.KindTimeout, "operation exceeded deadline")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DoWithFallback runs the primary with retries; if it ultimately fails, the
// fallback is invoked exactly once, un-retried, and its outcome wins.
func DoWithFallback[T any](
	ctx context.Context,
	p Policy,
	fn func(ctx context.Context) (T, error),
	fallback func(ctx context.Context) (T, error),
) (T, error) {
	result, err := DoValue(ctx, p, fn)
	if err == nil {
		return result, nil
	}
	return fallback(ctx)
}
