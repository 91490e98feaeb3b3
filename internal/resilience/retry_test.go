package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LongNgn204/studykit/internal/faults"
)

// fastPolicy keeps test runtimes low while preserving the attempt counting.
func fastPolicy(maxRetries int) Policy {
	return Policy{
		MaxRetries:   maxRetries,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
		ShouldRetry:  func(error, int) bool { return true },
	}
}

func TestDoStopsAfterMaxRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(3), func(ctx context.Context) error {
		calls++
		return errors.New("always fails")
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 4 {
		t.Errorf("calls = %d, want 4 (1 initial + 3 retries)", calls)
	}
}

func TestDoSucceedsMidway(t *testing.T) {
	calls := 0
	got, err := DoValue(context.Background(), fastPolicy(5), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("not yet")
		}
		return "done", nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "done" || calls != 3 {
		t.Errorf("got %q after %d calls", got, calls)
	}
}

func TestDoReturnsLastErrorUnchanged(t *testing.T) {
	sentinel := faults.New(faults.KindServerError, "boom")

	err := Do(context.Background(), fastPolicy(2), func(ctx context.Context) error {
		return sentinel
	})

	if !errors.Is(err, sentinel) {
		t.Errorf("err = %v, want the original fault", err)
	}
}

func TestNonRetryableFailsImmediately(t *testing.T) {
	calls := 0
	p := Policy{MaxRetries: 5, InitialDelay: time.Millisecond}

	err := Do(context.Background(), p, func(ctx context.Context) error {
		calls++
		return faults.New(faults.KindUnauthorized, "token rejected")
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 for a non-retryable error", calls)
	}
}

func TestRetryableFaultRetriedByDefaultPredicate(t *testing.T) {
	calls := 0
	p := Policy{MaxRetries: 2, InitialDelay: time.Millisecond}

	_ = Do(context.Background(), p, func(ctx context.Context) error {
		calls++
		return faults.New(faults.KindServiceUnavailable, "down")
	})

	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestBackoffGrowth(t *testing.T) {
	p := Policy{InitialDelay: time.Second, MaxDelay: 10 * time.Second, Multiplier: 2.0}

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		10 * time.Second,
		10 * time.Second,
	}
	for attempt, w := range want {
		if got := p.backoffDelay(attempt); got != w {
			t.Errorf("backoffDelay(%d) = %v, want %v", attempt, got, w)
		}
	}
}

func TestJitterBounds(t *testing.T) {
	p := Policy{Jitter: true}
	base := time.Second

	for i := 0; i < 200; i++ {
		d := p.jittered(base)
		if d < 900*time.Millisecond || d > 1100*time.Millisecond {
			t.Fatalf("jittered delay %v outside ±10%% of %v", d, base)
		}
	}
}

func TestNoJitterIsDeterministic(t *testing.T) {
	p := Policy{Jitter: false}
	if got := p.jittered(time.Second); got != time.Second {
		t.Errorf("jittered = %v, want unchanged", got)
	}
}

func TestOnRetryObservability(t *testing.T) {
	type retryEvent struct {
		attempt int
		delay   time.Duration
	}
	var events []retryEvent

	p := fastPolicy(2)
	p.OnRetry = func(err error, attempt int, delay time.Duration) {
		events = append(events, retryEvent{attempt, delay})
	}

	_ = Do(context.Background(), p, func(ctx context.Context) error {
		return errors.New("fail")
	})

	if len(events) != 2 {
		t.Fatalf("OnRetry fired %d times, want 2", len(events))
	}
	if events[0].attempt != 1 || events[1].attempt != 2 {
		t.Errorf("attempt numbers = %d, %d, want 1, 2", events[0].attempt, events[1].attempt)
	}
	if events[0].delay <= 0 {
		t.Error("delay should be positive")
	}
}

func TestContextCancellationStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	p := Policy{MaxRetries: 10, InitialDelay: 50 * time.Millisecond, ShouldRetry: func(error, int) bool { return true }}

	err := Do(ctx, p, func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("fail")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoWithTimeout(t *testing.T) {
	t.Run("completes in time", func(t *testing.T) {
		err := DoWithTimeout(context.Background(), time.Second, fastPolicy(0), func(ctx context.Context) error {
			return nil
		})
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("deadline produces a timeout fault", func(t *testing.T) {
		err := DoWithTimeout(context.Background(), 20*time.Millisecond, fastPolicy(0), func(ctx context.Context) error {
			time.Sleep(time.Second)
			return nil
		})
		if faults.KindOf(err) != faults.KindTimeout {
			t.Errorf("kind = %v, want timeout", faults.KindOf(err))
		}
	})
}

func TestDoWithFallback(t *testing.T) {
	t.Run("primary success skips fallback", func(t *testing.T) {
		fallbackCalled := false
		got, err := DoWithFallback(context.Background(), fastPolicy(0),
			func(ctx context.Context) (string, error) { return "primary", nil },
			func(ctx context.Context) (string, error) { fallbackCalled = true; return "fallback", nil },
		)
		if err != nil || got != "primary" {
			t.Errorf("got %q, %v", got, err)
		}
		if fallbackCalled {
			t.Error("fallback ran despite primary success")
		}
	})

	t.Run("fallback runs once after exhaustion", func(t *testing.T) {
		fallbackCalls := 0
		got, err := DoWithFallback(context.Background(), fastPolicy(1),
			func(ctx context.Context) (string, error) { return "", errors.New("down") },
			func(ctx context.Context) (string, error) { fallbackCalls++; return "cached", nil },
		)
		if err != nil || got != "cached" {
			t.Errorf("got %q, %v", got, err)
		}
		if fallbackCalls != 1 {
			t.Errorf("fallback ran %d times", fallbackCalls)
		}
	})
}

func TestPresets(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		p := DefaultPolicy()
		if p.MaxRetries != 3 || p.InitialDelay != time.Second || p.MaxDelay != 10*time.Second || p.Multiplier != 2.0 {
			t.Errorf("default policy = %+v", p)
		}
	})

	t.Run("aggressive", func(t *testing.T) {
		p := AggressivePolicy()
		if p.MaxRetries != 5 || p.InitialDelay != 500*time.Millisecond || p.MaxDelay != 30*time.Second {
			t.Errorf("aggressive policy = %+v", p)
		}
	})

	t.Run("conservative", func(t *testing.T) {
		p := ConservativePolicy()
		if p.MaxRetries != 1 || p.InitialDelay != 2*time.Second || p.MaxDelay != 5*time.Second {
			t.Errorf("conservative policy = %+v", p)
		}
	})

	t.Run("ai policy refuses invalid prompts", func(t *testing.T) {
		p := AIPolicy()
		if p.ShouldRetry == nil {
			t.Fatal("AI policy needs a predicate")
		}
		if p.ShouldRetry(faults.New(faults.KindInvalidPrompt, "bad prompt"), 0) {
			t.Error("invalid prompt must not be retried")
		}
		if !p.ShouldRetry(faults.New(faults.KindAiTimeout, "slow model"), 0) {
			t.Error("AI timeout should be retried")
		}
	})
}
