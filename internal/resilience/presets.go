package resilience

import (
	"time"

	"github.com/LongNgn204/studykit/internal/config"
	"github.com/LongNgn204/studykit/internal/faults"
)

// DefaultPolicy suits ordinary REST calls.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:   3,
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// AggressivePolicy suits cheap idempotent reads where latency matters less
// than eventually getting an answer.
func AggressivePolicy() Policy {
	return Policy{
		MaxRetries:   5,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// ConservativePolicy suits mutating calls: one careful retry, nothing more.
func ConservativePolicy() Policy {
	return Policy{
		MaxRetries:   1,
		InitialDelay: 2 * time.Second,
		MaxDelay:     5 * time.Second,
		Multiplier:   1.0,
		Jitter:       true,
	}
}

// AIPolicy suits model-backed endpoints. A rejected prompt is final - the
// model will refuse it again no matter how often it is resent - so the
// policy refuses to retry it even though generic AI failures are transient.
func AIPolicy() Policy {
	p := AggressivePolicy()
	p.ShouldRetry = func(err error, attempt int) bool {
		if faults.KindOf(err) == faults.KindInvalidPrompt {
			return false
		}
		return defaultShouldRetry(err, attempt)
	}
	return p
}

// FromConfig builds a policy from configuration defaults.
func FromConfig(cfg config.RetryConfig) Policy {
	if !cfg.Enabled {
		return Policy{MaxRetries: 0}
	}
	return Policy{
		MaxRetries:   cfg.MaxRetries,
		InitialDelay: cfg.InitialDelay,
		MaxDelay:     cfg.MaxDelay,
		Multiplier:   cfg.Multiplier,
		Jitter:       cfg.Jitter,
	}
}
