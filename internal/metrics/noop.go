package metrics

import (
	"time"

	"github.com/LongNgn204/studykit/internal/types"
)

// NoopRecorder discards all observations. Used in tests and when metrics
// are disabled.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (NoopRecorder) RecordHit(namespace, key, tier string, latency time.Duration)     {}
func (NoopRecorder) RecordMiss(namespace, key string, latency time.Duration)          {}
func (NoopRecorder) RecordSet(namespace, key string, size int, latency time.Duration) {}
func (NoopRecorder) RecordDelete(namespace, key string, latency time.Duration)        {}
func (NoopRecorder) RecordEviction(namespace, key, strategy string)                   {}
func (NoopRecorder) RecordRetry(operation string, attempt int, delay time.Duration)   {}
func (NoopRecorder) RecordCircuitBreakerStateChange(from, to string)                  {}
func (NoopRecorder) RecordTokenRefresh(outcome string, latency time.Duration)         {}
func (NoopRecorder) RecordError(component, operation string, err error)               {}

// NoOpPublisher discards all published metrics.
type NoOpPublisher struct{}

func NewNoOpPublisher() *NoOpPublisher { return &NoOpPublisher{} }

func (NoOpPublisher) Gauge(name string, value float64, tags ...string)           {}
func (NoOpPublisher) Incr(name string, tags ...string)                           {}
func (NoOpPublisher) Count(name string, value int64, tags ...string)             {}
func (NoOpPublisher) Histogram(name string, value float64, tags ...string)       {}
func (NoOpPublisher) Timing(name string, duration time.Duration, tags ...string) {}
func (NoOpPublisher) Event(title, text, alertType string, tags ...string)        {}
func (NoOpPublisher) Close() error                                               { return nil }

var (
	_ types.MetricsRecorder = NoopRecorder{}
	_ Publisher             = NoOpPublisher{}
)
