// Package metrics collects operation-level observations from the cache,
// retry, and token components and publishes them to a metrics backend.
package metrics

import "time"

// Publisher is the metrics backend contract (DataDog StatsD in production,
// logging or no-op otherwise).
type Publisher interface {
	Gauge(name string, value float64, tags ...string)
	Incr(name string, tags ...string)
	Count(name string, value int64, tags ...string)
	Histogram(name string, value float64, tags ...string)
	Timing(name string, duration time.Duration, tags ...string)
	Event(title, text, alertType string, tags ...string)
	Close() error
}

// Snapshot is a point-in-time view of the tracker's counters and latency
// distribution.
type Snapshot struct {
	Timestamp time.Time

	MemoryHits     int64
	PersistentHits int64
	Misses         int64

	GetCount    int64
	SetCount    int64
	DeleteCount int64
	Evictions   int64

	RetryAttempts    int64
	BreakerTrips     int64
	RefreshSuccesses int64
	RefreshFailures  int64
	ErrorCount       int64

	BytesWritten int64

	AvgLatencyMs float64
	P50LatencyMs float64
	P95LatencyMs float64
	P99LatencyMs float64
}

// HitRatio is hits over total lookups, zero before the first lookup.
func (s Snapshot) HitRatio() float64 {
	hits := s.MemoryHits + s.PersistentHits
	total := hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
