package metrics

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LongNgn204/studykit/internal/types"
)

const defaultLatencyBufferSize = 10000

// Tracker accumulates counters and a fixed-size latency ring buffer. All
// record methods are O(1) and allocation-free, safe to call from hot paths.
// When a Publisher is attached, each observation is also forwarded to it.
type Tracker struct {
	publisher Publisher

	memoryHits     atomic.Int64
	persistentHits atomic.Int64
	misses         atomic.Int64

	getCount    atomic.Int64
	setCount    atomic.Int64
	deleteCount atomic.Int64
	evictions   atomic.Int64

	retryAttempts    atomic.Int64
	breakerTrips     atomic.Int64
	refreshSuccesses atomic.Int64
	refreshFailures  atomic.Int64
	errorCount       atomic.Int64

	bytesWritten atomic.Int64

	latencyMu     sync.RWMutex
	latencyBuffer []time.Duration
	latencyIndex  int
	latencyCount  int
}

// NewTracker creates a tracker without a publisher.
func NewTracker() *Tracker {
	return &Tracker{
		latencyBuffer: make([]time.Duration, defaultLatencyBufferSize),
	}
}

// NewPublishingTracker creates a tracker that forwards observations to the
// given publisher as they arrive.
func NewPublishingTracker(publisher Publisher) *Tracker {
	t := NewTracker()
	t.publisher = publisher
	return t
}

func (t *Tracker) RecordHit(namespace, key, tier string, latency time.Duration) {
	switch tier {
	case "memory":
		t.memoryHits.Add(1)
	default:
		t.persistentHits.Add(1)
	}
	t.getCount.Add(1)
	t.recordLatency(latency)

	if t.publisher != nil {
		t.publisher.Incr("cache.hit", NamespaceTag(namespace), TierTag(tier))
		t.publisher.Timing("cache.get", latency, NamespaceTag(namespace))
	}
}

func (t *Tracker) RecordMiss(namespace, key string, latency time.Duration) {
	t.misses.Add(1)
	t.getCount.Add(1)
	t.recordLatency(latency)

	if t.publisher != nil {
		t.publisher.Incr("cache.miss", NamespaceTag(namespace))
		t.publisher.Timing("cache.get", latency, NamespaceTag(namespace))
	}
}

func (t *Tracker) RecordSet(namespace, key string, size int, latency time.Duration) {
	t.setCount.Add(1)
	t.bytesWritten.Add(int64(size))
	t.recordLatency(latency)

	if t.publisher != nil {
		t.publisher.Incr("cache.set", NamespaceTag(namespace))
		t.publisher.Count("cache.bytes_written", int64(size), NamespaceTag(namespace))
	}
}

func (t *Tracker) RecordDelete(namespace, key string, latency time.Duration) {
	t.deleteCount.Add(1)
	t.recordLatency(latency)

	if t.publisher != nil {
		t.publisher.Incr("cache.delete", NamespaceTag(namespace))
	}
}

func (t *Tracker) RecordEviction(namespace, key, strategy string) {
	t.evictions.Add(1)

	if t.publisher != nil {
		t.publisher.Incr("cache.eviction", NamespaceTag(namespace), StrategyTag(strategy))
	}
}

func (t *Tracker) RecordRetry(operation string, attempt int, delay time.Duration) {
	t.retryAttempts.Add(1)

	if t.publisher != nil {
		t.publisher.Incr("retry.attempt", OperationTag(operation))
		t.publisher.Timing("retry.delay", delay, OperationTag(operation))
	}
}

func (t *Tracker) RecordCircuitBreakerStateChange(from, to string) {
	if to == "open" {
		t.breakerTrips.Add(1)
	}

	if t.publisher != nil {
		t.publisher.Incr("breaker.transition", Tag("from", from), Tag("to", to))
	}
}

func (t *Tracker) RecordTokenRefresh(outcome string, latency time.Duration) {
	if outcome == "success" {
		t.refreshSuccesses.Add(1)
	} else {
		t.refreshFailures.Add(1)
	}

	if t.publisher != nil {
		t.publisher.Incr("token.refresh", OutcomeTag(outcome))
		t.publisher.Timing("token.refresh_latency", latency, OutcomeTag(outcome))
	}
}

func (t *Tracker) RecordError(component, operation string, err error) {
	t.errorCount.Add(1)

	if t.publisher != nil {
		t.publisher.Incr("errors", Tag("component", component), OperationTag(operation))
	}
}

// recordLatency appends to the circular buffer.
func (t *Tracker) recordLatency(latency time.Duration) {
	t.latencyMu.Lock()
	t.latencyBuffer[t.latencyIndex] = latency
	t.latencyIndex = (t.latencyIndex + 1) % len(t.latencyBuffer)
	if t.latencyCount < len(t.latencyBuffer) {
		t.latencyCount++
	}
	t.latencyMu.Unlock()
}

// Snapshot returns a consistent view of the counters and latency
// percentiles.
func (t *Tracker) Snapshot() Snapshot {
	t.latencyMu.RLock()
	count := t.latencyCount
	latencyCopy := make([]time.Duration, count)
	if count > 0 {
		if count < len(t.latencyBuffer) {
			copy(latencyCopy, t.latencyBuffer[:count])
		} else {
			// Buffer full, oldest sample sits at latencyIndex.
			firstPart := len(t.latencyBuffer) - t.latencyIndex
			copy(latencyCopy[:firstPart], t.latencyBuffer[t.latencyIndex:])
			copy(latencyCopy[firstPart:], t.latencyBuffer[:t.latencyIndex])
		}
	}
	t.latencyMu.RUnlock()

	s := Snapshot{
		Timestamp:        time.Now(),
		MemoryHits:       t.memoryHits.Load(),
		PersistentHits:   t.persistentHits.Load(),
		Misses:           t.misses.Load(),
		GetCount:         t.getCount.Load(),
		SetCount:         t.setCount.Load(),
		DeleteCount:      t.deleteCount.Load(),
		Evictions:        t.evictions.Load(),
		RetryAttempts:    t.retryAttempts.Load(),
		BreakerTrips:     t.breakerTrips.Load(),
		RefreshSuccesses: t.refreshSuccesses.Load(),
		RefreshFailures:  t.refreshFailures.Load(),
		ErrorCount:       t.errorCount.Load(),
		BytesWritten:     t.bytesWritten.Load(),
	}

	if len(latencyCopy) > 0 {
		s.AvgLatencyMs = durationToMs(avgDuration(latencyCopy))
		s.P50LatencyMs = durationToMs(percentile(latencyCopy, 50))
		s.P95LatencyMs = durationToMs(percentile(latencyCopy, 95))
		s.P99LatencyMs = durationToMs(percentile(latencyCopy, 99))
	}

	return s
}

// Reset clears all counters and the latency buffer.
func (t *Tracker) Reset() {
	t.memoryHits.Store(0)
	t.persistentHits.Store(0)
	t.misses.Store(0)
	t.getCount.Store(0)
	t.setCount.Store(0)
	t.deleteCount.Store(0)
	t.evictions.Store(0)
	t.retryAttempts.Store(0)
	t.breakerTrips.Store(0)
	t.refreshSuccesses.Store(0)
	t.refreshFailures.Store(0)
	t.errorCount.Store(0)
	t.bytesWritten.Store(0)

	t.latencyMu.Lock()
	t.latencyIndex = 0
	t.latencyCount = 0
	t.latencyMu.Unlock()
}

func durationToMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func avgDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range durations {
		total += d
	}
	return total / time.Duration(len(durations))
}

func percentile(durations []time.Duration, p int) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	slices.Sort(sorted)

	idx := (len(sorted) - 1) * p / 100
	return sorted[idx]
}

var _ types.MetricsRecorder = (*Tracker)(nil)
