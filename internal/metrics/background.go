package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// BackgroundPublisher pushes tracker snapshots to the publisher at a fixed
// interval, with context-based cancellation.
type BackgroundPublisher struct {
	tracker   *Tracker
	publisher Publisher
	logger    *slog.Logger
	interval  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewBackgroundPublisher creates a background snapshot publisher.
func NewBackgroundPublisher(tracker *Tracker, publisher Publisher, interval time.Duration, logger *slog.Logger) *BackgroundPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &BackgroundPublisher{
		tracker:   tracker,
		publisher: publisher,
		interval:  interval,
		logger:    logger.With("component", "metrics-background"),
	}
}

// Start begins the publishing loop. The context bounds its lifetime.
func (b *BackgroundPublisher) Start(ctx context.Context) {
	b.ctx, b.cancel = context.WithCancel(ctx)
	b.wg.Add(1)
	go b.run()
	b.logger.Info("background metrics publisher started", "interval", b.interval)
}

// Stop cancels the loop and waits for it to finish, publishing one final
// snapshot on the way out.
func (b *BackgroundPublisher) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
	b.logger.Info("background metrics publisher stopped")
}

func (b *BackgroundPublisher) run() {
	defer b.wg.Done()

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.ctx.Done():
			b.publish()
			return
		case <-ticker.C:
			b.publish()
		}
	}
}

func (b *BackgroundPublisher) publish() {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("recovered from panic in metrics publisher", "panic", r)
		}
	}()

	s := b.tracker.Snapshot()

	b.publisher.Gauge("cache.hit_ratio", s.HitRatio())
	b.publisher.Gauge("cache.avg_latency_ms", s.AvgLatencyMs)
	b.publisher.Gauge("cache.p95_latency_ms", s.P95LatencyMs)
	b.publisher.Gauge("cache.p99_latency_ms", s.P99LatencyMs)
	b.publisher.Count("cache.evictions", s.Evictions)
	b.publisher.Count("retry.attempts", s.RetryAttempts)
	b.publisher.Count("breaker.trips", s.BreakerTrips)
	b.publisher.Count("token.refresh_failures", s.RefreshFailures)
}
