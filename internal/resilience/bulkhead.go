package resilience

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/LongNgn204/studykit/internal/config"
)

// Bulkhead bounds how many calls run at once against one downstream, with a
// small wait queue in front. Intended for the expensive AI endpoints, where
// a pile-up of concurrent generations hurts everyone.
type Bulkhead struct {
	maxConcurrent  int
	maxQueue       int
	acquireTimeout time.Duration
	semaphore      chan struct{}

	active   atomic.Int32
	queued   atomic.Int32
	rejected atomic.Int64
	executed atomic.Int64
}

func NewBulkhead(cfg config.BulkheadConfig) *Bulkhead {
	maxConcurrent := cfg.MaxConcurrent
	maxQueue := cfg.MaxQueue
	acquireTimeout := cfg.AcquireTimeout

	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	if maxQueue <= 0 {
		maxQueue = 8
	}
	if acquireTimeout <= 0 {
		acquireTimeout = 250 * time.Millisecond
	}

	return &Bulkhead{
		maxConcurrent:  maxConcurrent,
		maxQueue:       maxQueue,
		acquireTimeout: acquireTimeout,
		semaphore:      make(chan struct{}, maxConcurrent+maxQueue),
	}
}

// Execute runs fn once a slot is available, or rejects with ErrBulkheadFull
// when the queue is at capacity or ErrBulkheadTimeout when the wait exceeds
// the acquire timeout.
func (b *Bulkhead) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.acquire(ctx); err != nil {
		return err
	}
	defer b.release()

	b.active.Add(1)
	defer b.active.Add(-1)

	err := fn(ctx)
	b.executed.Add(1)
	return err
}

func (b *Bulkhead) acquire(ctx context.Context) error {
	select {
	case b.semaphore <- struct{}{}:
		return nil
	default:
	}

	if int(b.queued.Load()) >= b.maxQueue {
		b.rejected.Add(1)
		return ErrBulkheadFull
	}

	b.queued.Add(1)
	defer b.queued.Add(-1)

	waitCtx, cancel := context.WithTimeout(ctx, b.acquireTimeout)
	defer cancel()

	select {
	case b.semaphore <- struct{}{}:
		return nil
	case <-waitCtx.Done():
		b.rejected.Add(1)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrBulkheadTimeout
	}
}

func (b *Bulkhead) release() {
	<-b.semaphore
}

func (b *Bulkhead) ActiveCount() int     { return int(b.active.Load()) }
func (b *Bulkhead) QueuedCount() int     { return int(b.queued.Load()) }
func (b *Bulkhead) RejectedCount() int64 { return b.rejected.Load() }
func (b *Bulkhead) TotalExecuted() int64 { return b.executed.Load() }

// Stats returns a snapshot of bulkhead occupancy.
func (b *Bulkhead) Stats() BulkheadStats {
	return BulkheadStats{
		MaxConcurrent: b.maxConcurrent,
		MaxQueue:      b.maxQueue,
		Active:        int(b.active.Load()),
		Queued:        int(b.queued.Load()),
		TotalExecuted: b.executed.Load(),
		TotalRejected: b.rejected.Load(),
	}
}

type BulkheadStats struct {
	MaxConcurrent int
	MaxQueue      int
	Active        int
	Queued        int
	TotalExecuted int64
	TotalRejected int64
}
