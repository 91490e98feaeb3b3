package storage

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/LongNgn204/studykit/internal/config"
)

// Consecutive failures before the backend reports itself unavailable.
const disconnectErrorThreshold = 5

// RedisKV is the Redis-backed persistent tier. Writes go through a buffered
// queue applied by a background worker, so a slow or absent Redis never
// blocks a cache Set; overflowing writes are dropped and counted.
type RedisKV struct {
	client *redis.Client
	cfg    config.RedisConfig
	logger *slog.Logger

	connected  atomic.Bool
	errorCount atomic.Int64

	writeQueue    chan kvWrite
	droppedWrites atomic.Int64
	stopCh        chan struct{}
	wg            sync.WaitGroup
	closed        atomic.Bool
}

type kvWrite struct {
	key   string
	value string
}

// NewRedisKV connects to Redis. A failed initial ping is logged but not
// fatal; the backend starts unavailable and recovers when writes succeed.
func NewRedisKV(cfg config.RedisConfig, logger *slog.Logger) *RedisKV {
	if logger == nil {
		logger = slog.Default()
	}

	opts := &redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password.Value(),
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if cfg.EnableTLS {
		opts.TLSConfig = &tls.Config{InsecureSkipVerify: cfg.TLSSkipVerify}
		if cfg.TLSSkipVerify {
			logger.Warn("TLS certificate verification is disabled - insecure for production use")
		}
	}

	queueSize := cfg.MaxPendingWrites
	if queueSize <= 0 {
		queueSize = 500
	}

	kv := &RedisKV{
		client:     redis.NewClient(opts),
		cfg:        cfg,
		logger:     logger.With("component", "redis-kv"),
		writeQueue: make(chan kvWrite, queueSize),
		stopCh:     make(chan struct{}),
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := kv.client.Ping(ctx).Err(); err != nil {
		kv.logger.Warn("Redis initial connection failed, starting degraded", "error", err)
	} else {
		kv.connected.Store(true)
		kv.logger.Info("Redis connected", "address", cfg.Address)
	}

	kv.wg.Add(1)
	go kv.writeWorker()

	return kv
}

func (kv *RedisKV) GetItem(ctx context.Context, key string) (string, error) {
	if kv.closed.Load() {
		return "", ErrUnavailable
	}
	if !kv.connected.Load() {
		return "", ErrUnavailable
	}

	val, err := kv.client.Get(ctx, kv.prefixed(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		kv.recordFailure(err)
		return "", err
	}

	kv.recordSuccess()
	return val, nil
}

// SetItem queues the write. A full queue drops the write silently; the
// in-memory tier stays authoritative either way.
func (kv *RedisKV) SetItem(ctx context.Context, key, value string) error {
	if kv.closed.Load() {
		return ErrUnavailable
	}

	select {
	case kv.writeQueue <- kvWrite{key: key, value: value}:
		return nil
	default:
		kv.droppedWrites.Add(1)
		kv.logger.Debug("Redis write queue full, dropping write", "key", key)
		return nil
	}
}

func (kv *RedisKV) RemoveItem(ctx context.Context, key string) error {
	if kv.closed.Load() || !kv.connected.Load() {
		return ErrUnavailable
	}

	if err := kv.client.Del(ctx, kv.prefixed(key)).Err(); err != nil {
		kv.recordFailure(err)
		return err
	}
	kv.recordSuccess()
	return nil
}

func (kv *RedisKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	if kv.closed.Load() || !kv.connected.Load() {
		return nil, ErrUnavailable
	}

	var keys []string
	iter := kv.client.Scan(ctx, 0, kv.prefixed(prefix)+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val()[len(kv.cfg.KeyPrefix):])
	}
	if err := iter.Err(); err != nil {
		kv.recordFailure(err)
		return nil, err
	}
	return keys, nil
}

func (kv *RedisKV) Name() string { return "redis" }

func (kv *RedisKV) IsAvailable() bool {
	return !kv.closed.Load() && kv.connected.Load()
}

// DroppedWrites reports how many queued writes were discarded.
func (kv *RedisKV) DroppedWrites() int64 {
	return kv.droppedWrites.Load()
}

// PendingWrites reports how many writes are waiting in the queue.
func (kv *RedisKV) PendingWrites() int {
	return len(kv.writeQueue)
}

func (kv *RedisKV) Close() error {
	if kv.closed.Swap(true) {
		return nil
	}
	close(kv.stopCh)
	kv.wg.Wait()
	return kv.client.Close()
}

func (kv *RedisKV) writeWorker() {
	defer kv.wg.Done()

	for {
		select {
		case <-kv.stopCh:
			// Drain what we can before shutting down.
			for {
				select {
				case op := <-kv.writeQueue:
					kv.applyWrite(op)
				default:
					return
				}
			}
		case op := <-kv.writeQueue:
			kv.applyWrite(op)
		}
	}
}

func (kv *RedisKV) applyWrite(op kvWrite) {
	timeout := kv.cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := kv.client.Set(ctx, kv.prefixed(op.key), op.value, kv.cfg.DefaultTTL).Err()
	if err != nil {
		kv.recordFailure(err)
		kv.logger.Debug("Redis write failed", "key", op.key, "error", err)
		return
	}
	kv.recordSuccess()
}

func (kv *RedisKV) prefixed(key string) string {
	return kv.cfg.KeyPrefix + key
}

func (kv *RedisKV) recordFailure(err error) {
	if kv.errorCount.Add(1) >= disconnectErrorThreshold && kv.connected.Swap(false) {
		kv.logger.Warn("Redis marked unavailable after repeated errors", "error", err)
	}
}

func (kv *RedisKV) recordSuccess() {
	kv.errorCount.Store(0)
	if !kv.connected.Swap(true) {
		kv.logger.Info("Redis connection recovered")
	}
}

var _ KV = (*RedisKV)(nil)
