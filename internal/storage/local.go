package storage

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/allegro/bigcache/v3"

	"github.com/LongNgn204/studykit/internal/config"
)

// LocalKV is an in-process blob store backed by BigCache. It serves as the
// persistent tier for single-process deployments and tests where Redis is
// not available, surviving for the process lifetime rather than across
// restarts.
type LocalKV struct {
	cache  *bigcache.BigCache
	logger *slog.Logger
	closed atomic.Bool
}

func NewLocalKV(cfg config.LocalStoreConfig, logger *slog.Logger) (*LocalKV, error) {
	if logger == nil {
		logger = slog.Default()
	}

	shards := cfg.Shards
	if shards <= 0 {
		shards = 256
	}
	window := cfg.EvictionWindow
	if window <= 0 {
		window = time.Hour
	}

	bcCfg := bigcache.Config{
		Shards:             shards,
		LifeWindow:         window,
		CleanWindow:        window / 4,
		MaxEntriesInWindow: 1000 * 10 * 60,
		MaxEntrySize:       512 * 1024,
		HardMaxCacheSize:   cfg.MaxSizeMB,
		Verbose:            false,
	}

	bc, err := bigcache.New(context.Background(), bcCfg)
	if err != nil {
		return nil, err
	}

	return &LocalKV{
		cache:  bc,
		logger: logger.With("component", "local-kv"),
	}, nil
}

func (l *LocalKV) GetItem(ctx context.Context, key string) (string, error) {
	if l.closed.Load() {
		return "", ErrUnavailable
	}

	data, err := l.cache.Get(key)
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return string(data), nil
}

func (l *LocalKV) SetItem(ctx context.Context, key, value string) error {
	if l.closed.Load() {
		return ErrUnavailable
	}
	return l.cache.Set(key, []byte(value))
}

func (l *LocalKV) RemoveItem(ctx context.Context, key string) error {
	if l.closed.Load() {
		return ErrUnavailable
	}

	if err := l.cache.Delete(key); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return err
	}
	return nil
}

func (l *LocalKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	if l.closed.Load() {
		return nil, ErrUnavailable
	}

	var keys []string
	iter := l.cache.Iterator()
	for iter.SetNext() {
		entry, err := iter.Value()
		if err != nil {
			continue
		}
		if strings.HasPrefix(entry.Key(), prefix) {
			keys = append(keys, entry.Key())
		}
	}
	return keys, nil
}

func (l *LocalKV) Name() string { return "local" }

func (l *LocalKV) IsAvailable() bool { return !l.closed.Load() }

func (l *LocalKV) Close() error {
	if l.closed.Swap(true) {
		return nil
	}
	return l.cache.Close()
}

var _ KV = (*LocalKV)(nil)
