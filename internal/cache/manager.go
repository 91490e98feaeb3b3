// Package cache implements the two-tier TTL cache: a fast in-memory index
// that is authoritative for the current process, mirrored best-effort into a
// slower persistent key-value tier. Namespaces partition the cache with
// their own TTL, capacity, and eviction strategy.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LongNgn204/studykit/internal/config"
	"github.com/LongNgn204/studykit/internal/storage"
	"github.com/LongNgn204/studykit/internal/types"
)

// DefaultShutdownTimeout bounds how long Close waits for in-flight
// background writes before closing the persistent tier anyway.
const DefaultShutdownTimeout = 30 * time.Second

// DefaultBackgroundOpTimeout bounds each individual background write.
const DefaultBackgroundOpTimeout = 5 * time.Second

// Manager coordinates the in-memory tier with the persistent tier. The
// in-memory map is the authority; the persistent tier is best-effort and all
// of its failures are logged, never propagated to callers.
type Manager struct {
	cfg        config.CacheConfig
	persist    storage.KV
	serializer types.Serializer
	logger     *slog.Logger
	metrics    types.MetricsRecorder
	validator  *types.KeyValidator

	mu         sync.Mutex
	entries    map[string]*Entry
	counts     map[string]int
	namespaces map[string]config.NamespaceConfig

	hits        int64
	misses      int64
	accessTime  time.Duration
	accessCalls int64

	// nowFunc is the logical clock for TTL decisions. Tests replace it to
	// advance time deterministically.
	nowFunc func() time.Time

	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
	bgWg           sync.WaitGroup
	bgMu           sync.Mutex
	closed         atomic.Bool
}

// NewManager creates a cache manager over the given persistent tier.
func NewManager(cfg config.CacheConfig, persist storage.KV, logger *slog.Logger, metrics types.MetricsRecorder) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "cache")

	if persist == nil {
		persist = storage.NewDisabledKV()
	}

	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	return &Manager{
		cfg:            cfg,
		persist:        persist,
		serializer:     NewJSONSerializer(),
		logger:         logger,
		metrics:        metrics,
		entries:        make(map[string]*Entry),
		counts:         make(map[string]int),
		namespaces:     make(map[string]config.NamespaceConfig),
		nowFunc:        time.Now,
		shutdownCtx:    shutdownCtx,
		shutdownCancel: shutdownCancel,
	}
}

// SetKeyValidator enables key validation on writes. Call before first use.
func (m *Manager) SetKeyValidator(v *types.KeyValidator) {
	m.validator = v
}

// SetSerializer replaces the default JSON serializer. Call before first use.
func (m *Manager) SetSerializer(s types.Serializer) {
	if s != nil {
		m.serializer = s
	}
}

// Configure sets a namespace's TTL, capacity, and eviction strategy.
// Idempotent, last write wins. Existing entries keep the TTL they were
// written with.
func (m *Manager) Configure(namespace string, nc config.NamespaceConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.namespaces[namespace] = nc
}

// resolve returns the effective configuration for a namespace, preferring
// runtime Configure calls over the startup configuration.
func (m *Manager) resolve(namespace string) config.NamespaceConfig {
	if nc, ok := m.namespaces[namespace]; ok {
		def := m.cfg.Resolve(namespace)
		if nc.TTL <= 0 {
			nc.TTL = def.TTL
		}
		if nc.MaxEntries <= 0 {
			nc.MaxEntries = def.MaxEntries
		}
		if nc.Eviction == "" {
			nc.Eviction = def.Eviction
		}
		return nc
	}
	return m.cfg.Resolve(namespace)
}

// Set writes a value to the in-memory tier immediately and mirrors it to the
// persistent tier in the background. A zero ttl uses the namespace default.
// If the insert pushes the namespace past its capacity, exactly one entry is
// evicted per the configured strategy.
func (m *Manager) Set(ctx context.Context, namespace, key string, value any, ttl time.Duration) error {
	if m.closed.Load() {
		return nil
	}

	if m.validator != nil {
		if err := m.validator.Validate(key); err != nil {
			return err
		}
	}

	start := time.Now()

	data, err := m.serializer.Marshal(value)
	if err != nil {
		return err
	}

	nc := m.resolve(namespace)
	if ttl <= 0 {
		ttl = nc.TTL
	}

	now := m.nowFunc()
	entry := &Entry{
		Namespace:  namespace,
		Key:        key,
		Value:      data,
		CreatedAt:  now,
		AccessedAt: now,
		TTL:        ttl,
	}

	m.mu.Lock()
	ck := compositeKey(namespace, key)
	if _, exists := m.entries[ck]; !exists {
		m.counts[namespace]++
	}
	m.entries[ck] = entry

	if nc.MaxEntries > 0 && m.counts[namespace] > nc.MaxEntries {
		m.evictOne(namespace, nc.Eviction)
	}
	m.mu.Unlock()

	m.persistEntry(entry)

	if m.metrics != nil {
		m.metrics.RecordSet(namespace, key, len(data), time.Since(start))
	}
	return nil
}

// persistEntry mirrors an entry to the persistent tier without blocking the
// caller. Failures are swallowed; the in-memory tier stays authoritative.
func (m *Manager) persistEntry(e *Entry) {
	if !m.cfg.PersistEnabled || !m.persist.IsAvailable() {
		return
	}

	raw, err := encodeEnvelope(e)
	if err != nil {
		m.logger.Debug("envelope encode failed", "namespace", e.Namespace, "key", e.Key, "error", err)
		return
	}

	namespace, key := e.Namespace, e.Key
	m.runBackground(func(ctx context.Context) {
		if err := m.persist.SetItem(ctx, persistKey(namespace, key), raw); err != nil {
			m.logger.Debug("persistent tier write failed",
				"namespace", namespace, "key", key, "error", err)
		}
	})
}

// Get looks up a value, memory tier first. A persistent-tier hit is promoted
// into memory keeping its original CreatedAt, so promotion never extends an
// entry's life past its configured TTL. Unmarshals into dest on a hit.
func (m *Manager) Get(ctx context.Context, namespace, key string, dest any) bool {
	if m.closed.Load() {
		return false
	}

	start := time.Now()
	now := m.nowFunc()
	ck := compositeKey(namespace, key)

	m.mu.Lock()
	entry, ok := m.entries[ck]
	if ok && !entry.expired(now) {
		entry.AccessedAt = now
		entry.AccessCount++
		value := entry.Value
		m.mu.Unlock()
		return m.finishGet(namespace, key, "memory", value, dest, start)
	}
	if ok {
		m.removeLocked(namespace, key)
	}
	m.mu.Unlock()

	if value, found := m.promote(ctx, namespace, key, now); found {
		return m.finishGet(namespace, key, "persistent", value, dest, start)
	}

	m.recordAccess(time.Since(start))
	m.mu.Lock()
	m.misses++
	m.mu.Unlock()
	if m.metrics != nil {
		m.metrics.RecordMiss(namespace, key, time.Since(start))
	}
	return false
}

// promote consults the persistent tier and, on an unexpired hit, installs
// the entry back into memory with its original expiry preserved and a fresh
// access record.
func (m *Manager) promote(ctx context.Context, namespace, key string, now time.Time) ([]byte, bool) {
	if !m.cfg.PersistEnabled || !m.persist.IsAvailable() {
		return nil, false
	}

	raw, err := m.persist.GetItem(ctx, persistKey(namespace, key))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			m.logger.Debug("persistent tier read failed", "namespace", namespace, "key", key, "error", err)
		}
		return nil, false
	}

	env, ok := decodeEnvelope(raw)
	if !ok {
		m.logger.Debug("corrupt persisted entry treated as miss", "namespace", namespace, "key", key)
		m.runBackground(func(ctx context.Context) {
			_ = m.persist.RemoveItem(ctx, persistKey(namespace, key))
		})
		return nil, false
	}

	entry := &Entry{
		Namespace:   namespace,
		Key:         key,
		Value:       []byte(env.Value),
		CreatedAt:   time.UnixMilli(env.CreatedAt),
		AccessedAt:  now,
		AccessCount: 1,
		TTL:         time.Duration(env.TTLMs) * time.Millisecond,
	}

	if entry.expired(now) {
		m.runBackground(func(ctx context.Context) {
			_ = m.persist.RemoveItem(ctx, persistKey(namespace, key))
		})
		return nil, false
	}

	m.mu.Lock()
	ck := compositeKey(namespace, key)
	if _, exists := m.entries[ck]; !exists {
		m.counts[namespace]++
	}
	m.entries[ck] = entry

	nc := m.resolve(namespace)
	if nc.MaxEntries > 0 && m.counts[namespace] > nc.MaxEntries {
		m.evictOne(namespace, nc.Eviction)
	}
	m.mu.Unlock()

	return entry.Value, true
}

func (m *Manager) finishGet(namespace, key, tier string, value []byte, dest any, start time.Time) bool {
	latency := time.Since(start)
	m.recordAccess(latency)

	if dest != nil {
		if err := m.serializer.Unmarshal(value, dest); err != nil {
			m.logger.Debug("deserialization failed, treating as miss",
				"namespace", namespace, "key", key, "error", err)
			// Drop the undecodable entry so the miss can heal on the
			// next Set instead of failing until the TTL runs out.
			m.mu.Lock()
			if _, ok := m.entries[compositeKey(namespace, key)]; ok {
				m.removeLocked(namespace, key)
			}
			m.misses++
			m.mu.Unlock()
			if m.metrics != nil {
				m.metrics.RecordMiss(namespace, key, latency)
			}
			return false
		}
	}

	m.mu.Lock()
	m.hits++
	m.mu.Unlock()
	if m.metrics != nil {
		m.metrics.RecordHit(namespace, key, tier, latency)
	}
	return true
}

func (m *Manager) recordAccess(latency time.Duration) {
	m.mu.Lock()
	m.accessTime += latency
	m.accessCalls++
	m.mu.Unlock()
}

// Has is a cheap existence probe against the memory tier only. It never
// consults the persistent tier and records no statistics.
func (m *Manager) Has(namespace, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[compositeKey(namespace, key)]
	return ok && !entry.expired(m.nowFunc())
}

// Delete removes an entry from both tiers. Idempotent on absent keys.
func (m *Manager) Delete(ctx context.Context, namespace, key string) {
	start := time.Now()

	m.mu.Lock()
	if _, ok := m.entries[compositeKey(namespace, key)]; ok {
		m.removeLocked(namespace, key)
	} else {
		// The persistent tier may still hold a copy from a prior process.
		m.runBackground(func(ctx context.Context) {
			_ = m.persist.RemoveItem(ctx, persistKey(namespace, key))
		})
	}
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.RecordDelete(namespace, key, time.Since(start))
	}
}

// ClearNamespace removes every entry in one namespace from both tiers.
func (m *Manager) ClearNamespace(ctx context.Context, namespace string) {
	m.mu.Lock()
	for ck, e := range m.entries {
		if e.Namespace == namespace {
			delete(m.entries, ck)
		}
	}
	delete(m.counts, namespace)
	m.mu.Unlock()

	m.clearPersisted(persistPrefix + namespace + ":")
}

// ClearAll removes every entry in every namespace from both tiers.
func (m *Manager) ClearAll(ctx context.Context) {
	m.mu.Lock()
	m.entries = make(map[string]*Entry)
	m.counts = make(map[string]int)
	m.mu.Unlock()

	m.clearPersisted(persistPrefix)
}

func (m *Manager) clearPersisted(prefix string) {
	if !m.cfg.PersistEnabled || !m.persist.IsAvailable() {
		return
	}
	m.runBackground(func(ctx context.Context) {
		keys, err := m.persist.Keys(ctx, prefix)
		if err != nil {
			m.logger.Debug("persistent tier key scan failed", "prefix", prefix, "error", err)
			return
		}
		for _, k := range keys {
			if err := m.persist.RemoveItem(ctx, k); err != nil {
				m.logger.Debug("persistent tier remove failed", "key", k, "error", err)
			}
		}
	})
}

// Stats is a point-in-time snapshot of cumulative cache statistics.
type Stats struct {
	TotalItems          int     `json:"totalItems"`
	HitRate             float64 `json:"hitRate"`
	MissRate            float64 `json:"missRate"`
	TotalHits           int64   `json:"totalHits"`
	TotalMisses         int64   `json:"totalMisses"`
	AverageAccessTimeMs float64 `json:"averageAccessTimeMs"`
}

// NamespaceStats describes one namespace's in-memory occupancy.
type NamespaceStats struct {
	TotalItems  int       `json:"totalItems"`
	TotalSize   int       `json:"totalSize"`
	OldestEntry time.Time `json:"oldestEntry"`
	NewestEntry time.Time `json:"newestEntry"`
}

// Stats returns cumulative hit/miss statistics. HitRate and MissRate are
// zero until the first lookup; afterwards they sum to 1.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Stats{
		TotalItems:  len(m.entries),
		TotalHits:   m.hits,
		TotalMisses: m.misses,
	}

	if total := m.hits + m.misses; total > 0 {
		s.HitRate = float64(m.hits) / float64(total)
		s.MissRate = float64(m.misses) / float64(total)
	}
	if m.accessCalls > 0 {
		s.AverageAccessTimeMs = float64(m.accessTime.Microseconds()) / float64(m.accessCalls) / 1000
	}
	return s
}

// NamespaceStats returns occupancy details for one namespace. TotalSize is
// the serialized-byte estimate of the stored values.
func (m *Manager) NamespaceStats(namespace string) NamespaceStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	var s NamespaceStats
	for _, e := range m.entries {
		if e.Namespace != namespace {
			continue
		}
		s.TotalItems++
		s.TotalSize += len(e.Value)
		if s.OldestEntry.IsZero() || e.CreatedAt.Before(s.OldestEntry) {
			s.OldestEntry = e.CreatedAt
		}
		if e.CreatedAt.After(s.NewestEntry) {
			s.NewestEntry = e.CreatedAt
		}
	}
	return s
}

// ResetStats zeroes the cumulative counters without touching entries.
func (m *Manager) ResetStats() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits = 0
	m.misses = 0
	m.accessTime = 0
	m.accessCalls = 0
}

// Close waits for in-flight background writes, then closes the persistent
// tier.
func (m *Manager) Close() error {
	return m.CloseWithTimeout(DefaultShutdownTimeout)
}

// CloseWithTimeout is Close with a configurable wait. When the timeout
// elapses first, the persistent tier is closed anyway and pending writes are
// abandoned.
func (m *Manager) CloseWithTimeout(timeout time.Duration) error {
	m.bgMu.Lock()
	if m.closed.Swap(true) {
		m.bgMu.Unlock()
		return nil
	}
	m.shutdownCancel()
	m.bgMu.Unlock()

	done := make(chan struct{})
	go func() {
		m.bgWg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		m.logger.Warn("shutdown timeout exceeded, abandoning background writes", "timeout", timeout)
	}

	return m.persist.Close()
}

// runBackground executes fn in a goroutine tracked for graceful shutdown.
// Holding bgMu across the closed check and the Add prevents a race with
// CloseWithTimeout where Add lands after Wait has started.
func (m *Manager) runBackground(fn func(ctx context.Context)) {
	m.bgMu.Lock()
	if m.closed.Load() {
		m.bgMu.Unlock()
		return
	}
	m.bgWg.Add(1)
	m.bgMu.Unlock()

	go func() {
		defer m.bgWg.Done()
		ctx, cancel := context.WithTimeout(m.shutdownCtx, DefaultBackgroundOpTimeout)
		defer cancel()
		fn(ctx)
	}()
}
