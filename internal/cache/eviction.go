package cache

import (
	"context"

	"github.com/LongNgn204/studykit/internal/config"
)

// evictOne removes exactly one victim from a namespace that has breached its
// capacity: the smallest AccessedAt under LRU, the smallest CreatedAt under
// FIFO. One victim per breaching insert, never a bulk sweep, so occupancy
// may sit at maxEntries+1 momentarily but converges straight back.
//
// Must be called with m.mu held. Returns the victim's key, or "" when the
// namespace is empty.
func (m *Manager) evictOne(namespace, strategy string) string {
	var victim *Entry

	for _, e := range m.entries {
		if e.Namespace != namespace {
			continue
		}
		if victim == nil {
			victim = e
			continue
		}
		switch strategy {
		case config.EvictionFIFO:
			if e.CreatedAt.Before(victim.CreatedAt) {
				victim = e
			}
		default: // LRU
			if e.AccessedAt.Before(victim.AccessedAt) {
				victim = e
			}
		}
	}

	if victim == nil {
		return ""
	}

	m.removeLocked(victim.Namespace, victim.Key)

	m.logger.Debug("evicted cache entry",
		"namespace", victim.Namespace,
		"key", victim.Key,
		"strategy", strategy,
	)
	if m.metrics != nil {
		m.metrics.RecordEviction(victim.Namespace, victim.Key, strategy)
	}

	return victim.Key
}

// removeLocked deletes an entry from the in-memory index and schedules the
// persistent-tier removal. Must be called with m.mu held.
func (m *Manager) removeLocked(namespace, key string) {
	delete(m.entries, compositeKey(namespace, key))
	m.counts[namespace]--
	if m.counts[namespace] <= 0 {
		delete(m.counts, namespace)
	}

	m.runBackground(func(ctx context.Context) {
		if err := m.persist.RemoveItem(ctx, persistKey(namespace, key)); err != nil {
			m.logger.Debug("persistent tier remove failed",
				"namespace", namespace, "key", key, "error", err)
		}
	})
}
