package cache

import (
	"encoding/json"
	"time"
)

// Entry is one cached value in the in-memory tier, with the bookkeeping the
// eviction policies and statistics need.
type Entry struct {
	Namespace   string
	Key         string
	Value       []byte
	CreatedAt   time.Time
	AccessedAt  time.Time
	AccessCount int64
	TTL         time.Duration
}

// expired reports whether the entry is logically absent at the given time.
// Age is always measured from CreatedAt, regardless of which tier held the
// entry.
func (e *Entry) expired(now time.Time) bool {
	return now.Sub(e.CreatedAt) > e.TTL
}

func compositeKey(namespace, key string) string {
	return namespace + ":" + key
}

// persistPrefix segregates cache entries from other users of the shared
// key-value store (the token manager persists under its own key).
const persistPrefix = "cache:"

func persistKey(namespace, key string) string {
	return persistPrefix + compositeKey(namespace, key)
}

// envelope is the persisted form of an entry. CreatedAt travels with the
// value so a promoted entry keeps its original expiry instead of gaining a
// fresh TTL window.
type envelope struct {
	Value     json.RawMessage `json:"v"`
	CreatedAt int64           `json:"createdAt"`
	TTLMs     int64           `json:"ttlMs"`
}

func encodeEnvelope(e *Entry) (string, error) {
	data, err := json.Marshal(envelope{
		Value:     json.RawMessage(e.Value),
		CreatedAt: e.CreatedAt.UnixMilli(),
		TTLMs:     e.TTL.Milliseconds(),
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeEnvelope parses a persisted entry. Anything malformed - bad JSON, a
// missing field, a non-positive TTL - returns false so corruption degrades
// to a cache miss instead of a type error downstream.
func decodeEnvelope(raw string) (envelope, bool) {
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return envelope{}, false
	}
	if env.Value == nil || env.CreatedAt <= 0 || env.TTLMs <= 0 {
		return envelope{}, false
	}
	return env, true
}
