// Package types provides shared types for the studykit resilience core.
// This package breaks import cycles between pkg/studykit and the internal
// cache, token, and resilience packages.
package types

import "time"

// Logger is the minimal structured logging interface accepted from callers.
// Any logger with slog-style leveled methods satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Serializer converts cached values to and from their stored byte form.
type Serializer interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, dest any) error
}

// MetricsRecorder receives operation-level observations from the cache
// engine, the retry engine, and the token manager. Implementations must be
// cheap and must never block the recorded operation.
type MetricsRecorder interface {
	RecordHit(namespace, key, tier string, latency time.Duration)
	RecordMiss(namespace, key string, latency time.Duration)
	RecordSet(namespace, key string, size int, latency time.Duration)
	RecordDelete(namespace, key string, latency time.Duration)
	RecordEviction(namespace, key, strategy string)
	RecordRetry(operation string, attempt int, delay time.Duration)
	RecordCircuitBreakerStateChange(from, to string)
	RecordTokenRefresh(outcome string, latency time.Duration)
	RecordError(component, operation string, err error)
}
