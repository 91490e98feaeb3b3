package studykit

import (
	"github.com/LongNgn204/studykit/internal/cache"
	"github.com/LongNgn204/studykit/internal/events"
	"github.com/LongNgn204/studykit/internal/faults"
	"github.com/LongNgn204/studykit/internal/resilience"
	"github.com/LongNgn204/studykit/internal/token"
	"github.com/LongNgn204/studykit/internal/types"
)

// Re-exported collaborator interfaces.
type (
	Logger          = types.Logger
	MetricsRecorder = types.MetricsRecorder
	Serializer      = types.Serializer
)

// Re-exported domain types.
type (
	CacheStats     = cache.Stats
	NamespaceStats = cache.NamespaceStats
	TokenBundle    = token.Bundle
	Event          = events.Event
	Fault          = faults.Error
	FaultKind      = faults.Kind
	RetryPolicy    = resilience.Policy
)

// Event topics published by the core.
const (
	TopicAuthError = events.TopicAuthError
	TopicLogout    = events.TopicLogout
)

// Retry presets for callers wrapping their own operations.
var (
	DefaultPolicy      = resilience.DefaultPolicy
	AggressivePolicy   = resilience.AggressivePolicy
	ConservativePolicy = resilience.ConservativePolicy
	AIPolicy           = resilience.AIPolicy
)

// Retry helpers re-exported for direct use.
var (
	Retry            = resilience.Do
	RetryWithTimeout = resilience.DoWithTimeout
)

// Fault predicates re-exported for callers classifying errors themselves.
var (
	IsRetryable         = faults.IsRetryable
	IsAuthError         = faults.IsAuthError
	KindOf              = faults.KindOf
	UserMessage         = faults.UserMessage
	RecoverySuggestions = faults.RecoverySuggestions
)
