package types

import "net/http"

// ManagerOptions holds cross-cutting dependencies injected at construction
// time. Every component receives explicit dependencies rather than reaching
// for package-level singletons, so tests can build isolated instances.
type ManagerOptions struct {
	// Logger is the structured logger to use.
	Logger Logger

	// Metrics receives operation observations. Nil disables recording.
	Metrics MetricsRecorder

	// Serializer converts cached values. Defaults to JSON.
	Serializer Serializer

	// HTTPClient is used for the refresh endpoint and API calls.
	HTTPClient *http.Client

	// BaseURL overrides the API base URL from config.
	BaseURL string

	// RedisAddress overrides the Redis address from config.
	RedisAddress string

	// RedisPassword overrides the Redis password from config.
	RedisPassword SecretString

	// RedisDB overrides the Redis database from config.
	RedisDB int

	// DisableRedis disables the Redis persistent tier entirely.
	DisableRedis bool

	// DisableResilience disables circuit breaker, retry, and bulkhead.
	DisableResilience bool
}
