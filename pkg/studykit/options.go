package studykit

import (
	"net/http"

	"github.com/LongNgn204/studykit/internal/types"
)

// ManagerOptions holds construction-time dependency overrides.
type ManagerOptions = types.ManagerOptions

// ManagerOption customizes client construction.
type ManagerOption func(*ManagerOptions)

// WithLogger injects a structured logger.
func WithLogger(logger Logger) ManagerOption {
	return func(o *ManagerOptions) {
		o.Logger = logger
	}
}

// WithMetrics injects a metrics recorder, replacing the built-in tracker.
func WithMetrics(metrics MetricsRecorder) ManagerOption {
	return func(o *ManagerOptions) {
		o.Metrics = metrics
	}
}

// WithSerializer replaces the default JSON cache serializer.
func WithSerializer(serializer Serializer) ManagerOption {
	return func(o *ManagerOptions) {
		o.Serializer = serializer
	}
}

// WithHTTPClient injects the HTTP client used for API and refresh calls.
func WithHTTPClient(httpClient *http.Client) ManagerOption {
	return func(o *ManagerOptions) {
		o.HTTPClient = httpClient
	}
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) ManagerOption {
	return func(o *ManagerOptions) {
		o.BaseURL = baseURL
	}
}

// WithRedis enables the Redis persistent tier at the given address.
func WithRedis(addr string) ManagerOption {
	return func(o *ManagerOptions) {
		o.RedisAddress = addr
	}
}

// WithRedisPassword sets the Redis password.
func WithRedisPassword(password string) ManagerOption {
	return func(o *ManagerOptions) {
		o.RedisPassword = types.NewSecretString(password)
	}
}

// WithRedisDB selects the Redis database.
func WithRedisDB(db int) ManagerOption {
	return func(o *ManagerOptions) {
		o.RedisDB = db
	}
}

// WithoutRedis forces the Redis tier off regardless of config.
func WithoutRedis() ManagerOption {
	return func(o *ManagerOptions) {
		o.DisableRedis = true
	}
}

// WithoutResilience disables retry, circuit breaker, and bulkhead. Intended
// for tests that assert on raw failure behavior.
func WithoutResilience() ManagerOption {
	return func(o *ManagerOptions) {
		o.DisableResilience = true
	}
}
