// Package config provides configuration management for studykit.
package config

import (
	"fmt"
	"time"

	"github.com/LongNgn204/studykit/internal/types"
)

// SecretString is a string type that redacts its value when marshaled.
type SecretString = types.SecretString

// NewSecretString creates a new SecretString with the provided value.
func NewSecretString(value string) SecretString {
	return types.NewSecretString(value)
}

// Eviction strategy names accepted in namespace configuration.
const (
	EvictionLRU  = "lru"
	EvictionFIFO = "fifo"
)

// Config contains all configuration for the studykit resilience core.
type Config struct {
	Cache          CacheConfig          `json:"cache"`
	Redis          RedisConfig          `json:"redis"`
	LocalStore     LocalStoreConfig     `json:"localStore"`
	Retry          RetryConfig          `json:"retry"`
	CircuitBreaker CircuitBreakerConfig `json:"circuitBreaker"`
	Bulkhead       BulkheadConfig       `json:"bulkhead"`
	Token          TokenConfig          `json:"token"`
	API            APIConfig            `json:"api"`
	Metrics        MetricsConfig        `json:"metrics"`
	KeyValidation  KeyValidationConfig  `json:"keyValidation"`
}

// NamespaceConfig describes one cache namespace. Namespaces partition the
// cache with their own TTL, capacity, and eviction strategy.
type NamespaceConfig struct {
	TTL        time.Duration `json:"ttl"`
	MaxEntries int           `json:"maxEntries"`
	Eviction   string        `json:"eviction"`
}

// CacheConfig contains configuration for the two-tier cache engine.
type CacheConfig struct {
	// Default applies to namespaces without an explicit entry in Namespaces.
	Default    NamespaceConfig            `json:"default"`
	Namespaces map[string]NamespaceConfig `json:"namespaces"`

	// PersistEnabled controls whether entries are mirrored to the
	// persistent tier. The in-memory tier is always on.
	PersistEnabled bool `json:"persistEnabled"`
}

// Resolve returns the effective configuration for a namespace.
func (c CacheConfig) Resolve(namespace string) NamespaceConfig {
	if nc, ok := c.Namespaces[namespace]; ok {
		if nc.TTL <= 0 {
			nc.TTL = c.Default.TTL
		}
		if nc.MaxEntries <= 0 {
			nc.MaxEntries = c.Default.MaxEntries
		}
		if nc.Eviction == "" {
			nc.Eviction = c.Default.Eviction
		}
		return nc
	}
	return c.Default
}

// RedisConfig contains configuration for the Redis persistent tier.
type RedisConfig struct {
	DefaultTTL       time.Duration `json:"defaultTTL"`
	DialTimeout      time.Duration `json:"dialTimeout"`
	ReadTimeout      time.Duration `json:"readTimeout"`
	WriteTimeout     time.Duration `json:"writeTimeout"`
	Password         SecretString  `json:"password"`
	Address          string        `json:"address"`
	KeyPrefix        string        `json:"keyPrefix"`
	DB               int           `json:"db"`
	PoolSize         int           `json:"poolSize"`
	MinIdleConns     int           `json:"minIdleConns"`
	MaxPendingWrites int           `json:"maxPendingWrites"`
	Enabled          bool          `json:"enabled"`
	EnableTLS        bool          `json:"enableTLS"`
	TLSSkipVerify    bool          `json:"tlsSkipVerify"`
}

// LocalStoreConfig contains configuration for the in-process persistent
// tier used when Redis is disabled (single-process deployments, tests).
type LocalStoreConfig struct {
	Enabled        bool          `json:"enabled"`
	MaxSizeMB      int           `json:"maxSizeMB"`
	Shards         int           `json:"shards"`
	EvictionWindow time.Duration `json:"evictionWindow"`
}

// RetryConfig contains configuration for the retry engine defaults.
type RetryConfig struct {
	InitialDelay time.Duration `json:"initialDelay"`
	MaxDelay     time.Duration `json:"maxDelay"`
	Multiplier   float64       `json:"multiplier"`
	MaxRetries   int           `json:"maxRetries"`
	Enabled      bool          `json:"enabled"`
	Jitter       bool          `json:"jitter"`
}

// CircuitBreakerConfig contains configuration for the circuit breaker.
type CircuitBreakerConfig struct {
	Enabled             bool          `json:"enabled"`
	FailureThreshold    int           `json:"failureThreshold"`
	SuccessThreshold    int           `json:"successThreshold"`
	OpenDuration        time.Duration `json:"openDuration"`
	HalfOpenMaxRequests int           `json:"halfOpenMaxRequests"`
}

// BulkheadConfig bounds concurrent calls to fragile endpoints (AI routes).
type BulkheadConfig struct {
	Enabled        bool          `json:"enabled"`
	MaxConcurrent  int           `json:"maxConcurrent"`
	MaxQueue       int           `json:"maxQueue"`
	AcquireTimeout time.Duration `json:"acquireTimeout"`
}

// TokenConfig contains configuration for the token lifecycle manager.
type TokenConfig struct {
	// RefreshPath is appended to the API base URL.
	RefreshPath string `json:"refreshPath"`

	// RefreshBuffer treats a token as expired this long before its real
	// deadline, so a request never goes out with a token that dies
	// mid-flight.
	RefreshBuffer time.Duration `json:"refreshBuffer"`

	// StorageKey is the persistent-store key for the token bundle.
	StorageKey string `json:"storageKey"`

	// RequestTimeout bounds the refresh network call.
	RequestTimeout time.Duration `json:"requestTimeout"`
}

// APIConfig contains configuration for the thin API client.
type APIConfig struct {
	BaseURL        string        `json:"baseURL"`
	RequestTimeout time.Duration `json:"requestTimeout"`
	CacheResponses bool          `json:"cacheResponses"`
}

// MetricsConfig contains configuration for metrics publishing.
type MetricsConfig struct {
	PublishInterval time.Duration `json:"publishInterval"`
	DataDog         DataDogConfig `json:"datadog"`
	Enabled         bool          `json:"enabled"`
}

// DataDogConfig contains configuration for DataDog StatsD publishing.
type DataDogConfig struct {
	Tags      []string `json:"tags"`
	AgentHost string   `json:"agentHost"`
	Prefix    string   `json:"prefix"`
	Port      int      `json:"port"`
	Enabled   bool     `json:"enabled"`
}

// KeyValidationConfig contains configuration for cache key validation.
type KeyValidationConfig struct {
	ReservedPrefixes  []string `json:"reservedPrefixes"`
	MaxKeyLength      int      `json:"maxKeyLength"`
	Enabled           bool     `json:"enabled"`
	AllowEmpty        bool     `json:"allowEmpty"`
	AllowControlChars bool     `json:"allowControlChars"`
	AllowWhitespace   bool     `json:"allowWhitespace"`
}

// ToTypesConfig converts this config to a types.KeyValidationConfig.
func (c KeyValidationConfig) ToTypesConfig() types.KeyValidationConfig {
	return types.KeyValidationConfig{
		MaxKeyLength:      c.MaxKeyLength,
		AllowEmpty:        c.AllowEmpty,
		AllowControlChars: c.AllowControlChars,
		AllowWhitespace:   c.AllowWhitespace,
		ReservedPrefixes:  c.ReservedPrefixes,
	}
}

// Validate checks the configuration for values that would misbehave at
// runtime rather than failing loudly here.
func (c *Config) Validate() error {
	if err := validateNamespace("default", c.Cache.Default); err != nil {
		return err
	}
	for name, nc := range c.Cache.Namespaces {
		if err := validateNamespace(name, nc); err != nil {
			return err
		}
	}

	if c.Retry.Enabled {
		if c.Retry.MaxRetries < 0 {
			return fmt.Errorf("config: retry.maxRetries must not be negative")
		}
		if c.Retry.Multiplier < 1 {
			return fmt.Errorf("config: retry.multiplier must be >= 1")
		}
	}

	if c.CircuitBreaker.Enabled && c.CircuitBreaker.FailureThreshold <= 0 {
		return fmt.Errorf("config: circuitBreaker.failureThreshold must be positive")
	}

	if c.Token.RefreshBuffer < 0 {
		return fmt.Errorf("config: token.refreshBuffer must not be negative")
	}

	return nil
}

func validateNamespace(name string, nc NamespaceConfig) error {
	switch nc.Eviction {
	case "", EvictionLRU, EvictionFIFO:
	default:
		return fmt.Errorf("config: namespace %q has unknown eviction strategy %q", name, nc.Eviction)
	}
	if nc.MaxEntries < 0 {
		return fmt.Errorf("config: namespace %q has negative maxEntries", name)
	}
	return nil
}
