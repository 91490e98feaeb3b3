package config

import "time"

// DefaultConfig returns a configuration with sensible defaults. Redis is off
// by default; the local blob store backs the persistent tier instead.
func DefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			Default: NamespaceConfig{
				TTL:        10 * time.Minute,
				MaxEntries: 100,
				Eviction:   EvictionLRU,
			},
			Namespaces: map[string]NamespaceConfig{
				"ai":        {TTL: 30 * time.Minute, MaxEntries: 50, Eviction: EvictionLRU},
				"exam":      {TTL: 10 * time.Minute, MaxEntries: 100, Eviction: EvictionLRU},
				"flashcard": {TTL: 15 * time.Minute, MaxEntries: 200, Eviction: EvictionLRU},
				"chat":      {TTL: 5 * time.Minute, MaxEntries: 100, Eviction: EvictionFIFO},
				"user":      {TTL: 30 * time.Minute, MaxEntries: 20, Eviction: EvictionLRU},
			},
			PersistEnabled: true,
		},
		Redis: RedisConfig{
			Enabled:          false,
			Address:          "localhost:6379",
			Password:         SecretString{},
			DB:               0,
			KeyPrefix:        "studykit:",
			DefaultTTL:       30 * time.Minute,
			PoolSize:         50,
			MinIdleConns:     5,
			DialTimeout:      5 * time.Second,
			ReadTimeout:      3 * time.Second,
			WriteTimeout:     3 * time.Second,
			MaxPendingWrites: 500,
			EnableTLS:        false,
			TLSSkipVerify:    false,
		},
		LocalStore: LocalStoreConfig{
			Enabled:        true,
			MaxSizeMB:      64,
			Shards:         256,
			EvictionWindow: time.Hour,
		},
		Retry: RetryConfig{
			Enabled:      true,
			MaxRetries:   3,
			InitialDelay: time.Second,
			MaxDelay:     10 * time.Second,
			Multiplier:   2.0,
			Jitter:       true,
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:             true,
			FailureThreshold:    5,
			SuccessThreshold:    1,
			OpenDuration:        60 * time.Second,
			HalfOpenMaxRequests: 1,
		},
		Bulkhead: BulkheadConfig{
			Enabled:        true,
			MaxConcurrent:  4,
			MaxQueue:       8,
			AcquireTimeout: 250 * time.Millisecond,
		},
		Token: TokenConfig{
			RefreshPath:    "/api/auth/refresh",
			RefreshBuffer:  time.Minute,
			StorageKey:     "auth:tokens",
			RequestTimeout: 10 * time.Second,
		},
		API: APIConfig{
			BaseURL:        "",
			RequestTimeout: 30 * time.Second,
			CacheResponses: true,
		},
		Metrics: MetricsConfig{
			Enabled:         true,
			PublishInterval: 10 * time.Second,
			DataDog: DataDogConfig{
				Enabled:   false,
				AgentHost: "127.0.0.1",
				Port:      8125,
				Prefix:    "studykit",
				Tags:      []string{},
			},
		},
		KeyValidation: KeyValidationConfig{
			Enabled:           true,
			MaxKeyLength:      1024,
			AllowEmpty:        false,
			AllowControlChars: false,
			AllowWhitespace:   true,
		},
	}
}

// ForTesting returns a minimal configuration suitable for unit tests:
// small capacities, short TTLs, no Redis, no background publishing.
func ForTesting() *Config {
	cfg := DefaultConfig()
	cfg.Cache.Default = NamespaceConfig{
		TTL:        time.Minute,
		MaxEntries: 16,
		Eviction:   EvictionLRU,
	}
	cfg.Cache.Namespaces = map[string]NamespaceConfig{}
	cfg.Redis.Enabled = false
	cfg.LocalStore = LocalStoreConfig{
		Enabled:        true,
		MaxSizeMB:      8,
		Shards:         16,
		EvictionWindow: time.Minute,
	}
	cfg.Retry.InitialDelay = time.Millisecond
	cfg.Retry.MaxDelay = 10 * time.Millisecond
	cfg.Bulkhead.AcquireTimeout = 10 * time.Millisecond
	cfg.Metrics.Enabled = false
	return cfg
}
