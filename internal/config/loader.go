package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Load loads configuration from a JSON file. A missing file is not an error;
// defaults are returned instead.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithEnv loads configuration from a JSON file and applies environment
// overrides on top.
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STUDYKIT_CACHE_DEFAULT_TTL"); v != "" {
		cfg.Cache.Default.TTL = parseDuration(v, cfg.Cache.Default.TTL)
	}
	if v := os.Getenv("STUDYKIT_CACHE_DEFAULT_MAX_ENTRIES"); v != "" {
		cfg.Cache.Default.MaxEntries = parseInt(v, cfg.Cache.Default.MaxEntries)
	}
	if v := os.Getenv("STUDYKIT_CACHE_DEFAULT_EVICTION"); v != "" {
		cfg.Cache.Default.Eviction = v
	}
	if v := os.Getenv("STUDYKIT_CACHE_PERSIST_ENABLED"); v != "" {
		cfg.Cache.PersistEnabled = parseBool(v)
	}

	if v := os.Getenv("STUDYKIT_REDIS_ENABLED"); v != "" {
		cfg.Redis.Enabled = parseBool(v)
	}
	if v := os.Getenv("STUDYKIT_REDIS_ADDRESS"); v != "" {
		cfg.Redis.Address = v
	}
	if v := os.Getenv("STUDYKIT_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = NewSecretString(v)
	}
	if v := os.Getenv("STUDYKIT_REDIS_DB"); v != "" {
		cfg.Redis.DB = parseInt(v, cfg.Redis.DB)
	}
	if v := os.Getenv("STUDYKIT_REDIS_KEY_PREFIX"); v != "" {
		cfg.Redis.KeyPrefix = v
	}
	if v := os.Getenv("STUDYKIT_REDIS_ENABLE_TLS"); v != "" {
		cfg.Redis.EnableTLS = parseBool(v)
	}

	if v := os.Getenv("STUDYKIT_RETRY_ENABLED"); v != "" {
		cfg.Retry.Enabled = parseBool(v)
	}
	if v := os.Getenv("STUDYKIT_RETRY_MAX_RETRIES"); v != "" {
		cfg.Retry.MaxRetries = parseInt(v, cfg.Retry.MaxRetries)
	}
	if v := os.Getenv("STUDYKIT_RETRY_INITIAL_DELAY"); v != "" {
		cfg.Retry.InitialDelay = parseDuration(v, cfg.Retry.InitialDelay)
	}
	if v := os.Getenv("STUDYKIT_RETRY_MAX_DELAY"); v != "" {
		cfg.Retry.MaxDelay = parseDuration(v, cfg.Retry.MaxDelay)
	}

	if v := os.Getenv("STUDYKIT_CIRCUIT_BREAKER_ENABLED"); v != "" {
		cfg.CircuitBreaker.Enabled = parseBool(v)
	}
	if v := os.Getenv("STUDYKIT_CIRCUIT_BREAKER_FAILURE_THRESHOLD"); v != "" {
		cfg.CircuitBreaker.FailureThreshold = parseInt(v, cfg.CircuitBreaker.FailureThreshold)
	}
	if v := os.Getenv("STUDYKIT_CIRCUIT_BREAKER_OPEN_DURATION"); v != "" {
		cfg.CircuitBreaker.OpenDuration = parseDuration(v, cfg.CircuitBreaker.OpenDuration)
	}

	if v := os.Getenv("STUDYKIT_TOKEN_REFRESH_BUFFER"); v != "" {
		cfg.Token.RefreshBuffer = parseDuration(v, cfg.Token.RefreshBuffer)
	}
	if v := os.Getenv("STUDYKIT_TOKEN_STORAGE_KEY"); v != "" {
		cfg.Token.StorageKey = v
	}

	if v := os.Getenv("STUDYKIT_API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("STUDYKIT_API_REQUEST_TIMEOUT"); v != "" {
		cfg.API.RequestTimeout = parseDuration(v, cfg.API.RequestTimeout)
	}

	if v := os.Getenv("STUDYKIT_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("STUDYKIT_DATADOG_ENABLED"); v != "" {
		cfg.Metrics.DataDog.Enabled = parseBool(v)
	}
	if v := os.Getenv("STUDYKIT_DATADOG_AGENT_HOST"); v != "" {
		cfg.Metrics.DataDog.AgentHost = v
	}
}

func parseBool(s string) bool {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false
	}
	return v
}

func parseInt(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return v
}
