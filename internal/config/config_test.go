package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Cache.Default.TTL != 10*time.Minute {
		t.Errorf("default TTL = %v", cfg.Cache.Default.TTL)
	}
	if cfg.Cache.Default.MaxEntries != 100 {
		t.Errorf("default maxEntries = %d", cfg.Cache.Default.MaxEntries)
	}
	if cfg.Cache.Default.Eviction != EvictionLRU {
		t.Errorf("default eviction = %q", cfg.Cache.Default.Eviction)
	}
	if cfg.Redis.Enabled {
		t.Error("redis should be disabled by default")
	}
	if !cfg.LocalStore.Enabled {
		t.Error("local store should be enabled by default")
	}
	if cfg.CircuitBreaker.FailureThreshold != 5 {
		t.Errorf("failure threshold = %d", cfg.CircuitBreaker.FailureThreshold)
	}
	if cfg.CircuitBreaker.OpenDuration != 60*time.Second {
		t.Errorf("open duration = %v", cfg.CircuitBreaker.OpenDuration)
	}
	if cfg.Token.RefreshBuffer != time.Minute {
		t.Errorf("refresh buffer = %v", cfg.Token.RefreshBuffer)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestResolve(t *testing.T) {
	cfg := CacheConfig{
		Default: NamespaceConfig{TTL: time.Minute, MaxEntries: 10, Eviction: EvictionLRU},
		Namespaces: map[string]NamespaceConfig{
			"chat":    {TTL: 5 * time.Second, MaxEntries: 3, Eviction: EvictionFIFO},
			"partial": {MaxEntries: 7},
		},
	}

	t.Run("configured namespace", func(t *testing.T) {
		nc := cfg.Resolve("chat")
		if nc.TTL != 5*time.Second || nc.MaxEntries != 3 || nc.Eviction != EvictionFIFO {
			t.Errorf("got %+v", nc)
		}
	})

	t.Run("partial namespace inherits defaults", func(t *testing.T) {
		nc := cfg.Resolve("partial")
		if nc.TTL != time.Minute {
			t.Errorf("TTL = %v, want default", nc.TTL)
		}
		if nc.MaxEntries != 7 {
			t.Errorf("MaxEntries = %d", nc.MaxEntries)
		}
		if nc.Eviction != EvictionLRU {
			t.Errorf("Eviction = %q, want default", nc.Eviction)
		}
	})

	t.Run("unknown namespace falls back", func(t *testing.T) {
		nc := cfg.Resolve("nope")
		if nc != cfg.Default {
			t.Errorf("got %+v, want default", nc)
		}
	})
}

func TestValidate(t *testing.T) {
	t.Run("bad eviction strategy", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Cache.Namespaces["bad"] = NamespaceConfig{Eviction: "mru"}
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for unknown eviction strategy")
		}
	})

	t.Run("negative retries", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Retry.MaxRetries = -1
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for negative maxRetries")
		}
	})

	t.Run("multiplier below one", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Retry.Multiplier = 0.5
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for multiplier < 1")
		}
	})

	t.Run("zero failure threshold", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.CircuitBreaker.FailureThreshold = 0
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for zero failureThreshold")
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("missing file returns defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.Cache.Default.MaxEntries != 100 {
			t.Error("expected defaults")
		}
	})

	t.Run("file overrides", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		body := `{"cache": {"default": {"ttl": 60000000000, "maxEntries": 5, "eviction": "fifo"}}}`
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.Cache.Default.TTL != time.Minute {
			t.Errorf("TTL = %v", cfg.Cache.Default.TTL)
		}
		if cfg.Cache.Default.MaxEntries != 5 {
			t.Errorf("MaxEntries = %d", cfg.Cache.Default.MaxEntries)
		}
		if cfg.Cache.Default.Eviction != EvictionFIFO {
			t.Errorf("Eviction = %q", cfg.Cache.Default.Eviction)
		}
	})

	t.Run("malformed file errors", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		if err := os.WriteFile(path, []byte("{nope"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("STUDYKIT_CACHE_DEFAULT_MAX_ENTRIES", "42")
	t.Setenv("STUDYKIT_RETRY_MAX_RETRIES", "7")
	t.Setenv("STUDYKIT_API_BASE_URL", "https://api.example.com")
	t.Setenv("STUDYKIT_REDIS_ENABLED", "true")

	cfg, err := LoadWithEnv("")
	if err != nil {
		t.Fatalf("LoadWithEnv: %v", err)
	}

	if cfg.Cache.Default.MaxEntries != 42 {
		t.Errorf("MaxEntries = %d", cfg.Cache.Default.MaxEntries)
	}
	if cfg.Retry.MaxRetries != 7 {
		t.Errorf("MaxRetries = %d", cfg.Retry.MaxRetries)
	}
	if cfg.API.BaseURL != "https://api.example.com" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if !cfg.Redis.Enabled {
		t.Error("redis should be enabled via env")
	}
}

func TestSecretStringRedaction(t *testing.T) {
	s := NewSecretString("hunter2")
	if s.String() == "hunter2" {
		t.Error("String() must not reveal the secret")
	}
	if s.Value() != "hunter2" {
		t.Error("Value() must return the secret")
	}
}
