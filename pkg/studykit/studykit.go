package studykit

import (
	"context"
	"log/slog"

	"github.com/LongNgn204/studykit/internal/cache"
	"github.com/LongNgn204/studykit/internal/client"
	"github.com/LongNgn204/studykit/internal/config"
	"github.com/LongNgn204/studykit/internal/events"
	"github.com/LongNgn204/studykit/internal/faults"
	"github.com/LongNgn204/studykit/internal/metrics"
	"github.com/LongNgn204/studykit/internal/metrics/datadog"
	"github.com/LongNgn204/studykit/internal/resilience"
	"github.com/LongNgn204/studykit/internal/storage"
	"github.com/LongNgn204/studykit/internal/token"
	"github.com/LongNgn204/studykit/internal/types"
)

// Client is the assembled resilience core: cache, token manager, API client,
// event bus, and fault log, constructed once at process start and injected
// into consumers. Tests build fresh isolated instances instead of resetting
// shared globals.
type Client struct {
	Cache  *cache.Manager
	Tokens *token.Manager
	API    *client.Client
	Events *events.Bus
	Faults *faults.Log

	tracker   *metrics.Tracker
	publisher metrics.Publisher
	bgPub     *metrics.BackgroundPublisher
	stack     *resilience.Stack
	store     storage.KV
	logger    *slog.Logger
}

// New creates a client with default configuration.
func New(opts ...ManagerOption) (*Client, error) {
	return NewFromConfig(config.DefaultConfig(), opts...)
}

// NewFromConfig assembles a client from configuration.
func NewFromConfig(cfg *config.Config, opts ...ManagerOption) (*Client, error) {
	options := &ManagerOptions{}
	for _, opt := range opts {
		opt(options)
	}
	applyOverrides(cfg, options)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := slog.Default()
	if options.Logger != nil {
		logger = slog.New(newSlogAdapter(options.Logger))
	}
	logger = logger.With("component", "studykit")

	c := &Client{logger: logger}

	// Metrics: caller-supplied recorder wins; otherwise a tracker forwarding
	// to DataDog (or a no-op publisher when disabled).
	var recorder types.MetricsRecorder
	if options.Metrics != nil {
		recorder = options.Metrics
	} else if cfg.Metrics.Enabled {
		publisher, err := datadog.NewPublisher(&cfg.Metrics.DataDog, logger)
		if err != nil {
			logger.Warn("DataDog publisher unavailable, using no-op", "error", err)
			publisher = metrics.NewNoOpPublisher()
		}
		c.publisher = publisher
		c.tracker = metrics.NewPublishingTracker(publisher)
		c.bgPub = metrics.NewBackgroundPublisher(c.tracker, publisher, cfg.Metrics.PublishInterval, logger)
		c.bgPub.Start(context.Background())
		recorder = c.tracker
	}

	c.store = selectStore(cfg, logger)

	c.stack = resilience.NewStack("api", cfg)
	if recorder != nil {
		c.stack.SetMetricsRecorder(recorder)
	}
	c.stack.SetOnCircuitStateChange(func(from, to resilience.State) {
		logger.Info("circuit breaker state changed", "from", from.String(), "to", to.String())
		if recorder != nil {
			recorder.RecordCircuitBreakerStateChange(from.String(), to.String())
		}
	})

	c.Cache = cache.NewManager(cfg.Cache, c.store, logger, recorder)
	if cfg.KeyValidation.Enabled {
		c.Cache.SetKeyValidator(types.NewKeyValidator(cfg.KeyValidation.ToTypesConfig()))
	}
	if options.Serializer != nil {
		c.Cache.SetSerializer(options.Serializer)
	}

	c.Events = events.NewBus()
	c.Faults = faults.NewLog(faults.DefaultLogCapacity)

	c.Tokens = token.NewManager(cfg.Token, cfg.API.BaseURL, c.store, c.Events, options.HTTPClient, logger, recorder)
	c.API = client.New(cfg.API, options.HTTPClient, c.Tokens, c.Cache, c.stack, logger)

	return c, nil
}

// NewFromFile assembles a client from a JSON config file with environment
// overrides applied.
func NewFromFile(path string, opts ...ManagerOption) (*Client, error) {
	cfg, err := config.LoadWithEnv(path)
	if err != nil {
		return nil, err
	}
	return NewFromConfig(cfg, opts...)
}

// NewMemoryOnly creates a client with no persistent tier at all. Entries and
// tokens live only as long as the process.
func NewMemoryOnly(opts ...ManagerOption) (*Client, error) {
	cfg := config.DefaultConfig()
	cfg.Redis.Enabled = false
	cfg.LocalStore.Enabled = false
	cfg.Metrics.Enabled = false
	return NewFromConfig(cfg, opts...)
}

// Config returns a default configuration to modify before NewFromConfig.
func Config() *config.Config {
	return config.DefaultConfig()
}

// TestConfig returns a configuration suitable for unit tests.
func TestConfig() *config.Config {
	return config.ForTesting()
}

// selectStore picks the persistent backend: Redis when enabled, then the
// in-process blob store, then plain memory as the last resort.
func selectStore(cfg *config.Config, logger *slog.Logger) storage.KV {
	if cfg.Redis.Enabled {
		return storage.NewRedisKV(cfg.Redis, logger)
	}
	if cfg.LocalStore.Enabled {
		local, err := storage.NewLocalKV(cfg.LocalStore, logger)
		if err != nil {
			logger.Warn("local store unavailable, falling back to memory", "error", err)
			return storage.NewMemoryKV()
		}
		return local
	}
	return storage.NewMemoryKV()
}

func applyOverrides(cfg *config.Config, options *ManagerOptions) {
	if options.BaseURL != "" {
		cfg.API.BaseURL = options.BaseURL
	}
	if options.RedisAddress != "" {
		cfg.Redis.Address = options.RedisAddress
		cfg.Redis.Enabled = true
	}
	if !options.RedisPassword.IsEmpty() {
		cfg.Redis.Password = options.RedisPassword
	}
	if options.RedisDB != 0 {
		cfg.Redis.DB = options.RedisDB
	}
	if options.DisableRedis {
		cfg.Redis.Enabled = false
	}
	if options.DisableResilience {
		cfg.CircuitBreaker.Enabled = false
		cfg.Retry.Enabled = false
		cfg.Bulkhead.Enabled = false
	}
}

// MetricsSnapshot returns the current metrics snapshot, zero when no
// internal tracker is running.
func (c *Client) MetricsSnapshot() metrics.Snapshot {
	if c.tracker == nil {
		return metrics.Snapshot{}
	}
	return c.tracker.Snapshot()
}

// IsCircuitOpen reports whether the shared API breaker is rejecting calls.
func (c *Client) IsCircuitOpen() bool {
	return c.stack.IsCircuitOpen()
}

// Close shuts everything down: refresh timer, background writes, metrics
// publishing, event subscriptions, and the persistent tier.
func (c *Client) Close() error {
	c.Tokens.Close()
	if c.bgPub != nil {
		c.bgPub.Stop()
	}

	// Cache.Close also closes the shared persistent tier.
	err := c.Cache.Close()

	if c.publisher != nil {
		if closeErr := c.publisher.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	c.Events.Close()
	return err
}
