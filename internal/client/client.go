// Package client is the thin HTTP API client the resilience core serves:
// it attaches bearer tokens, routes calls through the resilience stack,
// classifies failures, and consults the cache for idempotent reads.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/LongNgn204/studykit/internal/cache"
	"github.com/LongNgn204/studykit/internal/config"
	"github.com/LongNgn204/studykit/internal/faults"
	"github.com/LongNgn204/studykit/internal/resilience"
	"github.com/LongNgn204/studykit/internal/token"
)

// Client issues JSON REST calls against the configured base URL.
type Client struct {
	cfg        config.APIConfig
	httpClient *http.Client
	tokens     *token.Manager
	cache      *cache.Manager
	stack      *resilience.Stack
	aiStack    *resilience.Stack
	logger     *slog.Logger
}

// New creates an API client. tokens and cacheManager may be nil, disabling
// bearer attachment and response caching respectively.
func New(cfg config.APIConfig, httpClient *http.Client, tokens *token.Manager, cacheManager *cache.Manager, stack *resilience.Stack, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		tokens:     tokens,
		cache:      cacheManager,
		stack:      stack,
		aiStack:    stack.WithPolicy(resilience.AIPolicy()),
		logger:     logger.With("component", "client"),
	}
}

// GetJSON issues a GET and decodes the JSON response into dest.
func (c *Client) GetJSON(ctx context.Context, path string, dest any) error {
	return c.do(ctx, c.stack, http.MethodGet, path, nil, dest)
}

// GetCached consults the cache under namespace/key before going to the
// network, and stores a successful response for subsequent calls.
func (c *Client) GetCached(ctx context.Context, namespace, key, path string, dest any) error {
	if c.cache != nil && c.cfg.CacheResponses {
		if c.cache.Get(ctx, namespace, key, dest) {
			return nil
		}
	}

	var raw json.RawMessage
	if err := c.do(ctx, c.stack, http.MethodGet, path, nil, &raw); err != nil {
		return err
	}

	if c.cache != nil && c.cfg.CacheResponses {
		if err := c.cache.Set(ctx, namespace, key, raw, 0); err != nil {
			c.logger.Debug("response caching failed", "namespace", namespace, "key", key, "error", err)
		}
	}

	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return faults.Wrap(err, faults.KindParseError, "malformed response body")
	}
	return nil
}

// PostJSON issues a POST with a JSON body. Mutations get the conservative
// retry shape: one careful retry, nothing more.
func (c *Client) PostJSON(ctx context.Context, path string, body, dest any) error {
	return c.do(ctx, c.stack.WithPolicy(resilience.ConservativePolicy()), http.MethodPost, path, body, dest)
}

// PostAI issues a POST against a model-backed endpoint. These calls go
// through the bulkhead-guarded AI stack, which refuses to retry rejected
// prompts.
func (c *Client) PostAI(ctx context.Context, path string, body, dest any) error {
	return c.do(ctx, c.aiStack, http.MethodPost, path, body, dest)
}

// DeleteJSON issues a DELETE.
func (c *Client) DeleteJSON(ctx context.Context, path string, dest any) error {
	return c.do(ctx, c.stack.WithPolicy(resilience.ConservativePolicy()), http.MethodDelete, path, nil, dest)
}

func (c *Client) do(ctx context.Context, stack *resilience.Stack, method, path string, body, dest any) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return faults.Wrap(err, faults.KindInvalidData, "failed to encode request body")
		}
		payload = data
	}

	return stack.Execute(ctx, func(ctx context.Context) error {
		return c.doOnce(ctx, method, path, payload, dest)
	})
}

func (c *Client) doOnce(ctx context.Context, method, path string, payload []byte, dest any) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, c.cfg.BaseURL+path, bodyReader)
	if err != nil {
		return faults.Wrap(err, faults.KindInvalidInput, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.tokens != nil && c.tokens.EnsureValid(ctx) {
		if accessToken := c.tokens.AccessToken(ctx); accessToken != "" {
			req.Header.Set("Authorization", "Bearer "+accessToken)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return faults.Wrap(err, faults.KindNetworkError, "request failed")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return faults.Wrap(err, faults.KindNetworkError, "failed to read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		fault := faults.FromStatus(resp.StatusCode, "request rejected").
			WithContext(method + " " + path)
		c.logger.Debug("request failed",
			"method", method, "path", path, "status", resp.StatusCode, "kind", fault.Kind)
		return fault
	}

	if dest == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return faults.Wrap(err, faults.KindParseError, "malformed response body")
	}
	return nil
}

// IsCircuitOpen reports whether the shared breaker is rejecting calls.
func (c *Client) IsCircuitOpen() bool {
	return c.stack.IsCircuitOpen()
}
