// Package token owns the access/refresh token pair: persistence, expiry
// detection, proactive refresh scheduling, and the guarantee that at most
// one refresh is ever in flight.
package token

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/LongNgn204/studykit/internal/config"
	"github.com/LongNgn204/studykit/internal/events"
	"github.com/LongNgn204/studykit/internal/faults"
	"github.com/LongNgn204/studykit/internal/storage"
	"github.com/LongNgn204/studykit/internal/types"
)

// Manager is the token lifecycle manager. One instance per client; tests
// construct fresh isolated instances rather than resetting shared state.
type Manager struct {
	cfg        config.TokenConfig
	baseURL    string
	store      storage.KV
	bus        *events.Bus
	httpClient *http.Client
	logger     *slog.Logger
	metrics    types.MetricsRecorder

	sf singleflight.Group

	mu    sync.Mutex
	timer *time.Timer

	// bundle is the authoritative in-memory copy. The persistent store is a
	// best-effort mirror whose writes may be applied asynchronously, so a
	// rotated bundle must be visible here before the mirror catches up.
	bundle *Bundle

	// nowFunc is the logical clock for expiry decisions.
	nowFunc func() time.Time
}

// NewManager creates a token manager. The bus receives auth-error and
// logout notifications; nil disables publishing.
func NewManager(cfg config.TokenConfig, baseURL string, store storage.KV, bus *events.Bus, httpClient *http.Client, logger *slog.Logger, metrics types.MetricsRecorder) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.RefreshBuffer <= 0 {
		cfg.RefreshBuffer = time.Minute
	}
	if cfg.RefreshPath == "" {
		cfg.RefreshPath = "/api/auth/refresh"
	}
	if cfg.StorageKey == "" {
		cfg.StorageKey = "auth:tokens"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}

	return &Manager{
		cfg:        cfg,
		baseURL:    baseURL,
		store:      store,
		bus:        bus,
		httpClient: httpClient,
		logger:     logger.With("component", "token"),
		metrics:    metrics,
		nowFunc:    time.Now,
	}
}

// StoreBundle installs a bundle, first correcting ExpiresAt from the access
// token's decoded exp claim. A stale ExpiresAt is a correctness bug: the
// expiry scheduling below depends on it. The in-memory copy is updated
// before the mirror write, so a freshly rotated bundle is visible to Load
// even while the persistent write is still queued.
func (m *Manager) StoreBundle(ctx context.Context, b *Bundle) error {
	if b == nil {
		return faults.New(faults.KindInvalidData, "cannot store nil token bundle")
	}

	if exp, ok := ExpiryUnixMilli(b.AccessToken); ok {
		b.ExpiresAt = exp
	}
	if b.TokenType == "" {
		b.TokenType = "Bearer"
	}

	raw, err := encodeBundle(b)
	if err != nil {
		return faults.Wrap(err, faults.KindInvalidData, "failed to encode token bundle")
	}

	held := *b
	m.mu.Lock()
	m.bundle = &held
	m.mu.Unlock()

	if err := m.store.SetItem(ctx, m.cfg.StorageKey, raw); err != nil {
		m.logger.Warn("token bundle persist failed", "error", err)
	}
	return nil
}

// Load returns the current bundle, nil when absent or partial. The
// in-memory copy wins; the persistent store is consulted only once, to
// restore a session at process start.
func (m *Manager) Load(ctx context.Context) *Bundle {
	m.mu.Lock()
	if m.bundle != nil {
		b := *m.bundle
		m.mu.Unlock()
		return &b
	}
	m.mu.Unlock()

	raw, err := m.store.GetItem(ctx, m.cfg.StorageKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) && !errors.Is(err, storage.ErrUnavailable) {
			m.logger.Debug("token bundle load failed", "error", err)
		}
		return nil
	}

	restored := decodeBundle(raw)
	if restored == nil {
		return nil
	}

	m.mu.Lock()
	if m.bundle == nil {
		m.bundle = restored
	}
	b := *m.bundle
	m.mu.Unlock()
	return &b
}

// Clear drops the in-memory bundle and removes the persisted mirror.
func (m *Manager) Clear(ctx context.Context) {
	m.mu.Lock()
	m.bundle = nil
	m.mu.Unlock()

	if err := m.store.RemoveItem(ctx, m.cfg.StorageKey); err != nil {
		m.logger.Debug("token bundle clear failed", "error", err)
	}
}

// ScheduleRefresh arms a one-shot timer that refreshes the token shortly
// before expiresAt. Any previously armed timer is cancelled first, so at
// most one timer exists per manager. When the expiry is already inside the
// buffer window no timer is armed; the caller should refresh directly.
func (m *Manager) ScheduleRefresh(expiresAt int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}

	delay := time.Duration(expiresAt-m.nowFunc().UnixMilli())*time.Millisecond - m.cfg.RefreshBuffer
	if delay <= 0 {
		return
	}

	m.timer = time.AfterFunc(delay, func() {
		m.Refresh(context.Background())
	})
	m.logger.Debug("proactive refresh scheduled", "delay", delay)
}

// cancelTimer stops any armed refresh timer.
func (m *Manager) cancelTimer() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// refreshResponse accepts both the flat refresh payload and the same
// payload nested under a data envelope.
type refreshResponse struct {
	Bundle
	Data *Bundle `json:"data"`
}

// Refresh exchanges the stored refresh token for a new bundle. Concurrent
// callers coalesce onto a single network call and all receive the same
// outcome. On any failure the stored tokens are cleared, an auth-error
// notification is published, and nil is returned - this method never
// returns an error, so callers treat nil uniformly as "must
// re-authenticate". The refresh itself is a single attempt: retrying a
// rejected refresh token is pointless.
func (m *Manager) Refresh(ctx context.Context) *Bundle {
	result, _, _ := m.sf.Do("refresh", func() (any, error) {
		return m.refreshOnce(ctx), nil
	})
	bundle, _ := result.(*Bundle)
	return bundle
}

func (m *Manager) refreshOnce(ctx context.Context) *Bundle {
	start := time.Now()

	current := m.Load(ctx)
	if current == nil || current.RefreshToken == "" {
		return m.refreshFailed(ctx, start, "no refresh token stored", nil)
	}

	bundle, err := m.callRefreshEndpoint(ctx, current.RefreshToken)
	if err != nil {
		return m.refreshFailed(ctx, start, "refresh endpoint call failed", err)
	}

	if err := m.StoreBundle(ctx, bundle); err != nil {
		return m.refreshFailed(ctx, start, "refresh result rejected", err)
	}
	m.ScheduleRefresh(bundle.ExpiresAt)

	m.logger.Info("token refreshed", "expiresAt", bundle.ExpiresAt)
	if m.metrics != nil {
		m.metrics.RecordTokenRefresh("success", time.Since(start))
	}
	return bundle
}

func (m *Manager) refreshFailed(ctx context.Context, start time.Time, reason string, err error) *Bundle {
	m.logger.Warn("token refresh failed", "reason", reason, "error", err)

	m.cancelTimer()
	m.Clear(ctx)

	if m.bus != nil {
		m.bus.Publish(events.TopicAuthError, reason)
	}
	if m.metrics != nil {
		m.metrics.RecordTokenRefresh("failure", time.Since(start))
		if err != nil {
			m.metrics.RecordError("token", "refresh", err)
		}
	}
	return nil
}

func (m *Manager) callRefreshEndpoint(ctx context.Context, refreshToken string) (*Bundle, error) {
	body, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return nil, faults.Wrap(err, faults.KindInvalidData, "failed to encode refresh request")
	}

	reqCtx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, m.baseURL+m.cfg.RefreshPath, bytes.NewReader(body))
	if err != nil {
		return nil, faults.Wrap(err, faults.KindInvalidInput, "failed to build refresh request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, faults.Wrap(err, faults.KindNetworkError, "refresh request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, faults.FromStatus(resp.StatusCode, "refresh endpoint rejected the request")
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, faults.Wrap(err, faults.KindNetworkError, "failed to read refresh response")
	}

	var parsed refreshResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, faults.Wrap(err, faults.KindParseError, "malformed refresh response")
	}

	bundle := &parsed.Bundle
	if parsed.Data != nil && parsed.Data.AccessToken != "" {
		bundle = parsed.Data
	}
	if bundle.AccessToken == "" || bundle.RefreshToken == "" {
		return nil, faults.New(faults.KindInvalidData, "refresh response missing token fields")
	}
	return bundle, nil
}

// EnsureValid guarantees a usable access token, refreshing on demand.
// Returns false when no tokens are stored or the refresh fails.
func (m *Manager) EnsureValid(ctx context.Context) bool {
	bundle := m.Load(ctx)
	if bundle == nil {
		return false
	}
	if !isExpired(bundle.ExpiresAt, m.cfg.RefreshBuffer, m.nowFunc()) {
		return true
	}
	return m.Refresh(ctx) != nil
}

// AccessToken returns the stored access token, empty when absent. No
// expiry check and no network call.
func (m *Manager) AccessToken(ctx context.Context) string {
	if bundle := m.Load(ctx); bundle != nil {
		return bundle.AccessToken
	}
	return ""
}

// IsAuthenticated reports whether an unexpired bundle exists, measured
// without the proactive buffer.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	bundle := m.Load(ctx)
	return bundle != nil && !isExpired(bundle.ExpiresAt, 0, m.nowFunc())
}

// Initialize restores session state at process start: loads any persisted
// bundle, refreshes synchronously when it is already inside the buffer
// window, and otherwise arms the proactive timer. Returns whether the
// caller ends up authenticated.
func (m *Manager) Initialize(ctx context.Context) bool {
	bundle := m.Load(ctx)
	if bundle == nil {
		return false
	}

	if isExpired(bundle.ExpiresAt, m.cfg.RefreshBuffer, m.nowFunc()) {
		return m.Refresh(ctx) != nil
	}

	m.ScheduleRefresh(bundle.ExpiresAt)
	return true
}

// Logout cancels the refresh timer, clears stored tokens, and broadcasts a
// logout notification.
func (m *Manager) Logout(ctx context.Context) {
	m.cancelTimer()
	m.Clear(ctx)
	if m.bus != nil {
		m.bus.Publish(events.TopicLogout, "user logout")
	}
	m.logger.Info("logged out")
}

// Close cancels any armed timer. It does not clear stored tokens.
func (m *Manager) Close() {
	m.cancelTimer()
}
