package studykit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newMemoryClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewMemoryOnly()
	if err != nil {
		t.Fatalf("NewMemoryOnly: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewMemoryOnly(t *testing.T) {
	c := newMemoryClient(t)

	if c.Cache == nil || c.Tokens == nil || c.API == nil || c.Events == nil || c.Faults == nil {
		t.Fatal("assembled client has nil components")
	}
	if c.IsCircuitOpen() {
		t.Error("fresh client should have a closed circuit")
	}
}

func TestCacheThroughFacade(t *testing.T) {
	ctx := context.Background()
	c := newMemoryClient(t)

	type flashcard struct {
		Front string `json:"front"`
		Back  string `json:"back"`
	}

	if err := c.Cache.Set(ctx, "flashcards", "fc1", flashcard{Front: "học", Back: "to study"}, time.Minute); err != nil {
		t.Fatal(err)
	}

	var got flashcard
	if !c.Cache.Get(ctx, "flashcards", "fc1", &got) {
		t.Fatal("expected cache hit")
	}
	if got.Front != "học" {
		t.Errorf("got %+v", got)
	}

	stats := c.Cache.Stats()
	if stats.TotalHits != 1 || stats.TotalItems != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestAuthEventsThroughFacade(t *testing.T) {
	c := newMemoryClient(t)

	notifications, cancel := c.Events.Subscribe(TopicAuthError, 1)
	defer cancel()

	// No stored tokens: refresh fails and must broadcast.
	if bundle := c.Tokens.Refresh(context.Background()); bundle != nil {
		t.Errorf("refresh without tokens returned %+v", bundle)
	}

	select {
	case ev := <-notifications:
		if ev.Topic != TopicAuthError {
			t.Errorf("topic = %q", ev.Topic)
		}
	case <-time.After(time.Second):
		t.Fatal("auth-error event never delivered")
	}
}

func TestFaultHelpers(t *testing.T) {
	err := Retry(context.Background(), RetryPolicy{MaxRetries: 0, InitialDelay: time.Millisecond},
		func(ctx context.Context) error { return nil })
	if err != nil {
		t.Errorf("Retry: %v", err)
	}

	if UserMessage(FaultKind("NOT_REAL")) == "" {
		t.Error("UserMessage should always produce text")
	}
	if len(RecoverySuggestions(FaultKind("NOT_REAL"))) == 0 {
		t.Error("RecoverySuggestions should always produce suggestions")
	}
}

func TestMetricsSnapshotWithoutTracker(t *testing.T) {
	c := newMemoryClient(t)

	// Memory-only clients run without an internal tracker.
	s := c.MetricsSnapshot()
	if s.GetCount != 0 || s.SetCount != 0 {
		t.Errorf("snapshot = %+v", s)
	}
}

func TestCustomMetricsRecorder(t *testing.T) {
	// A caller-supplied recorder receives cache observations.
	rec := &countingRecorder{}
	c, err := NewMemoryOnly(WithMetrics(rec))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	if err := c.Cache.Set(ctx, "exam", "a", 1, time.Minute); err != nil {
		t.Fatal(err)
	}
	var dest int
	c.Cache.Get(ctx, "exam", "a", &dest)

	if rec.sets != 1 || rec.hits != 1 {
		t.Errorf("recorder saw sets=%d hits=%d", rec.sets, rec.hits)
	}
}

type countingRecorder struct {
	hits, sets, retries int
}

func (r *countingRecorder) RecordHit(namespace, key, tier string, latency time.Duration)     { r.hits++ }
func (r *countingRecorder) RecordMiss(namespace, key string, latency time.Duration)          {}
func (r *countingRecorder) RecordSet(namespace, key string, size int, latency time.Duration) { r.sets++ }
func (r *countingRecorder) RecordDelete(namespace, key string, latency time.Duration)        {}
func (r *countingRecorder) RecordEviction(namespace, key, strategy string)                   {}
func (r *countingRecorder) RecordRetry(operation string, attempt int, delay time.Duration)   { r.retries++ }
func (r *countingRecorder) RecordCircuitBreakerStateChange(from, to string)                  {}
func (r *countingRecorder) RecordTokenRefresh(outcome string, latency time.Duration)         {}
func (r *countingRecorder) RecordError(component, operation string, err error)               {}

func TestRetriesReachRecorder(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	rec := &countingRecorder{}
	cfg := TestConfig()
	cfg.Redis.Enabled = false
	cfg.LocalStore.Enabled = false
	cfg.API.BaseURL = server.URL
	c, err := NewFromConfig(cfg, WithMetrics(rec))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })

	var dest struct {
		OK bool `json:"ok"`
	}
	if err := c.API.GetJSON(context.Background(), "/api/ping", &dest); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}

	if got := calls.Load(); got != 3 {
		t.Fatalf("server hit %d times, want 3", got)
	}
	if rec.retries != 2 {
		t.Errorf("recorder saw %d retries, want 2", rec.retries)
	}
}

func TestTestConfig(t *testing.T) {
	cfg := TestConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("test config should validate: %v", err)
	}
	if cfg.Redis.Enabled {
		t.Error("test config must not reach for Redis")
	}
}

func TestCloseIdempotent(t *testing.T) {
	c, err := NewMemoryOnly()
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Close(); err != nil {
		t.Errorf("first Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestWithoutResilience(t *testing.T) {
	c, err := NewMemoryOnly(WithoutResilience())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if c.IsCircuitOpen() {
		t.Error("disabled breaker is never open")
	}
}
