package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/LongNgn204/studykit/internal/cache"
	"github.com/LongNgn204/studykit/internal/config"
	"github.com/LongNgn204/studykit/internal/faults"
	"github.com/LongNgn204/studykit/internal/resilience"
	"github.com/LongNgn204/studykit/internal/storage"
	"github.com/LongNgn204/studykit/internal/token"
)

func fastStack(t *testing.T) *resilience.Stack {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Retry.Enabled = true
	cfg.Retry.MaxRetries = 2
	cfg.Retry.InitialDelay = time.Millisecond
	cfg.Retry.MaxDelay = 5 * time.Millisecond
	cfg.CircuitBreaker.Enabled = true
	cfg.CircuitBreaker.FailureThreshold = 100
	cfg.Bulkhead.Enabled = true
	return resilience.NewStack("test", cfg)
}

func newTestClient(t *testing.T, handler http.Handler, tokens *token.Manager, cacheManager *cache.Manager) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := New(config.APIConfig{
		BaseURL:        server.URL,
		RequestTimeout: 5 * time.Second,
		CacheResponses: true,
	}, nil, tokens, cacheManager, fastStack(t), nil)
	return c, server
}

// seededTokenManager returns a manager holding a long-lived session.
func seededTokenManager(t *testing.T) (*token.Manager, string) {
	t.Helper()

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	payload, err := json.Marshal(map[string]any{"exp": time.Now().Add(time.Hour).Unix()})
	if err != nil {
		t.Fatal(err)
	}
	access := header + "." + base64.RawURLEncoding.EncodeToString(payload) + "."

	kv := storage.NewMemoryKV()
	m := token.NewManager(config.TokenConfig{}, "http://unused", kv, nil, nil, nil, nil)
	if err := m.StoreBundle(context.Background(), &token.Bundle{
		AccessToken:  access,
		RefreshToken: "refresh-1",
	}); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		m.Close()
		_ = kv.Close()
	})
	return m, access
}

func TestGetJSON(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/exams" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"title": "N3 practice"})
	}), nil, nil)

	var got struct {
		Title string `json:"title"`
	}
	if err := c.GetJSON(context.Background(), "/api/exams", &got); err != nil {
		t.Fatal(err)
	}
	if got.Title != "N3 practice" {
		t.Errorf("title = %q", got.Title)
	}
}

func TestBearerTokenAttached(t *testing.T) {
	tokens, access := seededTokenManager(t)

	var gotAuth atomic.Value
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		w.Write([]byte(`{}`))
	}), tokens, nil)

	if err := c.GetJSON(context.Background(), "/api/me", nil); err != nil {
		t.Fatal(err)
	}
	if got := gotAuth.Load(); got != "Bearer "+access {
		t.Errorf("Authorization = %q", got)
	}
}

func TestNoTokenManagerMeansNoHeader(t *testing.T) {
	var gotAuth atomic.Value
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		w.Write([]byte(`{}`))
	}), nil, nil)

	if err := c.GetJSON(context.Background(), "/api/public", nil); err != nil {
		t.Fatal(err)
	}
	if got := gotAuth.Load(); got != "" {
		t.Errorf("Authorization = %q, want empty", got)
	}
}

func TestRetriesTransientServerErrors(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	}), nil, nil)

	var got struct {
		OK bool `json:"ok"`
	}
	if err := c.GetJSON(context.Background(), "/api/flaky", &got); err != nil {
		t.Fatal(err)
	}
	if !got.OK || calls.Load() != 3 {
		t.Errorf("ok=%v after %d calls", got.OK, calls.Load())
	}
}

func TestNotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}), nil, nil)

	err := c.GetJSON(context.Background(), "/api/exams/999", nil)
	if faults.KindOf(err) != faults.KindNotFound {
		t.Errorf("kind = %v, want not found", faults.KindOf(err))
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, 404s must not be retried", calls.Load())
	}
}

func TestFaultCarriesRequestContext(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}), nil, nil)

	err := c.GetJSON(context.Background(), "/api/admin", nil)

	var fault *faults.Error
	if !errors.As(err, &fault) {
		t.Fatalf("err = %T, want a classified error", err)
	}
	if fault.Context != "GET /api/admin" {
		t.Errorf("context = %q", fault.Context)
	}
	if fault.HTTPStatus != http.StatusForbidden {
		t.Errorf("status = %d", fault.HTTPStatus)
	}
}

func TestGetCachedShortCircuits(t *testing.T) {
	ctx := context.Background()

	cm := cache.NewManager(config.CacheConfig{
		Default: config.NamespaceConfig{TTL: time.Minute, MaxEntries: 10, Eviction: config.EvictionLRU},
	}, nil, nil, nil)
	t.Cleanup(func() { _ = cm.Close() })

	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(map[string]int{"score": 87})
	}), nil, cm)

	var first, second struct {
		Score int `json:"score"`
	}
	if err := c.GetCached(ctx, "exam", "result:42", "/api/exams/42/result", &first); err != nil {
		t.Fatal(err)
	}
	if err := c.GetCached(ctx, "exam", "result:42", "/api/exams/42/result", &second); err != nil {
		t.Fatal(err)
	}

	if calls.Load() != 1 {
		t.Errorf("network calls = %d, second read should come from cache", calls.Load())
	}
	if first.Score != 87 || second.Score != 87 {
		t.Errorf("scores = %d, %d", first.Score, second.Score)
	}
}

func TestPostJSON(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body["answer"] != "B" {
			t.Errorf("body = %v, %v", body, err)
		}
		json.NewEncoder(w).Encode(map[string]bool{"correct": true})
	}), nil, nil)

	var got struct {
		Correct bool `json:"correct"`
	}
	if err := c.PostJSON(context.Background(), "/api/exams/42/answers", map[string]string{"answer": "B"}, &got); err != nil {
		t.Fatal(err)
	}
	if !got.Correct {
		t.Error("response not decoded")
	}
}

func TestPostAI(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"reply": "Chào bạn!"})
	}), nil, nil)

	var got struct {
		Reply string `json:"reply"`
	}
	if err := c.PostAI(context.Background(), "/api/chat", map[string]string{"message": "hi"}, &got); err != nil {
		t.Fatal(err)
	}
	if got.Reply == "" {
		t.Error("empty AI reply")
	}
}

func TestDeleteJSON(t *testing.T) {
	var gotMethod atomic.Value
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod.Store(r.Method)
		w.WriteHeader(http.StatusNoContent)
	}), nil, nil)

	if err := c.DeleteJSON(context.Background(), "/api/flashcards/7", nil); err != nil {
		t.Fatal(err)
	}
	if gotMethod.Load() != http.MethodDelete {
		t.Errorf("method = %v", gotMethod.Load())
	}
}

func TestIsCircuitOpen(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}), nil, nil)

	if c.IsCircuitOpen() {
		t.Error("fresh client should have a closed circuit")
	}
}
