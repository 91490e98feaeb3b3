// Package studykit is the client-side resilience core for study/chat
// applications talking to a remote HTTP API: a two-tier TTL cache with
// namespaced eviction policies, a JWT token lifecycle manager with coalesced
// refresh, a retry engine with circuit breaker and bulkhead, and a typed
// error taxonomy the other pieces consult.
//
// # Quick Start
//
// Assemble a client once at process start and inject it into consumers:
//
//	kit, err := studykit.New(studykit.WithBaseURL("https://api.example.com"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer kit.Close()
//
// # Caching
//
// The cache partitions entries into namespaces, each with its own TTL,
// capacity, and eviction strategy:
//
//	ctx := context.Background()
//	kit.Cache.Set(ctx, "exam", "exam:42", examData, 0)
//
//	var cached ExamData
//	if kit.Cache.Get(ctx, "exam", "exam:42", &cached) {
//	    // hit
//	}
//
// Entries expire after their namespace TTL and one victim is evicted per
// insert that breaches the namespace capacity (LRU or FIFO). Hits and misses
// accumulate in kit.Cache.Stats().
//
// # Tokens
//
// The token manager persists the access/refresh pair, schedules proactive
// refresh before expiry, and coalesces concurrent refreshes into a single
// network call:
//
//	if kit.Tokens.Initialize(ctx) {
//	    // session restored
//	}
//
// An irrecoverable refresh failure clears the stored tokens and publishes
// an auth-error event:
//
//	authErrors, cancel := kit.Events.Subscribe(studykit.TopicAuthError, 1)
//	defer cancel()
//
// # API Calls
//
// The API client attaches bearer tokens, retries retryable failures with
// exponential backoff and jitter, trips a circuit breaker on repeated
// failures, and classifies non-2xx responses into the fault taxonomy:
//
//	var exams []Exam
//	err := kit.API.GetCached(ctx, "exam", "list", "/api/exams", &exams)
//
// # Errors
//
// Failures carry a Kind usable for retryability and auth checks:
//
//	if studykit.IsAuthError(err) {
//	    // force re-login
//	}
//	msg := studykit.UserMessage(studykit.KindOf(err))
//
// # Thread Safety
//
// All operations are safe for concurrent use.
package studykit
