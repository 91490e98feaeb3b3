package faults

import (
	"errors"
	"fmt"
	"syscall"
	"testing"
)

func TestKindForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{400, KindInvalidInput},
		{401, KindUnauthorized},
		{403, KindForbidden},
		{404, KindNotFound},
		{408, KindTimeout},
		{429, KindRateLimited},
		{503, KindServiceUnavailable},
		{500, KindServerError},
		{502, KindServerError},
		{599, KindServerError},
		{200, KindUnknownError},
		{302, KindUnknownError},
		{0, KindUnknownError},
		{-1, KindUnknownError},
	}

	for _, tt := range tests {
		if got := KindForStatus(tt.status); got != tt.want {
			t.Errorf("KindForStatus(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	t.Run("retryable kinds", func(t *testing.T) {
		for _, kind := range []Kind{
			KindNetworkError, KindTimeout, KindConnectionRefused,
			KindServerError, KindServiceUnavailable, KindRateLimited, KindAiTimeout,
		} {
			if !IsRetryable(New(kind, "x")) {
				t.Errorf("expected %v to be retryable", kind)
			}
		}
	})

	t.Run("non-retryable kinds", func(t *testing.T) {
		for _, kind := range []Kind{
			KindInvalidInput, KindValidationError, KindUnauthorized,
			KindForbidden, KindTokenExpired, KindInvalidToken,
			KindNotFound, KindInvalidPrompt, KindParseError,
		} {
			if IsRetryable(New(kind, "x")) {
				t.Errorf("expected %v to not be retryable", kind)
			}
		}
	})

	t.Run("raw transport failures", func(t *testing.T) {
		if !IsRetryable(syscall.ECONNREFUSED) {
			t.Error("ECONNREFUSED should be retryable")
		}
		if !IsRetryable(fmt.Errorf("dial: %w", syscall.ECONNRESET)) {
			t.Error("wrapped ECONNRESET should be retryable")
		}
	})

	t.Run("unclassified errors", func(t *testing.T) {
		if IsRetryable(errors.New("something broke")) {
			t.Error("plain error should not be retryable")
		}
		if IsRetryable(nil) {
			t.Error("nil should not be retryable")
		}
	})
}

func TestIsAuthError(t *testing.T) {
	for _, kind := range []Kind{KindUnauthorized, KindForbidden, KindTokenExpired, KindInvalidToken} {
		if !IsAuthError(New(kind, "x")) {
			t.Errorf("expected %v to be an auth error", kind)
		}
	}
	if IsAuthError(New(KindNetworkError, "x")) {
		t.Error("network error is not an auth error")
	}
	if IsAuthError(errors.New("nope")) {
		t.Error("plain error is not an auth error")
	}
}

func TestSeverityDefaults(t *testing.T) {
	if got := New(KindServerError, "x").Severity; got != SeverityHigh {
		t.Errorf("server error severity = %v, want high", got)
	}
	if got := New(KindDataCorruption, "x").Severity; got != SeverityCritical {
		t.Errorf("data corruption severity = %v, want critical", got)
	}
	if got := New(KindNotFound, "x").Severity; got != SeverityMedium {
		t.Errorf("not found severity = %v, want medium", got)
	}
}

func TestFromStatus(t *testing.T) {
	e := FromStatus(503, "unavailable")
	if e.Kind != KindServiceUnavailable {
		t.Errorf("kind = %v", e.Kind)
	}
	if e.HTTPStatus != 503 {
		t.Errorf("status = %d", e.HTTPStatus)
	}
	if e.Severity != SeverityHigh {
		t.Errorf("severity = %v, want high", e.Severity)
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(New(KindTimeout, "x")); got != KindTimeout {
		t.Errorf("KindOf = %v", got)
	}
	wrapped := fmt.Errorf("outer: %w", New(KindRateLimited, "x"))
	if got := KindOf(wrapped); got != KindRateLimited {
		t.Errorf("KindOf(wrapped) = %v", got)
	}
	if got := KindOf(errors.New("plain")); got != KindUnknownError {
		t.Errorf("KindOf(plain) = %v", got)
	}
}

func TestWithContextDoesNotMutate(t *testing.T) {
	base := New(KindNetworkError, "boom")
	annotated := base.WithContext("GET /api/exams")

	if base.Context != "" {
		t.Error("original record was mutated")
	}
	if annotated.Context != "GET /api/exams" {
		t.Errorf("annotated context = %q", annotated.Context)
	}
	if annotated.Kind != base.Kind {
		t.Error("clone lost the kind")
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("underlying")
	e := Wrap(cause, KindNetworkError, "request failed")
	if !errors.Is(e, cause) {
		t.Error("wrapped cause not reachable via errors.Is")
	}
}

func TestUserMessagesCoverAllKinds(t *testing.T) {
	kinds := []Kind{
		KindInvalidInput, KindValidationError, KindNotFound, KindNetworkError,
		KindTimeout, KindConnectionRefused, KindUnauthorized, KindForbidden,
		KindTokenExpired, KindInvalidToken, KindServerError, KindServiceUnavailable,
		KindInternalError, KindRateLimited, KindTooManyRequests, KindAiError,
		KindInvalidPrompt, KindModelNotFound, KindAiTimeout, KindParseError,
		KindInvalidData, KindDataCorruption, KindUnknownError,
	}

	for _, kind := range kinds {
		if UserMessage(kind) == "" {
			t.Errorf("no user message for %v", kind)
		}
		suggestions := RecoverySuggestions(kind)
		if len(suggestions) < 2 || len(suggestions) > 4 {
			t.Errorf("%v has %d recovery suggestions, want 2-4", kind, len(suggestions))
		}
	}
}

func TestUserMessageUnknownKindFallsBack(t *testing.T) {
	if UserMessage(Kind("NOT_A_REAL_KIND")) != UserMessage(KindUnknownError) {
		t.Error("unknown kind should fall back to the unknown-error message")
	}
}

func TestLogRingBuffer(t *testing.T) {
	t.Run("retains newest first", func(t *testing.T) {
		log := NewLog(3)
		for i := 0; i < 3; i++ {
			log.Record(New(KindNetworkError, fmt.Sprintf("err-%d", i)))
		}

		recent := log.Recent(0)
		if len(recent) != 3 {
			t.Fatalf("len = %d", len(recent))
		}
		if recent[0].Message != "err-2" || recent[2].Message != "err-0" {
			t.Errorf("wrong order: %q, %q", recent[0].Message, recent[2].Message)
		}
	})

	t.Run("evicts oldest when full", func(t *testing.T) {
		log := NewLog(3)
		for i := 0; i < 5; i++ {
			log.Record(New(KindTimeout, fmt.Sprintf("err-%d", i)))
		}

		if log.Len() != 3 {
			t.Fatalf("len = %d, want 3", log.Len())
		}
		recent := log.Recent(0)
		if recent[0].Message != "err-4" || recent[2].Message != "err-2" {
			t.Errorf("wrong retained window: %q..%q", recent[0].Message, recent[2].Message)
		}
	})

	t.Run("clear", func(t *testing.T) {
		log := NewLog(2)
		log.Record(New(KindTimeout, "x"))
		log.Clear()
		if log.Len() != 0 {
			t.Errorf("len after clear = %d", log.Len())
		}
	})

	t.Run("nil records ignored", func(t *testing.T) {
		log := NewLog(2)
		log.Record(nil)
		if log.Len() != 0 {
			t.Error("nil record was retained")
		}
	})
}
