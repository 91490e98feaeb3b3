// Package faults defines the closed error taxonomy shared by the cache,
// retry, token, and API client components. Classification is pure: building
// a record performs no I/O, and the predicates never fail.
package faults

import (
	"errors"
	"fmt"
	"time"
)

// Kind identifies a failure category.
type Kind string

const (
	KindInvalidInput       Kind = "INVALID_INPUT"
	KindValidationError    Kind = "VALIDATION_ERROR"
	KindNotFound           Kind = "NOT_FOUND"
	KindNetworkError       Kind = "NETWORK_ERROR"
	KindTimeout            Kind = "TIMEOUT"
	KindConnectionRefused  Kind = "CONNECTION_REFUSED"
	KindUnauthorized       Kind = "UNAUTHORIZED"
	KindForbidden          Kind = "FORBIDDEN"
	KindTokenExpired       Kind = "TOKEN_EXPIRED"
	KindInvalidToken       Kind = "INVALID_TOKEN"
	KindServerError        Kind = "SERVER_ERROR"
	KindServiceUnavailable Kind = "SERVICE_UNAVAILABLE"
	KindInternalError      Kind = "INTERNAL_ERROR"
	KindRateLimited        Kind = "RATE_LIMITED"
	KindTooManyRequests    Kind = "TOO_MANY_REQUESTS"
	KindAiError            Kind = "AI_ERROR"
	KindInvalidPrompt      Kind = "INVALID_PROMPT"
	KindModelNotFound      Kind = "MODEL_NOT_FOUND"
	KindAiTimeout          Kind = "AI_TIMEOUT"
	KindParseError         Kind = "PARSE_ERROR"
	KindInvalidData        Kind = "INVALID_DATA"
	KindDataCorruption     Kind = "DATA_CORRUPTION"
	KindUnknownError       Kind = "UNKNOWN_ERROR"
)

// Severity grades how serious a fault is.
type Severity int

const (
	SeverityLow Severity = iota + 1
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Error is an immutable failure record. Fields are set at construction and
// never mutated afterwards.
type Error struct {
	Kind       Kind
	Message    string
	Details    any
	HTTPStatus int
	Timestamp  time.Time
	Context    string
	Severity   Severity
	cause      error
}

func (e *Error) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s [%s]: %s", e.Kind, e.Context, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New builds a fault record of the given kind. Severity defaults per kind
// (server-class kinds are High, data corruption is Critical, everything else
// Medium).
func New(kind Kind, message string) *Error {
	return &Error{
		Kind:      kind,
		Message:   message,
		Timestamp: time.Now(),
		Severity:  defaultSeverity(kind),
	}
}

// Wrap builds a fault record that carries the underlying cause for
// errors.Is/errors.As chains.
func Wrap(err error, kind Kind, message string) *Error {
	e := New(kind, message)
	e.cause = err
	return e
}

// FromStatus classifies an HTTP status into a fault record. Failures with a
// server-class status are graded High.
func FromStatus(status int, message string) *Error {
	e := New(KindForStatus(status), message)
	e.HTTPStatus = status
	if status >= 500 {
		e.Severity = SeverityHigh
	}
	return e
}

// WithContext returns a copy of the record annotated with the operation that
// produced it. The original record is left untouched.
func (e *Error) WithContext(ctx string) *Error {
	clone := *e
	clone.Context = ctx
	return &clone
}

// WithDetails returns a copy of the record carrying extra diagnostic data.
func (e *Error) WithDetails(details any) *Error {
	clone := *e
	clone.Details = details
	return &clone
}

// KindOf extracts the Kind from any error. Non-taxonomy errors report
// KindUnknownError rather than being coerced into a misleading kind.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknownError
}

func defaultSeverity(kind Kind) Severity {
	switch kind {
	case KindServerError, KindServiceUnavailable, KindInternalError:
		return SeverityHigh
	case KindDataCorruption:
		return SeverityCritical
	default:
		return SeverityMedium
	}
}
