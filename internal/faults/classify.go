package faults

import (
	"errors"
	"net"
	"net/http"
	"os"
	"syscall"
)

// KindForStatus maps an HTTP status code to a fault kind. It is total and
// deterministic: any status, including nonsense values, yields a kind.
func KindForStatus(status int) Kind {
	switch status {
	case http.StatusBadRequest:
		return KindInvalidInput
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusRequestTimeout:
		return KindTimeout
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusServiceUnavailable:
		return KindServiceUnavailable
	}
	if status >= 500 {
		return KindServerError
	}
	return KindUnknownError
}

// retryableKinds are transient by nature: trying again can succeed without
// anything else changing.
var retryableKinds = map[Kind]bool{
	KindNetworkError:       true,
	KindTimeout:            true,
	KindConnectionRefused:  true,
	KindServerError:        true,
	KindServiceUnavailable: true,
	KindRateLimited:        true,
	KindAiTimeout:          true,
}

// authKinds require the user to re-authenticate; retrying is pointless.
var authKinds = map[Kind]bool{
	KindUnauthorized: true,
	KindForbidden:    true,
	KindTokenExpired: true,
	KindInvalidToken: true,
}

// IsRetryable reports whether the failure is transient. Classified faults
// consult the kind table; unclassified errors are checked for raw transport
// failures (timeouts, refused or reset connections). Auth and validation
// failures are never retryable - repeating those wastes a cycle and can mask
// a real bug.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var fe *Error
	if errors.As(err, &fe) {
		return retryableKinds[fe.Kind]
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}

	return errors.Is(err, os.ErrDeadlineExceeded)
}

// IsAuthError reports whether the failure means the caller must
// re-authenticate.
func IsAuthError(err error) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return authKinds[fe.Kind]
	}
	return false
}
