// Package storage provides the narrow persistent key-value interface the
// cache engine and token manager depend on, with Redis, in-process, and
// disabled backends. Every backend must tolerate being unavailable; callers
// degrade to memory-only behavior when it is.
package storage

import "context"

// Sentinel errors shared by all backends.
var (
	ErrNotFound    = errNotFound{}
	ErrUnavailable = errUnavailable{}
)

type errNotFound struct{}

func (errNotFound) Error() string { return "storage: key not found" }

type errUnavailable struct{}

func (errUnavailable) Error() string { return "storage: persistent store unavailable" }

// KV is the persistent tier contract. Values are opaque strings; callers own
// serialization. Writes may be applied asynchronously and best-effort.
type KV interface {
	// GetItem returns the stored value or ErrNotFound.
	GetItem(ctx context.Context, key string) (string, error)

	// SetItem stores a value. Implementations may queue the write and
	// apply it later; a nil return does not guarantee durability.
	SetItem(ctx context.Context, key, value string) error

	// RemoveItem deletes a key. Removing an absent key is not an error.
	RemoveItem(ctx context.Context, key string) error

	// Keys lists stored keys with the given prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Name identifies the backend for logs and metrics.
	Name() string

	// IsAvailable reports whether the backend is usable right now.
	IsAvailable() bool

	// Close releases backend resources.
	Close() error
}
