package storage

import "context"

// DisabledKV is the backend used when persistence is turned off. Reads miss,
// writes vanish, and callers fall back to memory-only behavior.
type DisabledKV struct{}

func NewDisabledKV() *DisabledKV { return &DisabledKV{} }

func (DisabledKV) GetItem(ctx context.Context, key string) (string, error) {
	return "", ErrUnavailable
}

func (DisabledKV) SetItem(ctx context.Context, key, value string) error {
	return ErrUnavailable
}

func (DisabledKV) RemoveItem(ctx context.Context, key string) error {
	return ErrUnavailable
}

func (DisabledKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	return nil, ErrUnavailable
}

func (DisabledKV) Name() string { return "disabled" }

func (DisabledKV) IsAvailable() bool { return false }

func (DisabledKV) Close() error { return nil }

var _ KV = DisabledKV{}
