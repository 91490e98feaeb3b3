package types

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrInvalidKey is returned when a cache key or namespace fails validation.
var ErrInvalidKey = errors.New("cache: invalid key")

// KeyValidationConfig controls cache key validation.
type KeyValidationConfig struct {
	MaxKeyLength      int
	AllowEmpty        bool
	AllowControlChars bool
	AllowWhitespace   bool
	ReservedPrefixes  []string
}

// KeyValidator validates cache namespaces and keys before they reach either
// storage tier. Persistent backends share a keyspace, so malformed keys can
// collide with other data.
type KeyValidator struct {
	cfg KeyValidationConfig
}

func NewKeyValidator(cfg KeyValidationConfig) *KeyValidator {
	if cfg.MaxKeyLength <= 0 {
		cfg.MaxKeyLength = 1024
	}
	return &KeyValidator{cfg: cfg}
}

// Validate checks a single key component (namespace or logical key).
func (v *KeyValidator) Validate(key string) error {
	if key == "" {
		if v.cfg.AllowEmpty {
			return nil
		}
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	}

	if len(key) > v.cfg.MaxKeyLength {
		return fmt.Errorf("%w: key exceeds %d bytes", ErrInvalidKey, v.cfg.MaxKeyLength)
	}

	for _, prefix := range v.cfg.ReservedPrefixes {
		if strings.HasPrefix(key, prefix) {
			return fmt.Errorf("%w: reserved prefix %q", ErrInvalidKey, prefix)
		}
	}

	for _, r := range key {
		if !v.cfg.AllowControlChars && unicode.IsControl(r) {
			return fmt.Errorf("%w: control character in key", ErrInvalidKey)
		}
		if !v.cfg.AllowWhitespace && unicode.IsSpace(r) {
			return fmt.Errorf("%w: whitespace in key", ErrInvalidKey)
		}
	}

	return nil
}
