// Package store is the planner's key-value persistence port. Any backend
// able to get/set/remove values and enumerate keys by prefix can carry
// the planner's state; prefix enumeration is what week discovery for the
// monthly recaps relies on.
package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Store is the abstract key-value storage the planner core reads and
// writes. Implementations must treat keys as opaque strings and support
// prefix enumeration.
type Store interface {
	// Get returns the raw value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	// ListKeys returns every stored key starting with prefix, in no
	// particular order.
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// GetJSON unmarshals the value under key into dest. Returns false when
// the key is absent; dest is left untouched in that case.
func GetJSON(ctx context.Context, s Store, key string, dest any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON marshals v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}
