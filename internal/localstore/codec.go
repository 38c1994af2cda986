package localstore

import (
	"context"
	"encoding/json"
	"fmt"
)

// GetJSON reads key and unmarshals its value into out. Returns found=false
// without touching out when the key has never been written.
func GetJSON[T any](ctx context.Context, store LocalStore, key string, out *T) (bool, error) {
	raw, found, err := store.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	if err = json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode local key %q: %w", key, err)
	}

	return true, nil
}

// SetJSON marshals value and durably writes it under key.
func SetJSON[T any](ctx context.Context, store LocalStore, key string, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode local key %q: %w", key, err)
	}

	return store.Set(ctx, key, raw)
}
