package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// envelope is the versioned on-disk shape of every collection value.
type envelope struct {
	Schema int             `json:"schema"`
	Items  json.RawMessage `json:"items"`
}

// LoadCollection reads and decodes the collection stored under key. A key
// that has never been written decodes as an empty collection at revision
// 0, so first writes go through the same compare-and-set path.
func LoadCollection[T any](ctx context.Context, kv KV, key string) ([]T, int64, error) {
	value, rev, err := kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, 0, nil
		}
		return nil, 0, err
	}

	var env envelope
	if err := json.Unmarshal([]byte(value), &env); err != nil {
		return nil, 0, fmt.Errorf("decoding collection %q envelope: %w", key, err)
	}
	if env.Schema != schemaVersion {
		return nil, 0, fmt.Errorf("collection %q has schema %d, want %d", key, env.Schema, schemaVersion)
	}

	var items []T
	if len(env.Items) > 0 {
		if err := json.Unmarshal(env.Items, &items); err != nil {
			return nil, 0, fmt.Errorf("decoding collection %q items: %w", key, err)
		}
	}
	return items, rev, nil
}

// SaveCollection encodes items into the versioned envelope and writes the
// whole collection back at expectedRev. Returns the new revision.
func SaveCollection[T any](ctx context.Context, kv KV, key string, items []T, expectedRev int64) (int64, error) {
	raw, err := json.Marshal(items)
	if err != nil {
		return 0, fmt.Errorf("encoding collection %q items: %w", key, err)
	}

	value, err := json.Marshal(envelope{Schema: schemaVersion, Items: raw})
	if err != nil {
		return 0, fmt.Errorf("encoding collection %q envelope: %w", key, err)
	}

	return kv.Put(ctx, key, string(value), expectedRev)
}
