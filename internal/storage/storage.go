// Package storage defines the document persistence port used by every
// service, plus a JSON file implementation of it.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Document keys shared by the services.
const (
	KeyPlan            = "plan"
	KeyHistory         = "history"
	KeyShoppingState   = "shopping_state"
	KeyConfig          = "config"
	KeyExtractionCache = "extraction_cache"
	KeyLegacyRecipes   = "recipes"
	RecipePrefix       = "recipes/"
)

// ErrNotFound is returned by Get when no document exists under the key.
var ErrNotFound = errors.New("document not found")

// Store reads and writes whole documents and append-only logs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	// Keys lists document keys starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)

	Append(ctx context.Context, key string, entry []byte) error
	Entries(ctx context.Context, key string) ([][]byte, error)
}

// GetJSON decodes the document under key into v. It reports false when the
// document does not exist.
func GetJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	data, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// PutJSON encodes v and stores it under key.
func PutJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.Put(ctx, key, data)
}

// AppendJSON encodes v as one log entry.
func AppendJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s entry: %w", key, err)
	}
	return s.Append(ctx, key, data)
}
