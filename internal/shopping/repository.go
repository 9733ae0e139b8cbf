package shopping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"meal-planner/internal/storage"
)

// Repository handles persistence of the shopping state.
type Repository struct {
	docs storage.Store
}

// NewRepository creates a shopping state repository.
func NewRepository(docs storage.Store) *Repository {
	return &Repository{docs: docs}
}

// Load reads the stored state. A missing document is an empty state, and
// entries that cannot be decoded are skipped.
func (r *Repository) Load(ctx context.Context) (State, error) {
	data, err := r.docs.Get(ctx, storage.KeyShoppingState)
	if errors.Is(err, storage.ErrNotFound) {
		return State{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load shopping state: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		slog.Warn("Shopping state is unreadable, starting empty", "error", err)
		return State{}, nil
	}

	state := make(State, len(raw))
	for key, msg := range raw {
		var e Entry
		if err := json.Unmarshal(msg, &e); err != nil {
			slog.Warn("Skipping unreadable shopping entry", "key", key, "error", err)
			continue
		}
		state[key] = e
	}
	return state, nil
}

// Save replaces the stored state.
func (r *Repository) Save(ctx context.Context, state State) error {
	if err := storage.PutJSON(ctx, r.docs, storage.KeyShoppingState, state); err != nil {
		return fmt.Errorf("failed to save shopping state: %w", err)
	}
	return nil
}
