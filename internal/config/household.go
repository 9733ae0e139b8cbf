package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"meal-planner/internal/storage"
)

// Household is the persisted planning configuration.
type Household struct {
	FamilySize           int  `json:"family_size" validate:"min=1"`
	MaxRepeatPerWeek     int  `json:"max_repeat_per_week" validate:"min=1"`
	AllowRepeatsIfNeeded bool `json:"allow_repeats_if_needed"`
}

// DefaultHousehold returns the settings used before anything is saved.
func DefaultHousehold() Household {
	return Household{
		FamilySize:           4,
		MaxRepeatPerWeek:     2,
		AllowRepeatsIfNeeded: true,
	}
}

// Normalize clamps the counters to at least 1.
func (h Household) Normalize() Household {
	if h.FamilySize < 1 {
		h.FamilySize = 1
	}
	if h.MaxRepeatPerWeek < 1 {
		h.MaxRepeatPerWeek = 1
	}
	return h
}

// Validate checks the struct tags.
func (h Household) Validate() error {
	return validate.Struct(h)
}

// LoadHousehold reads the household record. Missing fields keep their
// defaults, and an unreadable record falls back to the defaults entirely.
func LoadHousehold(ctx context.Context, docs storage.Store) (Household, error) {
	data, err := docs.Get(ctx, storage.KeyConfig)
	if errors.Is(err, storage.ErrNotFound) {
		return DefaultHousehold(), nil
	}
	if err != nil {
		return Household{}, fmt.Errorf("failed to load household config: %w", err)
	}

	h := DefaultHousehold()
	if err := json.Unmarshal(data, &h); err != nil {
		slog.Warn("Unreadable household config, using defaults", "error", err)
		return DefaultHousehold(), nil
	}
	return h.Normalize(), nil
}

// SaveHousehold validates and stores the household record.
func SaveHousehold(ctx context.Context, docs storage.Store, h Household) error {
	if err := h.Validate(); err != nil {
		return fmt.Errorf("invalid household config: %w", err)
	}
	return storage.PutJSON(ctx, docs, storage.KeyConfig, h)
}
