package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"meal-planner/internal/storage"
)

// HistoryEntry is one immutable record in the plan history log.
type HistoryEntry struct {
	GeneratedAt time.Time  `json:"generated_at"`
	Plan        WeeklyPlan `json:"plan"`
}

// AppendHistory writes a snapshot of plan to the history log.
func AppendHistory(ctx context.Context, docs storage.Store, plan *WeeklyPlan, at time.Time) error {
	entry := HistoryEntry{GeneratedAt: at.UTC(), Plan: *plan.Clone()}
	if err := storage.AppendJSON(ctx, docs, storage.KeyHistory, entry); err != nil {
		return fmt.Errorf("failed to append plan history: %w", err)
	}
	return nil
}

// LoadHistory reads the history log oldest first. Unreadable entries are
// skipped.
func LoadHistory(ctx context.Context, docs storage.Store) ([]HistoryEntry, error) {
	raw, err := docs.Entries(ctx, storage.KeyHistory)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan history: %w", err)
	}

	entries := make([]HistoryEntry, 0, len(raw))
	for i, data := range raw {
		var e HistoryEntry
		if err := json.Unmarshal(data, &e); err != nil {
			slog.Warn("Skipping unreadable history entry", "index", i, "error", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}
