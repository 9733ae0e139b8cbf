package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"meal-planner/internal/config"
	"meal-planner/internal/logger"
	"meal-planner/internal/metrics"
	"meal-planner/internal/recipe"
	"meal-planner/internal/storage"
)

// RecipeSource is the part of the recipe library the planner reads.
type RecipeSource interface {
	List(ctx context.Context) ([]recipe.Recipe, error)
	Get(ctx context.Context, id string) (*recipe.Recipe, error)
}

// Service runs plan operations against the document store.
type Service struct {
	docs      storage.Store
	recipes   RecipeSource
	assembler *Assembler
	now       func() time.Time

	// mu is held across every load, change and save of the plan document.
	mu sync.Mutex
}

// NewService wires a Service. A nil now uses time.Now.
func NewService(docs storage.Store, recipes RecipeSource, assembler *Assembler, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{docs: docs, recipes: recipes, assembler: assembler, now: now}
}

// Current returns the stored plan, or nil when none was generated yet.
func (s *Service) Current(ctx context.Context) (*WeeklyPlan, error) {
	data, err := s.docs.Get(ctx, storage.KeyPlan)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}

	var plan WeeklyPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		logger.FromContext(ctx).Warn("Stored plan is unreadable, treating as missing", "error", err)
		return nil, nil
	}
	plan.repair()
	return &plan, nil
}

func (s *Service) save(ctx context.Context, plan *WeeklyPlan) error {
	if err := storage.PutJSON(ctx, s.docs, storage.KeyPlan, plan); err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}
	return nil
}

// Generate assembles a plan for the week of start (or the stored plan's week
// when start is nil), saves it and records it in the history log. A history
// failure is logged and does not fail the call.
func (s *Service) Generate(ctx context.Context, start *Date) (*WeeklyPlan, error) {
	log := logger.FromContext(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	pool, err := s.recipes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}
	prior, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	household, err := config.LoadHousehold(ctx, s.docs)
	if err != nil {
		return nil, err
	}

	plan, err := s.assembler.Assemble(pool, prior, start, Settings{MaxRepeatPerWeek: household.MaxRepeatPerWeek})
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, plan); err != nil {
		return nil, err
	}

	filled := plan.Assignments()
	metrics.PlansGenerated.Inc()
	metrics.PlanEmptySlots.Add(float64(len(plan.Days)*len(Slots) - filled))
	log.Info("Generated weekly plan", "start_date", plan.StartDate.String(), "filled_slots", filled)

	if err := AppendHistory(ctx, s.docs, plan, s.now()); err != nil {
		metrics.HistoryAppendFailures.Inc()
		log.Error("Failed to record plan history", "error", err)
	}
	return plan, nil
}

// currentOrNew loads the stored plan or starts the current week.
func (s *Service) currentOrNew(ctx context.Context) (*WeeklyPlan, error) {
	plan, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		plan = NewWeek(WeekStart(s.now()))
	}
	return plan, nil
}

func (s *Service) update(ctx context.Context, fn func(*WeeklyPlan) error) (*WeeklyPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := s.currentOrNew(ctx)
	if err != nil {
		return nil, err
	}
	if err := fn(plan); err != nil {
		return nil, err
	}
	if err := s.save(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// AssignRecipe places recipeID in slot on date and saves the plan.
func (s *Service) AssignRecipe(ctx context.Context, date Date, slot Slot, recipeID string) (*WeeklyPlan, error) {
	r, err := s.recipes.Get(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}
	if r == nil {
		return nil, fmt.Errorf("%w: %s", recipe.ErrRecipeNotFound, recipeID)
	}
	return s.update(ctx, func(p *WeeklyPlan) error {
		return Assign(p, date, slot, *r)
	})
}

// ClearSlot empties slot on date and saves the plan.
func (s *Service) ClearSlot(ctx context.Context, date Date, slot Slot) (*WeeklyPlan, error) {
	return s.update(ctx, func(p *WeeklyPlan) error {
		return Clear(p, date, slot)
	})
}

// ToggleSlotLock flips the lock of slot on date and saves the plan.
func (s *Service) ToggleSlotLock(ctx context.Context, date Date, slot Slot) (*WeeklyPlan, error) {
	return s.update(ctx, func(p *WeeklyPlan) error {
		_, err := ToggleLock(p, date, slot)
		return err
	})
}

// SetAllLocked locks or unlocks every filled slot and saves the plan.
func (s *Service) SetAllLocked(ctx context.Context, locked bool) (*WeeklyPlan, error) {
	return s.update(ctx, func(p *WeeklyPlan) error {
		SetAllLocked(p, locked)
		return nil
	})
}

// Today returns today's meals from the stored plan, or nil.
func (s *Service) Today(ctx context.Context) (*Day, error) {
	plan, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	return Today(plan, s.now()), nil
}

// History returns the plan history log oldest first.
func (s *Service) History(ctx context.Context) ([]HistoryEntry, error) {
	return LoadHistory(ctx, s.docs)
}
