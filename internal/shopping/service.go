package shopping

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"meal-planner/internal/config"
	"meal-planner/internal/logger"
	"meal-planner/internal/metrics"
	"meal-planner/internal/planner"
	"meal-planner/internal/recipe"
	"meal-planner/internal/storage"
)

var (
	ErrEntryNotFound = errors.New("shopping entry not found")
	ErrInvalidEntry  = errors.New("shopping entry needs a key and a name")
)

// ManualKeyPrefix starts the key of every entry added by hand.
const ManualKeyPrefix = "manual:"

// PlanSource supplies the current weekly plan.
type PlanSource interface {
	Current(ctx context.Context) (*planner.WeeklyPlan, error)
}

// RecipeIndex supplies a lookup over the recipe library.
type RecipeIndex interface {
	Lookup(ctx context.Context) (recipe.Index, error)
}

// Service computes the shopping list and edits the persisted state.
type Service struct {
	docs    storage.Store
	repo    *Repository
	plans   PlanSource
	recipes RecipeIndex

	// mu is held across every load, change and save of the state document.
	mu sync.Mutex
}

// NewService wires a Service over docs.
func NewService(docs storage.Store, plans PlanSource, recipes RecipeIndex) *Service {
	return &Service{docs: docs, repo: NewRepository(docs), plans: plans, recipes: recipes}
}

// Items computes the weekly totals for lang without touching the state.
func (s *Service) Items(ctx context.Context, lang recipe.Language) ([]LineItem, error) {
	plan, err := s.plans.Current(ctx)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, nil
	}
	idx, err := s.recipes.Lookup(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}
	household, err := config.LoadHousehold(ctx, s.docs)
	if err != nil {
		return nil, err
	}
	return Aggregate(plan, idx, lang, household.FamilySize), nil
}

// View computes the list, prunes stale state, saves it when it changed and
// merges both for display.
func (s *Service) View(ctx context.Context, lang recipe.Language) (*View, error) {
	items, err := s.Items(ctx, lang)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}

	reconciled, changed := Reconcile(items, state, string(lang))
	if changed {
		pruned := len(state) - len(reconciled)
		if err := s.repo.Save(ctx, reconciled); err != nil {
			return nil, err
		}
		metrics.ShoppingEntriesPruned.Add(float64(pruned))
		logger.FromContext(ctx).Info("Pruned stale shopping entries", "count", pruned, "lang", string(lang))
	}

	view := MergeForDisplay(items, reconciled)
	view.Lang = string(lang)
	metrics.ShoppingItems.Set(float64(len(items)))
	return &view, nil
}

func (s *Service) update(ctx context.Context, fn func(State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	if err := fn(state); err != nil {
		return err
	}
	return s.repo.Save(ctx, state)
}

// Add puts a computed item on the list, or overwrites the entry under key.
func (s *Service) Add(ctx context.Context, key, name, unit, quantity string, lang recipe.Language) error {
	key, name = strings.TrimSpace(key), strings.TrimSpace(name)
	if key == "" || name == "" {
		return ErrInvalidEntry
	}
	return s.update(ctx, func(st State) error {
		st[key] = Entry{
			Name:     name,
			Unit:     strings.TrimSpace(unit),
			Quantity: Amount(strings.TrimSpace(quantity)),
			Lang:     string(lang),
		}
		return nil
	})
}

// AddManual adds a line that no recipe backs. It survives every
// regeneration until removed and returns the new key.
func (s *Service) AddManual(ctx context.Context, name, unit, quantity string, lang recipe.Language) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidEntry
	}
	key := ManualKeyPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
	err := s.update(ctx, func(st State) error {
		st[key] = Entry{
			Name:     name,
			Unit:     strings.TrimSpace(unit),
			Quantity: Amount(strings.TrimSpace(quantity)),
			Manual:   true,
			Lang:     string(lang),
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// UpdateQuantity replaces the quantity of an existing entry.
func (s *Service) UpdateQuantity(ctx context.Context, key, quantity string) error {
	return s.update(ctx, func(st State) error {
		e, ok := st[key]
		if !ok {
			return fmt.Errorf("%w: %s", ErrEntryNotFound, key)
		}
		e.Quantity = Amount(strings.TrimSpace(quantity))
		st[key] = e
		return nil
	})
}

// Remove deletes the entry under key. Unknown keys are ignored.
func (s *Service) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	if _, ok := state[key]; !ok {
		return nil
	}
	delete(state, key)
	return s.repo.Save(ctx, state)
}
