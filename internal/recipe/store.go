package recipe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"meal-planner/internal/storage"

	"github.com/google/uuid"
)

var (
	// ErrRecipeNotFound is returned when updating a recipe that does not exist.
	ErrRecipeNotFound = errors.New("recipe not found")
	ErrInvalidImport  = errors.New("invalid recipe data")
)

const maxIDSuffix = 99

// Store is the recipe library on top of the document store. Recipes are
// normalized on every read.
type Store struct {
	docs storage.Store

	// mu serializes writes so concurrent creates never pick the same id.
	mu sync.Mutex
}

// NewStore creates a Store over docs.
func NewStore(docs storage.Store) *Store {
	return &Store{docs: docs}
}

type loaded struct {
	key     string
	recipes []Recipe
}

// List returns every recipe with ids derived and de-duplicated.
func (s *Store) List(ctx context.Context) ([]Recipe, error) {
	docs, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	stored := make(map[string]bool)
	for _, d := range docs {
		if d.key != storage.KeyLegacyRecipes {
			stored[strings.TrimPrefix(d.key, storage.RecipePrefix)] = true
		}
	}

	seen := make(map[string]bool)
	legacy := make(map[string]bool)
	var out []Recipe
	for _, d := range docs {
		for _, r := range d.recipes {
			r = Normalize(r)
			if d.key == storage.KeyLegacyRecipes {
				// Ids in the legacy list are derived within the list alone, so
				// a per-recipe document written for one of them replaces it.
				r.ID = uniqueID(r.ID, func(id string) bool { return legacy[id] })
				legacy[r.ID] = true
				if stored[r.ID] {
					continue
				}
			}
			r.ID = uniqueID(r.ID, func(id string) bool { return seen[id] })
			seen[r.ID] = true
			out = append(out, r)
		}
	}
	return out, nil
}

// Get returns the recipe with id, or nil when there is none.
func (s *Store) Get(ctx context.Context, id string) (*Recipe, error) {
	recipes, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range recipes {
		if recipes[i].ID == id {
			return &recipes[i], nil
		}
	}
	return nil, nil
}

// Lookup builds an id index over the current library.
func (s *Store) Lookup(ctx context.Context) (Index, error) {
	recipes, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return NewIndex(recipes), nil
}

// Create stores a new recipe. Its id is derived from the name when missing
// and suffixed with a counter when already taken.
func (s *Store) Create(ctx context.Context, r Recipe) (*Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(existing))
	for _, e := range existing {
		taken[e.ID] = true
	}

	r = Normalize(r)
	r.ID = uniqueID(r.ID, func(id string) bool { return taken[id] })
	if err := s.put(ctx, r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Update replaces the recipe with id. The id itself never changes.
func (s *Store) Update(ctx context.Context, id string, r Recipe) (*Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("%w: %s", ErrRecipeNotFound, id)
	}

	r.ID = id
	r = Normalize(r)
	if err := s.put(ctx, r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Import stores one recipe object or a list of them and returns what was
// created.
func (s *Store) Import(ctx context.Context, raw []byte) ([]Recipe, error) {
	recipes, err := decodeRecipes(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}

	var created []Recipe
	for _, r := range recipes {
		c, err := s.Create(ctx, r)
		if err != nil {
			return created, err
		}
		created = append(created, *c)
	}
	return created, nil
}

// Clean rewrites the library so every recipe sits normalized in its own
// document, and removes the documents it was read from. It returns the
// number of recipes written.
func (s *Store) Clean(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	recipes, err := s.List(ctx)
	if err != nil {
		return 0, err
	}

	written := make(map[string]bool, len(recipes))
	for _, r := range recipes {
		if err := s.put(ctx, r); err != nil {
			return 0, err
		}
		written[storage.RecipePrefix+r.ID] = true
	}
	for _, d := range docs {
		if written[d.key] {
			continue
		}
		if err := s.docs.Delete(ctx, d.key); err != nil {
			return 0, fmt.Errorf("failed to remove %s: %w", d.key, err)
		}
	}
	return len(recipes), nil
}

func (s *Store) put(ctx context.Context, r Recipe) error {
	if err := storage.PutJSON(ctx, s.docs, storage.RecipePrefix+r.ID, r); err != nil {
		return fmt.Errorf("failed to save recipe %s: %w", r.ID, err)
	}
	return nil
}

// load reads every per-recipe document followed by the legacy list
// document, which stays readable until Clean migrates it.
func (s *Store) load(ctx context.Context) ([]loaded, error) {
	keys, err := s.docs.Keys(ctx, storage.RecipePrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	keys = append(keys, storage.KeyLegacyRecipes)

	var out []loaded
	for _, key := range keys {
		data, err := s.docs.Get(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
		recipes, err := decodeRecipes(data)
		if err != nil {
			slog.Warn("Skipping unreadable recipe document", "key", key, "error", err)
			continue
		}
		out = append(out, loaded{key: key, recipes: recipes})
	}
	return out, nil
}

func decodeRecipes(data []byte) ([]Recipe, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []Recipe
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, err
		}
		return list, nil
	}
	var r Recipe
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return []Recipe{r}, nil
}

func uniqueID(base string, taken func(string) bool) string {
	if !taken(base) {
		return base
	}
	for n := 2; n <= maxIDSuffix; n++ {
		candidate := fmt.Sprintf("%s-%d", base, n)
		if !taken(candidate) {
			return candidate
		}
	}
	return base + "-" + uuid.NewString()[:8]
}

// Index resolves recipes by id.
type Index map[string]Recipe

// NewIndex builds an Index from a list.
func NewIndex(recipes []Recipe) Index {
	idx := make(Index, len(recipes))
	for _, r := range recipes {
		idx[r.ID] = r
	}
	return idx
}

// Get implements the lookup used by the shopping aggregator.
func (idx Index) Get(id string) (Recipe, bool) {
	r, ok := idx[id]
	return r, ok
}

// FilterByMealType keeps recipes tagged with mealType. An empty mealType
// keeps everything.
func FilterByMealType(recipes []Recipe, mealType string) []Recipe {
	if mealType == "" {
		return recipes
	}
	var out []Recipe
	for _, r := range recipes {
		if r.HasMealType(mealType) {
			out = append(out, r)
		}
	}
	return out
}
