package shopping

import (
	"log/slog"
	"slices"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"meal-planner/internal/planner"
	"meal-planner/internal/recipe"
	"meal-planner/internal/units"
)

// RecipeLookup resolves live recipes by id. recipe.Index satisfies it.
type RecipeLookup interface {
	Get(id string) (recipe.Recipe, bool)
}

var nameFolder = cases.Fold()

// CanonicalName folds an ingredient name for matching: NFC, case-folded and
// with runs of whitespace collapsed.
func CanonicalName(name string) string {
	folded := nameFolder.String(norm.NFC.String(name))
	return strings.Join(strings.Fields(folded), " ")
}

type bucket struct {
	item    LineItem
	group   string
	recipes map[string]struct{}
}

func (b *bucket) add(qty float64, recipeID string) {
	b.item.Quantity += qty
	if recipeID != "" {
		b.recipes[recipeID] = struct{}{}
	}
}

type aggregation struct {
	lang    string
	buckets map[string]*bucket
	// byName lists bucket keys per canonical name in first-seen order.
	byName map[string][]string
	names  []string
}

func (a *aggregation) add(ing recipe.Ingredient, scale float64, recipeID string) {
	name := CanonicalName(ing.Name)
	if name == "" {
		return
	}
	qty, unit := units.Normalize(ing.Quantity*scale, ing.Unit)
	key := itemKey(a.lang, name, units.Canonical(ing.Unit))

	b, ok := a.buckets[key]
	if !ok {
		b = &bucket{
			item:    LineItem{Key: key, Name: strings.TrimSpace(ing.Name), Unit: unit},
			group:   units.Group(unit),
			recipes: make(map[string]struct{}),
		}
		a.buckets[key] = b
		if _, seen := a.byName[name]; !seen {
			a.names = append(a.names, name)
		}
		a.byName[name] = append(a.byName[name], key)
	}
	b.add(qty, recipeID)
}

// items folds buckets into line items. A name whose buckets span more than
// one dimension group collapses into a single "mixed" item.
func (a *aggregation) items() []LineItem {
	var out []LineItem
	for _, name := range a.names {
		keys := a.byName[name]
		groups := make(map[string]struct{})
		for _, k := range keys {
			groups[a.buckets[k].group] = struct{}{}
		}

		if len(groups) == 1 {
			for _, k := range keys {
				out = append(out, a.buckets[k].finish())
			}
			continue
		}

		first := a.buckets[keys[0]]
		merged := &bucket{
			item:    LineItem{Key: itemKey(a.lang, name, MixedUnit), Name: first.item.Name, Unit: MixedUnit},
			recipes: make(map[string]struct{}),
		}
		for _, k := range keys {
			b := a.buckets[k]
			merged.item.Quantity += b.item.Quantity
			for id := range b.recipes {
				merged.recipes[id] = struct{}{}
			}
		}
		out = append(out, merged.finish())
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (b *bucket) finish() LineItem {
	item := b.item
	item.Quantity = units.Round(item.Quantity)
	item.RecipeIDs = make([]string, 0, len(b.recipes))
	for id := range b.recipes {
		item.RecipeIDs = append(item.RecipeIDs, id)
	}
	slices.Sort(item.RecipeIDs)
	item.RecipesCount = len(item.RecipeIDs)
	return item
}

// Aggregate totals the ingredients of every planned meal for lang, scaled to
// familySize. Live recipes are preferred; a meal whose recipe was deleted
// uses its plan snapshot. The result is sorted by key and nil when there is
// no plan.
func Aggregate(plan *planner.WeeklyPlan, recipes RecipeLookup, lang recipe.Language, familySize int) []LineItem {
	if plan == nil {
		return nil
	}
	if familySize < 1 {
		familySize = 1
	}

	agg := &aggregation{
		lang:    string(lang),
		buckets: make(map[string]*bucket),
		byName:  make(map[string][]string),
	}
	for _, day := range plan.Days {
		for _, slot := range planner.Slots {
			meal := day.Meals[slot]
			if meal == nil {
				continue
			}

			ings := meal.Ingredients
			scale := 1.0
			if r, ok := lookup(recipes, meal.RecipeID); ok {
				ings = r.IngredientsFor(lang)
				if r.Servings > 0 {
					scale = float64(familySize) / float64(r.Servings)
				}
			} else {
				slog.Debug("Recipe not found, using plan snapshot", "recipe_id", meal.RecipeID, "date", day.Date.String())
			}

			for _, ing := range ings {
				agg.add(ing, scale, meal.RecipeID)
			}
		}
	}
	return agg.items()
}

func lookup(recipes RecipeLookup, id string) (recipe.Recipe, bool) {
	if recipes == nil || id == "" {
		return recipe.Recipe{}, false
	}
	return recipes.Get(id)
}
