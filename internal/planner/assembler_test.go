package planner

import (
	"testing"
	"time"

	"meal-planner/internal/recipe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// firstSampler always picks the first eligible candidate.
type firstSampler struct{}

func (firstSampler) IntN(int) int { return 0 }

var monday = Date{time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)}

func fixedNow() time.Time {
	return time.Date(2024, time.March, 6, 18, 30, 0, 0, time.UTC)
}

func testRecipe(id, name string, mealTypes ...string) recipe.Recipe {
	r := recipe.Recipe{ID: id, Name: name, MealTypes: mealTypes, Servings: 2}
	r.SetIngredients(recipe.English, []recipe.Ingredient{{Name: name + " base", Quantity: 1, Unit: "count"}})
	return r
}

func allMeals(id, name string) recipe.Recipe {
	return testRecipe(id, name, "breakfast", "lunch", "dinner")
}

func TestAssembleNoRecipes(t *testing.T) {
	a := NewAssembler(firstSampler{}, fixedNow)
	_, err := a.Assemble(nil, nil, nil, Settings{MaxRepeatPerWeek: 2})
	assert.ErrorIs(t, err, ErrNoRecipesAvailable)
}

func TestAssembleStartsCurrentWeek(t *testing.T) {
	a := NewAssembler(firstSampler{}, fixedNow)
	plan, err := a.Assemble([]recipe.Recipe{allMeals("a", "A")}, nil, nil, Settings{MaxRepeatPerWeek: 2})
	require.NoError(t, err)

	assert.Equal(t, "2024-03-04", plan.StartDate.String())
	require.Len(t, plan.Days, 7)
	for i, d := range plan.Days {
		assert.Equal(t, monday.AddDays(i).String(), d.Date.String())
		assert.Len(t, d.Meals, 3)
	}
}

func TestAssembleRespectsRepeatLimit(t *testing.T) {
	pool := []recipe.Recipe{
		allMeals("pasta", "Pasta"),
		allMeals("salad", "Salad"),
		allMeals("soup", "Soup"),
		// Same dish under another id shares the Pasta limit.
		allMeals("pasta-2", "Pasta"),
	}

	for seed := uint64(1); seed <= 25; seed++ {
		a := NewAssembler(NewSampler(seed), fixedNow)
		plan, err := a.Assemble(pool, nil, &monday, Settings{MaxRepeatPerWeek: 2})
		require.NoError(t, err)

		counts := map[string]int{}
		empty := 0
		for _, d := range plan.Days {
			ids := map[string]bool{}
			for _, s := range Slots {
				m := d.Meals[s]
				if m == nil {
					empty++
					continue
				}
				counts[m.Name]++
				assert.False(t, ids[m.RecipeID], "recipe %s repeated on %s", m.RecipeID, d.Date)
				ids[m.RecipeID] = true
			}
		}
		for name, n := range counts {
			assert.LessOrEqual(t, n, 2, "seed %d: %s used %d times", seed, name, n)
		}
		// Three dishes at two uses each fill six of twenty-one slots.
		assert.Equal(t, 15, empty)
	}
}

func TestAssembleIsDeterministicForSeed(t *testing.T) {
	pool := []recipe.Recipe{allMeals("a", "A"), allMeals("b", "B"), allMeals("c", "C"), allMeals("d", "D")}

	first, err := NewAssembler(NewSampler(7), fixedNow).Assemble(pool, nil, &monday, Settings{MaxRepeatPerWeek: 7})
	require.NoError(t, err)
	second, err := NewAssembler(NewSampler(7), fixedNow).Assemble(pool, nil, &monday, Settings{MaxRepeatPerWeek: 7})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAssemblePreservesLockedSlots(t *testing.T) {
	pool := []recipe.Recipe{
		testRecipe("toast", "Toast", "breakfast"),
		testRecipe("stew", "Stew", "dinner"),
		testRecipe("curry", "Curry", "dinner"),
		testRecipe("wrap", "Wrap", "lunch"),
	}

	prior := NewWeek(monday)
	locked := &MealAssignment{
		RecipeID:    "stew",
		Name:        "Stew",
		Ingredients: []recipe.Ingredient{{Name: "Beef", Quantity: 500, Unit: "g"}},
		SourceURL:   "https://example.com/stew",
		Locked:      true,
	}
	prior.Days[0].Meals[Dinner] = locked
	prior.Days[1].Meals[Lunch] = &MealAssignment{RecipeID: "wrap", Name: "Wrap"}
	before := prior.Clone()

	a := NewAssembler(firstSampler{}, fixedNow)
	plan, err := a.Assemble(pool, prior, nil, Settings{MaxRepeatPerWeek: 1})
	require.NoError(t, err)

	assert.Equal(t, locked, plan.Days[0].Meals[Dinner])
	assert.Equal(t, before, prior, "prior plan must not be modified")

	// Stew is used up by the lock, so the only other dinner is Curry once.
	dinners := map[string]int{}
	for _, d := range plan.Days {
		if m := d.Meals[Dinner]; m != nil {
			dinners[m.Name]++
		}
	}
	assert.Equal(t, map[string]int{"Stew": 1, "Curry": 1}, dinners)
}

func TestAssembleLockedSlotBlocksSameDayReuse(t *testing.T) {
	pool := []recipe.Recipe{allMeals("omelette", "Omelette"), allMeals("rice", "Rice")}

	prior := NewWeek(monday)
	prior.Days[0].Meals[Dinner] = &MealAssignment{RecipeID: "omelette", Name: "Omelette", Locked: true}

	a := NewAssembler(firstSampler{}, fixedNow)
	plan, err := a.Assemble(pool, prior, nil, Settings{MaxRepeatPerWeek: 7})
	require.NoError(t, err)

	assert.Equal(t, "rice", plan.Days[0].Meals[Breakfast].RecipeID)
	assert.Nil(t, plan.Days[0].Meals[Lunch])
	assert.Equal(t, "omelette", plan.Days[0].Meals[Dinner].RecipeID)
}

func TestAssembleNewStartDateDropsPrior(t *testing.T) {
	prior := NewWeek(monday)
	prior.Days[0].Meals[Dinner] = &MealAssignment{RecipeID: "x", Name: "X", Locked: true}

	next := monday.AddDays(9) // a Wednesday, aligned to the following Monday
	a := NewAssembler(firstSampler{}, fixedNow)
	plan, err := a.Assemble([]recipe.Recipe{testRecipe("y", "Y", "lunch")}, prior, &next, Settings{MaxRepeatPerWeek: 7})
	require.NoError(t, err)

	assert.Equal(t, "2024-03-11", plan.StartDate.String())
	assert.Nil(t, plan.Days[0].Meals[Dinner])
	assert.Equal(t, "y", plan.Days[0].Meals[Lunch].RecipeID)
}

func TestSnapshotCopiesIngredients(t *testing.T) {
	r := allMeals("a", "A")
	m := Snapshot(r)
	m.Ingredients[0].Quantity = 99

	assert.Equal(t, 1.0, r.IngredientsFor(recipe.English)[0].Quantity)
	assert.False(t, m.Locked)
}
