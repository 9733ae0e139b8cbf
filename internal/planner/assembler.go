package planner

import (
	"errors"
	"math/rand/v2"
	"time"

	"meal-planner/internal/recipe"
)

var (
	ErrNoRecipesAvailable  = errors.New("no recipes available")
	ErrDuplicateAssignment = errors.New("recipe already planned for that day")
	ErrDayNotFound         = errors.New("date is not part of the plan")
	ErrInvalidSlot         = errors.New("invalid meal slot")
	ErrEmptySlot           = errors.New("meal slot is empty")
	ErrInvalidDate         = errors.New("invalid date, expected YYYY-MM-DD")
)

// Sampler picks an index in [0, n).
type Sampler interface {
	IntN(n int) int
}

// NewSampler returns a deterministic sampler for seed.
func NewSampler(seed uint64) Sampler {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

type globalSampler struct{}

func (globalSampler) IntN(n int) int { return rand.IntN(n) }

// RandomSampler draws from the runtime-seeded global source.
func RandomSampler() Sampler {
	return globalSampler{}
}

// Settings bound how often a dish may repeat.
type Settings struct {
	MaxRepeatPerWeek int
}

// Assembler fills weekly plans from a recipe pool.
type Assembler struct {
	sampler Sampler
	now     func() time.Time
}

// NewAssembler creates an Assembler. A nil now uses time.Now.
func NewAssembler(sampler Sampler, now func() time.Time) *Assembler {
	if sampler == nil {
		sampler = RandomSampler()
	}
	if now == nil {
		now = time.Now
	}
	return &Assembler{sampler: sampler, now: now}
}

// Assemble fills every unlocked slot of the week. The prior plan is reused
// when it covers the requested week, otherwise a fresh week is started.
// Locked assignments are copied untouched and count toward the repeat limit,
// which is tracked per recipe name. A slot without an eligible recipe stays
// empty. prior is never modified.
func (a *Assembler) Assemble(pool []recipe.Recipe, prior *WeeklyPlan, start *Date, settings Settings) (*WeeklyPlan, error) {
	if len(pool) == 0 {
		return nil, ErrNoRecipesAvailable
	}

	var plan *WeeklyPlan
	switch {
	case start != nil && (prior == nil || !prior.StartDate.Equal(WeekStart(start.Time))):
		plan = NewWeek(WeekStart(start.Time))
	case prior != nil:
		plan = prior.Clone()
		plan.repair()
	default:
		plan = NewWeek(WeekStart(a.now()))
	}

	maxRepeat := settings.MaxRepeatPerWeek
	if maxRepeat < 1 {
		maxRepeat = 1
	}

	candidates := partition(pool)
	usage := make(map[string]int)
	for _, d := range plan.Days {
		for _, s := range Slots {
			if m := d.Meals[s]; m != nil && m.Locked {
				usage[m.Name]++
			}
		}
	}

	for i := range plan.Days {
		day := &plan.Days[i]
		usedToday := make(map[string]bool)
		for _, s := range Slots {
			if m := day.Meals[s]; m != nil && m.Locked {
				usedToday[m.RecipeID] = true
			}
		}

		for _, s := range Slots {
			if m := day.Meals[s]; m != nil && m.Locked {
				continue
			}

			var eligible []recipe.Recipe
			for _, r := range candidates[s] {
				if usage[r.Name] < maxRepeat && !usedToday[r.ID] {
					eligible = append(eligible, r)
				}
			}
			if len(eligible) == 0 {
				day.Meals[s] = nil
				continue
			}

			pick := eligible[a.sampler.IntN(len(eligible))]
			day.Meals[s] = Snapshot(pick)
			usage[pick.Name]++
			usedToday[pick.ID] = true
		}
	}
	return plan, nil
}

func partition(pool []recipe.Recipe) map[Slot][]recipe.Recipe {
	out := make(map[Slot][]recipe.Recipe, len(Slots))
	for _, r := range pool {
		for _, s := range Slots {
			if r.HasMealType(string(s)) {
				out[s] = append(out[s], r)
			}
		}
	}
	return out
}
