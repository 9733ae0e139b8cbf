package planner

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"meal-planner/internal/recipe"
)

// Slot is one meal of the day.
type Slot string

const (
	Breakfast Slot = "breakfast"
	Lunch     Slot = "lunch"
	Dinner    Slot = "dinner"
)

// Slots lists the meal slots in the order they are filled.
var Slots = []Slot{Breakfast, Lunch, Dinner}

// ParseSlot validates a slot name.
func ParseSlot(s string) (Slot, error) {
	slot := Slot(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Slots {
		if slot == known {
			return slot, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSlot, s)
}

const dateLayout = "2006-01-02"

// Date is a calendar day without a time of day.
type Date struct {
	time.Time
}

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

// Equal reports whether both dates name the same day.
func (d Date) Equal(o Date) bool {
	return d.Time.Equal(o.Time)
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// Label renders the date as "Monday, Jan 02".
func (d Date) Label() string {
	return d.Format("Monday, Jan 02")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// WeekStart returns the Monday of the week containing t.
func WeekStart(t time.Time) Date {
	d := DateOf(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDays(-offset)
}

// ParseDate reads a YYYY-MM-DD date and aligns it to its Monday. Empty or
// malformed input yields the Monday of now's week and ok=false.
func ParseDate(s string, now time.Time) (Date, bool) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return WeekStart(now), false
	}
	return WeekStart(t), true
}

// ParseDay reads a single YYYY-MM-DD day without aligning it.
func ParseDay(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{t}, nil
}

// MealAssignment is a recipe placed in a slot. Ingredients are a snapshot
// taken at assignment time.
type MealAssignment struct {
	RecipeID    string              `json:"recipe_id"`
	Name        string              `json:"name"`
	Ingredients []recipe.Ingredient `json:"ingredients"`
	SourceURL   string              `json:"source_url,omitempty"`
	Locked      bool                `json:"locked"`
}

// Snapshot creates an unlocked assignment from r's default-language
// ingredients.
func Snapshot(r recipe.Recipe) *MealAssignment {
	ings := r.IngredientsFor(recipe.English)
	return &MealAssignment{
		RecipeID:    r.ID,
		Name:        r.Name,
		Ingredients: append([]recipe.Ingredient{}, ings...),
		SourceURL:   r.SourceURL,
	}
}

func (m *MealAssignment) clone() *MealAssignment {
	if m == nil {
		return nil
	}
	c := *m
	c.Ingredients = append([]recipe.Ingredient(nil), m.Ingredients...)
	return &c
}

// Day holds the meals of one date. Every slot is present, nil when empty.
type Day struct {
	Date  Date                     `json:"date"`
	Meals map[Slot]*MealAssignment `json:"meals"`
}

// Meal returns the assignment in slot, or nil.
func (d *Day) Meal(slot Slot) *MealAssignment {
	return d.Meals[slot]
}

// WeeklyPlan is seven consecutive days starting on a Monday.
type WeeklyPlan struct {
	StartDate Date  `json:"start_date"`
	Days      []Day `json:"days"`
}

// NewWeek returns an empty plan for the week starting at start.
func NewWeek(start Date) *WeeklyPlan {
	plan := &WeeklyPlan{StartDate: start, Days: make([]Day, 7)}
	for i := range plan.Days {
		plan.Days[i] = Day{Date: start.AddDays(i), Meals: emptyMeals()}
	}
	return plan
}

func emptyMeals() map[Slot]*MealAssignment {
	meals := make(map[Slot]*MealAssignment, len(Slots))
	for _, s := range Slots {
		meals[s] = nil
	}
	return meals
}

// Clone returns a deep copy.
func (p *WeeklyPlan) Clone() *WeeklyPlan {
	c := &WeeklyPlan{StartDate: p.StartDate, Days: make([]Day, len(p.Days))}
	for i, d := range p.Days {
		meals := make(map[Slot]*MealAssignment, len(d.Meals))
		for slot, m := range d.Meals {
			meals[slot] = m.clone()
		}
		c.Days[i] = Day{Date: d.Date, Meals: meals}
	}
	return c
}

// Day returns the day with date, or nil.
func (p *WeeklyPlan) Day(date Date) *Day {
	for i := range p.Days {
		if p.Days[i].Date.Equal(date) {
			return &p.Days[i]
		}
	}
	return nil
}

// repair restores the plan shape after decoding: seven days with
// consecutive dates and every slot present. Assignments on matching dates
// are kept.
func (p *WeeklyPlan) repair() {
	byDate := make(map[string]Day, len(p.Days))
	for _, d := range p.Days {
		byDate[d.Date.String()] = d
	}
	if p.StartDate.IsZero() && len(p.Days) > 0 {
		p.StartDate = p.Days[0].Date
	}

	days := make([]Day, 7)
	for i := range days {
		date := p.StartDate.AddDays(i)
		meals := emptyMeals()
		if d, ok := byDate[date.String()]; ok {
			for _, s := range Slots {
				meals[s] = d.Meals[s]
			}
		}
		days[i] = Day{Date: date, Meals: meals}
	}
	p.Days = days
}

// Assignments counts filled slots.
func (p *WeeklyPlan) Assignments() int {
	n := 0
	for _, d := range p.Days {
		for _, s := range Slots {
			if d.Meals[s] != nil {
				n++
			}
		}
	}
	return n
}
