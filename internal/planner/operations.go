package planner

import (
	"fmt"
	"time"

	"meal-planner/internal/recipe"
)

func (p *WeeklyPlan) slot(date Date, slot Slot) (*Day, error) {
	if _, err := ParseSlot(string(slot)); err != nil {
		return nil, err
	}
	day := p.Day(date)
	if day == nil {
		return nil, fmt.Errorf("%w: %s", ErrDayNotFound, date)
	}
	return day, nil
}

// Assign puts r into slot on date. It fails with ErrDuplicateAssignment,
// leaving the plan unchanged, when r already fills another slot that day.
func Assign(plan *WeeklyPlan, date Date, slot Slot, r recipe.Recipe) error {
	day, err := plan.slot(date, slot)
	if err != nil {
		return err
	}
	for _, other := range Slots {
		if other == slot {
			continue
		}
		if m := day.Meals[other]; m != nil && m.RecipeID == r.ID {
			return fmt.Errorf("%w: %s is already %s on %s", ErrDuplicateAssignment, r.ID, other, date)
		}
	}
	day.Meals[slot] = Snapshot(r)
	return nil
}

// Clear empties slot on date.
func Clear(plan *WeeklyPlan, date Date, slot Slot) error {
	day, err := plan.slot(date, slot)
	if err != nil {
		return err
	}
	day.Meals[slot] = nil
	return nil
}

// ToggleLock flips the lock of a filled slot and returns the new state.
func ToggleLock(plan *WeeklyPlan, date Date, slot Slot) (bool, error) {
	day, err := plan.slot(date, slot)
	if err != nil {
		return false, err
	}
	m := day.Meals[slot]
	if m == nil {
		return false, fmt.Errorf("%w: %s %s", ErrEmptySlot, date, slot)
	}
	m.Locked = !m.Locked
	return m.Locked, nil
}

// SetAllLocked locks or unlocks every filled slot and returns how many
// changed.
func SetAllLocked(plan *WeeklyPlan, locked bool) int {
	changed := 0
	for _, d := range plan.Days {
		for _, s := range Slots {
			if m := d.Meals[s]; m != nil && m.Locked != locked {
				m.Locked = locked
				changed++
			}
		}
	}
	return changed
}

// Today returns the plan day for now, or nil when now is outside the week.
func Today(plan *WeeklyPlan, now time.Time) *Day {
	if plan == nil {
		return nil
	}
	return plan.Day(DateOf(now))
}
