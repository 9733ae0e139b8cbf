package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"meal-planner/internal/planner"
	"meal-planner/internal/recipe"
	"meal-planner/internal/units"
)

// ErrExtractionDisabled is returned by ExtractRecipe without a model.
var ErrExtractionDisabled = errors.New("recipe extraction is not configured")

// PlanWeek fills the plan for the week of start (or the stored week when
// start is empty) and prints it.
func (a *App) PlanWeek(ctx context.Context, w io.Writer, start string) error {
	var from *planner.Date
	if start = strings.TrimSpace(start); start != "" {
		d, ok := planner.ParseDate(start, a.now())
		if !ok {
			fmt.Fprintf(w, "Invalid start date %q, planning the current week.\n", start)
		}
		from = &d
	}

	plan, err := a.Plans.Generate(ctx, from)
	if err != nil {
		return fmt.Errorf("failed to generate plan: %w", err)
	}
	printPlan(w, plan)
	return nil
}

// PrintPlan prints the stored plan.
func (a *App) PrintPlan(ctx context.Context, w io.Writer) error {
	plan, err := a.Plans.Current(ctx)
	if err != nil {
		return err
	}
	if plan == nil {
		fmt.Fprintln(w, "No plan yet. Run plan-week first.")
		return nil
	}
	printPlan(w, plan)
	return nil
}

// PrintToday prints today's meals.
func (a *App) PrintToday(ctx context.Context, w io.Writer) error {
	day, err := a.Plans.Today(ctx)
	if err != nil {
		return err
	}
	if day == nil {
		fmt.Fprintln(w, "Nothing planned for today.")
		return nil
	}
	fmt.Fprintf(w, "=== %s ===\n", day.Date.Label())
	printMeals(w, *day)
	return nil
}

// PrintHistory lists every generated plan, oldest first.
func (a *App) PrintHistory(ctx context.Context, w io.Writer) error {
	entries, err := a.Plans.History(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No plans generated yet.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s  week of %s  %d meals\n",
			e.GeneratedAt.Format("2006-01-02 15:04"), e.Plan.StartDate.String(), e.Plan.Assignments())
	}
	return nil
}

// PrintShoppingList reconciles the stored list and prints it in lang.
func (a *App) PrintShoppingList(ctx context.Context, w io.Writer, lang string) error {
	view, err := a.Shopping.View(ctx, recipe.ParseLanguage(lang))
	if err != nil {
		return fmt.Errorf("failed to build shopping list: %w", err)
	}

	fmt.Fprintln(w, "=== SHOPPING LIST ===")
	if len(view.Items) == 0 && len(view.Pending) == 0 {
		fmt.Fprintln(w, "Nothing to buy.")
		return nil
	}
	for _, it := range view.Items {
		fmt.Fprintf(w, "[x] %s\n", itemLine(it.Name, string(it.Quantity), it.Unit))
	}
	for _, it := range view.Pending {
		fmt.Fprintf(w, "[ ] %s\n", itemLine(it.Name, units.FormatQuantity(it.Quantity), it.Unit))
	}
	return nil
}

// CleanRecipes rewrites the library one normalized recipe per document.
func (a *App) CleanRecipes(ctx context.Context, w io.Writer) error {
	n, err := a.Recipes.Clean(ctx)
	if err != nil {
		return fmt.Errorf("failed to clean recipes: %w", err)
	}
	fmt.Fprintf(w, "Cleaned %d recipes.\n", n)
	return nil
}

// ImportRecipes stores the recipes of a JSON file.
func (a *App) ImportRecipes(ctx context.Context, w io.Writer, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	created, err := a.Recipes.Import(ctx, raw)
	for _, r := range created {
		fmt.Fprintf(w, "Imported %s (%s)\n", r.Name, r.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to import recipes: %w", err)
	}
	fmt.Fprintf(w, "Imported %d recipes.\n", len(created))
	return nil
}

// ExtractRecipe drafts a recipe from a link and prints it. save stores the
// draft in the library.
func (a *App) ExtractRecipe(ctx context.Context, w io.Writer, link string, save bool) error {
	if a.Clipper == nil {
		return ErrExtractionDisabled
	}
	r, err := a.Clipper.Extract(ctx, link)
	if err != nil {
		return err
	}
	if save {
		if r, err = a.Recipes.Create(ctx, *r); err != nil {
			return fmt.Errorf("failed to save recipe: %w", err)
		}
		fmt.Fprintf(w, "Saved as %s\n", r.ID)
	}

	fmt.Fprintf(w, "=== %s ===\n", r.Name)
	fmt.Fprintf(w, "Meals: %s  Servings: %d\n", strings.Join(r.MealTypes, ", "), r.Servings)
	for _, ing := range r.IngredientsFor(recipe.English) {
		fmt.Fprintf(w, "- %s\n", itemLine(ing.Name, units.FormatQuantity(ing.Quantity), ing.Unit))
	}
	for i, step := range r.InstructionsFor(recipe.English) {
		fmt.Fprintf(w, "%d. %s\n", i+1, step)
	}
	return nil
}

func printPlan(w io.Writer, plan *planner.WeeklyPlan) {
	fmt.Fprintf(w, "=== WEEK OF %s ===\n", plan.StartDate.String())
	for _, day := range plan.Days {
		fmt.Fprintf(w, "\n%s\n", day.Date.Label())
		printMeals(w, day)
	}
}

func printMeals(w io.Writer, day planner.Day) {
	for _, slot := range planner.Slots {
		name := "-"
		if m := day.Meals[slot]; m != nil {
			name = m.Name
			if m.Locked {
				name += " (locked)"
			}
		}
		fmt.Fprintf(w, "  %-10s %s\n", slot, name)
	}
}

func itemLine(name, quantity, unit string) string {
	parts := []string{name}
	if quantity != "" && quantity != "0" {
		parts = append(parts, quantity)
	}
	if unit != "" {
		parts = append(parts, unit)
	}
	return strings.Join(parts, " ")
}
