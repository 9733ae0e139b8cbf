package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"meal-planner/internal/metrics"
	"meal-planner/internal/planner"
	"meal-planner/internal/recipe"
	"meal-planner/internal/shopping"
	"meal-planner/internal/units"
)

const helpText = `🧑‍🍳 *Meal Planner*

/today - today's meals
/plan - this week's plan
/generate - fill the plan, keeping locked meals (add a YYYY-MM-DD date to pick the week)
/shopping - the shopping list (add "original" for the recipe language)
/health - system health

Send a recipe link to import it.`

var slotIcons = map[planner.Slot]string{
	planner.Breakfast: "🍳",
	planner.Lunch:     "🥪",
	planner.Dinner:    "🍲",
}

var titleCase = cases.Title(language.English)

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func writeMeals(sb *strings.Builder, day planner.Day) {
	for _, slot := range planner.Slots {
		m := day.Meals[slot]
		name := "_empty_"
		if m != nil {
			name = escape(m.Name)
			if m.Locked {
				name += " 🔒"
			}
		}
		fmt.Fprintf(sb, "%s %s: %s\n", slotIcons[slot], titleCase.String(string(slot)), name)
	}
}

func formatToday(day *planner.Day) string {
	if day == nil {
		return "Nothing planned for today. Send /generate to plan this week."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 *%s*\n\n", day.Date.Label())
	writeMeals(&sb, *day)
	return sb.String()
}

func formatPlan(plan *planner.WeeklyPlan) string {
	if plan == nil {
		return "No plan yet. Send /generate to create one."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 *Week of %s*\n", plan.StartDate.String())
	for _, day := range plan.Days {
		fmt.Fprintf(&sb, "\n*%s*\n", day.Date.Label())
		writeMeals(&sb, day)
	}
	return sb.String()
}

func formatShopping(view *shopping.View) string {
	var sb strings.Builder
	sb.WriteString("🛒 *Shopping List*\n\n")
	if len(view.Items) == 0 && len(view.Pending) == 0 {
		sb.WriteString("_Nothing to buy_\n")
		return sb.String()
	}
	for _, it := range view.Items {
		fmt.Fprintf(&sb, "• %s\n", itemLine(it.Name, string(it.Quantity), it.Unit))
	}
	if len(view.Pending) > 0 {
		if len(view.Items) > 0 {
			sb.WriteString("\n*Not on the list yet*\n")
		}
		for _, it := range view.Pending {
			fmt.Fprintf(&sb, "• %s\n", itemLine(it.Name, units.FormatQuantity(it.Quantity), it.Unit))
		}
	}
	return sb.String()
}

func itemLine(name, quantity, unit string) string {
	parts := []string{escape(name)}
	if quantity != "" && quantity != "0" {
		parts = append(parts, escape(quantity))
	}
	if unit != "" && unit != shopping.MixedUnit {
		parts = append(parts, escape(unit))
	}
	if unit == shopping.MixedUnit {
		parts = append(parts, "(mixed units)")
	}
	return strings.Join(parts, " ")
}

func formatImported(r *recipe.Recipe) string {
	return fmt.Sprintf("✅ *Recipe Saved!*\n\n*Title:* %s\n*Meals:* %s\n*Ingredients:* %d",
		escape(r.Name), strings.Join(r.MealTypes, ", "), len(r.IngredientsFor(recipe.English)))
}

func formatHealth(h metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("🧠 *System Health*\n")
	fmt.Fprintf(&sb, "• RAM: %dMB (Alloc) / %dMB (Sys)\n", h.AllocMB, h.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", h.Goroutines)
	fmt.Fprintf(&sb, "• Disk Data: %s\n", escape(h.DataDiskSize))
	return sb.String()
}
