package recipe

import (
	"regexp"
	"slices"
	"strings"
)

const maxIDLength = 60

var (
	nonSlugChars = regexp.MustCompile(`[^\p{L}\p{N}_\s-]+`)
	slugSpaces   = regexp.MustCompile(`[\s_]+`)
	validID      = regexp.MustCompile(`^[\p{L}\p{N}_-]+$`)
)

// Slugify derives a recipe id from a name. Letters of any script are kept.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = nonSlugChars.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "recipe"
	}
	if r := []rune(s); len(r) > maxIDLength {
		s = string(r[:maxIDLength])
	}
	return s
}

// Normalize fills in derived fields and cleans up ingredient text. It does
// not resolve id collisions; see Store.
func Normalize(r Recipe) Recipe {
	r.Name = strings.TrimSpace(r.Name)
	if r.ID == "" || !validID.MatchString(r.ID) {
		base := r.ID
		if base == "" {
			base = r.Name
		}
		r.ID = Slugify(base)
	}
	if r.Servings < 0 {
		r.Servings = 0
	}

	var mealTypes []string
	for _, mt := range r.MealTypes {
		mt = strings.ToLower(strings.TrimSpace(mt))
		if mt != "" && !slices.Contains(mealTypes, mt) {
			mealTypes = append(mealTypes, mt)
		}
	}
	r.MealTypes = mealTypes

	cleaned := make(map[Language][]Ingredient, len(r.Ingredients))
	for lang, ings := range r.Ingredients {
		cleaned[lang] = sanitizeIngredients(ings)
	}
	r.Ingredients = cleaned
	return r
}

func sanitizeIngredients(ings []Ingredient) []Ingredient {
	out := make([]Ingredient, 0, len(ings))
	for _, ing := range ings {
		ing.Name = sanitizeField(ing.Name)
		ing.Unit = sanitizeField(ing.Unit)
		if ing.Name == "" {
			continue
		}
		out = append(out, ing)
	}
	return out
}

// sanitizeField trims s and cuts it at the first literal "\n" escape, which
// shows up when model output is pasted with its JSON escaping intact.
func sanitizeField(s string) string {
	if i := strings.Index(s, `\n`); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
