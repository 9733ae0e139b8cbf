package recipe

import (
	"encoding/json"
	"slices"
	"strconv"
	"strings"

	"meal-planner/internal/units"
)

// Language tags an ingredient or instruction list.
type Language string

const (
	English  Language = "en"
	Original Language = "original"
)

// ParseLanguage maps user input to a Language, defaulting to English.
func ParseLanguage(s string) Language {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "en", "english":
		return English
	case "original", "orig":
		return Original
	default:
		return Language(strings.ToLower(strings.TrimSpace(s)))
	}
}

// Ingredient is one line of a recipe.
type Ingredient struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// UnmarshalJSON accepts quantities written as numbers or strings. Values
// that are not numeric decode as 0.
func (i *Ingredient) UnmarshalJSON(data []byte) error {
	var aux struct {
		Name     string `json:"name"`
		Quantity any    `json:"quantity"`
		Unit     any    `json:"unit"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	i.Name = aux.Name
	i.Quantity = units.ParseQuantity(aux.Quantity)
	switch u := aux.Unit.(type) {
	case string:
		i.Unit = u
	case nil:
		i.Unit = ""
	default:
		b, _ := json.Marshal(u)
		i.Unit = string(b)
	}
	return nil
}

// Recipe is a normalized recipe record. Ingredients and instructions are
// kept per language.
type Recipe struct {
	ID           string
	Name         string
	MealTypes    []string
	Servings     int
	Ingredients  map[Language][]Ingredient
	Instructions map[Language][]string
	SourceURL    string
}

// IngredientsFor returns the ingredient list for lang. The original-language
// list falls back to English when empty; every other language reads English.
func (r Recipe) IngredientsFor(lang Language) []Ingredient {
	if lang == Original {
		if ings := r.Ingredients[Original]; len(ings) > 0 {
			return ings
		}
	}
	return r.Ingredients[English]
}

// InstructionsFor mirrors IngredientsFor for instructions.
func (r Recipe) InstructionsFor(lang Language) []string {
	if lang == Original {
		if steps := r.Instructions[Original]; len(steps) > 0 {
			return steps
		}
	}
	return r.Instructions[English]
}

// SetIngredients replaces the list for lang.
func (r *Recipe) SetIngredients(lang Language, ings []Ingredient) {
	if r.Ingredients == nil {
		r.Ingredients = make(map[Language][]Ingredient)
	}
	r.Ingredients[lang] = ings
}

// SetInstructions replaces the steps for lang.
func (r *Recipe) SetInstructions(lang Language, steps []string) {
	if r.Instructions == nil {
		r.Instructions = make(map[Language][]string)
	}
	r.Instructions[lang] = steps
}

// HasMealType reports whether the recipe can be served for mealType.
func (r Recipe) HasMealType(mealType string) bool {
	return slices.Contains(r.MealTypes, mealType)
}

// record is the on-disk layout, which keeps the flat per-language fields
// existing data files use.
type record struct {
	ID                   string       `json:"recipe_id,omitempty"`
	Name                 string       `json:"name"`
	MealTypes            stringList   `json:"meal_types,omitempty"`
	MealType             string       `json:"meal_type,omitempty"`
	Servings             servings     `json:"servings,omitempty"`
	Ingredients          []Ingredient `json:"ingredients"`
	IngredientsOriginal  []Ingredient `json:"ingredients_original,omitempty"`
	Instructions         stringList   `json:"instructions"`
	InstructionsOriginal stringList   `json:"instructions_original,omitempty"`
	SourceURL            string       `json:"source_url,omitempty"`
}

func (r Recipe) MarshalJSON() ([]byte, error) {
	rec := record{
		ID:                   r.ID,
		Name:                 r.Name,
		MealTypes:            r.MealTypes,
		Servings:             servings(r.Servings),
		Ingredients:          r.Ingredients[English],
		IngredientsOriginal:  r.Ingredients[Original],
		Instructions:         r.Instructions[English],
		InstructionsOriginal: r.Instructions[Original],
		SourceURL:            r.SourceURL,
	}
	if rec.Ingredients == nil {
		rec.Ingredients = []Ingredient{}
	}
	if rec.Instructions == nil {
		rec.Instructions = stringList{}
	}
	return json.Marshal(rec)
}

func (r *Recipe) UnmarshalJSON(data []byte) error {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*r = Recipe{
		ID:        rec.ID,
		Name:      rec.Name,
		MealTypes: rec.MealTypes,
		Servings:  int(rec.Servings),
		SourceURL: rec.SourceURL,
	}
	if len(r.MealTypes) == 0 && rec.MealType != "" {
		r.MealTypes = []string{rec.MealType}
	}
	r.SetIngredients(English, rec.Ingredients)
	if len(rec.IngredientsOriginal) > 0 {
		r.SetIngredients(Original, rec.IngredientsOriginal)
	}
	r.SetInstructions(English, rec.Instructions)
	if len(rec.InstructionsOriginal) > 0 {
		r.SetInstructions(Original, rec.InstructionsOriginal)
	}
	return nil
}

// stringList decodes either a JSON array of strings or a single string,
// which is split into non-empty lines.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*l = nil
		return nil
	}
	*l = splitLines(s)
	return nil
}

// servings decodes a positive integer from a number or a string such as
// "4" or "4 people". Anything else is 0, meaning unknown.
type servings int

func (s *servings) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		*s = 0
		return nil
	}
	*s = servings(ParseServings(v))
	return nil
}

// ParseServings extracts a positive serving count, or 0 when there is none.
func ParseServings(v any) int {
	switch t := v.(type) {
	case string:
		fields := strings.Fields(t)
		if len(fields) == 0 {
			return 0
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil || n < 0 {
			return 0
		}
		return n
	default:
		q := units.ParseQuantity(v)
		if q < 1 {
			return 0
		}
		return int(q)
	}
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// ParseIngredientLines reads one ingredient per line in the form
// "name,quantity,unit". Quantity and unit are optional.
func ParseIngredientLines(text string) []Ingredient {
	var out []Ingredient
	for _, line := range splitLines(text) {
		parts := strings.SplitN(line, ",", 3)
		ing := Ingredient{Name: strings.TrimSpace(parts[0])}
		if ing.Name == "" {
			continue
		}
		if len(parts) > 1 {
			ing.Quantity = units.ParseQuantity(strings.TrimSpace(parts[1]))
		}
		if len(parts) > 2 {
			ing.Unit = strings.TrimSpace(parts[2])
		}
		out = append(out, ing)
	}
	return out
}

// ParseInstructionLines splits free text into steps.
func ParseInstructionLines(text string) []string {
	return splitLines(text)
}
