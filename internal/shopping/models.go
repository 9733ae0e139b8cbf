package shopping

import (
	"encoding/json"
	"strings"

	"meal-planner/internal/units"
)

// MixedUnit marks a line item whose ingredients came in more than one
// dimension and could not be summed into a single unit.
const MixedUnit = "mixed"

// LineItem is one computed total of the weekly shopping list.
type LineItem struct {
	Key          string   `json:"key"`
	Name         string   `json:"name"`
	Unit         string   `json:"unit"`
	Quantity     float64  `json:"quantity"`
	RecipeIDs    []string `json:"recipe_ids"`
	RecipesCount int      `json:"recipes_count"`
}

// Amount is a user-edited quantity. Stored state holds numbers and free
// text ("a handful") alike, so it is kept as text.
type Amount string

// AmountOf formats a computed quantity.
func AmountOf(q float64) Amount {
	return Amount(units.FormatQuantity(q))
}

// UnmarshalJSON accepts a JSON string or number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = Amount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		// null, bools and objects read as empty.
		*a = ""
		return nil
	}
	*a = Amount(n.String())
	return nil
}

// Entry is one persisted shopping-list line.
type Entry struct {
	Name     string `json:"name,omitempty"`
	Unit     string `json:"unit,omitempty"`
	Quantity Amount `json:"quantity,omitempty"`
	Manual   bool   `json:"manual"`
	Lang     string `json:"lang,omitempty"`
}

// State is the persisted overlay keyed like LineItem.Key.
type State map[string]Entry

// Clone returns a shallow copy. Entries are values.
func (s State) Clone() State {
	c := make(State, len(s))
	for k, v := range s {
		c[k] = v
	}
	return c
}

// DisplayItem is a shopping-list line as shown to the user.
type DisplayItem struct {
	Key          string   `json:"key"`
	Name         string   `json:"name"`
	Unit         string   `json:"unit"`
	Quantity     Amount   `json:"quantity"`
	RecipeIDs    []string `json:"recipe_ids"`
	RecipesCount int      `json:"recipes_count"`
	Manual       bool     `json:"manual"`
}

// View is the merged shopping list. Pending holds computed items that have
// not been added to the list yet.
type View struct {
	Lang    string        `json:"lang"`
	Items   []DisplayItem `json:"items"`
	Pending []LineItem    `json:"pending"`
}

func itemKey(lang, name, unit string) string {
	return strings.Join([]string{lang, name, unit}, "|")
}
