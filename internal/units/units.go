// Package units canonicalizes ingredient measurements so quantities from
// different recipes can be summed.
package units

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// Canonical units produced by Normalize.
const (
	Gram       = "g"
	Kilogram   = "kg"
	Milliliter = "ml"
	Liter      = "l"
	Tablespoon = "tbsp"
	Teaspoon   = "tsp"
	Count      = "count"
	None       = ""
)

// Dimension groups returned by Group.
const (
	Weight = "weight"
	Volume = "volume"
	Spoon  = "spoon"
)

var aliases = map[string]string{
	"g":       Gram,
	"gram":    Gram,
	"grams":   Gram,
	"gramme":  Gram,
	"grammes": Gram,
	"그램":      Gram,

	"kg":        Kilogram,
	"kilogram":  Kilogram,
	"kilograms": Kilogram,
	"킬로그램":      Kilogram,

	"ml":          Milliliter,
	"milliliter":  Milliliter,
	"milliliters": Milliliter,
	"millilitre":  Milliliter,
	"millilitres": Milliliter,
	"밀리리터":        Milliliter,

	"l":      Liter,
	"liter":  Liter,
	"liters": Liter,
	"litre":  Liter,
	"litres": Liter,
	"리터":     Liter,

	"tbsp":        Tablespoon,
	"tablespoon":  Tablespoon,
	"tablespoons": Tablespoon,
	"큰술":          Tablespoon,
	"스푼":          Tablespoon,
	"t":           Tablespoon,

	"tsp":       Teaspoon,
	"teaspoon":  Teaspoon,
	"teaspoons": Teaspoon,
	"작은술":       Teaspoon,

	"count":  Count,
	"piece":  Count,
	"pieces": Count,
	"pcs":    Count,
	"ea":     Count,
	"개":      Count,
}

var folder = cases.Fold()

// Alias resolves a raw unit string to its short form without converting
// between units. Unknown strings come back case-folded.
func Alias(unit string) string {
	u := folder.String(strings.TrimSpace(unit))
	if a, ok := aliases[u]; ok {
		return a
	}
	return u
}

// Normalize converts (quantity, unit) into the canonical unit of its
// dimension: kg to g, l to ml and tsp to tbsp. The result is a fixed point.
func Normalize(quantity float64, unit string) (float64, string) {
	switch u := Alias(unit); u {
	case Kilogram:
		return quantity * 1000, Gram
	case Liter:
		return quantity * 1000, Milliliter
	case Teaspoon:
		return quantity / 3, Tablespoon
	default:
		return quantity, u
	}
}

// Canonical returns the unit Normalize would produce for unit, independent
// of any quantity.
func Canonical(unit string) string {
	_, u := Normalize(1, unit)
	return u
}

// Group classifies a canonical unit into its comparability group. Unknown
// units form their own group so they never collapse into each other.
func Group(unit string) string {
	switch unit {
	case Gram:
		return Weight
	case Milliliter:
		return Volume
	case Tablespoon:
		return Spoon
	case Count, None:
		return Count
	default:
		return unit
	}
}

// Round rounds to two decimals. NaN and infinities are returned as is.
func Round(q float64) float64 {
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return q
	}
	return math.Round(q*100) / 100
}

// ParseQuantity reads a quantity from a decoded JSON value or user input.
// Anything that is not a finite non-negative number yields 0.
func ParseQuantity(v any) float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		p, err := t.Float64()
		if err != nil {
			return 0
		}
		f = p
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		f = p
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// FormatQuantity renders a quantity without trailing zeros.
func FormatQuantity(q float64) string {
	return strconv.FormatFloat(Round(q), 'f', -1, 64)
}
