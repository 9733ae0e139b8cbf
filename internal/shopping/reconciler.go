package shopping

import (
	"maps"
	"sort"
)

// Reconcile prunes state entries no longer backed by the computed items for
// lang. Manual entries, entries matching a computed key (or its legacy
// form) and entries tagged with another language survive. With no computed
// items there is no plan to compare against and state is returned as is.
// The bool reports whether anything was pruned.
func Reconcile(items []LineItem, state State, lang string) (State, bool) {
	if len(items) == 0 {
		return state, false
	}

	current := make(map[string]struct{}, len(items)*2)
	for _, it := range items {
		current[it.Key] = struct{}{}
		if lk, ok := legacyKey(it.Key); ok {
			current[lk] = struct{}{}
		}
	}

	kept := make(State, len(state))
	for key, e := range state {
		_, backed := current[key]
		switch {
		case e.Manual, backed:
			kept[key] = e
		case lang != "" && e.Lang != "" && e.Lang != lang:
			kept[key] = e
		}
	}

	if maps.Equal(kept, state) {
		return state, false
	}
	return kept, true
}

// MergeForDisplay joins reconciled state with the computed items. Stored
// values win over computed ones, field by field. Computed items without a
// state entry are returned as pending.
func MergeForDisplay(items []LineItem, state State) View {
	byKey := make(map[string]LineItem, len(items)*2)
	for _, it := range items {
		byKey[it.Key] = it
	}
	// Exact keys take precedence over legacy aliases.
	for _, it := range items {
		if lk, ok := legacyKey(it.Key); ok {
			if _, taken := byKey[lk]; !taken {
				byKey[lk] = it
			}
		}
	}

	view := View{Items: []DisplayItem{}, Pending: []LineItem{}}
	claimed := make(map[string]struct{}, len(state))
	for key, stored := range state {
		computed, ok := byKey[key]
		if ok && key != computed.Key {
			if _, exact := state[computed.Key]; exact {
				continue
			}
		}
		switch {
		case ok:
			claimed[computed.Key] = struct{}{}
			view.Items = append(view.Items, DisplayItem{
				Key:          key,
				Name:         firstNonEmpty(stored.Name, computed.Name),
				Unit:         firstNonEmpty(stored.Unit, computed.Unit),
				Quantity:     Amount(firstNonEmpty(string(stored.Quantity), string(AmountOf(computed.Quantity)))),
				RecipeIDs:    computed.RecipeIDs,
				RecipesCount: computed.RecipesCount,
				Manual:       stored.Manual,
			})
		case stored.Manual:
			view.Items = append(view.Items, DisplayItem{
				Key:       key,
				Name:      stored.Name,
				Unit:      stored.Unit,
				Quantity:  stored.Quantity,
				RecipeIDs: []string{},
				Manual:    true,
			})
		}
	}
	sort.Slice(view.Items, func(i, j int) bool { return view.Items[i].Key < view.Items[j].Key })

	for _, it := range items {
		if _, ok := claimed[it.Key]; !ok {
			view.Pending = append(view.Pending, it)
		}
	}
	return view
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
