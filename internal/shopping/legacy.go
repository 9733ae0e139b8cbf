package shopping

import "strings"

// legacyKey strips the language prefix from a computed key. State written
// before keys carried a language uses this form.
//
// TODO: remove after 2027-04-30. Entries saved since 2026-10 carry
// language-prefixed keys, and any older entry still stored by then is
// dropped on the next View like other stale state.
func legacyKey(key string) (string, bool) {
	parts := strings.SplitN(key, "|", 3)
	if len(parts) != 3 {
		return "", false
	}
	return parts[1] + "|" + parts[2], true
}
