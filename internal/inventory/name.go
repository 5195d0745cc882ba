package inventory

import "strings"

// CanonicalName normalizes an item name for lookup and storage:
// trim, collapse runs of whitespace, title-case each word.
// "  gulab   jamun " and "Gulab Jamun" canonicalize identically.
func CanonicalName(name string) string {
	words := strings.Fields(strings.ToLower(name))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
