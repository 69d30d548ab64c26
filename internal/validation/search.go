package validation

import "strings"

// MaxSearchLength bounds free-text search terms.
const MaxSearchLength = 256

// SanitizeSearchInput trims, flattens whitespace and limits search input length
func SanitizeSearchInput(input string) string {
	input = strings.Join(strings.Fields(input), " ")

	r := []rune(input)
	if len(r) > MaxSearchLength {
		input = strings.TrimSpace(string(r[:MaxSearchLength]))
	}
	return input
}
