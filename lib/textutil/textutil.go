package textutil

import (
	"strings"
	"unicode"
)

// Clean canonicalizes scraped text: trims the ends, drops any rune that
// is neither ASCII nor whitespace, turns newlines and tabs into spaces,
// then collapses runs of whitespace into single spaces.
func Clean(text string) string {
	text = strings.TrimSpace(text)

	var filtered strings.Builder
	for _, c := range text {
		if c <= unicode.MaxASCII || unicode.IsSpace(c) {
			filtered.WriteRune(c)
		}
	}

	replaced := strings.NewReplacer("\n", " ", "\t", " ").Replace(filtered.String())
	return strings.Join(strings.Fields(replaced), " ")
}
