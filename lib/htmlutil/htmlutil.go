package htmlutil

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

var innerWhitespace = regexp.MustCompile(`\s\s+`)

// tidy drops non-printable runes, folds whitespace runs into single
// spaces and trims the ends.
func tidy(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsSpace(c) {
			newStr.WriteRune(' ')
			continue
		}
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	out := strings.Trim(newStr.String(), " ")
	return innerWhitespace.ReplaceAllString(out, " ")
}

// FirstText returns the tidied text of the first element matching
// selector inside sel, or "" when nothing matches or the match holds
// no text.
func FirstText(sel *goquery.Selection, selector string) string {
	found := ""
	sel.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := tidy(s.Text())
		if text == "" {
			return true
		}
		found = text
		return false
	})
	return found
}

// FirstAttr returns the attribute value of the first element matching
// selector inside sel that carries a non-empty attr.
func FirstAttr(sel *goquery.Selection, selector, attr string) string {
	found := ""
	sel.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		val, ok := s.Attr(attr)
		if !ok || strings.TrimSpace(val) == "" {
			return true
		}
		found = strings.TrimSpace(val)
		return false
	})
	return found
}

// SelectTexts collects the tidied, non-empty text of every element
// under sel matching selector.
func SelectTexts(sel *goquery.Selection, selector string) []string {
	var texts []string
	sel.Find(selector).Each(func(_ int, s *goquery.Selection) {
		text := tidy(s.Text())
		if text != "" {
			texts = append(texts, text)
		}
	})
	return texts
}
