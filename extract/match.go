package extract

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldDiacritics strips combining marks so "fogão" and "fogao" compare
// equal. Storefront titles and user queries disagree on accents constantly.
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func fold(s string) string {
	out, _, err := transform.String(foldDiacritics, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// Relevant reports whether a listing title plausibly matches the search
// query. Search pages mix in sponsored and "people also bought" slots, so
// results whose title shares no query terms are dropped.
//
// A title matches when at least half of the query's significant tokens
// (three or more characters, accent-insensitive) appear in it. Queries
// with no significant tokens match everything.
func Relevant(query, title string) bool {
	foldedTitle := fold(title)

	var total, matched int
	for _, tok := range strings.Fields(fold(query)) {
		if len(tok) < 3 {
			continue
		}
		total++
		if strings.Contains(foldedTitle, tok) {
			matched++
		}
	}
	if total == 0 {
		return true
	}
	return matched*2 >= total
}
