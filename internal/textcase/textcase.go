// Package textcase normalizes the casing of values printed on the transport document.
//
// Every printed field is tagged with a Kind and goes through Apply, so the same
// rule holds for every box of the page.
package textcase

import (
	"strings"
	"unicode"
)

type Kind int

const (
	// Verbatim: dates, numbers, already formatted values.
	Verbatim Kind = iota
	// Name: people, companies, streets, cities. Title-cased.
	Name
	// Code: VAT numbers, tax codes, stall codes, provinces, plates, units. Upper-cased.
	Code
	// Text: notes, annotations and descriptions. Title-cased like names.
	Text
)

func Apply(kind Kind, s string) string {
	switch kind {
	case Name, Text:
		return Title(s)
	case Code:
		return strings.ToUpper(s)
	default:
		return s
	}
}

// Title upper-cases the first letter of every run of letters and lower-cases the
// rest. Any non-letter (space, digit, apostrophe, slash) starts a new run, so
// "via dell'olmo 12/b" becomes "Via Dell'Olmo 12/B".
func Title(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevCased := false
	for _, r := range s {
		cased := unicode.IsUpper(r) || unicode.IsLower(r) || unicode.IsTitle(r)
		switch {
		case cased && prevCased:
			b.WriteRune(unicode.ToLower(r))
		case cased:
			b.WriteRune(unicode.ToTitle(r))
		default:
			b.WriteRune(r)
		}
		prevCased = cased
	}
	return b.String()
}

// Truncate cuts s to at most limit runes. When marker is non-empty and s is too
// long, the result keeps limit-len(marker) runes followed by marker.
func Truncate(s string, limit int, marker string) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if marker == "" {
		return string(runes[:limit])
	}
	keep := limit - len([]rune(marker))
	if keep < 0 {
		keep = 0
	}
	return string(runes[:keep]) + marker
}
