// Package normalize canonicalizes text so that queries and content fields
// compare equal regardless of case and diacritics.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lower-cases text, decomposes it and removes combining marks,
// so "Pretérito" and "preterito" produce the same string.
//
// The result is recomposed (NFC) which makes Normalize idempotent.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	// transform.Chain keeps internal buffers, so it is built per call to
	// stay safe for concurrent use.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(text))
	if err != nil {
		return strings.ToLower(text)
	}
	return folded
}

// Fields normalizes text and collapses runs of whitespace to single spaces.
func Fields(text string) string {
	return strings.Join(strings.Fields(Normalize(text)), " ")
}

// Equal reports whether a and b are the same after normalization.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
