package query

import (
	"sort"
	"strings"

	"github.com/falasearch/fala-search/internal/normalize"
)

// text is a query prepared for pattern matching. Patterns run against the
// folded form so they never need accent variants, while extracted terms are
// cut from the lowercased original so "maçã" stays "maçã".
type text struct {
	lower  []rune
	folded string
	// starts[i] is the byte offset in folded where lower[i] begins.
	// It carries a trailing sentinel equal to len(folded).
	starts []int
}

func newText(raw string) text {
	lower := []rune(strings.Join(strings.Fields(strings.ToLower(raw)), " "))

	var b strings.Builder
	starts := make([]int, 0, len(lower)+1)
	for _, r := range lower {
		starts = append(starts, b.Len())
		b.WriteString(normalize.Normalize(string(r)))
	}
	starts = append(starts, b.Len())

	return text{lower: lower, folded: b.String(), starts: starts}
}

// span maps a byte range of folded back to the original runes. Runes that
// fold to nothing (combining marks) stay attached to the preceding letter.
func (t text) span(start, end int) string {
	if start >= end {
		return ""
	}
	i := sort.Search(len(t.starts), func(k int) bool { return t.starts[k] > start }) - 1
	j := sort.Search(len(t.starts), func(k int) bool { return t.starts[k] > end }) - 1
	if i < 0 {
		i = 0
	}
	if j > len(t.lower) {
		j = len(t.lower)
	}
	if i >= j {
		return ""
	}
	return string(t.lower[i:j])
}

// submatch returns the original text of capture group n from a
// FindStringSubmatchIndex result.
func (t text) submatch(loc []int, n int) string {
	if 2*n+1 >= len(loc) || loc[2*n] < 0 {
		return ""
	}
	return t.span(loc[2*n], loc[2*n+1])
}

const trimSet = " \t\"'`“”‘’«»?!.,;:¿¡()[]"

// cleanTerm strips surrounding quotes and punctuation.
func cleanTerm(s string) string {
	return strings.Trim(s, trimSet)
}

// longEnough reports whether a term is usable as a lookup key.
func longEnough(s string) bool {
	return len([]rune(s)) >= minTermLength
}

const minTermLength = 2
