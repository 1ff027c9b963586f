// Package postrank provides post-ranking operations for search results.
package postrank

// Key identifies a result's destination. Two results with the same key are
// duplicates even when they were reached through different fields.
type Key struct {
	Type  string
	Href  string
	Title string // normalized
}

// Item is a ranked result postrank can reorder and deduplicate.
type Item interface {
	DedupKey() Key
	RankScore() int
}

// DedupResult contains deduplication statistics.
type DedupResult struct {
	InputCount  int
	OutputCount int
	Removed     int
}

// Deduplicate drops every result whose key was already seen. The first
// occurrence wins, so callers sort before deduplicating when the best score
// should survive.
func Deduplicate[T Item](results []T) ([]T, DedupResult) {
	if len(results) == 0 {
		return results, DedupResult{}
	}

	seen := make(map[Key]struct{}, len(results))
	kept := make([]T, 0, len(results))
	for _, r := range results {
		k := r.DedupKey()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		kept = append(kept, r)
	}

	return kept, DedupResult{
		InputCount:  len(results),
		OutputCount: len(kept),
		Removed:     len(results) - len(kept),
	}
}

// ExcludeHrefs drops results pointing at any of hrefs. Empty hrefs are
// ignored. It returns the kept results and how many were dropped.
func ExcludeHrefs[T Item](results []T, hrefs ...string) ([]T, int) {
	skip := make(map[string]struct{}, len(hrefs))
	for _, h := range hrefs {
		if h != "" {
			skip[h] = struct{}{}
		}
	}
	if len(skip) == 0 {
		return results, 0
	}

	kept := make([]T, 0, len(results))
	for _, r := range results {
		if _, ok := skip[r.DedupKey().Href]; ok {
			continue
		}
		kept = append(kept, r)
	}
	return kept, len(results) - len(kept)
}
