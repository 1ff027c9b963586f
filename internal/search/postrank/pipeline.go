package postrank

import (
	"sort"

	"github.com/falasearch/fala-search/internal/pkg/logger"
)

// Config holds post-ranking configuration.
type Config struct {
	// MaxResults caps the merged list. Zero or less means no cap.
	MaxResults int
}

// DefaultConfig returns default post-ranking configuration.
func DefaultConfig() Config {
	return Config{MaxResults: 50}
}

// PostRankResult contains the results and statistics from post-ranking.
type PostRankResult[T Item] struct {
	Results   []T
	Dedup     DedupResult
	Excluded  int
	Truncated int
}

// Pipeline merges ranked lists into one bounded, duplicate-free list.
type Pipeline[T Item] struct {
	config Config
	log    *logger.Logger
}

// NewPipeline creates a new post-ranking pipeline.
func NewPipeline[T Item](config Config, log *logger.Logger) *Pipeline[T] {
	return &Pipeline[T]{
		config: config,
		log:    log,
	}
}

// Process applies the post-ranking steps in order:
// 1. Concatenate lists, earlier lists first
// 2. Stable sort by score, descending
// 3. Deduplicate by key
// 4. Drop results pointing at exclude
// 5. Truncate to MaxResults
func (p *Pipeline[T]) Process(lists [][]T, exclude ...string) PostRankResult[T] {
	total := 0
	for _, l := range lists {
		total += len(l)
	}

	merged := make([]T, 0, total)
	for _, l := range lists {
		merged = append(merged, l...)
	}
	SortByScore(merged)

	pr := PostRankResult[T]{}
	merged, pr.Dedup = Deduplicate(merged)
	merged, pr.Excluded = ExcludeHrefs(merged, exclude...)

	if limit := p.config.MaxResults; limit > 0 && len(merged) > limit {
		pr.Truncated = len(merged) - limit
		merged = merged[:limit]
	}
	pr.Results = merged

	if p.log != nil {
		p.log.Debug("Post-rank complete",
			"input", total,
			"removed", pr.Dedup.Removed,
			"excluded", pr.Excluded,
			"truncated", pr.Truncated,
			"output", len(pr.Results),
		)
	}

	return pr
}

// GetConfig returns the current pipeline configuration.
func (p *Pipeline[T]) GetConfig() Config {
	return p.config
}

// SortByScore orders results by descending score. Ties keep their input
// order.
func SortByScore[T Item](results []T) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RankScore() > results[j].RankScore()
	})
}
