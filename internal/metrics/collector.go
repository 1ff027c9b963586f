package metrics

import (
	"fmt"
	"strings"

	"github.com/falasearch/fala-search/internal/content"
)

// Collector snapshots content and runtime statistics.
type Collector struct {
	metrics *Metrics
	coll    *content.Collections
}

// NewCollector creates a new metrics collector.
func NewCollector(metrics *Metrics, coll *content.Collections) *Collector {
	return &Collector{
		metrics: metrics,
		coll:    coll,
	}
}

// Stats is a point-in-time view of the service.
type Stats struct {
	Vocabulary   int `json:"vocabulary"`
	Verbs        int `json:"verbs"`
	Conjugations int `json:"conjugations"`
	Grammar      int `json:"grammar"`

	SearchRequests int64   `json:"search_requests_total"`
	SearchLatency  float64 `json:"search_latency_avg_ms"`
	CardHits       int64   `json:"card_hits"`
	CardMisses     int64   `json:"card_misses"`

	Goroutines    int     `json:"goroutines"`
	MemoryBytes   int64   `json:"memory_bytes"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Collect refreshes the content gauges and returns current statistics.
func (c *Collector) Collect() Stats {
	var s Stats
	if c.coll != nil {
		s.Vocabulary, s.Verbs, s.Conjugations, s.Grammar = c.coll.Counts()
		c.metrics.UpdateContent(s.Vocabulary, s.Verbs, s.Conjugations, s.Grammar)
	}

	s.SearchRequests = c.metrics.SearchRequests.Value()
	if n := c.metrics.SearchLatency.Count(); n > 0 {
		s.SearchLatency = c.metrics.SearchLatency.Sum() / float64(n)
	}
	for _, counter := range c.metrics.SmartCards.GetAll() {
		switch counter.Labels()["outcome"] {
		case CardHit:
			s.CardHits += counter.Value()
		case CardMiss:
			s.CardMisses += counter.Value()
		}
	}

	c.metrics.collectSystemMetrics()
	s.Goroutines = int(c.metrics.GoroutineCount.Value())
	s.MemoryBytes = int64(c.metrics.MemoryUsage.Value())
	s.UptimeSeconds = c.metrics.Uptime.Value()

	return s
}

// Summary returns a human-readable summary of current metrics.
func (c *Collector) Summary() string {
	s := c.Collect()

	var sb strings.Builder
	sb.WriteString("Fala Search Metrics Summary\n")
	sb.WriteString("===========================\n\n")
	fmt.Fprintf(&sb, "Vocabulary: %s\n", formatInt(int64(s.Vocabulary)))
	fmt.Fprintf(&sb, "Verbs: %s\n", formatInt(int64(s.Verbs)))
	fmt.Fprintf(&sb, "Conjugations: %s\n", formatInt(int64(s.Conjugations)))
	fmt.Fprintf(&sb, "Grammar Topics: %s\n", formatInt(int64(s.Grammar)))
	fmt.Fprintf(&sb, "Search Requests: %s\n", formatInt(s.SearchRequests))
	if total := s.CardHits + s.CardMisses; total > 0 {
		fmt.Fprintf(&sb, "Card Hit Rate: %.0f%%\n", 100*float64(s.CardHits)/float64(total))
	}
	fmt.Fprintf(&sb, "Goroutines: %d\n", s.Goroutines)
	fmt.Fprintf(&sb, "Memory Usage: %s\n", formatBytes(s.MemoryBytes))
	fmt.Fprintf(&sb, "Uptime: %s\n", formatDuration(int64(s.UptimeSeconds)))

	return sb.String()
}

func formatInt(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%.1fk", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000)
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func formatDuration(seconds int64) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	if seconds < 3600 {
		return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
