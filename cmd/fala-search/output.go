package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/falasearch/fala-search/internal/bus"
	"github.com/falasearch/fala-search/internal/evaluation"
	"github.com/falasearch/fala-search/internal/query"
	"github.com/falasearch/fala-search/internal/search"
)

func printIntent(w io.Writer, intent query.Intent) {
	fmt.Fprintf(w, "intent: %s\n", intent.Type)
	if intent.IsNone() {
		return
	}
	if intent.ExtractedQuery != "" {
		fmt.Fprintf(w, "term:   %s\n", intent.ExtractedQuery)
	}
	if intent.Tense != "" {
		fmt.Fprintf(w, "tense:  %s\n", intent.Tense)
	}
	if len(intent.ComparisonTerms) > 0 {
		fmt.Fprintf(w, "terms:  %s\n", strings.Join(intent.ComparisonTerms, ", "))
	}
}

func printResponse(w io.Writer, resp search.Response) {
	printIntent(w, resp.Intent)

	if resp.SmartCard != nil {
		fmt.Fprintln(w)
		printCard(w, resp.SmartCard)
	}

	fmt.Fprintln(w)
	if len(resp.Results) == 0 {
		fmt.Fprintln(w, "No results.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTYPE\tTITLE\tSUBTITLE\tSCORE")
	for i, r := range resp.Results {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n", i+1, r.Type, r.Title, r.Subtitle, r.Score)
	}
	tw.Flush()
}

func printCard(w io.Writer, card search.SmartCard) {
	switch c := card.(type) {
	case *search.TranslationCard:
		fmt.Fprintf(w, "%s = %s\n", c.Query, c.Primary.Portuguese)
		for _, alt := range c.Alternatives {
			fmt.Fprintf(w, "  also: %s (%s)\n", alt.Portuguese, alt.English)
		}
	case *search.DefinitionCard:
		fmt.Fprintf(w, "%s = %s\n", c.Primary.Portuguese, c.Primary.English)
		for _, rel := range c.Related {
			fmt.Fprintf(w, "  see: %s (%s)\n", rel.Portuguese, rel.English)
		}
	case *search.ConjugationCard:
		fmt.Fprintf(w, "%s (%s)\n", c.Infinitive, c.English)
		if c.PresentPreview != "" {
			fmt.Fprintf(w, "  %s\n", c.PresentPreview)
		}
	case *search.TenseCard:
		fmt.Fprintf(w, "%s, %s\n", c.Infinitive, c.Tense)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, f := range c.Forms {
			fmt.Fprintf(tw, "  %s\t%s\n", f.Person, f.Conjugation)
		}
		tw.Flush()
	case *search.ComparisonCard:
		fmt.Fprintf(w, "%s vs %s: %s\n", c.Terms[0], c.Terms[1], c.Title)
		if c.Summary != "" {
			fmt.Fprintf(w, "  %s\n", c.Summary)
		}
	case *search.GrammarCard:
		fmt.Fprintln(w, c.Title)
		if c.Summary != "" {
			fmt.Fprintf(w, "  %s\n", c.Summary)
		}
	}
	fmt.Fprintf(w, "  -> %s\n", card.Target())
}

func printEvents(w io.Writer, events []bus.LoggedEvent) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No events.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tINTENT\tCARD\tRESULTS\tQUERY")
	for _, le := range events {
		var p bus.SearchPerformed
		if le.Topic != bus.TopicSearchPerformed || bus.DecodePayload(le.Event, &p) != nil {
			continue
		}
		card := p.SmartCard
		if card == "" {
			card = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			le.Timestamp.Local().Format("2006-01-02 15:04:05"), p.Intent, card, p.ResultCount, p.Query)
	}
	tw.Flush()
}

func printReport(w io.Writer, report *evaluation.Report) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CASE\tINTENT\tCARD\tMRR\tRESULTS\tQUERY")
	for _, r := range report.Results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%d\t%s\n",
			r.ID, r.Intent, mark(r.IntentChecked, r.IntentMatch), r.MRR, r.ResultCount, r.Query)
	}
	tw.Flush()

	s := report.Summary
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Queries:         %d\n", s.QueryCount)
	fmt.Fprintf(w, "Intent accuracy: %.1f%%\n", s.IntentAccuracy*100)
	fmt.Fprintf(w, "Card accuracy:   %.1f%%\n", s.CardAccuracy*100)
	fmt.Fprintf(w, "MRR:             %.3f\n", s.MeanMRR)
	fmt.Fprintf(w, "MAP:             %.3f\n", s.MAP)
	for _, k := range evaluation.SortedKs(s.MeanNDCG) {
		fmt.Fprintf(w, "@%-2d nDCG %.3f  recall %.3f  precision %.3f\n",
			k, s.MeanNDCG[k], s.MeanRecall[k], s.MeanPrecision[k])
	}
}

// mark renders an expectation check as ok, FAIL or - when not asserted.
func mark(checked, match bool) string {
	switch {
	case !checked:
		return "-"
	case match:
		return "ok"
	default:
		return "FAIL"
	}
}

func printHealth(w io.Writer, server string, status *search.HealthStatus) {
	fmt.Fprintf(w, "%s: %s\n", server, status.Status)
	if status.Version != "" {
		fmt.Fprintf(w, "version: %s  uptime: %s\n", status.Version, status.Uptime)
	}

	names := make([]string, 0, len(status.Components))
	for name := range status.Components {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, name := range names {
		c := status.Components[name]
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", name, c.Status, c.Message)
	}
	tw.Flush()
}
