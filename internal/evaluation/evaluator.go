// Package evaluation measures search quality against judged queries:
// intent accuracy, smart card accuracy and ranking metrics.
package evaluation

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	apperrors "github.com/falasearch/fala-search/internal/pkg/errors"
	"github.com/falasearch/fala-search/internal/search"
)

// relevantThreshold is the lowest grade counted as a hit.
const relevantThreshold = PartiallyRelevant

// DefaultKs are the cutoffs reported when none are given.
var DefaultKs = []int{1, 3, 5, 10}

// Evaluator runs suites against a search service.
type Evaluator struct {
	searchSvc *search.Service
}

// NewEvaluator creates a new evaluator.
func NewEvaluator(searchSvc *search.Service) *Evaluator {
	return &Evaluator{searchSvc: searchSvc}
}

// LoadSuite reads a YAML or JSON suite file.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.ContentError("reading evaluation suite", err)
	}

	var suite Suite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, apperrors.ContentError("parsing evaluation suite", err)
	}
	if err := suite.Validate(); err != nil {
		return nil, err
	}
	return &suite, nil
}

// Validate checks that every case has a query and grades are in range.
func (s *Suite) Validate() error {
	if len(s.Cases) == 0 {
		return apperrors.ValidationError("suite has no cases")
	}
	for i, c := range s.Cases {
		if c.Query == "" {
			return apperrors.ValidationError(fmt.Sprintf("case %d has no query", i)).WithDetail("case", c.ID)
		}
		for href, grade := range c.Judgments {
			if grade < NotRelevant || grade > HighlyRelevant {
				return apperrors.ValidationError(fmt.Sprintf("grade %d out of range 0..3", grade)).
					WithDetail("case", c.ID).
					WithDetail("href", href)
			}
		}
	}
	return nil
}

// Evaluate runs every case of suite. ks are the cutoffs for NDCG, recall
// and precision.
func (e *Evaluator) Evaluate(ctx context.Context, suite *Suite, ks []int) (*Report, error) {
	if len(ks) == 0 {
		ks = DefaultKs
	}

	results := make([]CaseResult, 0, len(suite.Cases))
	for i, c := range suite.Cases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if c.ID == "" {
			c.ID = fmt.Sprintf("case-%d", i+1)
		}
		results = append(results, e.EvaluateCase(c, ks))
	}

	return &Report{
		Results: results,
		Summary: Summarize(results),
	}, nil
}

// EvaluateCase evaluates a single query. The smart card target, when
// present, ranks first, ahead of the result list it is excluded from.
func (e *Evaluator) EvaluateCase(c Case, ks []int) CaseResult {
	resp := e.searchSvc.Search(c.Query)

	ranked := make([]string, 0, len(resp.Results)+1)
	if resp.SmartCard != nil {
		ranked = append(ranked, resp.SmartCard.Target())
	}
	for _, r := range resp.Results {
		ranked = append(ranked, r.Href)
	}

	relevances := make([]int, len(ranked))
	for i, href := range ranked {
		relevances[i] = c.Judgments[href]
	}

	ideal := make([]int, 0, len(c.Judgments))
	totalRelevant := 0
	for _, grade := range c.Judgments {
		ideal = append(ideal, grade)
		if grade >= relevantThreshold {
			totalRelevant++
		}
	}

	result := CaseResult{
		ID:          c.ID,
		Query:       c.Query,
		Intent:      resp.Intent.Type,
		NDCG:        make(map[int]float64, len(ks)),
		Recall:      make(map[int]float64, len(ks)),
		Precision:   make(map[int]float64, len(ks)),
		MRR:         MRR(relevances, relevantThreshold),
		AP:          AveragePrecision(relevances, relevantThreshold, totalRelevant),
		ResultCount: len(resp.Results),
	}

	if c.Intent != "" {
		result.IntentChecked = true
		result.IntentMatch = c.Intent == resp.Intent.Type
	}

	card := NoCard
	if resp.SmartCard != nil {
		card = resp.SmartCard.Target()
		result.Card = card
	}
	if c.Card != "" {
		result.CardChecked = true
		result.CardMatch = c.Card == card
	}

	for _, k := range ks {
		result.NDCG[k] = NDCG(relevances, ideal, k)
		result.Recall[k] = Recall(relevances, k, relevantThreshold, totalRelevant)
		result.Precision[k] = Precision(relevances, k, relevantThreshold)
	}

	return result
}

// Summarize aggregates results across queries. Accuracies only count cases
// that asserted an intent or a card.
func Summarize(results []CaseResult) Summary {
	summary := Summary{
		QueryCount:    len(results),
		MeanNDCG:      make(map[int]float64),
		MeanRecall:    make(map[int]float64),
		MeanPrecision: make(map[int]float64),
	}
	if len(results) == 0 {
		return summary
	}

	var intentChecked, intentHits, cardChecked, cardHits int
	for _, r := range results {
		summary.MeanMRR += r.MRR
		summary.MAP += r.AP

		if r.IntentChecked {
			intentChecked++
			if r.IntentMatch {
				intentHits++
			}
		}
		if r.CardChecked {
			cardChecked++
			if r.CardMatch {
				cardHits++
			}
		}

		for k, v := range r.NDCG {
			summary.MeanNDCG[k] += v
		}
		for k, v := range r.Recall {
			summary.MeanRecall[k] += v
		}
		for k, v := range r.Precision {
			summary.MeanPrecision[k] += v
		}
	}

	n := float64(len(results))
	summary.MeanMRR /= n
	summary.MAP /= n
	for k := range summary.MeanNDCG {
		summary.MeanNDCG[k] /= n
	}
	for k := range summary.MeanRecall {
		summary.MeanRecall[k] /= n
	}
	for k := range summary.MeanPrecision {
		summary.MeanPrecision[k] /= n
	}

	if intentChecked > 0 {
		summary.IntentAccuracy = float64(intentHits) / float64(intentChecked)
	}
	if cardChecked > 0 {
		summary.CardAccuracy = float64(cardHits) / float64(cardChecked)
	}

	return summary
}

// SortedKs returns the cutoffs present in m in ascending order.
func SortedKs(m map[int]float64) []int {
	ks := make([]int, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	sort.Ints(ks)
	return ks
}
