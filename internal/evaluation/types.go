package evaluation

import "github.com/falasearch/fala-search/internal/query"

// Relevance grades, from not relevant to highly relevant.
const (
	NotRelevant       = 0
	PartiallyRelevant = 1
	Relevant          = 2
	HighlyRelevant    = 3
)

// Suite is a set of judged queries.
type Suite struct {
	Cases []Case `yaml:"cases" json:"cases"`
}

// Case is one judged query. Judgments map result hrefs to a relevance
// grade; unlisted hrefs are not relevant.
type Case struct {
	ID    string `yaml:"id" json:"id"`
	Query string `yaml:"query" json:"query"`

	// Intent is the expected intent type. Empty skips the check.
	Intent query.IntentType `yaml:"intent" json:"intent,omitempty"`

	// Card is the expected smart card target href, or "none" when no card
	// should be built. Empty skips the check.
	Card string `yaml:"card" json:"card,omitempty"`

	Judgments map[string]int `yaml:"judgments" json:"judgments,omitempty"`
}

// NoCard is the Card value asserting that no smart card is built.
const NoCard = "none"

// CaseResult contains metrics for a single query.
type CaseResult struct {
	ID    string `json:"id"`
	Query string `json:"query"`

	Intent        query.IntentType `json:"intent"`
	IntentChecked bool             `json:"intent_checked"`
	IntentMatch   bool             `json:"intent_match"`

	Card        string `json:"card,omitempty"`
	CardChecked bool   `json:"card_checked"`
	CardMatch   bool   `json:"card_match"`

	NDCG        map[int]float64 `json:"ndcg"`      // NDCG@K for various K
	Recall      map[int]float64 `json:"recall"`    // Recall@K
	Precision   map[int]float64 `json:"precision"` // Precision@K
	MRR         float64         `json:"mrr"`
	AP          float64         `json:"ap"` // Average Precision
	ResultCount int             `json:"result_count"`
}

// Summary aggregates metrics across multiple queries.
type Summary struct {
	QueryCount     int             `json:"query_count"`
	IntentAccuracy float64         `json:"intent_accuracy"`
	CardAccuracy   float64         `json:"card_accuracy"`
	MeanNDCG       map[int]float64 `json:"mean_ndcg"`
	MeanRecall     map[int]float64 `json:"mean_recall"`
	MeanPrecision  map[int]float64 `json:"mean_precision"`
	MeanMRR        float64         `json:"mean_mrr"`
	MAP            float64         `json:"map"`
}

// Report is the outcome of evaluating a suite.
type Report struct {
	Results []CaseResult `json:"results"`
	Summary Summary      `json:"summary"`
}
