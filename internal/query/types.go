// Package query classifies free-text search queries into intents.
package query

// IntentType is what the user seems to be asking for.
type IntentType string

const (
	// IntentTranslation - "how do you say X", "X in portuguese".
	IntentTranslation IntentType = "translation"

	// IntentDefinition - "what does X mean", "o que significa X".
	IntentDefinition IntentType = "definition"

	// IntentConjugation - "conjugate X", "conjugar X".
	IntentConjugation IntentType = "conjugation"

	// IntentTense - a tense name combined with a verb, "past tense of X".
	IntentTense IntentType = "tense"

	// IntentComparison - "X vs Y", "difference between X and Y".
	IntentComparison IntentType = "comparison"

	// IntentGrammar - "when to use X", "X grammar".
	IntentGrammar IntentType = "grammar"

	// IntentNone - no recognizable phrasing.
	IntentNone IntentType = "none"
)

// Intent is the result of intent detection for one query.
type Intent struct {
	// Type is the detected intent.
	Type IntentType `json:"type"`

	// ExtractedQuery is the sub-phrase the user actually meant to look up.
	// For IntentNone it is the raw query.
	ExtractedQuery string `json:"extractedQuery"`

	// Tense is set for IntentTense and holds a canonical tense name.
	Tense string `json:"tense,omitempty"`

	// ComparisonTerms is set for IntentComparison and always has two terms.
	ComparisonTerms []string `json:"comparisonTerms,omitempty"`
}

// None returns the fallback intent for query.
func None(query string) Intent {
	return Intent{Type: IntentNone, ExtractedQuery: query}
}

// IsNone reports whether no intent was detected.
func (i Intent) IsNone() bool {
	return i.Type == IntentNone || i.Type == ""
}
