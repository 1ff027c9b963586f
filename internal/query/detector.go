package query

import (
	"regexp"
	"strings"

	"github.com/falasearch/fala-search/internal/normalize"
)

// family is one intent's pattern set. match decides whether the family
// claims the query; extract pulls out the term. A family that matches but
// cannot extract a usable term ends detection with IntentNone. The tense
// family only matches when it also finds a verb, so queries that merely
// name a tense reach the later families.
type family struct {
	intent  IntentType
	match   func(t text) bool
	extract func(t text) (Intent, bool)
}

// Detector classifies queries by trying families in priority order.
type Detector struct {
	families []family
}

// NewDetector returns a detector with the standard family order:
// comparison, tense, conjugation, translation, definition, grammar.
func NewDetector() *Detector {
	return &Detector{
		families: []family{
			{IntentComparison, matchAny(comparisonPatterns), extractComparison},
			{IntentTense, matchTense, extractTense},
			{IntentConjugation, matchAny(conjugationPatterns), extractFirst(IntentConjugation, conjugationPatterns)},
			{IntentTranslation, matchAny(translationPatterns), extractFirst(IntentTranslation, translationPatterns)},
			{IntentDefinition, matchAny(definitionPatterns), extractFirst(IntentDefinition, definitionPatterns)},
			{IntentGrammar, matchAny(grammarPatterns), extractFirst(IntentGrammar, grammarPatterns)},
		},
	}
}

var defaultDetector = NewDetector()

// DetectIntent classifies query with the default detector.
func DetectIntent(query string) Intent {
	return defaultDetector.Detect(query)
}

// Detect classifies query. It never fails: anything unrecognized is
// IntentNone carrying the raw query.
func (d *Detector) Detect(query string) Intent {
	if strings.TrimSpace(query) == "" {
		return None(query)
	}

	t := newText(query)
	for _, f := range d.families {
		if !f.match(t) {
			continue
		}
		intent, ok := f.extract(t)
		if !ok {
			return None(query)
		}
		return intent
	}
	return None(query)
}

var (
	comparisonPatterns = compile(
		`^(?:what(?:'s| is) the )?difference between (.+?) and (.+?)\??$`,
		`^(?:qual (?:e )?a )?diferenca entre (.+?) e (.+?)\??$`,
		`^(?:compare|comparar) (.+?) (?:and|with|to|e|com) (.+?)$`,
		`^(.+?) (?:vs\.?|versus) (.+?)\??$`,
	)

	conjugationPatterns = compile(
		`^how (?:do (?:you|i) |to )?conjugate (?:the verb )?(.+?)\??$`,
		`^conjugate (?:the verb )?(.+?)$`,
		`^conjugations? (?:of|for) (?:the verb )?(.+?)$`,
		`^(?:conjugar|conjugue|conjuga) (?:o verbo )?(.+?)$`,
		`^conjugac(?:ao|oes) (?:de|do verbo|do) (.+?)$`,
		`^(.+?) (?:conjugations?|conjugac(?:ao|oes))$`,
	)

	translationPatterns = compile(
		`^how (?:do|would|can|should) (?:you|i|we|one) say (.+?)(?: in portuguese)?\??$`,
		`^what(?:'s| is) (?:the )?portuguese (?:word |term )?for (.+?)\??$`,
		`^translate (.+?)(?: (?:to|into) portuguese)?$`,
		`^como (?:se )?(?:diz|digo|fala) (.+?)(?: em portugues)?\??$`,
		`^(.+?) (?:in|em) portugu(?:ese|es)\??$`,
	)

	definitionPatterns = compile(
		`^what does (.+?) mean(?: in english)?\??$`,
		`^what(?:'s| is) the meaning of (.+?)\??$`,
		`^(?:define|definition of|meaning of|significado de) (.+?)$`,
		`^what(?:'s| is) (?:a |an )?(.+?)\??$`,
		`^o que (?:significa|quer dizer) (.+?)\??$`,
		`^o que e (?:um |uma )?(.+?)\??$`,
		`^(.+?) meaning\??$`,
	)

	grammarPatterns = compile(
		`^(?:when|how) (?:do (?:you|i) |should (?:you|i) |to )use (?:the )?(.+?)\??$`,
		`^(?:quando|como) usar (?:o |a |os |as )?(.+?)\??$`,
		`^(?:grammar|gramatica|rules?|regras?) (?:of |for |de |do |da |para )?(.+?)$`,
		`^(.+?) (?:grammar|rules?|gramatica|regras?)$`,
	)

	// tenseVerbPattern picks the verb after the tense phrase: "of falar",
	// "do verbo falar".
	tenseVerbPattern = regexp.MustCompile(`\b(?:of|for|de|do|da|para) (?:the verb |o verbo |verb |verbo )?(.+?)\??$`)

	wordPattern = regexp.MustCompile(`\S+`)

	// verbPattern accepts folded infinitives: -ar, -er, -ir and por with
	// its compounds.
	verbPattern = regexp.MustCompile(`^[a-z-]*(?:ar|er|ir|por)$`)
)

// tenseFillers are words ignored when the verb is not introduced by
// "of"/"de", as in "falar in the past tense".
var tenseFillers = map[string]bool{
	"in": true, "the": true, "of": true, "for": true, "de": true, "do": true, "da": true,
	"no": true, "na": true, "em": true, "o": true, "a": true, "para": true,
	"tense": true, "tempo": true, "verb": true, "verbo": true, "form": true, "forms": true,
	"conjugate": true, "conjugar": true, "conjugation": true, "conjugacao": true,
	"what": true, "what's": true, "whats": true, "is": true, "qual": true, "e": true,
}

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

func matchAny(patterns []*regexp.Regexp) func(t text) bool {
	return func(t text) bool {
		for _, p := range patterns {
			if p.MatchString(t.folded) {
				return true
			}
		}
		return false
	}
}

// extractFirst builds an extractor that takes group 1 of the first pattern
// that matches.
func extractFirst(intent IntentType, patterns []*regexp.Regexp) func(t text) (Intent, bool) {
	return func(t text) (Intent, bool) {
		for _, p := range patterns {
			loc := p.FindStringSubmatchIndex(t.folded)
			if loc == nil {
				continue
			}
			term := cleanTerm(t.submatch(loc, 1))
			if !longEnough(term) {
				return Intent{}, false
			}
			return Intent{Type: intent, ExtractedQuery: term}, true
		}
		return Intent{}, false
	}
}

func extractComparison(t text) (Intent, bool) {
	for _, p := range comparisonPatterns {
		loc := p.FindStringSubmatchIndex(t.folded)
		if loc == nil {
			continue
		}
		a := cleanTerm(t.submatch(loc, 1))
		b := cleanTerm(t.submatch(loc, 2))
		if !longEnough(a) || !longEnough(b) {
			return Intent{}, false
		}
		return Intent{
			Type:            IntentComparison,
			ExtractedQuery:  a + " vs " + b,
			ComparisonTerms: []string{a, b},
		}, true
	}
	return Intent{}, false
}

func matchTense(t text) bool {
	_, ok := extractTense(t)
	return ok
}

// verbShaped reports whether term looks like a Portuguese infinitive.
func verbShaped(term string) bool {
	return longEnough(term) && verbPattern.MatchString(normalize.Normalize(term))
}

func extractTense(t text) (Intent, bool) {
	tense, start, end, ok := findTense(t.folded)
	if !ok {
		return Intent{}, false
	}

	// "past tense of falar"
	rest := t.folded[end:]
	if loc := tenseVerbPattern.FindStringSubmatchIndex(rest); loc != nil {
		verb := cleanTerm(t.span(end+loc[2], end+loc[3]))
		if !verbShaped(verb) {
			return Intent{}, false
		}
		return Intent{Type: IntentTense, ExtractedQuery: verb, Tense: tense}, true
	}

	// "falar in the past tense", "falar preterito"
	var words []string
	for _, loc := range wordPattern.FindAllStringIndex(t.folded, -1) {
		if loc[0] >= start && loc[1] <= end {
			continue
		}
		if tenseFillers[cleanTerm(t.folded[loc[0]:loc[1]])] {
			continue
		}
		words = append(words, cleanTerm(t.span(loc[0], loc[1])))
	}
	if len(words) != 1 || !verbShaped(words[0]) {
		return Intent{}, false
	}
	return Intent{Type: IntentTense, ExtractedQuery: words[0], Tense: tense}, true
}
