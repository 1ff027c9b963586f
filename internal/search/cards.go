package search

import (
	"strings"

	"github.com/falasearch/fala-search/internal/content"
	"github.com/falasearch/fala-search/internal/normalize"
	"github.com/falasearch/fala-search/internal/query"
)

const (
	maxAlternatives = 3
	maxRelated      = 3

	previewSeparator = " · "
)

// SmartCard is the single structured answer built for a detected intent.
// The concrete types are TranslationCard, DefinitionCard, ConjugationCard,
// TenseCard, ComparisonCard and GrammarCard.
type SmartCard interface {
	// CardType is the intent the card answers.
	CardType() query.IntentType

	// Target is the card's own destination. It never repeats in the result
	// list that accompanies the card.
	Target() string

	isSmartCard()
}

// VocabularyHit is a vocabulary entry as shown on a card.
type VocabularyHit struct {
	Portuguese         string           `json:"portuguese"`
	English            string           `json:"english"`
	Pronunciation      string           `json:"pronunciation,omitempty"`
	Example            string           `json:"example,omitempty"`
	ExampleTranslation string           `json:"exampleTranslation,omitempty"`
	Category           content.Category `json:"category"`
	Href               string           `json:"href"`
}

func newVocabularyHit(e *content.VocabularyEntry) VocabularyHit {
	return VocabularyHit{
		Portuguese:         e.Portuguese,
		English:            e.English,
		Pronunciation:      e.Pronunciation,
		Example:            e.Example,
		ExampleTranslation: e.ExampleTranslation,
		Category:           e.Category,
		Href:               VocabularyHref(e.Category.ID, e.Portuguese),
	}
}

// TranslationCard answers "how do you say X".
type TranslationCard struct {
	Type         query.IntentType `json:"type"`
	Query        string           `json:"query"`
	Primary      VocabularyHit    `json:"primary"`
	Alternatives []VocabularyHit  `json:"alternatives"`
}

// NewTranslationCard builds a translation card. At most three alternatives
// are kept.
func NewTranslationCard(term string, primary VocabularyHit, alternatives []VocabularyHit) *TranslationCard {
	if len(alternatives) > maxAlternatives {
		alternatives = alternatives[:maxAlternatives]
	}
	if alternatives == nil {
		alternatives = []VocabularyHit{}
	}
	return &TranslationCard{
		Type:         query.IntentTranslation,
		Query:        term,
		Primary:      primary,
		Alternatives: alternatives,
	}
}

// DefinitionCard answers "what does X mean".
type DefinitionCard struct {
	Type    query.IntentType `json:"type"`
	Query   string           `json:"query"`
	Primary VocabularyHit    `json:"primary"`
	Related []VocabularyHit  `json:"related"`
}

// NewDefinitionCard builds a definition card. At most three related entries
// are kept.
func NewDefinitionCard(term string, primary VocabularyHit, related []VocabularyHit) *DefinitionCard {
	if len(related) > maxRelated {
		related = related[:maxRelated]
	}
	if related == nil {
		related = []VocabularyHit{}
	}
	return &DefinitionCard{
		Type:    query.IntentDefinition,
		Query:   term,
		Primary: primary,
		Related: related,
	}
}

// ConjugationCard answers "conjugate X" with a one-line present tense
// preview.
type ConjugationCard struct {
	Type           query.IntentType `json:"type"`
	Infinitive     string           `json:"infinitive"`
	English        string           `json:"english"`
	Group          string           `json:"group,omitempty"`
	CEFR           string           `json:"cefr,omitempty"`
	PresentPreview string           `json:"presentPreview"`
	Href           string           `json:"href"`
}

// NewConjugationCard builds a conjugation card for v.
func NewConjugationCard(v *content.VerbRecord, preview string) *ConjugationCard {
	return &ConjugationCard{
		Type:           query.IntentConjugation,
		Infinitive:     v.Infinitive,
		English:        v.English,
		Group:          v.Group,
		CEFR:           v.CEFR,
		PresentPreview: preview,
		Href:           VerbHref(v.Infinitive),
	}
}

// TenseCard answers "past tense of X" with every form of that tense.
type TenseCard struct {
	Type       query.IntentType          `json:"type"`
	Infinitive string                    `json:"infinitive"`
	English    string                    `json:"english"`
	Tense      string                    `json:"tense"`
	Forms      []content.ConjugationForm `json:"forms"`
	Href       string                    `json:"href"`
}

// NewTenseCard builds a tense card. forms keep the order they are given in.
func NewTenseCard(v *content.VerbRecord, tense string, forms []content.ConjugationForm) *TenseCard {
	return &TenseCard{
		Type:       query.IntentTense,
		Infinitive: v.Infinitive,
		English:    v.English,
		Tense:      tense,
		Forms:      forms,
		Href:       TenseHref(v.Infinitive, tense),
	}
}

// ComparisonCard answers "X vs Y" with the grammar topic covering the pair.
type ComparisonCard struct {
	Type    query.IntentType `json:"type"`
	Terms   [2]string        `json:"terms"`
	TopicID string           `json:"topicId"`
	Title   string           `json:"title"`
	TitlePt string           `json:"titlePt"`
	Summary string           `json:"summary"`
	Href    string           `json:"href"`
}

// NewComparisonCard builds a comparison card for topic.
func NewComparisonCard(a, b string, topic content.GrammarTopic) *ComparisonCard {
	return &ComparisonCard{
		Type:    query.IntentComparison,
		Terms:   [2]string{a, b},
		TopicID: topic.ID,
		Title:   topic.Title,
		TitlePt: topic.TitlePt,
		Summary: topic.Summary,
		Href:    GrammarHref(topic.ID),
	}
}

// GrammarCard answers "when to use X" with the best grammar topic.
type GrammarCard struct {
	Type    query.IntentType `json:"type"`
	TopicID string           `json:"topicId"`
	Title   string           `json:"title"`
	TitlePt string           `json:"titlePt"`
	Summary string           `json:"summary"`
	Href    string           `json:"href"`
}

// NewGrammarCard builds a grammar card for topic.
func NewGrammarCard(topic content.GrammarTopic) *GrammarCard {
	return &GrammarCard{
		Type:    query.IntentGrammar,
		TopicID: topic.ID,
		Title:   topic.Title,
		TitlePt: topic.TitlePt,
		Summary: topic.Summary,
		Href:    GrammarHref(topic.ID),
	}
}

func (c *TranslationCard) CardType() query.IntentType { return c.Type }
func (c *DefinitionCard) CardType() query.IntentType  { return c.Type }
func (c *ConjugationCard) CardType() query.IntentType { return c.Type }
func (c *TenseCard) CardType() query.IntentType       { return c.Type }
func (c *ComparisonCard) CardType() query.IntentType  { return c.Type }
func (c *GrammarCard) CardType() query.IntentType     { return c.Type }

func (c *TranslationCard) Target() string { return c.Primary.Href }
func (c *DefinitionCard) Target() string  { return c.Primary.Href }
func (c *ConjugationCard) Target() string { return c.Href }
func (c *TenseCard) Target() string       { return c.Href }
func (c *ComparisonCard) Target() string  { return c.Href }
func (c *GrammarCard) Target() string     { return c.Href }

func (*TranslationCard) isSmartCard() {}
func (*DefinitionCard) isSmartCard()  {}
func (*ConjugationCard) isSmartCard() {}
func (*TenseCard) isSmartCard()       {}
func (*ComparisonCard) isSmartCard()  {}
func (*GrammarCard) isSmartCard()     {}

// comparisonTopics maps an unordered pair of normalized terms to a grammar
// topic ID.
var comparisonTopics = map[[2]string]string{
	pairKey("ser", "estar"):                     "ser-vs-estar",
	pairKey("por", "para"):                      "por-vs-para",
	pairKey("saber", "conhecer"):                "saber-vs-conhecer",
	pairKey("tu", "você"):                       "tu-vs-voce",
	pairKey("pretérito", "imperfeito"):          "preterite-vs-imperfect",
	pairKey("pretérito perfeito", "imperfeito"): "preterite-vs-imperfect",
	pairKey("preterite", "imperfect"):           "preterite-vs-imperfect",
}

func pairKey(a, b string) [2]string {
	a, b = normalize.Fields(a), normalize.Fields(b)
	if b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}

// ComparisonTopic returns the grammar topic ID covering terms a and b, in
// either order.
func ComparisonTopic(a, b string) (string, bool) {
	id, ok := comparisonTopics[pairKey(a, b)]
	return id, ok
}

// scopedTypes is the content an intent's own scan looks at.
func scopedTypes(t query.IntentType) []ResultType {
	switch t {
	case query.IntentTranslation, query.IntentDefinition:
		return []ResultType{TypeVocabulary}
	case query.IntentConjugation, query.IntentTense:
		return []ResultType{TypeVerb}
	case query.IntentComparison, query.IntentGrammar:
		return []ResultType{TypeGrammar}
	}
	return nil
}

// BuildSmartCard assembles the card for intent from the intent-scoped scan
// results. It returns nil when nothing qualifies.
func (s *Service) BuildSmartCard(intent query.Intent, scoped []Result) SmartCard {
	term := normalize.Fields(intent.ExtractedQuery)

	switch intent.Type {
	case query.IntentTranslation:
		hits := filterVocabulary(scoped, term, func(e *content.PreparedEntry) string { return e.English })
		if len(hits) == 0 {
			return nil
		}
		return NewTranslationCard(intent.ExtractedQuery, hits[0], hits[1:])

	case query.IntentDefinition:
		hits := filterVocabulary(scoped, term, func(e *content.PreparedEntry) string { return e.Portuguese })
		if len(hits) == 0 {
			return nil
		}
		return NewDefinitionCard(intent.ExtractedQuery, hits[0], s.related(term, hits[0].Href))

	case query.IntentConjugation:
		v := s.findVerb(term)
		if v == nil {
			return nil
		}
		return NewConjugationCard(v.Verb, presentPreview(v))

	case query.IntentTense:
		v := s.findVerb(term)
		if v == nil {
			return nil
		}
		var forms []content.ConjugationForm
		for _, f := range v.Verb.Conjugations {
			if f.Tense == intent.Tense {
				forms = append(forms, f)
			}
		}
		if len(forms) == 0 {
			return nil
		}
		return NewTenseCard(v.Verb, intent.Tense, forms)

	case query.IntentComparison:
		if len(intent.ComparisonTerms) != 2 {
			return nil
		}
		a, b := intent.ComparisonTerms[0], intent.ComparisonTerms[1]
		id, ok := ComparisonTopic(a, b)
		if !ok {
			return nil
		}
		coll := s.coll.Load()
		if coll == nil {
			return nil
		}
		topic, ok := coll.GrammarTopic(id)
		if !ok {
			return nil
		}
		return NewComparisonCard(a, b, topic)

	case query.IntentGrammar:
		for _, r := range scoped {
			if r.Type == TypeGrammar && r.topic != nil {
				return NewGrammarCard(*r.topic.Topic)
			}
		}
		return nil
	}

	return nil
}

// filterVocabulary keeps vocabulary results whose field contains term, in
// score order.
func filterVocabulary(results []Result, term string, field func(*content.PreparedEntry) string) []VocabularyHit {
	if term == "" {
		return nil
	}
	var hits []VocabularyHit
	for _, r := range results {
		if r.Type != TypeVocabulary || r.vocab == nil {
			continue
		}
		if strings.Contains(field(r.vocab), term) {
			hits = append(hits, newVocabularyHit(r.vocab.Entry))
		}
	}
	return hits
}

// related lists other vocabulary entries containing term, skipping the
// card's own entry and exact matches of the term.
func (s *Service) related(term, primaryHref string) []VocabularyHit {
	var out []VocabularyHit
	for _, r := range s.RunTextSearch(term, Options{Types: []ResultType{TypeVocabulary}, ExcludeExact: true}) {
		if r.vocab == nil || r.Href == primaryHref {
			continue
		}
		out = append(out, newVocabularyHit(r.vocab.Entry))
		if len(out) == maxRelated {
			break
		}
	}
	return out
}

// findVerb resolves term to a verb: an exact infinitive match anywhere in
// the collection wins over a prefix match, and within a pass the first verb
// in collection order wins.
func (s *Service) findVerb(term string) *content.PreparedVerb {
	coll := s.coll.Load()
	if term == "" || coll == nil {
		return nil
	}
	verbs := coll.Prepared().Verbs
	for i := range verbs {
		if verbs[i].Infinitive == term {
			return &verbs[i]
		}
	}
	for i := range verbs {
		if verbs[i].Infinitive != "" && strings.HasPrefix(verbs[i].Infinitive, term) {
			return &verbs[i]
		}
	}
	return nil
}

// personBuckets are checked in this order; plural markers come first since
// "eles" also contains "ele". The preview is joined in slot order.
var personBuckets = []struct {
	slot    int
	markers []string
}{
	{4, []string{"eles", "elas", "voces"}},
	{3, []string{"nos"}},
	{2, []string{"ele", "ela", "voce"}},
	{1, []string{"tu"}},
	{0, []string{"eu"}},
}

// personSlot maps a normalized person label to one of five canonical
// persons, or -1 when no marker is present.
func personSlot(person string) int {
	for _, b := range personBuckets {
		for _, m := range b.markers {
			if strings.Contains(person, m) {
				return b.slot
			}
		}
	}
	return -1
}

// presentPreview joins the first present-tense form of each person, in
// person order. Labels without a recognizable marker are left out.
func presentPreview(v *content.PreparedVerb) string {
	var slots [5]string
	for _, f := range v.Forms {
		if f.Form.Tense != content.TensePresent || f.Form.Conjugation == "" {
			continue
		}
		slot := personSlot(f.Person)
		if slot < 0 || slots[slot] != "" {
			continue
		}
		slots[slot] = f.Form.Conjugation
	}

	parts := make([]string, 0, len(slots))
	for _, s := range slots {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, previewSeparator)
}
