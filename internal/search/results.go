package search

import (
	"net/url"

	"github.com/falasearch/fala-search/internal/content"
	"github.com/falasearch/fala-search/internal/normalize"
	"github.com/falasearch/fala-search/internal/search/postrank"
)

// ResultType is the kind of content a result points at.
type ResultType string

const (
	TypeVocabulary  ResultType = "vocabulary"
	TypeVerb        ResultType = "verb"
	TypeConjugation ResultType = "conjugation"
	TypeGrammar     ResultType = "grammar"
)

// Fields a result can match on.
const (
	FieldPortuguese  = "portuguese"
	FieldEnglish     = "english"
	FieldInfinitive  = "infinitive"
	FieldConjugation = "conjugation"
	FieldTitle       = "title"
	FieldTitlePt     = "titlePt"
)

// Result is one candidate surfaced by a scan.
type Result struct {
	// Type is the kind of entity.
	Type ResultType `json:"type"`

	// Title is the entity's primary label.
	Title string `json:"title"`

	// Subtitle is a short gloss shown under the title.
	Subtitle string `json:"subtitle"`

	// Category is the vocabulary category title.
	Category string `json:"category,omitempty"`

	// Pronunciation is set for vocabulary entries that have one.
	Pronunciation string `json:"pronunciation,omitempty"`

	// Href is where the UI navigates to. The engine builds it but never
	// interprets it.
	Href string `json:"href"`

	// MatchField names the field that produced Score.
	MatchField string `json:"matchField"`

	// Score is the tier score. Higher is better; zero is never returned.
	Score int `json:"score"`

	// Meta carries type-specific extras.
	Meta Meta `json:"meta,omitempty"`

	vocab *content.PreparedEntry
	verb  *content.PreparedVerb
	form  *content.PreparedForm
	topic *content.PreparedTopic
}

// DedupKey implements postrank.Item.
func (r Result) DedupKey() postrank.Key {
	return postrank.Key{Type: string(r.Type), Href: r.Href, Title: normalize.Fields(r.Title)}
}

// RankScore implements postrank.Item.
func (r Result) RankScore() int {
	return r.Score
}

// Meta is the type-specific payload of a Result. The concrete type matches
// Result.Type.
type Meta interface {
	isMeta()
}

// VocabularyMeta is the Meta of a vocabulary result.
type VocabularyMeta struct {
	CategoryID         string `json:"categoryId"`
	CategoryTitlePt    string `json:"categoryTitlePt,omitempty"`
	Example            string `json:"example,omitempty"`
	ExampleTranslation string `json:"exampleTranslation,omitempty"`
}

// VerbMeta is the Meta of a verb result.
type VerbMeta struct {
	Group string `json:"group,omitempty"`
	CEFR  string `json:"cefr,omitempty"`
}

// ConjugationMeta is the Meta of a conjugation result.
type ConjugationMeta struct {
	Infinitive         string `json:"infinitive"`
	Person             string `json:"person"`
	Tense              string `json:"tense"`
	Example            string `json:"example,omitempty"`
	ExampleTranslation string `json:"exampleTranslation,omitempty"`
}

// GrammarMeta is the Meta of a grammar result.
type GrammarMeta struct {
	ID      string `json:"id"`
	TitlePt string `json:"titlePt,omitempty"`
	Summary string `json:"summary,omitempty"`
}

func (VocabularyMeta) isMeta()  {}
func (VerbMeta) isMeta()        {}
func (ConjugationMeta) isMeta() {}
func (GrammarMeta) isMeta()     {}

// VocabularyHref addresses a word inside its category page.
func VocabularyHref(categoryID, portuguese string) string {
	return "/vocabulary/" + url.PathEscape(categoryID) + "?" + url.Values{"word": {portuguese}}.Encode()
}

// VerbHref addresses a verb page.
func VerbHref(infinitive string) string {
	return "/verbs/" + url.PathEscape(infinitive)
}

// ConjugationHref addresses a verb page with one form highlighted.
func ConjugationHref(infinitive, form, tense string) string {
	return VerbHref(infinitive) + "?" + url.Values{"form": {form}, "tense": {tense}}.Encode()
}

// TenseHref addresses a verb page scrolled to one tense.
func TenseHref(infinitive, tense string) string {
	return VerbHref(infinitive) + "?" + url.Values{"tense": {tense}}.Encode()
}

// GrammarHref addresses a grammar topic.
func GrammarHref(id string) string {
	return "/grammar/" + url.PathEscape(id)
}

func vocabularyResult(p *content.PreparedEntry, score int, field string) Result {
	e := p.Entry
	return Result{
		Type:          TypeVocabulary,
		Title:         e.Portuguese,
		Subtitle:      e.English,
		Category:      e.Category.Title,
		Pronunciation: e.Pronunciation,
		Href:          VocabularyHref(e.Category.ID, e.Portuguese),
		MatchField:    field,
		Score:         score,
		Meta: VocabularyMeta{
			CategoryID:         e.Category.ID,
			CategoryTitlePt:    e.Category.TitlePt,
			Example:            e.Example,
			ExampleTranslation: e.ExampleTranslation,
		},
		vocab: p,
	}
}

func verbResult(p *content.PreparedVerb, score int, field string) Result {
	v := p.Verb
	return Result{
		Type:       TypeVerb,
		Title:      v.Infinitive,
		Subtitle:   v.English,
		Href:       VerbHref(v.Infinitive),
		MatchField: field,
		Score:      score,
		Meta:       VerbMeta{Group: v.Group, CEFR: v.CEFR},
		verb:       p,
	}
}

func conjugationResult(pv *content.PreparedVerb, pf *content.PreparedForm, score int) Result {
	v, f := pv.Verb, pf.Form
	return Result{
		Type:       TypeConjugation,
		Title:      f.Conjugation,
		Subtitle:   v.Infinitive + " · " + f.Tense + " · " + f.Person,
		Href:       ConjugationHref(v.Infinitive, f.Conjugation, f.Tense),
		MatchField: FieldConjugation,
		Score:      score,
		Meta: ConjugationMeta{
			Infinitive:         v.Infinitive,
			Person:             f.Person,
			Tense:              f.Tense,
			Example:            f.Example,
			ExampleTranslation: f.ExampleTranslation,
		},
		verb: pv,
		form: pf,
	}
}

func grammarResult(p *content.PreparedTopic, score int, field string) Result {
	t := p.Topic
	return Result{
		Type:       TypeGrammar,
		Title:      t.Title,
		Subtitle:   t.TitlePt,
		Href:       GrammarHref(t.ID),
		MatchField: field,
		Score:      score,
		Meta:       GrammarMeta{ID: t.ID, TitlePt: t.TitlePt, Summary: t.Summary},
		topic:      p,
	}
}
