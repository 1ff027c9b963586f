package search

import (
	"strings"

	"github.com/falasearch/fala-search/internal/content"
	"github.com/falasearch/fala-search/internal/search/postrank"
)

// Tier scores. Only their order matters: within a type, exact beats prefix
// beats substring, and the primary field beats the secondary one.
const (
	scoreVocabPortugueseExact  = 100
	scoreVocabPortuguesePrefix = 80
	scoreVocabEnglishExact     = 70
	scoreVocabEnglishPrefix    = 60
	scoreVocabSubstring        = 40

	scoreVerbExact   = 95
	scoreVerbPrefix  = 75
	scoreVerbEnglish = 35

	scoreFormExact     = 90
	scoreFormPrefix    = 65
	scoreFormSubstring = 30

	scoreTopicExact     = 85
	scoreTopicPrefix    = 62
	scoreTopicSubstring = 38
)

// Options restricts a scan.
type Options struct {
	// Types limits the scan to these result types. Empty means all.
	Types []ResultType

	// ExcludeExact drops candidates whose primary field equals the query,
	// so a word is not listed as its own "other meaning".
	ExcludeExact bool
}

func (o Options) includes(t ResultType) bool {
	if len(o.Types) == 0 {
		return true
	}
	for _, want := range o.Types {
		if want == t {
			return true
		}
	}
	return false
}

// RunTextSearch scans every collection for normalizedQuery and returns the
// candidates sorted by descending score, deduplicated by destination. The
// query must already be normalized; an empty query matches nothing.
func (s *Service) RunTextSearch(normalizedQuery string, opts Options) []Result {
	q := normalizedQuery
	coll := s.coll.Load()
	if q == "" || coll == nil {
		return []Result{}
	}

	p := coll.Prepared()
	var results []Result

	if opts.includes(TypeVocabulary) {
		for i := range p.Vocabulary {
			e := &p.Vocabulary[i]
			if opts.ExcludeExact && e.Portuguese == q {
				continue
			}
			if score, field := scoreVocabulary(q, e); score > 0 {
				results = append(results, vocabularyResult(e, score, field))
			}
		}
	}

	wantVerbs, wantForms := opts.includes(TypeVerb), opts.includes(TypeConjugation)
	if wantVerbs || wantForms {
		for i := range p.Verbs {
			v := &p.Verbs[i]
			if wantVerbs && !(opts.ExcludeExact && v.Infinitive == q) {
				if score, field := scoreVerb(q, v); score > 0 {
					results = append(results, verbResult(v, score, field))
				}
			}
			if !wantForms {
				continue
			}
			for j := range v.Forms {
				f := &v.Forms[j]
				if opts.ExcludeExact && f.Conjugation == q {
					continue
				}
				if score := scoreForm(q, f); score > 0 {
					results = append(results, conjugationResult(v, f, score))
				}
			}
		}
	}

	if opts.includes(TypeGrammar) {
		for i := range p.Grammar {
			t := &p.Grammar[i]
			if opts.ExcludeExact && (t.Title == q || t.TitlePt == q) {
				continue
			}
			if score, field := scoreTopic(q, t); score > 0 {
				results = append(results, grammarResult(t, score, field))
			}
		}
	}

	postrank.SortByScore(results)
	deduped, _ := postrank.Deduplicate(results)
	if deduped == nil {
		deduped = []Result{}
	}
	return deduped
}

// scoreVocabulary ranks a vocabulary entry: Portuguese term first, then the
// English gloss or any of its "/" alternates, then a substring anywhere.
func scoreVocabulary(q string, e *content.PreparedEntry) (int, string) {
	if e.Portuguese == "" && e.English == "" {
		return 0, ""
	}

	switch {
	case e.Portuguese == q:
		return scoreVocabPortugueseExact, FieldPortuguese
	case e.Portuguese != "" && strings.HasPrefix(e.Portuguese, q):
		return scoreVocabPortuguesePrefix, FieldPortuguese
	}

	if e.English == q || containsExact(e.EnglishAlternates, q) {
		return scoreVocabEnglishExact, FieldEnglish
	}
	if e.English != "" && (strings.HasPrefix(e.English, q) || anyPrefix(e.EnglishAlternates, q)) {
		return scoreVocabEnglishPrefix, FieldEnglish
	}

	switch {
	case strings.Contains(e.Portuguese, q):
		return scoreVocabSubstring, FieldPortuguese
	case strings.Contains(e.English, q):
		return scoreVocabSubstring, FieldEnglish
	}
	return 0, ""
}

// scoreVerb ranks a verb on its infinitive, falling back to the gloss.
func scoreVerb(q string, v *content.PreparedVerb) (int, string) {
	if v.Infinitive != "" {
		switch {
		case v.Infinitive == q:
			return scoreVerbExact, FieldInfinitive
		case strings.HasPrefix(v.Infinitive, q):
			return scoreVerbPrefix, FieldInfinitive
		}
	}
	if v.English != "" && strings.Contains(v.English, q) {
		return scoreVerbEnglish, FieldEnglish
	}
	return 0, ""
}

// scoreForm ranks a conjugated form on its surface text only.
func scoreForm(q string, f *content.PreparedForm) int {
	switch {
	case f.Conjugation == "":
		return 0
	case f.Conjugation == q:
		return scoreFormExact
	case strings.HasPrefix(f.Conjugation, q):
		return scoreFormPrefix
	case strings.Contains(f.Conjugation, q):
		return scoreFormSubstring
	}
	return 0
}

// scoreTopic ranks a grammar topic on either title, English first.
func scoreTopic(q string, t *content.PreparedTopic) (int, string) {
	titles := [2]struct{ text, field string }{
		{t.Title, FieldTitle},
		{t.TitlePt, FieldTitlePt},
	}
	for _, ti := range titles {
		if ti.text != "" && ti.text == q {
			return scoreTopicExact, ti.field
		}
	}
	for _, ti := range titles {
		if ti.text != "" && strings.HasPrefix(ti.text, q) {
			return scoreTopicPrefix, ti.field
		}
	}
	for _, ti := range titles {
		if strings.Contains(ti.text, q) {
			return scoreTopicSubstring, ti.field
		}
	}
	return 0, ""
}

func containsExact(list []string, q string) bool {
	for _, s := range list {
		if s == q {
			return true
		}
	}
	return false
}

func anyPrefix(list []string, q string) bool {
	for _, s := range list {
		if strings.HasPrefix(s, q) {
			return true
		}
	}
	return false
}
