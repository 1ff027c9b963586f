package content

import (
	"strings"
	"sync"

	"github.com/falasearch/fala-search/internal/normalize"
)

// Collections is the immutable handle passed to the search engine.
type Collections struct {
	Vocabulary []VocabularyCategory
	Verbs      []VerbRecord
	Grammar    []GrammarTopic

	grammarByID map[string]int
	fingerprint string

	prepareOnce sync.Once
	prepared    *Prepared
}

// New builds a Collections from already-validated data. Each vocabulary
// entry gets its owning category attached.
func New(vocabulary []VocabularyCategory, verbs []VerbRecord, grammar []GrammarTopic) *Collections {
	for ci := range vocabulary {
		for ei := range vocabulary[ci].Entries {
			vocabulary[ci].Entries[ei].Category = vocabulary[ci].Category
		}
	}

	byID := make(map[string]int, len(grammar))
	for i, topic := range grammar {
		if _, dup := byID[topic.ID]; !dup {
			byID[topic.ID] = i
		}
	}

	return &Collections{
		Vocabulary:  vocabulary,
		Verbs:       verbs,
		Grammar:     grammar,
		grammarByID: byID,
	}
}

// GrammarTopic looks up a topic by ID.
func (c *Collections) GrammarTopic(id string) (GrammarTopic, bool) {
	i, ok := c.grammarByID[id]
	if !ok {
		return GrammarTopic{}, false
	}
	return c.Grammar[i], true
}

// Fingerprint identifies the files the collections were loaded from. It is
// empty for collections built with New.
func (c *Collections) Fingerprint() string {
	return c.fingerprint
}

// Counts returns the number of vocabulary entries, verbs, conjugation rows
// and grammar topics.
func (c *Collections) Counts() (entries, verbs, forms, topics int) {
	for _, cat := range c.Vocabulary {
		entries += len(cat.Entries)
	}
	for _, v := range c.Verbs {
		forms += len(v.Conjugations)
	}
	return entries, len(c.Verbs), forms, len(c.Grammar)
}

// Prepared holds normalized copies of every searchable field, in scan order.
type Prepared struct {
	Vocabulary []PreparedEntry
	Verbs      []PreparedVerb
	Grammar    []PreparedTopic
}

// PreparedEntry is a vocabulary entry with normalized fields.
type PreparedEntry struct {
	Entry      *VocabularyEntry
	Portuguese string
	English    string
	// EnglishAlternates splits English on "/".
	EnglishAlternates []string
}

// PreparedVerb is a verb with its normalized infinitive, gloss and forms.
type PreparedVerb struct {
	Verb       *VerbRecord
	Infinitive string
	English    string
	Forms      []PreparedForm
}

// PreparedForm is a conjugation row with normalized surface form and person.
type PreparedForm struct {
	Form        *ConjugationForm
	Conjugation string
	Person      string
}

// PreparedTopic is a grammar topic with normalized titles.
type PreparedTopic struct {
	Topic   *GrammarTopic
	Title   string
	TitlePt string
}

// Prepared returns the normalized view, building it on first use. Calling it
// again is cheap and safe from any goroutine.
func (c *Collections) Prepared() *Prepared {
	c.prepareOnce.Do(func() {
		c.prepared = c.prepare()
	})
	return c.prepared
}

func (c *Collections) prepare() *Prepared {
	p := &Prepared{}

	for ci := range c.Vocabulary {
		entries := c.Vocabulary[ci].Entries
		for ei := range entries {
			e := &entries[ei]
			p.Vocabulary = append(p.Vocabulary, PreparedEntry{
				Entry:             e,
				Portuguese:        normalize.Fields(e.Portuguese),
				English:           normalize.Fields(e.English),
				EnglishAlternates: splitAlternates(e.English),
			})
		}
	}

	for vi := range c.Verbs {
		v := &c.Verbs[vi]
		pv := PreparedVerb{
			Verb:       v,
			Infinitive: normalize.Fields(v.Infinitive),
			English:    normalize.Fields(v.English),
			Forms:      make([]PreparedForm, 0, len(v.Conjugations)),
		}
		for fi := range v.Conjugations {
			f := &v.Conjugations[fi]
			pv.Forms = append(pv.Forms, PreparedForm{
				Form:        f,
				Conjugation: normalize.Fields(f.Conjugation),
				Person:      normalize.Fields(f.Person),
			})
		}
		p.Verbs = append(p.Verbs, pv)
	}

	for ti := range c.Grammar {
		t := &c.Grammar[ti]
		p.Grammar = append(p.Grammar, PreparedTopic{
			Topic:   t,
			Title:   normalize.Fields(t.Title),
			TitlePt: normalize.Fields(t.TitlePt),
		})
	}

	return p
}

func splitAlternates(english string) []string {
	parts := strings.Split(english, "/")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if n := normalize.Fields(part); n != "" {
			out = append(out, n)
		}
	}
	return out
}
