package query

import (
	"regexp"
	"sort"
	"strings"

	"github.com/falasearch/fala-search/internal/content"
	"github.com/falasearch/fala-search/internal/normalize"
)

// TenseSynonyms maps each canonical tense name to the phrases users type for
// it, in English and Portuguese. Phrases are matched accent-insensitively.
//
// Bare "past", "present", "future" and their Portuguese nouns are left out:
// they collide with ordinary vocabulary lookups ("how do you say present").
var TenseSynonyms = map[string][]string{
	content.TensePresent: {
		"present tense", "simple present", "presente do indicativo", "tempo presente",
	},
	content.TensePreterite: {
		"past tense", "simple past", "preterite", "preterito perfeito", "preterito", "perfect tense",
	},
	content.TenseImperfect: {
		"imperfect tense", "imperfect", "past continuous", "preterito imperfeito", "imperfeito",
	},
	content.TenseFuture: {
		"future tense", "simple future", "futuro do presente", "tempo futuro",
	},
	content.TenseConditional: {
		"conditional tense", "conditional", "futuro do preterito", "condicional",
	},
	content.TensePresentSubjunctive: {
		"present subjunctive", "subjunctive", "presente do subjuntivo", "subjuntivo", "conjuntivo",
	},
}

type tenseSynonym struct {
	phrase string
	tense  string
}

var (
	tenseTable   []tenseSynonym
	tensePattern *regexp.Regexp
)

func init() {
	for tense, phrases := range TenseSynonyms {
		for _, p := range phrases {
			tenseTable = append(tenseTable, tenseSynonym{phrase: normalize.Fields(p), tense: tense})
		}
	}
	// Longest phrase first so "preterito imperfeito" beats "preterito" and
	// "futuro do preterito" beats both.
	sort.Slice(tenseTable, func(i, j int) bool {
		if len(tenseTable[i].phrase) != len(tenseTable[j].phrase) {
			return len(tenseTable[i].phrase) > len(tenseTable[j].phrase)
		}
		return tenseTable[i].phrase < tenseTable[j].phrase
	})

	alts := make([]string, len(tenseTable))
	for i, s := range tenseTable {
		alts[i] = regexp.QuoteMeta(s.phrase)
	}
	tensePattern = regexp.MustCompile(`\b(?:` + strings.Join(alts, "|") + `)\b`)
}

// LookupTense resolves a tense phrase to its canonical name.
func LookupTense(phrase string) (string, bool) {
	p := normalize.Fields(phrase)
	for _, s := range tenseTable {
		if s.phrase == p {
			return s.tense, true
		}
	}
	for _, tense := range content.Tenses {
		if normalize.Fields(tense) == p {
			return tense, true
		}
	}
	return "", false
}

// findTense returns the canonical tense and the byte range of the first
// tense phrase in folded.
func findTense(folded string) (tense string, start, end int, ok bool) {
	loc := tensePattern.FindStringIndex(folded)
	if loc == nil {
		return "", 0, 0, false
	}
	tense, ok = LookupTense(folded[loc[0]:loc[1]])
	return tense, loc[0], loc[1], ok
}
