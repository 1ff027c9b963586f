// Package content holds the three read-only collections the search engine
// scans: vocabulary, verbs with their conjugation tables, and grammar topics.
//
// Collections are loaded once at startup and never mutated afterwards.
package content

// Category groups vocabulary entries and carries display titles in both
// languages.
type Category struct {
	ID      string `yaml:"id" json:"id"`
	Title   string `yaml:"title" json:"title"`
	TitlePt string `yaml:"titlePt" json:"titlePt"`
}

// VocabularyEntry is a single word or phrase. Portuguese is unique within
// its category only; "manga" can be both a fruit and a sleeve.
type VocabularyEntry struct {
	Portuguese         string   `yaml:"portuguese" json:"portuguese"`
	English            string   `yaml:"english" json:"english"` // "/"-separated alternates
	Pronunciation      string   `yaml:"pronunciation" json:"pronunciation,omitempty"`
	Example            string   `yaml:"example" json:"example,omitempty"`
	ExampleTranslation string   `yaml:"exampleTranslation" json:"exampleTranslation,omitempty"`
	Category           Category `yaml:"-" json:"category"`
}

// VocabularyCategory is a category and its entries in authored order.
type VocabularyCategory struct {
	Category `yaml:",inline"`
	Entries  []VocabularyEntry `yaml:"entries" json:"entries"`
}

// ConjugationForm is one row of a verb's conjugation table.
type ConjugationForm struct {
	Person             string `yaml:"person" json:"person"`
	Tense              string `yaml:"tense" json:"tense"`
	Conjugation        string `yaml:"conjugation" json:"conjugation"`
	Example            string `yaml:"example" json:"example,omitempty"`
	ExampleTranslation string `yaml:"exampleTranslation" json:"exampleTranslation,omitempty"`
}

// VerbRecord is a verb keyed by its infinitive.
type VerbRecord struct {
	Infinitive   string            `yaml:"infinitive" json:"infinitive"`
	English      string            `yaml:"english" json:"english"`
	Group        string            `yaml:"group" json:"group"`
	CEFR         string            `yaml:"cefr" json:"cefr"`
	Conjugations []ConjugationForm `yaml:"conjugations" json:"conjugations"`
}

// GrammarTopic is a grammar explanation keyed by ID.
type GrammarTopic struct {
	ID      string `yaml:"id" json:"id"`
	Title   string `yaml:"title" json:"title"`
	TitlePt string `yaml:"titlePt" json:"titlePt"`
	Summary string `yaml:"summary" json:"summary"`
}

// Tense names used by conjugation tables.
const (
	TensePresent            = "Present"
	TensePreterite          = "Preterite"
	TenseImperfect          = "Imperfect"
	TenseFuture             = "Future"
	TenseConditional        = "Conditional"
	TensePresentSubjunctive = "Present Subjunctive"
)

// Tenses lists the six tense names in canonical order.
var Tenses = []string{
	TensePresent,
	TensePreterite,
	TenseImperfect,
	TenseFuture,
	TenseConditional,
	TensePresentSubjunctive,
}

// vocabularyFile, verbsFile and grammarFile mirror the on-disk documents.
type vocabularyFile struct {
	Categories []VocabularyCategory `yaml:"categories"`
}

type verbsFile struct {
	Verbs []VerbRecord `yaml:"verbs"`
}

type grammarFile struct {
	Topics []GrammarTopic `yaml:"topics"`
}
