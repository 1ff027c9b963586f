package content

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"testing/fstest"

	apperrors "github.com/falasearch/fala-search/internal/pkg/errors"
)

func TestDefault(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}

	entries, verbs, forms, topics := c.Counts()
	if entries == 0 || verbs == 0 || forms == 0 || topics == 0 {
		t.Fatalf("embedded dataset is incomplete: entries=%d verbs=%d forms=%d topics=%d",
			entries, verbs, forms, topics)
	}

	again, _ := Default()
	if again != c {
		t.Error("Default() should return the same collections on every call")
	}
}

func TestDefault_CategoryAttached(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}
	for _, cat := range c.Vocabulary {
		for _, e := range cat.Entries {
			if e.Category.ID != cat.ID {
				t.Fatalf("entry %q has category %q, want %q", e.Portuguese, e.Category.ID, cat.ID)
			}
		}
	}
}

func TestDefault_KnownTenses(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}
	known := make(map[string]bool)
	for _, tense := range Tenses {
		known[tense] = true
	}
	for _, v := range c.Verbs {
		for _, f := range v.Conjugations {
			if !known[f.Tense] {
				t.Errorf("%s: unknown tense %q", v.Infinitive, f.Tense)
			}
		}
	}
}

func TestLoad_YAMLAndJSON(t *testing.T) {
	fsys := fstest.MapFS{
		"vocabulary.yaml": {Data: []byte(`
categories:
  - id: home
    title: Home
    titlePt: Casa
    entries:
      - portuguese: casa
        english: house/home
`)},
		"verbs.json": {Data: []byte(`{"verbs":[{"infinitive":"falar","english":"to speak","group":"regular","cefr":"A1",
"conjugations":[{"person":"eu","tense":"Present","conjugation":"falo"}]}]}`)},
		"grammar.yml": {Data: []byte(`
topics:
  - id: ser-vs-estar
    title: Ser vs Estar
    titlePt: Ser ou Estar
    summary: Two verbs for "to be".
`)},
	}

	c, err := Load(context.Background(), fsys)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if got := c.Vocabulary[0].Entries[0].Category.Title; got != "Home" {
		t.Errorf("category title = %q, want Home", got)
	}
	if got := c.Verbs[0].Conjugations[0].Conjugation; got != "falo" {
		t.Errorf("conjugation = %q, want falo", got)
	}
	topic, ok := c.GrammarTopic("ser-vs-estar")
	if !ok || topic.TitlePt != "Ser ou Estar" {
		t.Errorf("GrammarTopic() = %+v, %v", topic, ok)
	}
	if _, ok := c.GrammarTopic("missing"); ok {
		t.Error("expected missing topic lookup to fail")
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
	}{
		{
			name: "missing file",
			fsys: fstest.MapFS{
				"vocabulary.yaml": {Data: []byte("categories: []")},
				"verbs.yaml":      {Data: []byte("verbs: []")},
			},
		},
		{
			name: "malformed yaml",
			fsys: fstest.MapFS{
				"vocabulary.yaml": {Data: []byte("categories: [")},
				"verbs.yaml":      {Data: []byte("verbs: []")},
				"grammar.yaml":    {Data: []byte("topics: []")},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(context.Background(), tt.fsys)
			if err == nil {
				t.Fatal("expected error")
			}
			if !apperrors.IsContent(err) {
				t.Errorf("expected content error, got %v", err)
			}
		})
	}
}

func TestLoad_MissingFileIsNotExist(t *testing.T) {
	_, err := Load(context.Background(), fstest.MapFS{})
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist in chain, got %v", err)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"vocabulary.yaml": "categories: []\n",
		"verbs.yaml":      "verbs: []\n",
		"grammar.yaml":    "topics:\n  - id: a\n    title: A\n",
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	c, err := LoadDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("LoadDir() error: %v", err)
	}
	if len(c.Grammar) != 1 {
		t.Errorf("len(Grammar) = %d, want 1", len(c.Grammar))
	}

	if _, err := LoadDir(context.Background(), filepath.Join(dir, "vocabulary.yaml")); err == nil {
		t.Error("expected error for a file path")
	}
	if _, err := LoadDir(context.Background(), filepath.Join(dir, "nope")); err == nil {
		t.Error("expected error for a missing directory")
	}

	emb, err := LoadDir(context.Background(), "")
	if err != nil || emb == nil {
		t.Fatalf("LoadDir(\"\") = %v, %v", emb, err)
	}
}

func TestLoadDir_Fingerprint(t *testing.T) {
	dir := t.TempDir()
	write := func(name, data string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("vocabulary.yaml", "categories: []\n")
	write("verbs.yaml", "verbs: []\n")
	write("grammar.yaml", "topics: []\n")

	load := func() string {
		t.Helper()
		c, err := LoadDir(context.Background(), dir)
		if err != nil {
			t.Fatalf("LoadDir() error: %v", err)
		}
		return c.Fingerprint()
	}

	first := load()
	if first == "" {
		t.Fatal("expected a fingerprint")
	}
	if again := load(); again != first {
		t.Errorf("unchanged files fingerprint %s, want %s", again, first)
	}

	write("grammar.yaml", "topics:\n  - id: a\n    title: A\n")
	if changed := load(); changed == first {
		t.Error("fingerprint did not change with the files")
	}

	if fp := New(nil, nil, nil).Fingerprint(); fp != "" {
		t.Errorf("New().Fingerprint() = %q, want empty", fp)
	}
}

func TestPrepared(t *testing.T) {
	c := New(
		[]VocabularyCategory{{
			Category: Category{ID: "food", Title: "Food"},
			Entries:  []VocabularyEntry{{Portuguese: "Maçã", English: "Apple / Red Apple"}},
		}},
		[]VerbRecord{{
			Infinitive: "Falar",
			English:    "to speak",
			Conjugations: []ConjugationForm{
				{Person: "Nós", Tense: TensePresent, Conjugation: "Falamos"},
			},
		}},
		[]GrammarTopic{{ID: "t", Title: "Tu vs Você", TitlePt: "Tu ou Você"}},
	)

	p := c.Prepared()
	if p != c.Prepared() {
		t.Error("Prepared() should build once")
	}

	e := p.Vocabulary[0]
	if e.Portuguese != "maca" {
		t.Errorf("Portuguese = %q, want maca", e.Portuguese)
	}
	if len(e.EnglishAlternates) != 2 || e.EnglishAlternates[1] != "red apple" {
		t.Errorf("EnglishAlternates = %v", e.EnglishAlternates)
	}
	if p.Verbs[0].Infinitive != "falar" || p.Verbs[0].Forms[0].Person != "nos" {
		t.Errorf("unexpected prepared verb: %+v", p.Verbs[0])
	}
	if p.Grammar[0].Title != "tu vs voce" {
		t.Errorf("Title = %q", p.Grammar[0].Title)
	}
}

func TestPrepared_Concurrent(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	results := make([]*Prepared, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Prepared()
		}(i)
	}
	wg.Wait()

	for _, p := range results {
		if p != results[0] {
			t.Fatal("concurrent Prepared() calls returned different views")
		}
	}
}

func TestIsCollectionFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"vocabulary.yaml", true},
		{"/srv/content/verbs.yml", true},
		{"grammar.json", true},
		{"grammar.txt", false},
		{"vocabulary.yaml.swp", false},
		{"notes.yaml", false},
		{".yaml", false},
	}
	for _, tt := range tests {
		if got := IsCollectionFile(tt.name); got != tt.want {
			t.Errorf("IsCollectionFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
