package content

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	apperrors "github.com/falasearch/fala-search/internal/pkg/errors"
	"github.com/falasearch/fala-search/internal/pkg/hash"
)

//go:embed data/*.yaml
var embedded embed.FS

// Collection file base names. Each may be stored as .yaml, .yml or .json;
// JSON is valid YAML so one decoder handles all three.
const (
	VocabularyFile = "vocabulary"
	VerbsFile      = "verbs"
	GrammarFile    = "grammar"
)

var extensions = []string{".yaml", ".yml", ".json"}

// IsCollectionFile reports whether name, a path or base name, is one of
// the files Load reads.
func IsCollectionFile(name string) bool {
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	if !slices.Contains(extensions, ext) {
		return false
	}
	switch base[:len(base)-len(ext)] {
	case VocabularyFile, VerbsFile, GrammarFile:
		return true
	}
	return false
}

var (
	defaultOnce sync.Once
	defaultColl *Collections
	defaultErr  error
)

// Default returns the dataset compiled into the binary.
func Default() (*Collections, error) {
	defaultOnce.Do(func() {
		sub, err := fs.Sub(embedded, "data")
		if err != nil {
			defaultErr = apperrors.ContentError("opening embedded content", err)
			return
		}
		defaultColl, defaultErr = Load(context.Background(), sub)
	})
	return defaultColl, defaultErr
}

// LoadDir loads collections from dir, or the embedded dataset when dir is
// empty.
func LoadDir(ctx context.Context, dir string) (*Collections, error) {
	if dir == "" {
		return Default()
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, apperrors.ContentError("opening content directory", err)
	}
	if !info.IsDir() {
		return nil, apperrors.ContentError("opening content directory",
			fmt.Errorf("%s is not a directory", dir))
	}
	return Load(ctx, os.DirFS(dir))
}

// Load reads the three collections from fsys concurrently. The result is
// fingerprinted from the raw file bytes.
func Load(ctx context.Context, fsys fs.FS) (*Collections, error) {
	var (
		vocab   vocabularyFile
		verbs   verbsFile
		grammar grammarFile
		raw     [3][]byte
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { raw[0], err = decode(ctx, fsys, VocabularyFile, &vocab); return })
	g.Go(func() (err error) { raw[1], err = decode(ctx, fsys, VerbsFile, &verbs); return })
	g.Go(func() (err error) { raw[2], err = decode(ctx, fsys, GrammarFile, &grammar); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	coll := New(vocab.Categories, verbs.Verbs, grammar.Topics)
	coll.fingerprint = hash.Fingerprint(raw[:]...)
	return coll, nil
}

func decode(ctx context.Context, fsys fs.FS, base string, out any) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, err := findFile(fsys, base)
	if err != nil {
		return nil, apperrors.ContentError("locating "+base+" collection", err)
	}

	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, apperrors.ContentError("reading "+name, err)
	}

	if err := yaml.Unmarshal(data, out); err != nil {
		return nil, apperrors.ContentError("parsing "+name, err)
	}
	return data, nil
}

func findFile(fsys fs.FS, base string) (string, error) {
	for _, ext := range extensions {
		name := base + ext
		if _, err := fs.Stat(fsys, name); err == nil {
			return name, nil
		}
	}
	return "", fmt.Errorf("no %s file with extensions %v: %w", base, extensions, fs.ErrNotExist)
}
