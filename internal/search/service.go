// Package search scores content against a query, builds the smart card for
// a detected intent and merges both into one response.
package search

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/falasearch/fala-search/internal/content"
	"github.com/falasearch/fala-search/internal/normalize"
	"github.com/falasearch/fala-search/internal/pkg/logger"
	"github.com/falasearch/fala-search/internal/query"
	"github.com/falasearch/fala-search/internal/search/postrank"
)

// Service provides search capabilities over one set of collections at a
// time. It holds no per-query state and is safe for concurrent use.
type Service struct {
	coll     atomic.Pointer[content.Collections]
	detector *query.Detector
	postrank *postrank.Pipeline[Result]
	log      *logger.Logger
	cfg      Config
}

// Config configures the search service.
type Config struct {
	// MaxResults caps the result list. Values outside 1..50 fall back to 50.
	MaxResults int

	// MinQueryLength is the shortest trimmed query, in characters, that is
	// searched when no intent was detected.
	MinQueryLength int
}

// DefaultMaxResults is the hard cap on returned results.
const DefaultMaxResults = 50

// DefaultConfig returns sensible search defaults.
func DefaultConfig() Config {
	return Config{
		MaxResults:     DefaultMaxResults,
		MinQueryLength: 2,
	}
}

// NewService creates a new search service.
func NewService(coll *content.Collections, log *logger.Logger, cfg Config) *Service {
	if cfg.MaxResults <= 0 || cfg.MaxResults > DefaultMaxResults {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.MinQueryLength <= 0 {
		cfg.MinQueryLength = DefaultConfig().MinQueryLength
	}
	if log == nil {
		log = logger.Discard()
	}

	s := &Service{
		detector: query.NewDetector(),
		postrank: postrank.NewPipeline[Result](postrank.Config{MaxResults: cfg.MaxResults}, log),
		log:      log.WithComponent("search"),
		cfg:      cfg,
	}
	s.SetCollections(coll)
	return s
}

// SetCollections replaces the searched collections. Queries already running
// finish against whichever set they started with. A nil set is allowed and
// matches nothing.
func (s *Service) SetCollections(coll *content.Collections) {
	// Build the normalized view up front so the first query does not pay
	// for it.
	if coll != nil {
		coll.Prepared()
	}
	s.coll.Store(coll)
}

// Response is the outcome of one search.
type Response struct {
	// Intent is what the query was classified as.
	Intent query.Intent `json:"intent"`

	// SmartCard is the structured answer for Intent, or nil.
	SmartCard SmartCard `json:"smartCard"`

	// Results is the ranked list, never nil, at most MaxResults long.
	Results []Result `json:"results"`
}

// DetectIntent classifies q with the service's detector.
func (s *Service) DetectIntent(q string) query.Intent {
	return s.detector.Detect(q)
}

// Search classifies q, builds a smart card when an intent is found, and
// returns it together with the ranked results. It never fails; a miss is an
// empty response.
func (s *Service) Search(q string) Response {
	start := time.Now()

	intent := s.detector.Detect(q)
	resp := Response{Intent: intent, Results: []Result{}}

	trimmed := strings.TrimSpace(q)
	if utf8.RuneCountInString(trimmed) < s.cfg.MinQueryLength && intent.IsNone() {
		return resp
	}

	if intent.IsNone() {
		pr := s.postrank.Process([][]Result{s.RunTextSearch(normalize.Fields(q), Options{})})
		resp.Results = pr.Results
		s.logSearch(q, resp, start)
		return resp
	}

	// Intent-scoped pass for the card.
	scoped := s.RunTextSearch(normalize.Fields(intent.ExtractedQuery), Options{Types: scopedTypes(intent.Type)})
	resp.SmartCard = s.BuildSmartCard(intent, scoped)

	// Permissive pass for the list.
	fallback := intent.ExtractedQuery
	if utf8.RuneCountInString(strings.TrimSpace(fallback)) < s.cfg.MinQueryLength {
		fallback = q
	}
	general := s.RunTextSearch(normalize.Fields(fallback), Options{})

	var exclude string
	if resp.SmartCard != nil {
		exclude = resp.SmartCard.Target()
	}
	pr := s.postrank.Process([][]Result{scoped, general}, exclude)
	resp.Results = pr.Results

	s.logSearch(q, resp, start)
	return resp
}

func (s *Service) logSearch(q string, resp Response, start time.Time) {
	card := "none"
	if resp.SmartCard != nil {
		card = string(resp.SmartCard.CardType())
	}
	s.log.Debug("Search complete",
		"query", q,
		"intent", resp.Intent.Type,
		"card", card,
		"results", len(resp.Results),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// Collections returns the collections the service searches.
func (s *Service) Collections() *content.Collections {
	return s.coll.Load()
}

// Config returns the effective configuration.
func (s *Service) Config() Config {
	return s.cfg
}

var (
	defaultOnce sync.Once
	defaultSvc  *Service
	defaultErr  error
)

// Default returns a service over the embedded dataset.
func Default() (*Service, error) {
	defaultOnce.Do(func() {
		coll, err := content.Default()
		if err != nil {
			defaultErr = err
			return
		}
		defaultSvc = NewService(coll, nil, DefaultConfig())
	})
	return defaultSvc, defaultErr
}

// Search runs q against the embedded dataset. If the dataset cannot be
// loaded the response carries the detected intent and no results.
func Search(q string) Response {
	svc, err := Default()
	if err != nil {
		return Response{Intent: query.DetectIntent(q), Results: []Result{}}
	}
	return svc.Search(q)
}
