package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/falasearch/fala-search/internal/content"
	apperrors "github.com/falasearch/fala-search/internal/pkg/errors"
	"github.com/falasearch/fala-search/internal/pkg/logger"
	"github.com/falasearch/fala-search/internal/query"
)

type recordingObserver struct {
	queries []string
	intents []query.IntentType
}

func (o *recordingObserver) SearchPerformed(_ context.Context, q string, resp Response, _ time.Duration) {
	o.queries = append(o.queries, q)
	o.intents = append(o.intents, resp.Intent.Type)
}

func newTestMux(t *testing.T, obs Observer) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	NewHandler(newDefaultService(t), logger.Discard(), 50, obs).RegisterRoutes(mux)
	return mux
}

func TestHandleSearch(t *testing.T) {
	obs := &recordingObserver{}
	mux := newTestMux(t, obs)

	req := httptest.NewRequest("GET", "/v1/search?q=conjugate+falar", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body struct {
		Intent    query.Intent    `json:"intent"`
		SmartCard json.RawMessage `json:"smartCard"`
		Results   []Result        `json:"results"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Intent.Type != query.IntentConjugation {
		t.Errorf("intent = %s, want conjugation", body.Intent.Type)
	}
	if !strings.Contains(string(body.SmartCard), `"type":"conjugation"`) {
		t.Errorf("smartCard = %s", body.SmartCard)
	}

	if len(obs.queries) != 1 || obs.queries[0] != "conjugate falar" {
		t.Errorf("observer saw %v", obs.queries)
	}
}

func TestHandleSearch_Validation(t *testing.T) {
	obs := &recordingObserver{}
	mux := newTestMux(t, obs)

	tests := []struct {
		name string
		url  string
	}{
		{"missing q", "/v1/search"},
		{"empty q", "/v1/search?q="},
		{"too long", "/v1/search?q=" + strings.Repeat("a", 51)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest("GET", tt.url, nil))

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			var body apperrors.ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Code != apperrors.CodeValidation {
				t.Errorf("code = %q", body.Code)
			}
			if body.Details["field"] != "q" {
				t.Errorf("details = %v", body.Details)
			}
		})
	}

	if len(obs.queries) != 0 {
		t.Errorf("observer called for rejected requests: %v", obs.queries)
	}
}

func TestHandleSearch_MethodNotAllowed(t *testing.T) {
	mux := newTestMux(t, nil)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("POST", "/v1/search?q=casa", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}

func TestHandleIntent(t *testing.T) {
	mux := newTestMux(t, nil)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/v1/intent?q=ser+vs+estar", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var intent query.Intent
	if err := json.NewDecoder(w.Body).Decode(&intent); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if intent.Type != query.IntentComparison {
		t.Errorf("type = %s, want comparison", intent.Type)
	}
	if len(intent.ComparisonTerms) != 2 || intent.ComparisonTerms[0] != "ser" || intent.ComparisonTerms[1] != "estar" {
		t.Errorf("terms = %v", intent.ComparisonTerms)
	}
}

func TestHandleNormalize(t *testing.T) {
	mux := newTestMux(t, nil)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/v1/normalize?q=Pret%C3%A9rito", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var body NormalizeResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Input != "Pretérito" || body.Normalized != "preterito" {
		t.Errorf("got %+v", body)
	}
}

func TestHealthChecker(t *testing.T) {
	svc := newDefaultService(t)
	ok := func(context.Context) error { return nil }
	fail := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name   string
		checks []ComponentCheck
		want   string
	}{
		{"content only", nil, StatusHealthy},
		{"all up", []ComponentCheck{{Name: "redis", Check: ok}}, StatusHealthy},
		{"optional down", []ComponentCheck{{Name: "redis", Check: fail}}, StatusDegraded},
		{"critical down", []ComponentCheck{{Name: "redis", Check: ok}, {Name: "kafka", Critical: true, Check: fail}}, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := NewHealthChecker(svc, tt.checks...).Check(context.Background())
			if status.Status != tt.want {
				t.Errorf("status = %s, want %s (%+v)", status.Status, tt.want, status.Components)
			}
			if status.Components["content"].Status != StatusHealthy {
				t.Errorf("content = %+v", status.Components["content"])
			}
			if len(status.Components) != len(tt.checks)+1 {
				t.Errorf("got %d components", len(status.Components))
			}
		})
	}
}

func TestHealthChecker_EmptyContent(t *testing.T) {
	svc := NewService(fixtureCollections(), logger.Discard(), DefaultConfig())
	if got := NewHealthChecker(svc).Check(context.Background()).Status; got != StatusHealthy {
		t.Errorf("fixture status = %s", got)
	}

	empty := NewService(content.New(nil, nil, nil), logger.Discard(), DefaultConfig())
	if got := NewHealthChecker(empty).Check(context.Background()).Status; got != StatusDegraded {
		t.Errorf("empty status = %s, want degraded", got)
	}

	if got := NewHealthChecker(nil).Check(context.Background()).Status; got != StatusUnhealthy {
		t.Errorf("nil service status = %s, want unhealthy", got)
	}
}

func TestHealthHandler(t *testing.T) {
	mux := http.NewServeMux()
	checker := NewHealthChecker(newDefaultService(t), ComponentCheck{
		Name:     "bus",
		Critical: true,
		Check:    func(context.Context) error { return errors.New("down") },
	})
	NewHealthHandler(checker, "1.2.3").RegisterRoutes(mux)

	tests := []struct {
		path string
		code int
		want string
	}{
		{"/healthz", http.StatusOK, `"status":"ok"`},
		{"/readyz", http.StatusServiceUnavailable, `"status":"unhealthy"`},
		{"/v1/version", http.StatusOK, `"version":"1.2.3"`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest("GET", tt.path, nil))
			if w.Code != tt.code {
				t.Errorf("status = %d, want %d", w.Code, tt.code)
			}
			if !strings.Contains(w.Body.String(), tt.want) {
				t.Errorf("body %s missing %s", w.Body.String(), tt.want)
			}
		})
	}
}
