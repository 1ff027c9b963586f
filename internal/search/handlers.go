package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/falasearch/fala-search/internal/normalize"
	apperrors "github.com/falasearch/fala-search/internal/pkg/errors"
	"github.com/falasearch/fala-search/internal/pkg/logger"
	"github.com/falasearch/fala-search/internal/pkg/security"
)

// Observer is told about every search served over HTTP.
type Observer interface {
	SearchPerformed(ctx context.Context, q string, resp Response, took time.Duration)
}

// Handler provides HTTP handlers for search operations.
type Handler struct {
	svc            *Service
	log            *logger.Logger
	maxQueryLength int
	observer       Observer
}

// NewHandler creates a new search handler. obs may be nil.
func NewHandler(svc *Service, log *logger.Logger, maxQueryLength int, obs Observer) *Handler {
	if log == nil {
		log = logger.Discard()
	}
	return &Handler{
		svc:            svc,
		log:            log.WithComponent("http"),
		maxQueryLength: maxQueryLength,
		observer:       obs,
	}
}

// NormalizeResponse is the body of GET /v1/normalize.
type NormalizeResponse struct {
	Input      string `json:"input"`
	Normalized string `json:"normalized"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// queryParam returns the validated q parameter or writes a 400.
func (h *Handler) queryParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	q := r.URL.Query().Get("q")
	if err := security.ValidateQuery(q, h.maxQueryLength); err != nil {
		appErr := apperrors.ValidationError(err.Error())
		var ve *security.ValidationError
		if errors.As(err, &ve) {
			appErr = appErr.WithDetail("field", ve.Field)
		}
		apperrors.WriteError(w, appErr)
		return "", false
	}
	return q, true
}

// HandleSearch handles GET /v1/search?q=
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q, ok := h.queryParam(w, r)
	if !ok {
		return
	}

	start := time.Now()
	resp := h.svc.Search(q)
	took := time.Since(start)

	if h.observer != nil {
		h.observer.SearchPerformed(r.Context(), q, resp, took)
	}

	h.log.WithContext(r.Context()).Debug("Served search",
		"query", security.SanitizeQuery(q),
		"intent", resp.Intent.Type,
		"results", len(resp.Results),
	)

	writeJSON(w, http.StatusOK, resp)
}

// HandleIntent handles GET /v1/intent?q=
func (h *Handler) HandleIntent(w http.ResponseWriter, r *http.Request) {
	q, ok := h.queryParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.DetectIntent(q))
}

// HandleNormalize handles GET /v1/normalize?q=
func (h *Handler) HandleNormalize(w http.ResponseWriter, r *http.Request) {
	q, ok := h.queryParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, NormalizeResponse{Input: q, Normalized: normalize.Normalize(q)})
}

// RegisterRoutes registers search routes with the given mux.
// Note: This uses Go 1.22+ ServeMux patterns.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/search", h.HandleSearch)
	mux.HandleFunc("GET /v1/intent", h.HandleIntent)
	mux.HandleFunc("GET /v1/normalize", h.HandleNormalize)
}
