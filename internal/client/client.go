// Package client provides an HTTP client for the Fala Search API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/falasearch/fala-search/internal/pkg/middleware"
	"github.com/falasearch/fala-search/internal/query"
	"github.com/falasearch/fala-search/internal/search"
)

// Client is an HTTP client for the Fala Search API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Config configures the client.
type Config struct {
	// BaseURL is the base URL of the API server.
	BaseURL string

	// Timeout is the request timeout.
	Timeout time.Duration

	// MaxIdleConns controls the maximum number of idle (keep-alive) connections
	// across all hosts. Zero means no limit.
	MaxIdleConns int

	// IdleConnTimeout is the maximum amount of time an idle (keep-alive)
	// connection will remain idle before closing itself.
	IdleConnTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:         "http://localhost:8080",
		Timeout:         10 * time.Second,
		MaxIdleConns:    10,
		IdleConnTimeout: 90 * time.Second,
	}
}

// New creates a new API client.
func New(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = def.MaxIdleConns
	}
	if cfg.IdleConnTimeout == 0 {
		cfg.IdleConnTimeout = def.IdleConnTimeout
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConns,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
	}
}

// BaseURL returns the server the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// APIError is an error response from the server.
type APIError struct {
	Status  int               `json:"-"`
	Message string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Search runs q on the server.
func (c *Client) Search(ctx context.Context, q string) (*search.Response, error) {
	var resp search.Response
	if err := c.get(ctx, "/v1/search", url.Values{"q": {q}}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Intent returns the intent the server detects for q.
func (c *Client) Intent(ctx context.Context, q string) (*query.Intent, error) {
	var intent query.Intent
	if err := c.get(ctx, "/v1/intent", url.Values{"q": {q}}, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

// Normalize folds q on the server.
func (c *Client) Normalize(ctx context.Context, q string) (*search.NormalizeResponse, error) {
	var resp search.NormalizeResponse
	if err := c.get(ctx, "/v1/normalize", url.Values{"q": {q}}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ready returns the server's readiness report. An unhealthy server still
// returns its report, with a nil error.
func (c *Client) Ready(ctx context.Context) (*search.HealthStatus, error) {
	var status search.HealthStatus
	err := c.get(ctx, "/readyz", nil, &status)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusServiceUnavailable && status.Status != "" {
		return &status, nil
	}
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// Version returns the server's build and content information.
func (c *Client) Version(ctx context.Context) (map[string]string, error) {
	var v map[string]string
	if err := c.get(ctx, "/v1/version", nil, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// get performs a GET request. On an error status the body is still decoded
// into result when it fits.
func (c *Client) get(ctx context.Context, path string, params url.Values, result any) error {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(middleware.RequestIDHeader, uuid.NewString())

	return c.do(req, result)
}

// do executes a request.
func (c *Client) do(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Code == "" {
			if result != nil {
				json.Unmarshal(body, result)
			}
			return &APIError{
				Status:  resp.StatusCode,
				Code:    http.StatusText(resp.StatusCode),
				Message: strings.TrimSpace(string(body)),
			}
		}
		return apiErr
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}
