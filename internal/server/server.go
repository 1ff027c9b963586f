// Package server provides the HTTP server that wires all services together.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/falasearch/fala-search/internal/bus"
	"github.com/falasearch/fala-search/internal/config"
	"github.com/falasearch/fala-search/internal/content"
	"github.com/falasearch/fala-search/internal/metrics"
	apperrors "github.com/falasearch/fala-search/internal/pkg/errors"
	"github.com/falasearch/fala-search/internal/pkg/logger"
	"github.com/falasearch/fala-search/internal/pkg/middleware"
	"github.com/falasearch/fala-search/internal/search"
	"github.com/falasearch/fala-search/internal/watch"
)

// Server is the main HTTP server that wires all services together.
type Server struct {
	cfg        Config
	appCfg     *config.Config
	log        *logger.Logger
	httpServer *http.Server
	handler    http.Handler

	// Services
	bus     bus.Bus
	metrics *metrics.Metrics
	limiter *middleware.RateLimiter
	search  *search.Service
	watcher *watch.Watcher

	mu      sync.Mutex
	started bool
	closed  bool
}

// Config configures the server.
type Config struct {
	// Version is the application version.
	Version string

	// ReadTimeout is the HTTP read timeout.
	ReadTimeout time.Duration

	// WriteTimeout is the HTTP write timeout.
	WriteTimeout time.Duration

	// ShutdownTimeout is the graceful shutdown timeout.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns sensible server defaults.
func DefaultConfig() Config {
	return Config{
		Version:         "dev",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 15 * time.Second,
	}
}

// New loads the content and creates a server with all dependencies.
func New(ctx context.Context, cfg Config, appCfg *config.Config, log *logger.Logger) (*Server, error) {
	coll, err := content.LoadDir(ctx, appCfg.Content.Dir)
	if err != nil {
		return nil, err
	}
	return NewWithContent(cfg, appCfg, coll, log)
}

// NewWithContent creates a server over already loaded collections.
func NewWithContent(cfg Config, appCfg *config.Config, coll *content.Collections, log *logger.Logger) (*Server, error) {
	if cfg.ShutdownTimeout <= 0 {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = logger.Discard()
	}

	s := &Server{
		cfg:    cfg,
		appCfg: appCfg,
		log:    log.WithComponent("server"),
	}

	if appCfg.Metrics.Enabled {
		s.metrics = metrics.NewWithConfig(appCfg.Metrics.Persistence, appCfg.Metrics.RedisURL, log)
		metrics.NewCollector(s.metrics, coll).Collect()
	}

	b, err := bus.NewBus(appCfg.Bus, log)
	if err != nil {
		s.closeServices()
		return nil, fmt.Errorf("failed to create event bus: %w", err)
	}
	s.bus = b
	if s.metrics != nil {
		s.bus = bus.NewInstrumentedBus(b, s.metrics)
		if err := metrics.NewEventSubscriber(s.metrics, s.bus, log).SubscribeToEvents(context.Background()); err != nil {
			s.closeServices()
			return nil, fmt.Errorf("failed to subscribe metrics: %w", err)
		}
	}

	s.search = search.NewService(coll, log, search.Config{
		MaxResults:     appCfg.Search.MaxResults,
		MinQueryLength: appCfg.Search.MinQueryLength,
	})

	if appCfg.Content.Watch && appCfg.Content.Dir != "" {
		w, err := watch.New(watch.Config{Dir: appCfg.Content.Dir, Reload: s.ReloadContent}, log)
		if err != nil {
			s.closeServices()
			return nil, fmt.Errorf("failed to watch content: %w", err)
		}
		s.watcher = w
	}

	if appCfg.Security.RateLimit > 0 {
		rlCfg := middleware.DefaultRateLimiterConfig()
		rlCfg.RequestsPerSecond = float64(appCfg.Security.RateLimit)
		rlCfg.Burst = 2 * appCfg.Security.RateLimit
		s.limiter = middleware.NewRateLimiter(rlCfg)
	}

	s.handler = s.setupRoutes()
	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Search returns the search service.
func (s *Server) Search() *search.Service {
	return s.search
}

// Metrics returns the metrics registry, or nil when metrics are disabled.
func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}

// ReloadContent loads the content directory again and swaps it into the
// search service. Unchanged files are a no-op; a load error keeps the
// current collections.
func (s *Server) ReloadContent(ctx context.Context) error {
	coll, err := content.LoadDir(ctx, s.appCfg.Content.Dir)
	if err != nil {
		return err
	}

	current := s.search.Collections()
	if current != nil && current.Fingerprint() == coll.Fingerprint() {
		s.log.Debug("Content unchanged", "fingerprint", coll.Fingerprint())
		return nil
	}

	s.search.SetCollections(coll)

	entries, verbs, forms, topics := coll.Counts()
	s.log.Info("Content reloaded",
		"fingerprint", coll.Fingerprint(),
		"vocabulary", entries,
		"verbs", verbs,
		"grammar", topics,
	)

	payload := bus.ContentReloaded{
		Fingerprint:  coll.Fingerprint(),
		Vocabulary:   entries,
		Verbs:        verbs,
		Conjugations: forms,
		Grammar:      topics,
	}
	event := bus.NewEvent(bus.TopicContentReloaded, eventSource, "", payload)
	if err := s.bus.Publish(ctx, bus.TopicContentReloaded, event); err != nil {
		s.log.Warn("Failed to publish reload event", "error", err)
	}
	return nil
}

// WatchContent reloads content whenever its files change, until ctx is
// done. It returns at once when watching is disabled.
func (s *Server) WatchContent(ctx context.Context) error {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.Start(ctx)
}

// ReplayMetrics rebuilds metrics from the event journal, counting every
// search logged after since. It does nothing without a journal or metrics.
// Replayed events go through a private bus so they are not journaled again.
func (s *Server) ReplayMetrics(ctx context.Context, since time.Time) (int, error) {
	if s.metrics == nil || s.appCfg.Bus.EventLog == "" {
		return 0, nil
	}

	journal, err := bus.NewEventLogger(s.appCfg.Bus.EventLog, true)
	if err != nil {
		return 0, apperrors.BusError("opening event log", err)
	}
	defer journal.Close()

	replay := bus.NewMemoryBus(s.log)
	if err := metrics.NewEventSubscriber(s.metrics, replay, s.log).SubscribeToEvents(ctx); err != nil {
		replay.Close()
		return 0, err
	}

	n, err := journal.Replay(ctx, replay, since)
	// Close waits for the subscriber to finish counting.
	replay.Close()
	// Old reload events must not outlive the content being served.
	metrics.NewCollector(s.metrics, s.search.Collections()).Collect()
	if err != nil {
		return n, err
	}

	s.log.Info("Replayed search events into metrics", "events", n, "since", since)
	return n, nil
}

// Start listens on the configured address and serves until Stop. It returns
// nil after a graceful shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.appCfg.Address())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.appCfg.Address(), err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		ln.Close()
		return fmt.Errorf("server already started")
	}
	s.started = true
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.log.Info("Starting HTTP server", "addr", ln.Addr().String(), "version", s.cfg.Version)
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully stops the server and releases its services.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	s.log.Info("Shutting down server...")

	var shutdownErr error
	if s.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Error("HTTP shutdown error", "error", err)
			shutdownErr = err
		}
	}

	s.closeServices()
	s.log.Info("Server stopped")

	return shutdownErr
}

func (s *Server) closeServices() {
	if s.watcher != nil {
		s.watcher.Stop()
	}
	if s.limiter != nil {
		s.limiter.Stop()
	}
	if s.bus != nil {
		if err := s.bus.Close(); err != nil {
			s.log.Warn("Event bus close error", "error", err)
		}
	}
	if s.metrics != nil {
		if err := s.metrics.Close(); err != nil {
			s.log.Warn("Metrics close error", "error", err)
		}
	}
}

// setupRoutes configures all HTTP routes and the middleware chain.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	search.NewHealthHandler(search.NewHealthChecker(s.search, s.componentChecks()...), s.cfg.Version).RegisterRoutes(mux)
	search.NewHandler(s.search, s.log, s.appCfg.Security.MaxQueryLength, newBusObserver(s.bus, s.log)).RegisterRoutes(mux)

	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	mws := []middleware.Middleware{
		middleware.RequestID,
		middleware.Logging(s.log),
	}
	if s.metrics != nil {
		mws = append(mws, s.metrics.Middleware())
	}
	mws = append(mws, middleware.CORS(s.appCfg.CORSOriginList()))
	if s.limiter != nil {
		mws = append(mws, s.limiter.Middleware)
	}

	return middleware.Chain(mux, mws...)
}

// componentChecks are the optional dependencies reported by /readyz. A
// lost metrics store only degrades the service.
func (s *Server) componentChecks() []search.ComponentCheck {
	var checks []search.ComponentCheck

	if s.metrics != nil && s.metrics.IsRedisPersisted() {
		storage := s.metrics.Storage()
		checks = append(checks, search.ComponentCheck{
			Name:  "metrics_store",
			Check: storage.Ping,
		})
	}

	return checks
}
