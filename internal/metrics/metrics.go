package metrics

import (
	"runtime"
	"sync"
	"time"

	"github.com/falasearch/fala-search/internal/pkg/logger"
)

// Card outcomes for SmartCards.
const (
	CardHit  = "hit"
	CardMiss = "miss"
)

// Metrics holds all application metrics.
type Metrics struct {
	// Search metrics
	SearchRequests *Counter
	SearchLatency  *Histogram
	SearchResults  *Histogram
	SearchIntents  *CounterVec // labels: intent
	SmartCards     *CounterVec // labels: intent, outcome

	// Content metrics
	ContentItems *GaugeVec // labels: kind

	// System metrics
	GoroutineCount *Gauge
	MemoryUsage    *Gauge // in bytes
	Uptime         *Gauge // in seconds

	// Bus metrics
	BusEventsPublished *CounterVec   // labels: topic
	BusEventLatency    *HistogramVec // labels: topic
	BusErrors          *CounterVec   // labels: topic

	// HTTP metrics
	HTTPRequests         *CounterVec   // labels: method, path, status
	HTTPDuration         *HistogramVec // labels: method, path
	HTTPRequestsInFlight *Gauge

	// Time-series data for charts
	TimeSeries *TimeSeriesData

	// Redis storage (optional)
	redisStorage *RedisStorage

	startTime time.Time
	stop      chan struct{}
	stopOnce  sync.Once
}

// New creates a new metrics instance with in-memory storage only.
func New() *Metrics {
	return NewWithConfig("memory", "", nil)
}

// NewWithConfig creates a new metrics instance with specified persistence.
// persistence is "memory" or "redis"; redisURL is only used for "redis".
// An unreachable Redis degrades to in-memory history with a warning.
func NewWithConfig(persistence, redisURL string, log *logger.Logger) *Metrics {
	if log == nil {
		log = logger.Discard()
	}

	var redisStorage *RedisStorage
	var timeSeries *TimeSeriesData

	if persistence == "redis" && redisURL != "" {
		storage, err := NewRedisStorage(redisURL)
		if err != nil {
			log.Warn("Failed to connect to Redis for metrics persistence, falling back to in-memory",
				"error", err.Error(),
			)
		} else {
			redisStorage = storage
			timeSeries = NewTimeSeriesDataWithRedis(redisStorage)
		}
	}

	if timeSeries == nil {
		timeSeries = NewTimeSeriesData()
	}

	m := &Metrics{
		// Search metrics
		SearchRequests: NewCounter(
			"fala_search_requests_total",
			"Total number of search requests",
			nil,
		),
		SearchLatency: NewHistogram(
			"fala_search_latency_ms",
			"Search latency in milliseconds",
			[]float64{0.5, 1, 2, 5, 10, 25, 50, 100, 250},
		),
		SearchResults: NewHistogram(
			"fala_search_results",
			"Number of results per search",
			[]float64{0, 1, 5, 10, 20, 30, 40, 50},
		),
		SearchIntents: NewCounterVec(
			"fala_search_intents_total",
			"Searches by detected intent",
			[]string{"intent"},
		),
		SmartCards: NewCounterVec(
			"fala_smart_cards_total",
			"Smart card outcomes for searches with an intent",
			[]string{"intent", "outcome"},
		),

		// Content metrics
		ContentItems: NewGaugeVec(
			"fala_content_items",
			"Searchable items loaded, by kind",
			[]string{"kind"},
		),

		// System metrics
		GoroutineCount: NewGauge(
			"fala_goroutines",
			"Number of goroutines",
			nil,
		),
		MemoryUsage: NewGauge(
			"fala_memory_bytes",
			"Memory usage in bytes",
			nil,
		),
		Uptime: NewGauge(
			"fala_uptime_seconds",
			"Application uptime in seconds",
			nil,
		),

		// Bus metrics
		BusEventsPublished: NewCounterVec(
			"fala_bus_events_published_total",
			"Total number of events published to the bus",
			[]string{"topic"},
		),
		BusEventLatency: NewHistogramVec(
			"fala_bus_event_latency_seconds",
			"Event bus publish latency in seconds",
			[]string{"topic"},
			[]float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		),
		BusErrors: NewCounterVec(
			"fala_bus_errors_total",
			"Total number of event bus errors",
			[]string{"topic"},
		),

		// HTTP metrics
		HTTPRequests: NewCounterVec(
			"fala_http_requests_total",
			"Total number of HTTP requests",
			[]string{"method", "path", "status"},
		),
		HTTPDuration: NewHistogramVec(
			"fala_http_request_duration_seconds",
			"HTTP request duration in seconds",
			[]string{"method", "path"},
			[]float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		),
		HTTPRequestsInFlight: NewGauge(
			"fala_http_requests_in_flight",
			"Number of HTTP requests currently being processed",
			nil,
		),

		TimeSeries:   timeSeries,
		redisStorage: redisStorage,
		startTime:    time.Now(),
		stop:         make(chan struct{}),
	}

	m.collectSystemMetrics()
	go m.systemLoop(15 * time.Second)

	return m
}

// systemLoop refreshes system gauges until Close.
func (m *Metrics) systemLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.collectSystemMetrics()
		}
	}
}

func (m *Metrics) collectSystemMetrics() {
	m.GoroutineCount.Set(float64(runtime.NumGoroutine()))

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	m.MemoryUsage.Set(float64(memStats.Alloc))

	m.Uptime.Set(time.Since(m.startTime).Seconds())
}

// RecordSearch records one served search. card is the smart card type, or
// empty when none was built.
func (m *Metrics) RecordSearch(intent, card string, latencyMs float64, resultCount int) {
	m.SearchRequests.Inc()
	m.SearchLatency.Observe(latencyMs)
	m.SearchResults.Observe(float64(resultCount))
	m.SearchIntents.WithLabels(intent).Inc()

	// A query without an intent never gets a card, so it is neither.
	if intent != "none" && intent != "" {
		outcome := CardMiss
		if card != "" {
			outcome = CardHit
		}
		m.SmartCards.WithLabels(intent, outcome).Inc()
	}

	if m.TimeSeries != nil {
		m.TimeSeries.RecordSearch(latencyMs, card != "")
	}
}

// UpdateContent sets the content gauges.
func (m *Metrics) UpdateContent(entries, verbs, forms, topics int) {
	m.ContentItems.WithLabels("vocabulary").Set(float64(entries))
	m.ContentItems.WithLabels("verbs").Set(float64(verbs))
	m.ContentItems.WithLabels("conjugations").Set(float64(forms))
	m.ContentItems.WithLabels("grammar").Set(float64(topics))
}

// RecordBusPublish records event bus publish metrics.
func (m *Metrics) RecordBusPublish(topic string, latencyMs int64, err error) {
	m.BusEventsPublished.WithLabels(topic).Inc()

	// Convert milliseconds to seconds for Prometheus convention
	m.BusEventLatency.WithLabels(topic).Observe(float64(latencyMs) / 1000.0)

	if err != nil {
		m.BusErrors.WithLabels(topic).Inc()
	}
}

// RecordHTTP records HTTP request metrics.
// This is called by the HTTP middleware.
func (m *Metrics) RecordHTTP(method, path string, status int, durationSeconds float64) {
	normalizedPath := normalizePath(path)

	m.HTTPRequests.WithLabels(method, normalizedPath, statusCode(status)).Inc()
	m.HTTPDuration.WithLabels(method, normalizedPath).Observe(durationSeconds)
}

// Reset resets all metrics to zero (useful for testing).
func (m *Metrics) Reset() {
	m.SearchRequests.Reset()
	m.SearchLatency.Reset()
	m.SearchResults.Reset()
	m.SearchIntents.reset()
	m.SmartCards.reset()
	m.BusEventsPublished.reset()
	m.BusEventLatency.reset()
	m.BusErrors.reset()
	m.HTTPRequests.reset()
	m.HTTPDuration.reset()
	m.HTTPRequestsInFlight.Set(0)
}

// Close stops the system collector and releases the Redis connection.
func (m *Metrics) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })
	if m.redisStorage != nil {
		return m.redisStorage.Close()
	}
	return nil
}

// IsRedisPersisted returns true if metrics are persisted to Redis.
func (m *Metrics) IsRedisPersisted() bool {
	return m.redisStorage != nil
}

// Storage returns the Redis backend, or nil for in-memory metrics.
func (m *Metrics) Storage() *RedisStorage {
	return m.redisStorage
}
