package observability

import (
	"time"

	"github.com/autoimport/shipquote-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the quote service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	calcDuration    *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	quotesTotal     *prometheus.CounterVec
	requestsTotal   *prometheus.CounterVec
	unmatchedCities prometheus.Counter
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		calcDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shipquote_calc_duration_seconds",
				Help:    "Duration of calculator calls by adapter type.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"adapter"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shipquote_external_errors_total",
				Help: "Total errors from external calculator services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shipquote_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shipquote_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		quotesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shipquote_quotes_total",
				Help: "Per-company quote calculations by outcome.",
			},
			[]string{"status"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shipquote_requests_total",
				Help: "Aggregation requests processed.",
			},
			[]string{"status"},
		),
		unmatchedCities: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "shipquote_unmatched_cities_total",
				Help: "Quote requests whose origin city could not be matched.",
			},
		),
	}
}

// RecordCalcDuration records the duration of one adapter call.
func (m *Metrics) RecordCalcDuration(adapter string, d time.Duration) {
	m.calcDuration.WithLabelValues(adapter).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrQuote counts one per-company calculation outcome ("success"/"failed").
func (m *Metrics) IncrQuote(status string) {
	m.quotesTotal.WithLabelValues(status).Inc()
}

// IncrRequest increments the aggregation request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// IncrUnmatchedCity counts a failed origin-city match.
func (m *Metrics) IncrUnmatchedCity() {
	m.unmatchedCities.Inc()
}

// GetQuoteSnapshot returns a snapshot of quote metrics suitable for the
// GET /v1/metrics/quotes endpoint.
func (m *Metrics) GetQuoteSnapshot() *domain.QuoteMetrics {
	// Prometheus counters expose cumulative values.
	quotesOK := getCounterValue(m.quotesTotal, "success")
	quotesFailed := getCounterValue(m.quotesTotal, "failed")
	totalRequests := getCounterValue(m.requestsTotal, "success") +
		getCounterValue(m.requestsTotal, "error")
	errorCount := getCounterValue(m.requestsTotal, "error")
	cacheHits := getCounterValue(m.cacheHits, "quote")
	cacheMisses := getCounterValue(m.cacheMisses, "quote")

	errorRate := float64(0)
	cacheHitRate := float64(0)
	if totalRequests > 0 {
		errorRate = errorCount / totalRequests
	}
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	unmatched := float64(0)
	pb := &dto.Metric{}
	if err := m.unmatchedCities.Write(pb); err == nil && pb.Counter != nil && pb.Counter.Value != nil {
		unmatched = *pb.Counter.Value
	}

	return &domain.QuoteMetrics{
		TotalRequests:   int64(totalRequests),
		ErrorRate:       errorRate,
		CacheHitRate:    cacheHitRate,
		UnmatchedCities: int64(unmatched),
		QuotesComputed:  int64(quotesOK),
		QuotesFailed:    int64(quotesFailed),
		Period:          "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
