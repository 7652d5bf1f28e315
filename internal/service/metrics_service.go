package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/trainer-availability-api/internal/models"
)

// MetricsService owns the Prometheus registry for HTTP, cache and engine instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Histogram
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	suggestDuration prometheus.Histogram
	suggestResults  prometheus.Histogram
	ownerSkips      *prometheus.CounterVec
	recurrenceErrs  prometheus.Counter
	conflicts       prometheus.Counter
	notifications   *prometheus.CounterVec
	purged          prometheus.Counter

	cacheHitCount  uint64
	cacheMissCount uint64
	requestCount   uint64
	suggestCount   uint64
	skipCount      uint64
	conflictCount  uint64
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_latency_seconds",
			Help:    "Latency for cache lookups",
			Buckets: prometheus.DefBuckets,
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total cache hits",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total cache misses",
		}),
		suggestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "suggestion_duration_seconds",
			Help:    "Time spent computing slot suggestions",
			Buckets: prometheus.DefBuckets,
		}),
		suggestResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "suggestion_slots_returned",
			Help:    "Number of slots returned per suggestion request",
			Buckets: []float64{0, 1, 2, 5, 10},
		}),
		ownerSkips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "suggestion_owner_skipped_total",
			Help: "Owners skipped while computing suggestions",
		}, []string{"reason"}),
		recurrenceErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recurrence_parse_errors_total",
			Help: "Stored recurrence rules that could not be expanded",
		}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "availability_conflicts_total",
			Help: "Availability creates rejected for overlapping an existing window",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "availability_notifications_total",
			Help: "Availability-changed notifications by outcome",
		}, []string{"event", "outcome"}),
		purged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "availability_purged_total",
			Help: "Expired availability records removed by maintenance",
		}),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(m.requestDuration, m.requestTotal, m.cacheLatency, m.cacheHits, m.cacheMisses,
		m.suggestDuration, m.suggestResults, m.ownerSkips, m.recurrenceErrs, m.conflicts, m.notifications, m.purged, goroutines)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
}

// RecordCacheOperation records a cache lookup outcome.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
		return
	}
	m.cacheMisses.Inc()
	atomic.AddUint64(&m.cacheMissCount, 1)
}

// ObserveSuggestion records one completed suggestion computation.
func (m *MetricsService) ObserveSuggestion(duration time.Duration, returned int) {
	if m == nil {
		return
	}
	m.suggestDuration.Observe(duration.Seconds())
	m.suggestResults.Observe(float64(returned))
	atomic.AddUint64(&m.suggestCount, 1)
}

// RecordOwnerSkipped counts an owner dropped from a suggestion run.
func (m *MetricsService) RecordOwnerSkipped(reason string) {
	if m == nil {
		return
	}
	m.ownerSkips.WithLabelValues(reason).Inc()
	atomic.AddUint64(&m.skipCount, 1)
}

// RecordRecurrenceParseError counts a stored rule the expander had to skip.
func (m *MetricsService) RecordRecurrenceParseError() {
	if m == nil {
		return
	}
	m.recurrenceErrs.Inc()
}

// RecordConflict counts a rejected create.
func (m *MetricsService) RecordConflict() {
	if m == nil {
		return
	}
	m.conflicts.Inc()
	atomic.AddUint64(&m.conflictCount, 1)
}

// RecordNotification counts a notification outcome (queued, published, dropped).
func (m *MetricsService) RecordNotification(event models.AvailabilityEvent, outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(string(event), outcome).Inc()
}

// AddPurged counts records removed by maintenance.
func (m *MetricsService) AddPurged(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.purged.Add(float64(n))
}

// Snapshot returns aggregated counters for the JSON metrics endpoint.
func (m *MetricsService) Snapshot() models.MetricsSnapshot {
	if m == nil {
		return models.MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)

	var ratio float64
	if hits+misses > 0 {
		ratio = float64(hits) / float64(hits+misses)
	}

	return models.MetricsSnapshot{
		RequestsTotal:     atomic.LoadUint64(&m.requestCount),
		SuggestionsTotal:  atomic.LoadUint64(&m.suggestCount),
		OwnersSkipped:     atomic.LoadUint64(&m.skipCount),
		ConflictsRejected: atomic.LoadUint64(&m.conflictCount),
		CacheHits:         hits,
		CacheMisses:       misses,
		CacheHitRatio:     ratio,
		Goroutines:        runtime.NumGoroutine(),
		GeneratedAt:       time.Now().UTC(),
	}
}
