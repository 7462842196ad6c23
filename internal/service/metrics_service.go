package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Classification stages reported to metrics.
const (
	StageExact    = "exact"
	StageSubstr   = "substring"
	StageFuzzy    = "fuzzy"
	StageKeywords = "keywords"
	StageFailed   = "unclassifiable"
)

// MetricsService encapsulates Prometheus instrumentation for the grievance engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	classifications *prometheus.CounterVec
	submissions     *prometheus.CounterVec
	similarMatches  prometheus.Histogram
	reminders       prometheus.Counter
	reminderScans   *prometheus.CounterVec
	notifications   *prometheus.CounterVec

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	classifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "grievance_classification_total",
		Help: "Department resolutions by the stage that produced them",
	}, []string{"stage"})

	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "grievance_submissions_total",
		Help: "Accepted grievances by priority",
	}, []string{"priority"})

	similarMatches := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "grievance_similar_matches",
		Help:    "Similar grievances found per submission",
		Buckets: []float64{0, 1, 2, 5, 10, 25},
	})

	reminders := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "grievance_reminders_sent_total",
		Help: "Reminder records written",
	})

	reminderScans := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "grievance_reminder_scans_total",
		Help: "Reminder scans by outcome",
	}, []string{"outcome"})

	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "grievance_notifications_total",
		Help: "Status notifications by outcome",
	}, []string{"outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio,
		classifications, submissions, similarMatches, reminders, reminderScans, notifications, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		classifications: classifications,
		submissions:     submissions,
		similarMatches:  similarMatches,
		reminders:       reminders,
		reminderScans:   reminderScans,
		notifications:   notifications,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
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
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordClassification counts which resolver stage produced a department.
func (m *MetricsService) RecordClassification(stage string) {
	if m == nil {
		return
	}
	m.classifications.WithLabelValues(stage).Inc()
}

// RecordSubmission counts an accepted grievance and its duplicate matches.
func (m *MetricsService) RecordSubmission(priority string, similar int) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(priority).Inc()
	m.similarMatches.Observe(float64(similar))
}

// RecordReminders adds n written reminders.
func (m *MetricsService) RecordReminders(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.reminders.Add(float64(n))
}

// RecordReminderScan counts a scan run by outcome.
func (m *MetricsService) RecordReminderScan(outcome string) {
	if m == nil {
		return
	}
	m.reminderScans.WithLabelValues(outcome).Inc()
}

// RecordNotification counts a notification attempt by outcome.
func (m *MetricsService) RecordNotification(outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(outcome).Inc()
}
