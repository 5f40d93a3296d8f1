package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/appeal-desk-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP surface and the appeal engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	rejections      *prometheus.CounterVec
	overdueFlipped  prometheus.Counter
	reminders       *prometheus.CounterVec
	scanDuration    prometheus.Histogram
	lastScan        prometheus.Gauge
	notifications   *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
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

	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "appeal_transitions_total",
		Help: "Committed appeal lifecycle transitions by action",
	}, []string{"action"})

	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "appeal_rejections_total",
		Help: "Lifecycle operations refused with a business error, by error code",
	}, []string{"code"})

	overdueFlipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "appeal_overdue_flipped_total",
		Help: "Appeals moved to overdue by the sweep",
	})

	reminders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "appeal_reminders_total",
		Help: "Appeals selected by the reminder scan by notice kind",
	}, []string{"kind"})

	scanDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "appeal_reminder_scan_seconds",
		Help:    "Duration of reminder scans",
		Buckets: prometheus.DefBuckets,
	})

	lastScan := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "appeal_reminder_last_scan_timestamp_seconds",
		Help: "Unix time of the last completed reminder scan",
	})

	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "appeal_notifications_total",
		Help: "Notification deliveries by event kind and outcome",
	}, []string{"kind", "outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, transitions, rejections, overdueFlipped, reminders, scanDuration, lastScan, notifications, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		transitions:     transitions,
		rejections:      rejections,
		overdueFlipped:  overdueFlipped,
		reminders:       reminders,
		scanDuration:    scanDuration,
		lastScan:        lastScan,
		notifications:   notifications,
	}
}

// Registry exposes the underlying registry for tests and extra collectors.
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

// RecordTransition counts a committed lifecycle transition.
func (m *MetricsService) RecordTransition(action models.AppealAction) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(action)).Inc()
}

// RecordRejection counts an operation refused with a business error code.
func (m *MetricsService) RecordRejection(code string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(code).Inc()
}

// ObserveScan records the outcome of one reminder scan.
func (m *MetricsService) ObserveScan(result *models.ScanResult, duration time.Duration) {
	if m == nil || result == nil {
		return
	}
	m.overdueFlipped.Add(float64(result.OverdueCount))
	for _, notice := range result.Reminded {
		m.reminders.WithLabelValues(string(notice.Kind)).Inc()
	}
	m.scanDuration.Observe(duration.Seconds())
	m.lastScan.SetToCurrentTime()
}

// RecordNotification counts one delivery attempt outcome.
func (m *MetricsService) RecordNotification(kind models.EventKind, delivered bool) {
	if m == nil {
		return
	}
	outcome := "delivered"
	if !delivered {
		outcome = "failed"
	}
	m.notifications.WithLabelValues(string(kind), outcome).Inc()
}

// RecordNotificationDropped counts a delivery that never made it onto the queue.
func (m *MetricsService) RecordNotificationDropped(kind models.EventKind) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(string(kind), "dropped").Inc()
}
