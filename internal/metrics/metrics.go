// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "aecoin_store"

// Metrics groups the service collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
	BillsCreated       *prometheus.CounterVec
	SignatureChecks    *prometheus.CounterVec
	Notifications      *prometheus.CounterVec
	OrderTransitions   *prometheus.CounterVec
	RateLimited        prometheus.Counter
	NotificationsQueue prometheus.Gauge
}

// New creates the collectors under namespace.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	return &Metrics{
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route, method and status.",
			},
			[]string{"route", "method", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds.",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"route", "method"},
		),
		BillsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bills_created_total",
				Help:      "Gateway bill creation attempts by result.",
			},
			[]string{"result"}, // success/failed
		),
		SignatureChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "signature_checks_total",
				Help:      "Inbound gateway signature checks by source and outcome.",
			},
			[]string{"source", "outcome"}, // source: callback/redirect, outcome: verified/bypassed/rejected
		),
		Notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Discord purchase notifications by result.",
			},
			[]string{"result"}, // sent/failed/skipped
		),
		OrderTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "order_transitions_total",
				Help:      "Order status transitions by target status.",
			},
			[]string{"status"},
		),
		RateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limited_total",
				Help:      "Requests rejected by the rate limiter.",
			},
		),
		NotificationsQueue: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "notifications_in_flight",
				Help:      "Notification sends currently running.",
			},
		),
	}
}

// Register registers every collector.
func (m *Metrics) Register(registerer prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.HTTPRequests,
		m.HTTPDuration,
		m.BillsCreated,
		m.SignatureChecks,
		m.Notifications,
		m.OrderTransitions,
		m.RateLimited,
		m.NotificationsQueue,
	}

	for _, c := range collectors {
		if err := registerer.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// RecordHTTP records one served request.
func (m *Metrics) RecordHTTP(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// RecordBill records a bill creation attempt.
func (m *Metrics) RecordBill(success bool) {
	if m == nil {
		return
	}
	m.BillsCreated.WithLabelValues(result(success, "success", "failed")).Inc()
}

// RecordSignature records a signature check outcome.
func (m *Metrics) RecordSignature(source, outcome string) {
	if m == nil {
		return
	}
	m.SignatureChecks.WithLabelValues(source, outcome).Inc()
}

// RecordNotification records a notification result: sent, failed or skipped.
func (m *Metrics) RecordNotification(res string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(res).Inc()
}

// RecordTransition records an order moving into status.
func (m *Metrics) RecordTransition(status string) {
	if m == nil {
		return
	}
	m.OrderTransitions.WithLabelValues(status).Inc()
}

// RecordTransitions records n orders moving into status.
func (m *Metrics) RecordTransitions(status string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.OrderTransitions.WithLabelValues(status).Add(float64(n))
}

// RecordRateLimited counts a throttled request.
func (m *Metrics) RecordRateLimited() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}

// TrackNotification adjusts the in-flight notification gauge by delta.
func (m *Metrics) TrackNotification(delta float64) {
	if m == nil {
		return
	}
	m.NotificationsQueue.Add(delta)
}

func result(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}
