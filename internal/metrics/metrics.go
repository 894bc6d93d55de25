package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "site_http_requests_total",
		Help: "Total number of HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})
	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "site_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "site_submissions_total",
		Help: "Total number of stored form submissions by kind",
	}, []string{"kind"})
	honeypotTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "site_honeypot_discards_total",
		Help: "Total number of submissions silently dropped by the honeypot",
	}, []string{"kind"})
	emailDeliveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "site_email_deliveries_total",
		Help: "Total number of email delivery attempts by kind and result",
	}, []string{"kind", "result"})
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry prometheus.Registerer) {
	registry.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		submissionsTotal,
		honeypotTotal,
		emailDeliveriesTotal,
	)
}

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(method, route, status string, seconds float64) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

// IncSubmission counts a persisted audit or contact submission.
func IncSubmission(kind string) { submissionsTotal.WithLabelValues(kind).Inc() }

// IncHoneypot counts a submission discarded because the trap field was filled.
func IncHoneypot(kind string) { honeypotTotal.WithLabelValues(kind).Inc() }

// IncEmailDelivery counts a delivery attempt; result is "sent" or "failed".
func IncEmailDelivery(kind, result string) {
	emailDeliveriesTotal.WithLabelValues(kind, result).Inc()
}
