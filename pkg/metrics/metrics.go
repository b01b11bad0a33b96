package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP request metrics, labeled by method, route and status class.
var (
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lumikid_http_requests_total",
		Help: "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lumikid_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// Subscription sweep metrics.
var (
	SweepRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lumikid_subscription_sweep_runs_total",
		Help: "Completed daily subscription sweeps",
	})

	SweepFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lumikid_subscription_sweep_failures_total",
		Help: "Per-account reconciliation failures during sweeps",
	})
)

// Webhook metrics.
var (
	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lumikid_payment_webhook_events_total",
		Help: "Payment webhook events by outcome",
	}, []string{"outcome"})
)
