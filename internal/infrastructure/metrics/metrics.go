// Package metrics provides Prometheus metrics for the daemon.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Admin HTTP surface metrics (health, metrics, debug registry dump).
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of admin HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Admin HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Registry metrics.
var (
	AlertsActiveGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "alerts_active",
			Help: "Current number of alerts not in RESOLVED state",
		},
	)

	RegistrySizeGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "registry_size",
			Help: "Current total number of stored alerts, all states",
		},
	)

	TTLSweepResolvedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ttl_sweep_resolved_total",
			Help: "Total number of alerts transitioned to RESOLVED by a TTL sweep",
		},
	)

	AcknowledgementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acknowledgements_total",
			Help: "Total number of accepted acknowledge requests, by target state",
		},
		[]string{"new_state"},
	)

	AlertsSuppressedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alerts_suppressed_total",
			Help: "Total number of ACTIVE heartbeats not republished, because the alert has no TTL or is within the half-TTL window",
		},
	)

	AlertExpiryEntriesGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "alert_expiry_entries",
			Help: "Current number of per-rule deadlines tracked by the TTL expiry map",
		},
	)
)

// Bus metrics.
var (
	StreamMessagesConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_messages_consumed_total",
			Help: "Total number of ingress stream messages consumed",
		},
		[]string{"outcome"},
	)

	StreamMessagesPublishedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stream_messages_published_total",
			Help: "Total number of alerts republished on the egress stream",
		},
	)

	MailboxRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailbox_requests_total",
			Help: "Total number of mailbox requests handled, by subject and outcome",
		},
		[]string{"subject", "outcome"},
	)
)
