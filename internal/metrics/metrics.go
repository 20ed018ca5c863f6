package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "freelancer_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "freelancer_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Realtime metrics
	WebsocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "freelancer_websocket_connections",
			Help: "Currently open websocket connections",
		},
	)

	MessagesRelayed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "freelancer_messages_relayed_total",
			Help: "Chat messages persisted and broadcast",
		},
	)

	MessagesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "freelancer_messages_rejected_total",
			Help: "Chat messages rejected before persistence",
		},
		[]string{"reason"}, // "ineligible" or "store_error"
	)

	// Business metrics
	EligibilityChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "freelancer_eligibility_checks_total",
			Help: "Messaging eligibility checks",
		},
		[]string{"outcome"}, // "eligible" or "ineligible"
	)

	JobApplications = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "freelancer_job_applications_total",
			Help: "Successful paid job applications",
		},
	)

	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "freelancer_notifications_created_total",
			Help: "Notifications persisted",
		},
		[]string{"type"},
	)

	TokensSpent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "freelancer_tokens_spent_total",
			Help: "Tokens debited across all users",
		},
	)
)
