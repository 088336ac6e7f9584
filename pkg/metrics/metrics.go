package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatherly_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// MembershipTransitions counts ledger transitions by kind
	// (host|join|invite|accept|decline|expire|leave|approve).
	MembershipTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatherly_membership_transitions_total",
			Help: "Total number of event membership transitions",
		},
		[]string{"kind"},
	)

	// ChatMessagesPosted counts stored chat messages by scope (group|direct).
	ChatMessagesPosted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatherly_chat_messages_total",
			Help: "Total number of chat messages posted",
		},
		[]string{"scope"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gatherly_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
