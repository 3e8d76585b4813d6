package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymcore_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gymcore_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	MembershipTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymcore_membership_transitions_total",
			Help: "Membership status transitions",
		},
		[]string{"from", "to"},
	)

	EntitlementDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymcore_entitlement_decisions_total",
			Help: "Entitlement gate decisions by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	SessionsBookedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymcore_sessions_booked_total",
			Help: "Total number of personal training sessions booked",
		},
	)

	SessionCancellationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymcore_session_cancellations_total",
			Help: "Total number of personal training session cancellations",
		},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymcore_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gymcore_email_queue_length",
			Help: "Current length of email queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordMembershipTransition(from, to string) {
	MembershipTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordEntitlementDecision counts gate outcomes; outcome is "allowed" or a
// denial reason code.
func RecordEntitlementDecision(action, outcome string) {
	EntitlementDecisionsTotal.WithLabelValues(action, outcome).Inc()
}

func RecordSessionBooked() {
	SessionsBookedTotal.Inc()
}

func RecordSessionCancellation() {
	SessionCancellationsTotal.Inc()
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}
