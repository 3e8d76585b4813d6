package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequestsTotal.Reset()
	HTTPRequestDuration.Reset()

	RecordHTTPRequest("GET", "/usage", "200", 0.5)

	count := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/usage", "200"))
	assert.Equal(t, float64(1), count)
	assert.Equal(t, 1, testutil.CollectAndCount(HTTPRequestDuration))
}

func TestRecordHTTPRequestMultiple(t *testing.T) {
	HTTPRequestsTotal.Reset()

	RecordHTTPRequest("POST", "/auth/login", "200", 0.1)
	RecordHTTPRequest("POST", "/auth/login", "200", 0.2)
	RecordHTTPRequest("POST", "/auth/login", "401", 0.05)

	successCount := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/auth/login", "200"))
	failCount := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/auth/login", "401"))

	assert.Equal(t, float64(2), successCount)
	assert.Equal(t, float64(1), failCount)
}

func TestRecordMembershipTransition(t *testing.T) {
	MembershipTransitionsTotal.Reset()

	RecordMembershipTransition("none", "pending")
	RecordMembershipTransition("pending", "active")
	RecordMembershipTransition("pending", "active")

	assert.Equal(t, float64(1), testutil.ToFloat64(MembershipTransitionsTotal.WithLabelValues("none", "pending")))
	assert.Equal(t, float64(2), testutil.ToFloat64(MembershipTransitionsTotal.WithLabelValues("pending", "active")))
}

func TestRecordEntitlementDecision(t *testing.T) {
	EntitlementDecisionsTotal.Reset()

	RecordEntitlementDecision("guest_pass", "allowed")
	RecordEntitlementDecision("guest_pass", "allowed")
	RecordEntitlementDecision("guest_pass", "limit_reached")

	assert.Equal(t, float64(2), testutil.ToFloat64(EntitlementDecisionsTotal.WithLabelValues("guest_pass", "allowed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(EntitlementDecisionsTotal.WithLabelValues("guest_pass", "limit_reached")))
}

func TestRecordSessionCancellation(t *testing.T) {
	testCounter := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gymcore_session_cancellations_total_test",
			Help: "Total number of personal training session cancellations",
		},
	)

	oldCounter := SessionCancellationsTotal
	SessionCancellationsTotal = testCounter
	defer func() { SessionCancellationsTotal = oldCounter }()

	RecordSessionCancellation()
	RecordSessionCancellation()

	assert.Equal(t, float64(2), testutil.ToFloat64(testCounter))
}

func TestRecordEmailMultipleTypes(t *testing.T) {
	EmailsSentTotal.Reset()

	RecordEmail("membership_approved", "success")
	RecordEmail("membership_approved", "failed")
	RecordEmail("session_confirmation", "success")

	assert.Equal(t, float64(1), testutil.ToFloat64(EmailsSentTotal.WithLabelValues("membership_approved", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(EmailsSentTotal.WithLabelValues("membership_approved", "failed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(EmailsSentTotal.WithLabelValues("session_confirmation", "success")))
}

func TestEmailQueueLength(t *testing.T) {
	EmailQueueLength.Set(10)
	assert.Equal(t, float64(10), testutil.ToFloat64(EmailQueueLength))

	EmailQueueLength.Set(0)
	assert.Equal(t, float64(0), testutil.ToFloat64(EmailQueueLength))
}
