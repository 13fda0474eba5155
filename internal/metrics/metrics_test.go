package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Register(t *testing.T) {
	t.Parallel()

	m := New("")
	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))

	// Registering twice must fail with a duplicate error.
	assert.Error(t, m.Register(reg))
}

func TestMetrics_Record(t *testing.T) {
	t.Parallel()

	m := New("test")

	m.RecordHTTP("/api/v1/packages", "GET", 200, 15*time.Millisecond)
	m.RecordBill(true)
	m.RecordBill(false)
	m.RecordSignature("callback", "verified")
	m.RecordNotification("sent")
	m.RecordTransition("paid")
	m.RecordTransitions("expired", 3)
	m.RecordTransitions("expired", 0)
	m.RecordRateLimited()
	m.TrackNotification(1)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/v1/packages", "GET", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.BillsCreated.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.BillsCreated.WithLabelValues("failed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SignatureChecks.WithLabelValues("callback", "verified")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Notifications.WithLabelValues("sent")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.OrderTransitions.WithLabelValues("paid")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.OrderTransitions.WithLabelValues("expired")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RateLimited))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.NotificationsQueue))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordHTTP("/", "GET", 200, time.Millisecond)
		m.RecordBill(true)
		m.RecordSignature("redirect", "rejected")
		m.RecordNotification("failed")
		m.RecordTransition("fulfilled")
		m.RecordTransitions("expired", 2)
		m.RecordRateLimited()
		m.TrackNotification(-1)
	})
}
