package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestLifecycleMetrics(t *testing.T) {
	m := NewLifecycleMetrics(prometheus.NewRegistry())

	m.BookingCreated("sha", true)
	m.BookingCreated("sha", true)
	m.OTPIssued("standard")
	m.OTPVerified("override", "mismatch")
	m.Decision("finance", "confirmed")
	m.HTTPRequest("POST", 201)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.bookingsCreated.WithLabelValues("sha", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.otpIssued.WithLabelValues("standard")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.otpVerifications.WithLabelValues("override", "mismatch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.decisions.WithLabelValues("finance", "confirmed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "201")))
}

func TestLifecycleMetrics_NilIsNoop(t *testing.T) {
	var m *LifecycleMetrics
	assert.NotPanics(t, func() {
		m.BookingCreated("cash", false)
		m.OTPIssued("standard")
		m.OTPVerified("standard", "ok")
		m.Decision("approval", "approved")
		m.HTTPRequest("GET", 200)
	})
}
