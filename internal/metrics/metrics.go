package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// LifecycleMetrics counts booking lifecycle transitions. A nil receiver is a no-op.
type LifecycleMetrics struct {
	bookingsCreated  *prometheus.CounterVec
	otpIssued        *prometheus.CounterVec
	otpVerifications *prometheus.CounterVec
	decisions        *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
}

func NewLifecycleMetrics(reg prometheus.Registerer) *LifecycleMetrics {
	m := &LifecycleMetrics{
		bookingsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "facility_booking",
			Subsystem: "booking",
			Name:      "created_total",
			Help:      "Bookings created by payment mode and override flag.",
		}, []string{"payment_mode", "override"}),
		otpIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "facility_booking",
			Subsystem: "otp",
			Name:      "issued_total",
			Help:      "One-time passcodes issued by channel.",
		}, []string{"channel"}),
		otpVerifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "facility_booking",
			Subsystem: "otp",
			Name:      "verifications_total",
			Help:      "OTP verification attempts by channel and result.",
		}, []string{"channel", "result"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "facility_booking",
			Subsystem: "booking",
			Name:      "decisions_total",
			Help:      "Finance and approval decisions by kind and outcome.",
		}, []string{"kind", "outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "facility_booking",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method and status.",
		}, []string{"method", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsCreated, m.otpIssued, m.otpVerifications, m.decisions, m.httpRequests)
	return m
}

func (m *LifecycleMetrics) BookingCreated(paymentMode string, override bool) {
	if m == nil {
		return
	}
	m.bookingsCreated.WithLabelValues(paymentMode, strconv.FormatBool(override)).Inc()
}

func (m *LifecycleMetrics) OTPIssued(channel string) {
	if m == nil {
		return
	}
	m.otpIssued.WithLabelValues(channel).Inc()
}

func (m *LifecycleMetrics) OTPVerified(channel, result string) {
	if m == nil {
		return
	}
	m.otpVerifications.WithLabelValues(channel, result).Inc()
}

func (m *LifecycleMetrics) Decision(kind, outcome string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(kind, outcome).Inc()
}

func (m *LifecycleMetrics) HTTPRequest(method string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}
