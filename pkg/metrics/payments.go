package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records gateway interaction outcomes.
type PaymentMetrics struct {
	initiations *prometheus.CounterVec
	notifies    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	initiations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_initiations_total",
		Help: "Payment initiation attempts by result.",
	}, []string{"result"})
	notifies := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_notifies_total",
		Help: "Gateway notify callbacks by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_initiation_duration_seconds",
		Help:    "Duration of payment initiation handling in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})
	reg.MustRegister(initiations, notifies, duration)
	return &PaymentMetrics{
		initiations: initiations,
		notifies:    notifies,
		duration:    duration,
	}
}

// IncInitiation counts one initiation attempt with the given result label.
func (p *PaymentMetrics) IncInitiation(result string) {
	if p == nil || p.initiations == nil {
		return
	}
	p.initiations.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncNotify counts one notify callback with the given outcome label.
func (p *PaymentMetrics) IncNotify(outcome string) {
	if p == nil || p.notifies == nil {
		return
	}
	p.notifies.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveInitiation records the handling duration for an initiation attempt.
func (p *PaymentMetrics) ObserveInitiation(result string, elapsed time.Duration) {
	if p == nil || p.duration == nil {
		return
	}
	p.duration.WithLabelValues(normalizeLabel(result)).Observe(elapsed.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
