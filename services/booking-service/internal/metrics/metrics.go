// Package metrics exposes Prometheus collectors for booking outcomes and the
// completion sweep. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "barberbook"

type Metrics struct {
	bookings      *prometheus.CounterVec
	bookingRetry  prometheus.Counter
	cancellations *prometheus.CounterVec
	slotQueries   *prometheus.CounterVec
	swept         prometheus.Counter
	sweepFailures prometheus.Counter
	sweepDuration prometheus.Histogram
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		bookings: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome (ok or rejection code).",
		}, []string{"outcome"}),
		bookingRetry: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_serialization_retries_total",
			Help:      "Booking transactions retried after a serialization failure.",
		}),
		cancellations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cancellations_total",
			Help:      "Cancellation attempts by outcome.",
		}, []string{"outcome"}),
		slotQueries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_queries_total",
			Help:      "Slot listings by outcome.",
		}, []string{"outcome"}),
		swept: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointments_auto_completed_total",
			Help:      "Appointments moved to DONE by the completion sweep.",
		}),
		sweepFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_sweep_failures_total",
			Help:      "Completion sweeps or row updates that failed.",
		}),
		sweepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_sweep_duration_seconds",
			Help:      "Wall time of one completion sweep.",
			Buckets:   []float64{.005, .01, .05, .1, .5, 1, 5},
		}),
	}
}

func (m *Metrics) BookingOutcome(outcome string) {
	if m != nil {
		m.bookings.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) BookingRetry() {
	if m != nil {
		m.bookingRetry.Inc()
	}
}

func (m *Metrics) CancelOutcome(outcome string) {
	if m != nil {
		m.cancellations.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) SlotQuery(outcome string) {
	if m != nil {
		m.slotQueries.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) SweepDone(completed int, took time.Duration) {
	if m == nil {
		return
	}
	m.swept.Add(float64(completed))
	m.sweepDuration.Observe(took.Seconds())
}

func (m *Metrics) SweepFailure() {
	if m != nil {
		m.sweepFailures.Inc()
	}
}
