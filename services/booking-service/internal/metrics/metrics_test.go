package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.BookingOutcome("ok")
	m.BookingOutcome("ok")
	m.BookingOutcome("PROVIDER_CONFLICT")
	m.SweepDone(3, 10*time.Millisecond)
	m.SweepFailure()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.bookings.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookings.WithLabelValues("PROVIDER_CONFLICT")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.swept))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sweepFailures))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.BookingOutcome("ok")
	m.BookingRetry()
	m.CancelOutcome("ok")
	m.SlotQuery("ok")
	m.SweepDone(1, time.Second)
	m.SweepFailure()
}
