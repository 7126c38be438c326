package scheduling

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/civiltime"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// GenerateSlots lists the free, grid aligned start instants for a service on
// a local date (YYYY-MM-DD), ascending. A date outside the provider's booking
// window is rejected rather than answered with an empty list.
func (s *Service) GenerateSlots(ctx context.Context, providerID, serviceID, date string) ([]time.Time, error) {
	ctx, span := tracer.Start(ctx, "scheduling.slots", trace.WithAttributes(
		attribute.String("provider.id", providerID),
		attribute.String("date", date),
	))
	defer span.End()

	slots, err := s.generateSlots(ctx, providerID, serviceID, date)
	s.metrics.SlotQuery(outcome(err))
	return slots, err
}

func (s *Service) generateSlots(ctx context.Context, providerID, serviceID, date string) ([]time.Time, error) {
	day, err := civiltime.ParseDate(date)
	if err != nil {
		return nil, newError(CodeInvalidDate, "invalid date format (expected YYYY-MM-DD)")
	}
	provider, svc, err := s.resolveOffer(ctx, providerID, serviceID)
	if err != nil {
		return nil, err
	}
	if err := checkWindow(s.now(), day.Start, provider.MaxBookingDays); err != nil {
		return nil, err
	}

	rows, err := s.store.ListAvailabilityByWeekday(ctx, provider.ID, day.Weekday)
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	blocks, err := s.store.ListBlocksBetween(ctx, provider.ID, day.Start, day.End)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	appts, err := s.store.ListProviderAppointments(ctx, provider.ID, day.Start, day.End)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	busy := append(blockIntervals(day, blocks), appointmentIntervals(day, appts, svc.Duration)...)
	var starts []int
	for _, w := range availability.Windows(rows) {
		starts = append(starts, w.Slots(svc.Duration, busy)...)
	}
	slices.Sort(starts)
	starts = slices.Compact(starts)

	out := make([]time.Time, len(starts))
	for i, m := range starts {
		out[i] = day.At(m)
	}
	return out, nil
}

// blockIntervals converts blocks to local minutes of day, clipped to it.
func blockIntervals(day civiltime.DayRange, blocks []model.Block) []availability.Interval {
	out := make([]availability.Interval, 0, len(blocks))
	for _, b := range blocks {
		if from, to, ok := day.Clip(b.StartAt, b.EndAt); ok {
			out = append(out, availability.Interval{Start: from, End: to})
		}
	}
	return out
}

// appointmentIntervals converts appointments of the day to local minutes.
// fallback is used for appointments whose service no longer resolves.
func appointmentIntervals(day civiltime.DayRange, appts []model.Appointment, fallback int) []availability.Interval {
	out := make([]availability.Interval, 0, len(appts))
	for _, a := range appts {
		start := day.Minutes(a.Date)
		out = append(out, availability.Interval{
			Start: start,
			End:   start + model.ResolveDuration(a.ServiceDuration, fallback),
		})
	}
	return out
}
