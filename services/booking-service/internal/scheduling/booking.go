package scheduling

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/civiltime"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type BookingRequest struct {
	ProviderID string
	ServiceID  string
	CustomerID string
	Date       time.Time
	Notes      string
}

// Book validates req and creates a SCHEDULED appointment. Availability,
// blocks and overlaps are checked on fresh reads inside one serializable
// transaction; serialization failures rerun the whole transaction.
func (s *Service) Book(ctx context.Context, req BookingRequest) (model.Appointment, error) {
	ctx, span := tracer.Start(ctx, "scheduling.book", trace.WithAttributes(
		attribute.String("provider.id", req.ProviderID),
		attribute.String("service.id", req.ServiceID),
	))
	defer span.End()

	appt, err := s.book(ctx, req)
	s.metrics.BookingOutcome(outcome(err))
	if err != nil && CodeOf(err) == "" {
		span.RecordError(err)
		span.SetStatus(codes.Error, "booking failed")
	}
	return appt, err
}

func (s *Service) book(ctx context.Context, req BookingRequest) (model.Appointment, error) {
	req.ProviderID = strings.TrimSpace(req.ProviderID)
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	req.CustomerID = strings.TrimSpace(req.CustomerID)
	if req.ProviderID == "" || req.ServiceID == "" || req.Date.IsZero() {
		return model.Appointment{}, InvalidInput("providerId, serviceId and date are required")
	}
	if req.CustomerID == "" {
		return model.Appointment{}, InvalidInput("customer is required")
	}
	req.Date = req.Date.UTC()

	provider, svc, err := s.resolveOffer(ctx, req.ProviderID, req.ServiceID)
	if err != nil {
		return model.Appointment{}, err
	}
	if err := checkWindow(s.now(), req.Date, provider.MaxBookingDays); err != nil {
		return model.Appointment{}, err
	}

	for attempt := 1; ; attempt++ {
		appt, conflict, err := s.tryBook(ctx, req, svc)
		if err == nil {
			if conflict != ConflictNone {
				s.logger.Debug("booking rejected", "reason", conflict.String(), "provider_id", req.ProviderID)
				return model.Appointment{}, conflict.Err()
			}
			s.logger.Info("appointment booked", "appointment_id", appt.ID, "provider_id", appt.ProviderID, "date", appt.Date)
			return appt, nil
		}
		if !storage.IsSerializationFailure(err) {
			return model.Appointment{}, fmt.Errorf("book appointment: %w", err)
		}
		if attempt >= s.maxAttempts {
			s.logger.Warn("booking gave up after serialization conflicts", "attempts", attempt, "provider_id", req.ProviderID)
			return model.Appointment{}, newError(CodeTryAgain, "the schedule changed while booking, please try again")
		}
		s.metrics.BookingRetry()
		s.logger.Debug("booking serialization conflict, retrying", "attempt", attempt)
	}
}

func (s *Service) tryBook(ctx context.Context, req BookingRequest, svc model.Service) (model.Appointment, Conflict, error) {
	var (
		created  model.Appointment
		conflict Conflict
	)
	err := s.store.InTx(ctx, storage.Serializable, func(q storage.Queries) error {
		c, err := checkConflicts(ctx, q, req, svc.Duration)
		if err != nil {
			return err
		}
		if c != ConflictNone {
			conflict = c
			return nil
		}

		created, err = q.CreateAppointment(ctx, model.Appointment{
			Date:       req.Date,
			Status:     model.StatusScheduled,
			CustomerID: req.CustomerID,
			ProviderID: req.ProviderID,
			ServiceID:  svc.ID,
			Notes:      strings.TrimSpace(req.Notes),
		})
		if err != nil {
			return err
		}
		e, err := outbox.AppointmentEvent(ctx, outbox.EventAppointmentBooked, created, s.now())
		if err != nil {
			return err
		}
		return q.InsertEvent(ctx, e)
	})
	if err != nil {
		return model.Appointment{}, ConflictNone, err
	}
	return created, conflict, nil
}

// checkConflicts runs the four admission checks in order and reports the
// first that fails.
func checkConflicts(ctx context.Context, q storage.Queries, req BookingRequest, duration int) (Conflict, error) {
	day := civiltime.DayRangeOf(req.Date)
	start := day.Minutes(req.Date)
	end := start + duration

	rows, err := q.ListAvailabilityByWeekday(ctx, req.ProviderID, day.Weekday)
	if err != nil {
		return ConflictNone, err
	}
	// Starts between grid minutes are never offered.
	if !req.Date.Equal(req.Date.Truncate(time.Minute)) ||
		!availability.FitsAny(availability.Windows(rows), start, end, duration) {
		return ConflictOutsideAvailability, nil
	}

	blocks, err := q.ListBlocksBetween(ctx, req.ProviderID, day.Start, day.End)
	if err != nil {
		return ConflictNone, err
	}
	if availability.OverlapsAny(start, end, blockIntervals(day, blocks)) {
		return ConflictBlockedSlot, nil
	}

	providerAppts, err := q.ListProviderAppointments(ctx, req.ProviderID, day.Start, day.End)
	if err != nil {
		return ConflictNone, err
	}
	if availability.OverlapsAny(start, end, appointmentIntervals(day, providerAppts, duration)) {
		return ConflictProvider, nil
	}

	customerAppts, err := q.ListCustomerAppointmentsBetween(ctx, req.CustomerID, day.Start, day.End)
	if err != nil {
		return ConflictNone, err
	}
	if availability.OverlapsAny(start, end, appointmentIntervals(day, customerAppts, duration)) {
		return ConflictCustomer, nil
	}
	return ConflictNone, nil
}
