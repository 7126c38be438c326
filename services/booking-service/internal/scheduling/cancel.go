package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/policy"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/storage"
)

// Cancel cancels an appointment on behalf of its customer or provider.
// Canceling a canceled appointment returns it unchanged.
func (s *Service) Cancel(ctx context.Context, appointmentID, actorID string) (model.Appointment, error) {
	ctx, span := tracer.Start(ctx, "scheduling.cancel")
	defer span.End()

	appt, err := s.cancel(ctx, strings.TrimSpace(appointmentID), strings.TrimSpace(actorID))
	s.metrics.CancelOutcome(outcome(err))
	return appt, err
}

func (s *Service) cancel(ctx context.Context, appointmentID, actorID string) (model.Appointment, error) {
	if appointmentID == "" || actorID == "" {
		return model.Appointment{}, InvalidInput("appointment id and user are required")
	}

	var out model.Appointment
	err := s.store.InTx(ctx, storage.ReadCommitted, func(q storage.Queries) error {
		a, err := q.GetAppointmentForUpdate(ctx, appointmentID)
		if errors.Is(err, storage.ErrNotFound) {
			return NotFound("appointment")
		}
		if err != nil {
			return err
		}
		if actorID != a.CustomerID && actorID != a.ProviderID {
			return Forbidden("not allowed to cancel this appointment")
		}

		lead := model.DefaultCancelBookingHours
		provider, err := q.GetUser(ctx, a.ProviderID)
		switch {
		case err == nil:
			lead = provider.CancelBookingHours
		case !errors.Is(err, storage.ErrNotFound):
			return err
		}

		now := s.now()
		switch policy.Cancellation(a, now, lead) {
		case policy.AlreadyCanceled:
			out = a
			return nil
		case policy.AlreadyCompleted:
			return newError(CodeAlreadyCompleted, "cannot cancel a completed appointment")
		case policy.TooLateToCancel:
			return newError(CodeTooLateToCancel,
				fmt.Sprintf("cancellation must be at least %d hours before the appointment", lead)).
				with("cancelBookingHours", lead)
		}

		ok, err := q.TransitionAppointment(ctx, a.ID, model.StatusScheduled, model.StatusCanceled)
		if err != nil {
			return err
		}
		if !ok {
			return newError(CodeTryAgain, "the appointment changed, please try again")
		}
		if out, err = q.GetAppointment(ctx, a.ID); err != nil {
			return err
		}
		e, err := outbox.AppointmentEvent(ctx, outbox.EventAppointmentCancelled, out, now)
		if err != nil {
			return err
		}
		return q.InsertEvent(ctx, e)
	})
	if err != nil {
		if CodeOf(err) != "" {
			return model.Appointment{}, err
		}
		return model.Appointment{}, fmt.Errorf("cancel appointment: %w", err)
	}
	if out.Status == model.StatusCanceled {
		s.logger.Info("appointment canceled", "appointment_id", out.ID, "by", actorID)
	}
	return out, nil
}
