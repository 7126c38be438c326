package scheduling

import (
	"context"
	"errors"
	"fmt"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/civiltime"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/completion"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/storage"
)

// CustomerAppointments lists every appointment of the customer, ascending,
// after completing the ones that have already ended.
func (s *Service) CustomerAppointments(ctx context.Context, customerID string) ([]model.Appointment, error) {
	if customerID == "" {
		return nil, InvalidInput("customer is required")
	}
	if s.completer != nil {
		s.completer.Sweep(ctx, completion.Scope{CustomerID: customerID})
	}
	appts, err := s.store.ListCustomerAppointments(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("list customer appointments: %w", err)
	}
	return appts, nil
}

// ProviderAgenda lists the provider's non-canceled appointments on a local
// date. Only the provider may read it.
func (s *Service) ProviderAgenda(ctx context.Context, providerID, date string) ([]model.Appointment, error) {
	day, err := civiltime.ParseDate(date)
	if err != nil {
		return nil, newError(CodeInvalidDate, "invalid date format (expected YYYY-MM-DD)")
	}
	provider, err := s.store.GetUser(ctx, providerID)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && !provider.IsProvider) {
		return nil, Forbidden("only providers have an agenda")
	}
	if err != nil {
		return nil, fmt.Errorf("load provider: %w", err)
	}

	if s.completer != nil {
		s.completer.Sweep(ctx, completion.Scope{ProviderID: provider.ID})
	}
	appts, err := s.store.ListProviderAppointments(ctx, provider.ID, day.Start, day.End)
	if err != nil {
		return nil, fmt.Errorf("list provider appointments: %w", err)
	}
	return appts, nil
}
