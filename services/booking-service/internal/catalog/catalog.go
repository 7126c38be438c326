// Package catalog manages what a provider offers: services, weekly
// availability windows, blocks and booking rules. It also serves the public
// provider directory.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/scheduling"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/storage"
)

type Catalog struct {
	store  storage.Queries
	logger *slog.Logger
}

func New(store storage.Queries, logger *slog.Logger) *Catalog {
	return &Catalog{store: store, logger: logger}
}

// requireProvider loads the acting user and rejects anyone who is not a
// provider.
func (c *Catalog) requireProvider(ctx context.Context, actorID string) (model.User, error) {
	u, err := c.store.GetUser(ctx, strings.TrimSpace(actorID))
	if errors.Is(err, storage.ErrNotFound) || (err == nil && !u.IsProvider) {
		return model.User{}, scheduling.Forbidden("only providers can manage their catalog")
	}
	if err != nil {
		return model.User{}, fmt.Errorf("load provider: %w", err)
	}
	return u, nil
}

type ServiceInput struct {
	Name     string
	Duration int
	Price    float64
}

func (c *Catalog) CreateService(ctx context.Context, actorID string, in ServiceInput) (model.Service, error) {
	provider, err := c.requireProvider(ctx, actorID)
	if err != nil {
		return model.Service{}, err
	}
	in.Name = strings.TrimSpace(in.Name)
	switch {
	case in.Name == "":
		return model.Service{}, scheduling.InvalidInput("name is required")
	case in.Duration <= 0:
		return model.Service{}, scheduling.InvalidInput("duration must be a positive number of minutes")
	case in.Price < 0:
		return model.Service{}, scheduling.InvalidInput("price must not be negative")
	}

	svc, err := c.store.CreateService(ctx, model.Service{
		ProviderID: provider.ID,
		Name:       in.Name,
		Duration:   in.Duration,
		Price:      in.Price,
	})
	if err != nil {
		return model.Service{}, fmt.Errorf("create service: %w", err)
	}
	c.logger.Info("service created", "service_id", svc.ID, "provider_id", provider.ID)
	return svc, nil
}

func (c *Catalog) ListServices(ctx context.Context, providerID string) ([]model.Service, error) {
	out, err := c.store.ListServices(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return out, nil
}

// DeleteService removes one of the actor's services. Appointments that used
// it keep their history with no service reference.
func (c *Catalog) DeleteService(ctx context.Context, actorID, id string) error {
	provider, err := c.requireProvider(ctx, actorID)
	if err != nil {
		return err
	}
	return deleted("service", c.store.DeleteService(ctx, provider.ID, id))
}

type AvailabilityInput struct {
	Weekday   int
	StartTime string
	EndTime   string
}

func (c *Catalog) CreateAvailability(ctx context.Context, actorID string, in AvailabilityInput) (model.Availability, error) {
	provider, err := c.requireProvider(ctx, actorID)
	if err != nil {
		return model.Availability{}, err
	}
	if in.Weekday < 0 || in.Weekday > 6 {
		return model.Availability{}, scheduling.InvalidInput("weekday must be between 0 (Sunday) and 6 (Saturday)")
	}
	if _, err := availability.ParseWindow(in.StartTime, in.EndTime); err != nil {
		if errors.Is(err, availability.ErrInvalidClock) {
			return model.Availability{}, scheduling.InvalidInput("times must use the HH:MM format")
		}
		return model.Availability{}, scheduling.InvalidInput("endTime must be after startTime")
	}

	a, err := c.store.CreateAvailability(ctx, model.Availability{
		ProviderID: provider.ID,
		Weekday:    in.Weekday,
		StartTime:  in.StartTime,
		EndTime:    in.EndTime,
	})
	if errors.Is(err, storage.ErrDuplicate) {
		return model.Availability{}, &scheduling.Error{
			Code:    scheduling.CodeAvailabilityExists,
			Message: "availability already exists for this weekday",
			Params:  map[string]any{"weekday": in.Weekday},
		}
	}
	if err != nil {
		return model.Availability{}, fmt.Errorf("create availability: %w", err)
	}
	return a, nil
}

func (c *Catalog) ListAvailability(ctx context.Context, providerID string) ([]model.Availability, error) {
	out, err := c.store.ListAvailability(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	return out, nil
}

func (c *Catalog) DeleteAvailability(ctx context.Context, actorID, id string) error {
	provider, err := c.requireProvider(ctx, actorID)
	if err != nil {
		return err
	}
	return deleted("availability", c.store.DeleteAvailability(ctx, provider.ID, id))
}

type BlockInput struct {
	StartAt time.Time
	EndAt   time.Time
	Reason  string
}

func (c *Catalog) CreateBlock(ctx context.Context, actorID string, in BlockInput) (model.Block, error) {
	provider, err := c.requireProvider(ctx, actorID)
	if err != nil {
		return model.Block{}, err
	}
	if in.StartAt.IsZero() || in.EndAt.IsZero() {
		return model.Block{}, scheduling.InvalidInput("startAt and endAt are required")
	}
	if !in.StartAt.Before(in.EndAt) {
		return model.Block{}, scheduling.InvalidInput("startAt must be before endAt")
	}

	b, err := c.store.CreateBlock(ctx, model.Block{
		ProviderID: provider.ID,
		StartAt:    in.StartAt.UTC(),
		EndAt:      in.EndAt.UTC(),
		Reason:     strings.TrimSpace(in.Reason),
	})
	if err != nil {
		return model.Block{}, fmt.Errorf("create block: %w", err)
	}
	return b, nil
}

func (c *Catalog) ListBlocks(ctx context.Context, providerID string) ([]model.Block, error) {
	out, err := c.store.ListBlocks(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	return out, nil
}

func (c *Catalog) DeleteBlock(ctx context.Context, actorID, id string) error {
	provider, err := c.requireProvider(ctx, actorID)
	if err != nil {
		return err
	}
	return deleted("block", c.store.DeleteBlock(ctx, provider.ID, id))
}

func (c *Catalog) Config(ctx context.Context, actorID string) (model.ProviderConfig, error) {
	provider, err := c.requireProvider(ctx, actorID)
	if err != nil {
		return model.ProviderConfig{}, err
	}
	return provider.Config(), nil
}

func (c *Catalog) UpdateConfig(ctx context.Context, actorID string, cfg model.ProviderConfig) (model.ProviderConfig, error) {
	provider, err := c.requireProvider(ctx, actorID)
	if err != nil {
		return model.ProviderConfig{}, err
	}
	if cfg.MaxBookingDays < model.MinMaxBookingDays || cfg.MaxBookingDays > model.MaxMaxBookingDays {
		return model.ProviderConfig{}, scheduling.InvalidInput(fmt.Sprintf(
			"maxBookingDays must be between %d and %d", model.MinMaxBookingDays, model.MaxMaxBookingDays))
	}
	if cfg.CancelBookingHours < model.MinCancelBookingHours || cfg.CancelBookingHours > model.MaxCancelBookingHours {
		return model.ProviderConfig{}, scheduling.InvalidInput(fmt.Sprintf(
			"cancelBookingHours must be between %d and %d", model.MinCancelBookingHours, model.MaxCancelBookingHours))
	}

	u, err := c.store.UpdateProviderConfig(ctx, provider.ID, cfg)
	if err != nil {
		return model.ProviderConfig{}, fmt.Errorf("update provider config: %w", err)
	}
	c.logger.Info("provider config updated", "provider_id", provider.ID,
		"max_booking_days", cfg.MaxBookingDays, "cancel_booking_hours", cfg.CancelBookingHours)
	return u.Config(), nil
}

func deleted(what string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return scheduling.NotFound(what)
	default:
		return fmt.Errorf("delete %s: %w", what, err)
	}
}
