// Package scheduling is the appointment core: free slot generation, the
// serializable booking transaction and the cancellation policy.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/completion"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/metrics"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/policy"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/storage"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("booking-service/scheduling")

const DefaultMaxAttempts = 3

// Completer brings statuses up to date before a read.
type Completer interface {
	Sweep(ctx context.Context, scope completion.Scope) int
}

type Config struct {
	// MaxAttempts bounds how often a booking transaction runs when it keeps
	// failing with a serialization conflict.
	MaxAttempts int
	Now         func() time.Time
}

type Service struct {
	store       storage.Store
	completer   Completer
	logger      *slog.Logger
	metrics     *metrics.Metrics
	maxAttempts int
	now         func() time.Time
}

// NewService wires the core. completer and m may be nil.
func NewService(store storage.Store, completer Completer, logger *slog.Logger, m *metrics.Metrics, cfg Config) *Service {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		store:       store,
		completer:   completer,
		logger:      logger,
		metrics:     m,
		maxAttempts: cfg.MaxAttempts,
		now:         cfg.Now,
	}
}

// resolveOffer loads the provider and checks the service is one of theirs.
func (s *Service) resolveOffer(ctx context.Context, providerID, serviceID string) (model.User, model.Service, error) {
	provider, err := s.store.GetUser(ctx, providerID)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && !provider.IsProvider) {
		return model.User{}, model.Service{}, NotFound("provider")
	}
	if err != nil {
		return model.User{}, model.Service{}, fmt.Errorf("load provider: %w", err)
	}

	svc, err := s.store.GetService(ctx, serviceID)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && svc.ProviderID != provider.ID) {
		return model.User{}, model.Service{}, NotFound("service")
	}
	if err != nil {
		return model.User{}, model.Service{}, fmt.Errorf("load service: %w", err)
	}
	return provider, svc, nil
}

func checkWindow(now, target time.Time, maxDays int) error {
	switch policy.BookingWindow(now, target, maxDays) {
	case policy.PastDate:
		return newError(CodePastDate, "cannot book past dates")
	case policy.TooFarAhead:
		return newError(CodeTooFarAhead, fmt.Sprintf("cannot book more than %d days in advance", maxDays)).
			with("maxBookingDays", maxDays)
	default:
		return nil
	}
}

// outcome is the metrics label for err.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if c := CodeOf(err); c != "" {
		return string(c)
	}
	return "error"
}
