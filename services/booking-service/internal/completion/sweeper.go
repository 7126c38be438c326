// Package completion moves appointments that have already ended to DONE.
package completion

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/metrics"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("booking-service/completion")

type Store interface {
	ListDueAppointments(ctx context.Context, f storage.DueFilter) ([]model.Appointment, error)
	InTx(ctx context.Context, iso storage.Isolation, fn func(storage.Queries) error) error
}

// Scope narrows a sweep to one customer or provider. The zero value sweeps
// everything.
type Scope struct {
	CustomerID string
	ProviderID string
}

type Config struct {
	Interval  time.Duration
	BatchSize int
	Now       func() time.Time
}

// Sweeper owns the periodic completion pass. Sweep may be called directly
// and concurrently with the timer: each row moves only from SCHEDULED, so a
// second pass over the same rows changes nothing.
type Sweeper struct {
	store     Store
	logger    *slog.Logger
	metrics   *metrics.Metrics
	interval  time.Duration
	batchSize int
	now       func() time.Time

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewSweeper(store Store, logger *slog.Logger, m *metrics.Metrics, cfg Config) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Sweeper{
		store:     store,
		logger:    logger,
		metrics:   m,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
		now:       cfg.Now,
	}
}

// Sweep marks every due appointment in scope whose end time has passed as
// DONE and returns how many it moved. Failures are logged, never returned;
// rows left behind stay eligible for the next pass.
func (s *Sweeper) Sweep(ctx context.Context, scope Scope) int {
	ctx, span := tracer.Start(ctx, "completion.sweep")
	defer span.End()

	started := time.Now()
	now := s.now()

	// date <= now is only a coarse filter: an appointment that has started
	// may still be running.
	due, err := s.store.ListDueAppointments(ctx, storage.DueFilter{
		Before:     now,
		CustomerID: scope.CustomerID,
		ProviderID: scope.ProviderID,
		Limit:      s.batchSize,
	})
	if err != nil {
		s.logger.Error("completion sweep: list due appointments", "err", err)
		s.metrics.SweepFailure()
		return 0
	}

	var completed int
	for _, a := range due {
		if a.End(0).After(now) {
			continue
		}
		moved, err := s.complete(ctx, a, now)
		if err != nil {
			s.logger.Warn("completion sweep: mark done", "appointment_id", a.ID, "err", err)
			s.metrics.SweepFailure()
			continue
		}
		if moved {
			completed++
		}
	}

	span.SetAttributes(attribute.Int("appointments.completed", completed))
	s.metrics.SweepDone(completed, time.Since(started))
	if completed > 0 {
		s.logger.Info("appointments auto-completed", "count", completed,
			"customer_id", scope.CustomerID, "provider_id", scope.ProviderID)
	}
	return completed
}

func (s *Sweeper) complete(ctx context.Context, a model.Appointment, now time.Time) (bool, error) {
	var moved bool
	err := s.store.InTx(ctx, storage.ReadCommitted, func(q storage.Queries) error {
		ok, err := q.TransitionAppointment(ctx, a.ID, model.StatusScheduled, model.StatusDone)
		if err != nil || !ok {
			return err
		}
		a.Status = model.StatusDone
		e, err := outbox.AppointmentEvent(ctx, outbox.EventAppointmentCompleted, a, now)
		if err != nil {
			return err
		}
		if err := q.InsertEvent(ctx, e); err != nil {
			return err
		}
		moved = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return moved, nil
}

// Start launches the periodic sweep. It returns false, doing nothing, when
// the sweeper is already running.
func (s *Sweeper) Start(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return false
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.run(ctx)
	return true
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx, Scope{})
		}
	}
}

// Stop cancels the timer and waits for an in-flight sweep to return.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}
