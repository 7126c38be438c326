// Package storage is the transactional repository behind the scheduling
// core. Postgres is the production backend; Memory serves tests and local
// runs without a database.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/db"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/outbox"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")

	// ErrSerialization is returned by backends that detect a conflicting
	// concurrent transaction themselves.
	ErrSerialization = errors.New("serialization failure")
)

type Isolation int

const (
	ReadCommitted Isolation = iota
	Serializable
)

// DueFilter selects non-terminal appointments that started at or before
// Before, optionally for one customer or provider.
type DueFilter struct {
	Before     time.Time
	CustomerID string
	ProviderID string
	Limit      int
}

// Queries is available on the store and inside a transaction.
type Queries interface {
	GetUser(ctx context.Context, id string) (model.User, error)
	ListProviders(ctx context.Context) ([]model.User, error)
	CreateUser(ctx context.Context, u model.User) (model.User, error)
	UpdateProviderConfig(ctx context.Context, providerID string, cfg model.ProviderConfig) (model.User, error)

	GetService(ctx context.Context, id string) (model.Service, error)
	ListServices(ctx context.Context, providerID string) ([]model.Service, error)
	CreateService(ctx context.Context, s model.Service) (model.Service, error)
	DeleteService(ctx context.Context, providerID, id string) error

	ListAvailability(ctx context.Context, providerID string) ([]model.Availability, error)
	ListAvailabilityByWeekday(ctx context.Context, providerID string, weekday int) ([]model.Availability, error)
	CreateAvailability(ctx context.Context, a model.Availability) (model.Availability, error)
	DeleteAvailability(ctx context.Context, providerID, id string) error

	ListBlocks(ctx context.Context, providerID string) ([]model.Block, error)
	// ListBlocksBetween returns blocks intersecting [from, to).
	ListBlocksBetween(ctx context.Context, providerID string, from, to time.Time) ([]model.Block, error)
	CreateBlock(ctx context.Context, b model.Block) (model.Block, error)
	DeleteBlock(ctx context.Context, providerID, id string) error

	GetAppointment(ctx context.Context, id string) (model.Appointment, error)
	// GetAppointmentForUpdate also locks the row until the transaction ends.
	GetAppointmentForUpdate(ctx context.Context, id string) (model.Appointment, error)
	// ListProviderAppointments and ListCustomerAppointmentsBetween return
	// non-canceled appointments with date in [from, to), ascending.
	ListProviderAppointments(ctx context.Context, providerID string, from, to time.Time) ([]model.Appointment, error)
	ListCustomerAppointmentsBetween(ctx context.Context, customerID string, from, to time.Time) ([]model.Appointment, error)
	// ListCustomerAppointments returns every appointment of the customer, ascending.
	ListCustomerAppointments(ctx context.Context, customerID string) ([]model.Appointment, error)
	ListDueAppointments(ctx context.Context, f DueFilter) ([]model.Appointment, error)
	CreateAppointment(ctx context.Context, a model.Appointment) (model.Appointment, error)
	// TransitionAppointment moves id from one status to another. It reports
	// false, without error, when the row is no longer in status from.
	TransitionAppointment(ctx context.Context, id string, from, to model.Status) (bool, error)

	InsertEvent(ctx context.Context, e outbox.Event) error
}

type Store interface {
	Queries
	outbox.Source
	// InTx runs fn in one transaction, committing when it returns nil.
	InTx(ctx context.Context, iso Isolation, fn func(q Queries) error) error
	Ping(ctx context.Context) error
	Close()
}

// IsSerializationFailure reports whether the failed transaction may succeed
// when retried from the start.
func IsSerializationFailure(err error) bool {
	return errors.Is(err, ErrSerialization) || db.IsSerializationFailure(err)
}
