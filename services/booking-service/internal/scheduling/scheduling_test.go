package scheduling

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/storage"
	"github.com/stretchr/testify/require"
)

// Sunday 2026-03-01 12:00 local. The next Monday is 2026-03-02.
var sunday = time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)

const monday = "2026-03-02"

func testLogger() *slog.Logger { return slog.New(slog.NewJSONHandler(io.Discard, nil)) }

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

type env struct {
	store    *storage.Memory
	svc      *Service
	now      time.Time
	provider model.User
	customer model.User
	haircut  model.Service
}

// newEnv seeds a provider open Mondays 09:00-11:00 local with a 30 minute
// haircut, and one customer.
func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	e := &env{store: storage.NewMemory(), now: sunday}

	var err error
	e.provider, err = e.store.CreateUser(ctx, model.User{Name: "Zé", Email: "ze@example.com", IsProvider: true})
	require.NoError(t, err)
	e.customer, err = e.store.CreateUser(ctx, model.User{Name: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)
	e.haircut, err = e.store.CreateService(ctx, model.Service{ProviderID: e.provider.ID, Name: "Corte", Duration: 30, Price: 45})
	require.NoError(t, err)
	_, err = e.store.CreateAvailability(ctx, model.Availability{ProviderID: e.provider.ID, Weekday: 1, StartTime: "09:00", EndTime: "11:00"})
	require.NoError(t, err)

	e.svc = e.newService(storage.Store(e.store), Config{})
	return e
}

func (e *env) newService(store storage.Store, cfg Config) *Service {
	cfg.Now = func() time.Time { return e.now }
	return NewService(store, nil, testLogger(), nil, cfg)
}

func (e *env) book(t *testing.T, customerID, date string) (model.Appointment, error) {
	t.Helper()
	return e.svc.Book(context.Background(), BookingRequest{
		ProviderID: e.provider.ID,
		ServiceID:  e.haircut.ID,
		CustomerID: customerID,
		Date:       at(date),
	})
}

func (e *env) newCustomer(t *testing.T, email string) model.User {
	t.Helper()
	u, err := e.store.CreateUser(context.Background(), model.User{Name: email, Email: email})
	require.NoError(t, err)
	return u
}

func requireCode(t *testing.T, err error, code Code) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, CodeOf(err), "error: %v", err)
}
