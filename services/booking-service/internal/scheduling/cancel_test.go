package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/completion"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCancelByCustomerAndProvider(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	first, err := e.book(t, e.customer.ID, "2026-03-02T12:00:00Z")
	require.NoError(t, err)
	second, err := e.book(t, e.customer.ID, "2026-03-02T13:00:00Z")
	require.NoError(t, err)

	got, err := e.svc.Cancel(ctx, first.ID, e.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCanceled, got.Status)

	got, err = e.svc.Cancel(ctx, second.ID, e.provider.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCanceled, got.Status)

	var types []string
	for _, ev := range e.store.PendingEvents() {
		types = append(types, ev.EventType)
	}
	assert.Equal(t, []string{
		outbox.EventAppointmentBooked,
		outbox.EventAppointmentBooked,
		outbox.EventAppointmentCancelled,
		outbox.EventAppointmentCancelled,
	}, types)
}

func TestCancelIsIdempotent(t *testing.T) {
	e := newEnv(t)
	appt, err := e.book(t, e.customer.ID, "2026-03-02T12:00:00Z")
	require.NoError(t, err)

	first, err := e.svc.Cancel(context.Background(), appt.ID, e.customer.ID)
	require.NoError(t, err)

	// Even once inside the lead time a canceled appointment stays canceled.
	e.now = at("2026-03-02T11:30:00Z")
	again, err := e.svc.Cancel(context.Background(), appt.ID, e.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Len(t, e.store.PendingEvents(), 2)
}

func TestCancelRejections(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	appt, err := e.book(t, e.customer.ID, "2026-03-02T12:00:00Z")
	require.NoError(t, err)

	_, err = e.svc.Cancel(ctx, "missing", e.customer.ID)
	requireCode(t, err, CodeNotFound)

	stranger := e.newCustomer(t, "x@example.com")
	_, err = e.svc.Cancel(ctx, appt.ID, stranger.ID)
	requireCode(t, err, CodeForbidden)

	_, err = e.svc.Cancel(ctx, appt.ID, "")
	requireCode(t, err, CodeInvalidInput)

	// One hour before with the default two hour lead time.
	e.now = at("2026-03-02T11:00:00Z")
	_, err = e.svc.Cancel(ctx, appt.ID, e.customer.ID)
	requireCode(t, err, CodeTooLateToCancel)
	var bizErr *Error
	require.ErrorAs(t, err, &bizErr)
	assert.Equal(t, model.DefaultCancelBookingHours, bizErr.Params["cancelBookingHours"])

	stored, err := e.store.GetAppointment(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusScheduled, stored.Status)
}

func TestCancelLeadTimeFollowsProviderConfig(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	appt, err := e.book(t, e.customer.ID, "2026-03-02T12:00:00Z")
	require.NoError(t, err)
	_, err = e.store.UpdateProviderConfig(ctx, e.provider.ID, model.ProviderConfig{MaxBookingDays: 7, CancelBookingHours: 0})
	require.NoError(t, err)

	e.now = at("2026-03-02T11:59:00Z")
	_, err = e.svc.Cancel(ctx, appt.ID, e.customer.ID)
	require.NoError(t, err)
}

func TestCancelCompletedAppointment(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	appt, err := e.book(t, e.customer.ID, "2026-03-02T12:00:00Z")
	require.NoError(t, err)

	e.now = at("2026-03-02T13:00:00Z")
	sweeper := completion.NewSweeper(e.store, testLogger(), nil, completion.Config{Now: func() time.Time { return e.now }})
	require.Equal(t, 1, sweeper.Sweep(ctx, completion.Scope{}))

	_, err = e.svc.Cancel(ctx, appt.ID, e.customer.ID)
	requireCode(t, err, CodeAlreadyCompleted)
}

func TestCancelEndedAppointmentBeforeSweep(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	appt, err := e.book(t, e.customer.ID, "2026-03-02T12:00:00Z")
	require.NoError(t, err)
	_, err = e.store.UpdateProviderConfig(ctx, e.provider.ID, model.ProviderConfig{MaxBookingDays: 7, CancelBookingHours: 0})
	require.NoError(t, err)

	e.now = at("2026-03-02T13:00:00Z")
	_, err = e.svc.Cancel(ctx, appt.ID, e.customer.ID)
	requireCode(t, err, CodeAlreadyCompleted)

	stored, err := e.store.GetAppointment(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusScheduled, stored.Status)
	assert.Len(t, e.store.PendingEvents(), 1)
}

// A transaction that loses a serialization race surfaces as an
// infrastructure error, not a business code.
func TestCancelSurfacesStoreFailures(t *testing.T) {
	e := newEnv(t)
	appt, err := e.book(t, e.customer.ID, "2026-03-02T12:00:00Z")
	require.NoError(t, err)

	svc := e.newService(&flakyStore{Memory: e.store, failures: 1}, Config{})
	_, err = svc.Cancel(context.Background(), appt.ID, e.customer.ID)
	require.Error(t, err)
	assert.Empty(t, CodeOf(err))
	assert.ErrorIs(t, err, storage.ErrSerialization)
}
