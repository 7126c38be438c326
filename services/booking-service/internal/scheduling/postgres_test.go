package scheduling

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/barberbook/libs/db"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const concurrentBookers = 8

// openPostgres connects to TEST_DATABASE_URL. Rows are not truncated so the
// storage tests can share the database; every user here gets a fresh email.
func openPostgres(t *testing.T) *storage.Postgres {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.Open(ctx, url, db.PoolConfig{MaxConns: concurrentBookers})
	require.NoError(t, err)
	pg := storage.NewPostgres(pool)
	t.Cleanup(pg.Close)
	require.NoError(t, pg.Migrate(ctx))
	return pg
}

func TestPostgresConcurrentBookingsAdmitOne(t *testing.T) {
	pg := openPostgres(t)
	ctx := context.Background()
	run := uuid.NewString()[:8]

	provider, err := pg.CreateUser(ctx, model.User{Name: "Zé", Email: "ze-" + run + "@example.com", IsProvider: true})
	require.NoError(t, err)
	haircut, err := pg.CreateService(ctx, model.Service{ProviderID: provider.ID, Name: "Corte", Duration: 30, Price: 45})
	require.NoError(t, err)
	_, err = pg.CreateAvailability(ctx, model.Availability{ProviderID: provider.ID, Weekday: 1, StartTime: "09:00", EndTime: "11:00"})
	require.NoError(t, err)

	customers := make([]model.User, concurrentBookers)
	for i := range customers {
		customers[i], err = pg.CreateUser(ctx, model.User{Name: "Cliente", Email: uuid.NewString() + "@example.com"})
		require.NoError(t, err)
	}

	svc := NewService(pg, nil, testLogger(), nil, Config{Now: func() time.Time { return sunday }})
	slot := at("2026-03-02T12:00:00Z")

	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, concurrentBookers)
	)
	for i, c := range customers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = svc.Book(ctx, BookingRequest{
				ProviderID: provider.ID,
				ServiceID:  haircut.ID,
				CustomerID: c.ID,
				Date:       slot,
			})
		}()
	}
	close(start)
	wg.Wait()

	var booked int
	for _, err := range errs {
		if err == nil {
			booked++
			continue
		}
		code := CodeOf(err)
		assert.Contains(t, []Code{CodeProviderConflict, CodeTryAgain}, code, "unexpected error: %v", err)
	}
	assert.Equal(t, 1, booked)

	appts, err := pg.ListProviderAppointments(ctx, provider.ID, slot.Add(-time.Hour), slot.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, appts, 1)
}
