package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
)

const userColumns = `id::text, name, email, is_provider, max_booking_days, cancel_booking_hours, created_at`

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.IsProvider, &u.MaxBookingDays, &u.CancelBookingHours, &u.CreatedAt)
	return u, mapErr(err)
}

func (q pgQueries) GetUser(ctx context.Context, id string) (model.User, error) {
	if !validID(id) {
		return model.User{}, ErrNotFound
	}
	return scanUser(q.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (q pgQueries) ListProviders(ctx context.Context) ([]model.User, error) {
	rows, err := q.conn.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE is_provider
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanUser)
}

func (q pgQueries) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.MaxBookingDays == 0 {
		u.MaxBookingDays = model.DefaultMaxBookingDays
	}
	if u.CancelBookingHours == 0 {
		u.CancelBookingHours = model.DefaultCancelBookingHours
	}
	return scanUser(q.conn.QueryRow(ctx, `
		INSERT INTO users (id, name, email, is_provider, max_booking_days, cancel_booking_hours)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+userColumns,
		u.ID, u.Name, u.Email, u.IsProvider, u.MaxBookingDays, u.CancelBookingHours))
}

func (q pgQueries) UpdateProviderConfig(ctx context.Context, providerID string, cfg model.ProviderConfig) (model.User, error) {
	if !validID(providerID) {
		return model.User{}, ErrNotFound
	}
	return scanUser(q.conn.QueryRow(ctx, `
		UPDATE users
		SET max_booking_days = $2,
			cancel_booking_hours = $3
		WHERE id = $1 AND is_provider
		RETURNING `+userColumns,
		providerID, cfg.MaxBookingDays, cfg.CancelBookingHours))
}

const serviceColumns = `id::text, provider_id::text, name, duration_minutes, price::float8, created_at`

func scanService(row pgx.Row) (model.Service, error) {
	var s model.Service
	err := row.Scan(&s.ID, &s.ProviderID, &s.Name, &s.Duration, &s.Price, &s.CreatedAt)
	return s, mapErr(err)
}

func (q pgQueries) GetService(ctx context.Context, id string) (model.Service, error) {
	if !validID(id) {
		return model.Service{}, ErrNotFound
	}
	return scanService(q.conn.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id))
}

func (q pgQueries) ListServices(ctx context.Context, providerID string) ([]model.Service, error) {
	if !validID(providerID) {
		return nil, nil
	}
	rows, err := q.conn.Query(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		WHERE provider_id = $1
		ORDER BY name ASC
	`, providerID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanService)
}

func (q pgQueries) CreateService(ctx context.Context, s model.Service) (model.Service, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return scanService(q.conn.QueryRow(ctx, `
		INSERT INTO services (id, provider_id, name, duration_minutes, price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+serviceColumns,
		s.ID, s.ProviderID, s.Name, s.Duration, s.Price))
}

func (q pgQueries) DeleteService(ctx context.Context, providerID, id string) error {
	if !validID(id) || !validID(providerID) {
		return ErrNotFound
	}
	return affectedOne(q.conn.Exec(ctx, `DELETE FROM services WHERE id = $1 AND provider_id = $2`, id, providerID))
}

const availabilityColumns = `id::text, provider_id::text, weekday, start_time, end_time, created_at`

func scanAvailability(row pgx.Row) (model.Availability, error) {
	var a model.Availability
	err := row.Scan(&a.ID, &a.ProviderID, &a.Weekday, &a.StartTime, &a.EndTime, &a.CreatedAt)
	return a, mapErr(err)
}

func (q pgQueries) ListAvailability(ctx context.Context, providerID string) ([]model.Availability, error) {
	if !validID(providerID) {
		return nil, nil
	}
	rows, err := q.conn.Query(ctx, `
		SELECT `+availabilityColumns+`
		FROM provider_availability
		WHERE provider_id = $1
		ORDER BY weekday ASC, start_time ASC
	`, providerID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanAvailability)
}

func (q pgQueries) ListAvailabilityByWeekday(ctx context.Context, providerID string, weekday int) ([]model.Availability, error) {
	if !validID(providerID) {
		return nil, nil
	}
	rows, err := q.conn.Query(ctx, `
		SELECT `+availabilityColumns+`
		FROM provider_availability
		WHERE provider_id = $1 AND weekday = $2
		ORDER BY start_time ASC
	`, providerID, weekday)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanAvailability)
}

func (q pgQueries) CreateAvailability(ctx context.Context, a model.Availability) (model.Availability, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return scanAvailability(q.conn.QueryRow(ctx, `
		INSERT INTO provider_availability (id, provider_id, weekday, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+availabilityColumns,
		a.ID, a.ProviderID, a.Weekday, a.StartTime, a.EndTime))
}

func (q pgQueries) DeleteAvailability(ctx context.Context, providerID, id string) error {
	if !validID(id) || !validID(providerID) {
		return ErrNotFound
	}
	return affectedOne(q.conn.Exec(ctx, `DELETE FROM provider_availability WHERE id = $1 AND provider_id = $2`, id, providerID))
}

const blockColumns = `id::text, provider_id::text, start_at, end_at, COALESCE(reason, ''), created_at`

func scanBlock(row pgx.Row) (model.Block, error) {
	var b model.Block
	err := row.Scan(&b.ID, &b.ProviderID, &b.StartAt, &b.EndAt, &b.Reason, &b.CreatedAt)
	return b, mapErr(err)
}

func (q pgQueries) ListBlocks(ctx context.Context, providerID string) ([]model.Block, error) {
	if !validID(providerID) {
		return nil, nil
	}
	rows, err := q.conn.Query(ctx, `
		SELECT `+blockColumns+`
		FROM provider_blocks
		WHERE provider_id = $1
		ORDER BY start_at ASC
	`, providerID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanBlock)
}

func (q pgQueries) ListBlocksBetween(ctx context.Context, providerID string, from, to time.Time) ([]model.Block, error) {
	if !validID(providerID) {
		return nil, nil
	}
	rows, err := q.conn.Query(ctx, `
		SELECT `+blockColumns+`
		FROM provider_blocks
		WHERE provider_id = $1
			AND start_at < $3
			AND end_at > $2
		ORDER BY start_at ASC
	`, providerID, from, to)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanBlock)
}

func (q pgQueries) CreateBlock(ctx context.Context, b model.Block) (model.Block, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return scanBlock(q.conn.QueryRow(ctx, `
		INSERT INTO provider_blocks (id, provider_id, start_at, end_at, reason)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING `+blockColumns,
		b.ID, b.ProviderID, b.StartAt, b.EndAt, b.Reason))
}

func (q pgQueries) DeleteBlock(ctx context.Context, providerID, id string) error {
	if !validID(id) || !validID(providerID) {
		return ErrNotFound
	}
	return affectedOne(q.conn.Exec(ctx, `DELETE FROM provider_blocks WHERE id = $1 AND provider_id = $2`, id, providerID))
}

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
