package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
)

// The service join resolves the stored duration; it is NULL once the service
// has been deleted.
const appointmentSelect = `
	SELECT a.id::text, a.date, a.status, a.customer_id::text, a.provider_id::text,
		COALESCE(a.service_id::text, ''), s.duration_minutes, COALESCE(a.notes, ''),
		a.created_at, a.updated_at
	FROM appointments a
	LEFT JOIN services s ON s.id = a.service_id`

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var a model.Appointment
	var status string
	err := row.Scan(
		&a.ID,
		&a.Date,
		&status,
		&a.CustomerID,
		&a.ProviderID,
		&a.ServiceID,
		&a.ServiceDuration,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	a.Status = model.Status(status)
	return a, mapErr(err)
}

func (q pgQueries) GetAppointment(ctx context.Context, id string) (model.Appointment, error) {
	if !validID(id) {
		return model.Appointment{}, ErrNotFound
	}
	return scanAppointment(q.conn.QueryRow(ctx, appointmentSelect+` WHERE a.id = $1`, id))
}

func (q pgQueries) GetAppointmentForUpdate(ctx context.Context, id string) (model.Appointment, error) {
	if !validID(id) {
		return model.Appointment{}, ErrNotFound
	}
	return scanAppointment(q.conn.QueryRow(ctx, appointmentSelect+` WHERE a.id = $1 FOR UPDATE OF a`, id))
}

func (q pgQueries) ListProviderAppointments(ctx context.Context, providerID string, from, to time.Time) ([]model.Appointment, error) {
	if !validID(providerID) {
		return nil, nil
	}
	rows, err := q.conn.Query(ctx, appointmentSelect+`
		WHERE a.provider_id = $1
			AND a.date >= $2
			AND a.date < $3
			AND a.status <> 'CANCELED'
		ORDER BY a.date ASC
	`, providerID, from, to)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanAppointment)
}

func (q pgQueries) ListCustomerAppointmentsBetween(ctx context.Context, customerID string, from, to time.Time) ([]model.Appointment, error) {
	if !validID(customerID) {
		return nil, nil
	}
	rows, err := q.conn.Query(ctx, appointmentSelect+`
		WHERE a.customer_id = $1
			AND a.date >= $2
			AND a.date < $3
			AND a.status <> 'CANCELED'
		ORDER BY a.date ASC
	`, customerID, from, to)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanAppointment)
}

func (q pgQueries) ListCustomerAppointments(ctx context.Context, customerID string) ([]model.Appointment, error) {
	if !validID(customerID) {
		return nil, nil
	}
	rows, err := q.conn.Query(ctx, appointmentSelect+`
		WHERE a.customer_id = $1
		ORDER BY a.date ASC
	`, customerID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanAppointment)
}

func (q pgQueries) ListDueAppointments(ctx context.Context, f DueFilter) ([]model.Appointment, error) {
	if f.Limit <= 0 {
		f.Limit = 500
	}
	var customerID, providerID any
	if f.CustomerID != "" {
		if !validID(f.CustomerID) {
			return nil, nil
		}
		customerID = f.CustomerID
	}
	if f.ProviderID != "" {
		if !validID(f.ProviderID) {
			return nil, nil
		}
		providerID = f.ProviderID
	}
	rows, err := q.conn.Query(ctx, appointmentSelect+`
		WHERE a.status NOT IN ('CANCELED', 'DONE')
			AND a.date <= $1
			AND ($2::uuid IS NULL OR a.customer_id = $2)
			AND ($3::uuid IS NULL OR a.provider_id = $3)
		ORDER BY a.date ASC
		LIMIT $4
	`, f.Before, customerID, providerID, f.Limit)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanAppointment)
}

func (q pgQueries) CreateAppointment(ctx context.Context, a model.Appointment) (model.Appointment, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = model.StatusScheduled
	}
	var serviceID any
	if a.ServiceID != "" {
		serviceID = a.ServiceID
	}
	_, err := q.conn.Exec(ctx, `
		INSERT INTO appointments (id, date, status, customer_id, provider_id, service_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
	`, a.ID, a.Date, string(a.Status), a.CustomerID, a.ProviderID, serviceID, a.Notes)
	if err != nil {
		return model.Appointment{}, mapErr(err)
	}
	return q.GetAppointment(ctx, a.ID)
}

func (q pgQueries) TransitionAppointment(ctx context.Context, id string, from, to model.Status) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	tag, err := q.conn.Exec(ctx, `
		UPDATE appointments
		SET status = $3,
			updated_at = now()
		WHERE id = $1 AND status = $2
	`, id, string(from), string(to))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
