package outbox

import (
	"context"
	"encoding/json"
	"time"

	otelx "github.com/md-rashed-zaman/barberbook/libs/otel"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
)

// Event types double as Kafka topic names.
const (
	EventAppointmentBooked    = "appointment.booked.v1"
	EventAppointmentCancelled = "appointment.cancelled.v1"
	EventAppointmentCompleted = "appointment.completed.v1"

	AggregateAppointment = "appointment"
)

// Event is a row of the outbox table. It is written in the same transaction
// as the state change it describes.
type Event struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	Traceparent   string
	Tracestate    string
	CreatedAt     time.Time
}

type AppointmentPayload struct {
	AppointmentID string    `json:"appointment_id"`
	ProviderID    string    `json:"provider_id"`
	CustomerID    string    `json:"customer_id"`
	ServiceID     string    `json:"service_id,omitempty"`
	Date          time.Time `json:"date"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// AppointmentEvent builds the event for a lifecycle change of a, carrying
// the trace context of ctx.
func AppointmentEvent(ctx context.Context, eventType string, a model.Appointment, at time.Time) (Event, error) {
	payload, err := json.Marshal(AppointmentPayload{
		AppointmentID: a.ID,
		ProviderID:    a.ProviderID,
		CustomerID:    a.CustomerID,
		ServiceID:     a.ServiceID,
		Date:          a.Date.UTC(),
		Status:        string(a.Status),
		OccurredAt:    at.UTC(),
	})
	if err != nil {
		return Event{}, err
	}
	tp, ts := otelx.TraceContextStrings(ctx)
	return Event{
		AggregateType: AggregateAppointment,
		AggregateID:   a.ID,
		EventType:     eventType,
		Payload:       payload,
		Traceparent:   tp,
		Tracestate:    ts,
	}, nil
}
