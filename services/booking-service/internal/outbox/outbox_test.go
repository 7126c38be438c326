package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/kafkax"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	pending   []Event
	published []Event
}

func (s *fakeSource) PublishPending(ctx context.Context, limit int, fn func(context.Context, []Event) error) error {
	batch := s.pending
	if len(batch) > limit {
		batch = batch[:limit]
	}
	if err := fn(ctx, batch); err != nil {
		return err
	}
	s.published = append(s.published, batch...)
	s.pending = s.pending[len(batch):]
	return nil
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func testLogger() *slog.Logger { return slog.New(slog.NewJSONHandler(io.Discard, nil)) }

func TestAppointmentEventPayload(t *testing.T) {
	date := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	at := date.Add(-time.Hour)
	e, err := AppointmentEvent(context.Background(), EventAppointmentBooked, model.Appointment{
		ID: "a1", ProviderID: "p1", CustomerID: "c1", ServiceID: "s1", Date: date, Status: model.StatusScheduled,
	}, at)
	require.NoError(t, err)
	assert.Equal(t, AggregateAppointment, e.AggregateType)
	assert.Equal(t, "a1", e.AggregateID)

	var p AppointmentPayload
	require.NoError(t, json.Unmarshal(e.Payload, &p))
	assert.Equal(t, "SCHEDULED", p.Status)
	assert.True(t, p.Date.Equal(date))
	assert.True(t, p.OccurredAt.Equal(at))
}

func TestPublishOnce(t *testing.T) {
	src := &fakeSource{pending: []Event{
		{ID: "e1", AggregateID: "a1", EventType: EventAppointmentBooked, Payload: []byte(`{}`)},
		{ID: "e2", AggregateID: "a1", EventType: EventAppointmentCancelled, Payload: []byte(`{}`)},
		{ID: "e3", AggregateID: "a2", EventType: EventAppointmentBooked, Payload: []byte(`{}`)},
	}}
	w := &fakeWriter{}
	p := NewPublisher(src, w, testLogger(), PublisherConfig{BatchSize: 2})

	n, err := p.PublishOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, w.msgs, 2)
	assert.Equal(t, EventAppointmentBooked, w.msgs[0].Topic)
	assert.Equal(t, "a1", string(w.msgs[0].Key))
	assert.Equal(t, "e1", kafkax.HeaderValue(w.msgs[0].Headers, kafkax.HeaderEventID))
	assert.Equal(t, EventAppointmentCancelled, kafkax.HeaderValue(w.msgs[1].Headers, kafkax.HeaderEventType))

	n, err = p.PublishOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, src.pending)
}

func TestPublishOnceKeepsEventsOnWriteFailure(t *testing.T) {
	src := &fakeSource{pending: []Event{{ID: "e1", AggregateID: "a1", EventType: EventAppointmentBooked}}}
	p := NewPublisher(src, &fakeWriter{err: errors.New("broker down")}, testLogger(), PublisherConfig{})

	_, err := p.PublishOnce(context.Background())
	require.Error(t, err)
	assert.Len(t, src.pending, 1)
	assert.Empty(t, src.published)
}
