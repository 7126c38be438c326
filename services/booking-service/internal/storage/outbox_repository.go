package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/outbox"
)

func (q pgQueries) InsertEvent(ctx context.Context, e outbox.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := q.conn.Exec(ctx, `
		INSERT INTO outbox_events (id, aggregate_type, aggregate_id, event_type, payload, traceparent, tracestate)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.ID, e.AggregateType, e.AggregateID, e.EventType, e.Payload, e.Traceparent, e.Tracestate)
	return err
}

// PublishPending locks up to limit unpublished events with SKIP LOCKED so
// several publishers can run side by side.
func (p *Postgres) PublishPending(ctx context.Context, limit int, fn func(context.Context, []outbox.Event) error) error {
	return p.pool.InTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT id::text, aggregate_type, aggregate_id, event_type, payload, traceparent, tracestate, created_at
			FROM outbox_events
			WHERE published_at IS NULL
			ORDER BY created_at ASC
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		`, limit)
		if err != nil {
			return err
		}
		events, err := collect(rows, func(row pgx.Row) (outbox.Event, error) {
			var e outbox.Event
			err := row.Scan(&e.ID, &e.AggregateType, &e.AggregateID, &e.EventType, &e.Payload, &e.Traceparent, &e.Tracestate, &e.CreatedAt)
			return e, err
		})
		if err != nil || len(events) == 0 {
			return err
		}

		if err := fn(ctx, events); err != nil {
			return err
		}

		ids := make([]string, len(events))
		for i, e := range events {
			ids[i] = e.ID
		}
		_, err = tx.Exec(ctx, `UPDATE outbox_events SET published_at = now() WHERE id = ANY($1::uuid[])`, ids)
		return err
	})
}
