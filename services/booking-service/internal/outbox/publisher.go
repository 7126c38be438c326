package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/barberbook/libs/otel"
	"github.com/segmentio/kafka-go"
)

// Source hands out unpublished events. fn runs while the batch is locked;
// the events are marked published only when fn returns nil.
type Source interface {
	PublishPending(ctx context.Context, limit int, fn func(ctx context.Context, events []Event) error) error
}

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Publisher struct {
	src       Source
	writer    MessageWriter
	logger    *slog.Logger
	pollEvery time.Duration
	batchSize int
}

type PublisherConfig struct {
	PollEvery time.Duration
	BatchSize int
}

func NewPublisher(src Source, writer MessageWriter, logger *slog.Logger, cfg PublisherConfig) *Publisher {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Publisher{
		src:       src,
		writer:    writer,
		logger:    logger,
		pollEvery: cfg.PollEvery,
		batchSize: cfg.BatchSize,
	}
}

func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := p.PublishOnce(ctx); err != nil {
				p.logger.Error("outbox publish failed", "err", err)
			} else if n > 0 {
				p.logger.Debug("outbox published", "count", n)
			}
		}
	}
}

// PublishOnce ships one batch and returns how many events were written.
func (p *Publisher) PublishOnce(ctx context.Context) (int, error) {
	var published int
	err := p.src.PublishPending(ctx, p.batchSize, func(ctx context.Context, events []Event) error {
		msgs := make([]kafka.Message, 0, len(events))
		for _, e := range events {
			msgs = append(msgs, Message(ctx, e))
		}
		if len(msgs) == 0 {
			return nil
		}
		if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
			return err
		}
		published = len(msgs)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return published, nil
}

// Message converts an event into its Kafka form, keyed by aggregate so all
// events of one appointment land on the same partition.
func Message(ctx context.Context, e Event) kafka.Message {
	msgCtx := otelx.ContextWithTraceContext(ctx, e.Traceparent, e.Tracestate)
	headers := []kafka.Header{
		{Key: kafkax.HeaderEventID, Value: []byte(e.ID)},
		{Key: kafkax.HeaderEventType, Value: []byte(e.EventType)},
	}
	return kafka.Message{
		Topic:   e.EventType,
		Key:     []byte(e.AggregateID),
		Value:   e.Payload,
		Headers: kafkax.InjectTraceHeaders(msgCtx, headers),
	}
}
