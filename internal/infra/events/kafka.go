package events

import (
	"context"
	"time"

	"storefront/internal/pkg/config"
	"storefront/internal/pkg/errs"
	"storefront/internal/usecase/shared"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events keyed by order id so every event of one order
// lands on the same partition in order.
type KafkaPublisher struct {
	w messageWriter
}

func NewKafkaPublisher(cfg config.KafkaConfig) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.OrderTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, events []shared.OutboxEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, len(events))
	for i, e := range events {
		msgs[i] = kafka.Message{
			Key:   []byte(e.OrderID.String()),
			Value: e.Payload,
			Time:  e.CreatedAt,
			Headers: []kafka.Header{
				{Key: "event-id", Value: []byte(e.ID.String())},
				{Key: "event-type", Value: []byte(e.Type)},
			},
		}
	}
	if err := p.w.WriteMessages(ctx, msgs...); err != nil {
		return errs.Wrapf(err, "write %d order events", len(msgs))
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
