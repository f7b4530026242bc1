package events

import (
	"context"
	"log/slog"

	"storefront/internal/usecase/shared"
)

// LogPublisher is used when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, events []shared.OutboxEvent) error {
	for _, e := range events {
		p.logger.Info("order event",
			slog.String("event_id", e.ID.String()),
			slog.String("order_id", e.OrderID.String()),
			slog.String("type", e.Type))
	}
	return nil
}

func (p *LogPublisher) Close() error { return nil }
