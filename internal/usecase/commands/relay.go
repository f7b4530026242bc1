package commands

import (
	"context"
	"log/slog"

	"storefront/internal/pkg/clock"
	"storefront/internal/pkg/errs"
	"storefront/internal/usecase/shared"

	"github.com/google/uuid"
)

var ErrPublishFailed = errs.New("failed to publish order events")

type EventRelayCommands interface {
	// RelayPending publishes one batch of unpublished order events and marks
	// them published. It returns how many were sent.
	RelayPending(ctx context.Context) (int, error)
}

type eventRelayImpl struct {
	uow       shared.UnitOfWork
	publisher shared.EventPublisher
	clock     clock.Clock
	batch     int
	logger    *slog.Logger
}

func NewEventRelayCommands(
	uow shared.UnitOfWork,
	publisher shared.EventPublisher,
	clk clock.Clock,
	batch int,
	logger *slog.Logger,
) EventRelayCommands {
	return &eventRelayImpl{uow: uow, publisher: publisher, clock: clk, batch: batch, logger: logger}
}

// RelayPending reads the batch, publishes it with no transaction or store
// lock held, then marks it published. Delivery is at least once: a batch
// whose mark fails, or that a concurrent relay also read, is sent again.
// Consumers dedupe on the event id.
func (r *eventRelayImpl) RelayPending(ctx context.Context) (int, error) {
	var events []shared.OutboxEvent
	if err := r.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		events, err = tx.Outbox().ClaimPending(ctx, r.batch)
		return err
	}); err != nil {
		return 0, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if len(events) == 0 {
		return 0, nil
	}

	if err := r.publisher.Publish(ctx, events); err != nil {
		return 0, errs.Mark(err, ErrPublishFailed)
	}

	ids := make([]uuid.UUID, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	if err := r.uow.WithDB(context.WithoutCancel(ctx), func(ctx context.Context, tx shared.Tx) error {
		return tx.Outbox().MarkPublished(ctx, ids, r.clock.Now())
	}); err != nil {
		return 0, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	r.logger.Debug("order events relayed", slog.Int("count", len(events)))
	return len(events), nil
}
