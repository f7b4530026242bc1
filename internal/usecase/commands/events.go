package commands

import (
	"context"
	"encoding/json"
	"time"

	"storefront/internal/domain/order"
	"storefront/internal/pkg/errs"
	"storefront/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type orderEventPayload struct {
	EventID       uuid.UUID       `json:"eventId"`
	Type          string          `json:"type"`
	OrderID       uuid.UUID       `json:"orderId"`
	UserID        uuid.UUID       `json:"userId"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"paymentStatus"`
	Total         decimal.Decimal `json:"total"`
	OccurredAt    time.Time       `json:"occurredAt"`
}

func newOrderEvent(o *order.Order, eventType string, now time.Time) (shared.OutboxEvent, error) {
	id := uuid.New()
	payload, err := json.Marshal(orderEventPayload{
		EventID:       id,
		Type:          eventType,
		OrderID:       o.ID(),
		UserID:        o.UserID(),
		Status:        o.Status().String(),
		PaymentStatus: o.PaymentStatus().String(),
		Total:         o.Total(),
		OccurredAt:    now,
	})
	if err != nil {
		return shared.OutboxEvent{}, errs.Wrap(err, "encode order event")
	}
	return shared.OutboxEvent{
		ID:        id,
		OrderID:   o.ID(),
		Type:      eventType,
		Payload:   payload,
		CreatedAt: now,
	}, nil
}

func appendOrderEvent(ctx context.Context, tx shared.Tx, o *order.Order, eventType string, now time.Time) error {
	e, err := newOrderEvent(o, eventType, now)
	if err != nil {
		return err
	}
	if err := tx.Outbox().Append(ctx, e); err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return nil
}
