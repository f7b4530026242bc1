package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderCancelled     = "order.cancelled"
	EventOrderStatusChanged = "order.status_changed"
)

// OutboxEvent is written in the same transaction as the order change it
// describes and published afterwards by the relay.
type OutboxEvent struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	Type        string
	Payload     []byte
	CreatedAt   time.Time
	PublishedAt *time.Time
}

type EventPublisher interface {
	Publish(ctx context.Context, events []OutboxEvent) error
}

// IdempotencyClaim is the outcome of claiming a checkout key. Exactly one of
// the fields is meaningful: Acquired for the first caller, ResultID once the
// first caller finished, neither while it is still running.
type IdempotencyClaim struct {
	Acquired bool
	ResultID *uuid.UUID
}

type IdempotencyStore interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (IdempotencyClaim, error)
	Complete(ctx context.Context, key string, resultID uuid.UUID, ttl time.Duration) error
	Abandon(ctx context.Context, key string) error
}
