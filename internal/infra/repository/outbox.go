package repository

import (
	"context"
	"log/slog"
	"time"

	"storefront/internal/infra"
	"storefront/internal/infra/db"
	"storefront/internal/pkg/pgconv"
	"storefront/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type OutboxRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewOutboxRepository(dbtx db.DBTX, logger *slog.Logger) *OutboxRepository {
	return &OutboxRepository{db: dbtx, logger: logger}
}

func (r *OutboxRepository) Append(ctx context.Context, e shared.OutboxEvent) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO order_events (id, order_id, event_type, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.OrderID, e.Type, e.Payload, e.CreatedAt)
	if err != nil {
		return infra.WrapPgErr(r.logger, "failed to append order event", err)
	}
	return nil
}

func (r *OutboxRepository) ClaimPending(ctx context.Context, limit int) ([]shared.OutboxEvent, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, order_id, event_type, payload, created_at, published_at
		 FROM order_events WHERE published_at IS NULL
		 ORDER BY created_at, id
		 LIMIT $1`, limit)
	if err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to claim order events", err)
	}
	defer rows.Close()

	var out []shared.OutboxEvent
	for rows.Next() {
		var (
			e         shared.OutboxEvent
			published pgtype.Timestamptz
		)
		if err := rows.Scan(&e.ID, &e.OrderID, &e.Type, &e.Payload, &e.CreatedAt, &published); err != nil {
			return nil, infra.WrapPgErr(r.logger, "failed to scan order event", err)
		}
		e.PublishedAt = pgconv.TimePtrFromPgtype(published)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to iterate order events", err)
	}
	return out, nil
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `UPDATE order_events SET published_at = $2 WHERE id = ANY($1)`, ids, at)
	if err != nil {
		return infra.WrapPgErr(r.logger, "failed to mark order events published", err)
	}
	return nil
}
