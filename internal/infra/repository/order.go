package repository

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"storefront/internal/domain/order"
	"storefront/internal/infra"
	"storefront/internal/infra/db"
	"storefront/internal/pkg/pgconv"
	"storefront/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, user_id, items, total, payment_method, payment_id, payment_last4,
	payment_status, refund_id, status, created_at, updated_at,
	cancelled_at, refunded_at, shipped_at, delivered_at`

type OrderRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewOrderRepository(dbtx db.DBTX, logger *slog.Logger) *OrderRepository {
	return &OrderRepository{db: dbtx, logger: logger}
}

func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	s := o.Snapshot()
	items, err := json.Marshal(nonNilItems(s.Items))
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to encode order items", err)
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO orders (`+orderColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		s.ID, s.UserID, items, pgconv.NumericFromDecimal(s.Total),
		string(s.Payment.Method), pgconv.StringToPgtype(s.Payment.ID), pgconv.StringToPgtype(s.Payment.Last4),
		string(s.PaymentStatus), pgconv.StringToPgtype(s.RefundID), string(s.Status),
		s.CreatedAt, s.UpdatedAt,
		pgconv.TimePtrToPgtype(s.CancelledAt), pgconv.TimePtrToPgtype(s.RefundedAt),
		pgconv.TimePtrToPgtype(s.ShippedAt), pgconv.TimePtrToPgtype(s.DeliveredAt))
	if err != nil {
		return infra.WrapPgErr(r.logger, "failed to create order", err)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to find order", err)
	}
	return o, nil
}

func (r *OrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to lock order", err)
	}
	return o, nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*order.Order, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to list user orders", err)
	}
	return r.collect(rows)
}

func (r *OrderRepository) List(ctx context.Context, filter shared.OrderFilter) ([]*order.Order, error) {
	var (
		where strings.Builder
		args  []any
	)
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		where.WriteString(` WHERE status = $1`)
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+orderColumns+` FROM orders`+where.String()+` ORDER BY created_at DESC, id`, args...)
	if err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to list orders", err)
	}
	return r.collect(rows)
}

// Save persists the mutable part of an order: statuses, refund and stamps.
func (r *OrderRepository) Save(ctx context.Context, o *order.Order) error {
	s := o.Snapshot()
	tag, err := r.db.Exec(ctx,
		`UPDATE orders SET payment_status = $2, refund_id = $3, status = $4, updated_at = $5,
		 cancelled_at = $6, refunded_at = $7, shipped_at = $8, delivered_at = $9
		 WHERE id = $1`,
		s.ID, string(s.PaymentStatus), pgconv.StringToPgtype(s.RefundID), string(s.Status), s.UpdatedAt,
		pgconv.TimePtrToPgtype(s.CancelledAt), pgconv.TimePtrToPgtype(s.RefundedAt),
		pgconv.TimePtrToPgtype(s.ShippedAt), pgconv.TimePtrToPgtype(s.DeliveredAt))
	if err != nil {
		return infra.WrapPgErr(r.logger, "failed to save order", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr(r.logger, infra.KindNotFound, "order not found", nil)
	}
	return nil
}

func (r *OrderRepository) collect(rows pgx.Rows) ([]*order.Order, error) {
	defer rows.Close()
	var out []*order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, infra.WrapPgErr(r.logger, "failed to scan order", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to iterate orders", err)
	}
	return out, nil
}

func scanOrder(row pgx.Row) (*order.Order, error) {
	var (
		s                                       order.Snapshot
		raw                                     []byte
		total                                   pgtype.Numeric
		method, paymentStatus, status           string
		paymentID, last4, refundID              pgtype.Text
		cancelled, refunded, shipped, delivered pgtype.Timestamptz
	)
	err := row.Scan(&s.ID, &s.UserID, &raw, &total, &method, &paymentID, &last4,
		&paymentStatus, &refundID, &status, &s.CreatedAt, &s.UpdatedAt,
		&cancelled, &refunded, &shipped, &delivered)
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &s.Items); err != nil {
			return nil, err
		}
	}
	if s.Total, err = pgconv.DecimalFromNumeric(total); err != nil {
		return nil, err
	}
	s.Payment = order.Payment{
		Method: order.PaymentMethod(method),
		ID:     pgconv.StringFromPgtype(paymentID),
		Last4:  pgconv.StringFromPgtype(last4),
	}
	s.PaymentStatus = order.PaymentStatus(paymentStatus)
	s.RefundID = pgconv.StringFromPgtype(refundID)
	s.Status = order.Status(status)
	s.CancelledAt = pgconv.TimePtrFromPgtype(cancelled)
	s.RefundedAt = pgconv.TimePtrFromPgtype(refunded)
	s.ShippedAt = pgconv.TimePtrFromPgtype(shipped)
	s.DeliveredAt = pgconv.TimePtrFromPgtype(delivered)
	return order.ReconstructOrder(s), nil
}
