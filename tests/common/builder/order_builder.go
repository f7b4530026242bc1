//go:build unit || e2e

package builder

import (
	"time"

	"storefront/internal/domain/order"
	"storefront/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderBuilder struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Items         []queries.OrderItemView
	PaymentMethod order.PaymentMethod
	PaymentStatus order.PaymentStatus
	Status        order.Status
}

func NewOrderBuilder() *OrderBuilder {
	return &OrderBuilder{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Items: []queries.OrderItemView{{
			ProductID:     uuid.New(),
			NameSnapshot:  "Ceramic mug",
			PriceSnapshot: decimal.RequireFromString("12.50"),
			Qty:           2,
		}},
		PaymentMethod: order.PaymentCardSim,
		PaymentStatus: order.PaymentPaid,
		Status:        order.StatusPending,
	}
}

func (b *OrderBuilder) With(mutate func(*OrderBuilder)) *OrderBuilder {
	mutate(b)
	return b
}

func (b *OrderBuilder) BuildView() *queries.OrderView {
	now := time.Now().UTC().Truncate(time.Second)
	total := decimal.Zero
	for _, it := range b.Items {
		total = total.Add(it.PriceSnapshot.Mul(decimal.NewFromInt(int64(it.Qty))))
	}
	return &queries.OrderView{
		ID:            b.ID,
		UserID:        b.UserID,
		Items:         b.Items,
		Total:         total.Round(2),
		PaymentMethod: b.PaymentMethod.String(),
		PaymentID:     "SIM_A1B2C3D4E5F6",
		PaymentLast4:  "4242",
		PaymentStatus: b.PaymentStatus.String(),
		Status:        b.Status.String(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
