package queries

import (
	"time"

	"storefront/internal/domain/cart"
	"storefront/internal/domain/order"
	"storefront/internal/domain/product"
	"storefront/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound = errs.New("product not found")
	ErrOrderNotFound   = errs.New("order not found")
)

type ProductView struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Reserved  int             `json:"reserved"`
	Available int             `json:"available"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func NewProductView(p *product.Product) *ProductView {
	return &ProductView{
		ID:        p.ID(),
		Name:      p.Name(),
		Price:     p.Price(),
		Stock:     p.Stock(),
		Reserved:  p.Reserved(),
		Available: p.Available(),
		CreatedAt: p.CreatedAt(),
		UpdatedAt: p.UpdatedAt(),
	}
}

// CartProductView is the live catalogue state shown next to a cart line.
type CartProductView struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Reserved int             `json:"reserved"`
}

type CartItemView struct {
	Product       CartProductView `json:"product"`
	Qty           int             `json:"qty"`
	PriceSnapshot decimal.Decimal `json:"priceSnapshot"`
}

type CartView struct {
	Items     []CartItemView `json:"items"`
	ExpiresAt *time.Time     `json:"expiresAt"`
	Status    string         `json:"status,omitempty"`
}

func EmptyCartView() *CartView {
	return &CartView{Items: []CartItemView{}}
}

// NewCartView joins cart lines with the products they reference. Lines whose
// product is absent from byID are left out.
func NewCartView(c *cart.Cart, byID map[uuid.UUID]*product.Product) *CartView {
	v := &CartView{Items: []CartItemView{}, Status: string(c.Status())}
	expiresAt := c.ExpiresAt()
	v.ExpiresAt = &expiresAt
	for _, it := range c.Items() {
		p, ok := byID[it.ProductID]
		if !ok {
			continue
		}
		v.Items = append(v.Items, CartItemView{
			Product: CartProductView{
				ID:       p.ID(),
				Name:     p.Name(),
				Price:    p.Price(),
				Stock:    p.Stock(),
				Reserved: p.Reserved(),
			},
			Qty:           it.Qty,
			PriceSnapshot: it.PriceSnapshot,
		})
	}
	return v
}

type OrderItemView struct {
	ProductID     uuid.UUID       `json:"productId"`
	NameSnapshot  string          `json:"nameSnapshot"`
	PriceSnapshot decimal.Decimal `json:"priceSnapshot"`
	Qty           int             `json:"qty"`
}

type OrderView struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"userId"`
	Items         []OrderItemView `json:"items"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"paymentMethod"`
	PaymentID     string          `json:"paymentId,omitempty"`
	PaymentLast4  string          `json:"paymentLast4,omitempty"`
	PaymentStatus string          `json:"paymentStatus"`
	RefundID      string          `json:"refundId,omitempty"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	CancelledAt   *time.Time      `json:"cancelledAt,omitempty"`
	RefundedAt    *time.Time      `json:"refundedAt,omitempty"`
	ShippedAt     *time.Time      `json:"shippedAt,omitempty"`
	DeliveredAt   *time.Time      `json:"deliveredAt,omitempty"`
}

func NewOrderView(o *order.Order) (*OrderView, error) {
	s := o.Snapshot()
	items := make([]OrderItemView, 0, len(s.Items))
	if err := copier.Copy(&items, s.Items); err != nil {
		return nil, errs.Wrap(err, "copy order items")
	}
	return &OrderView{
		ID:            s.ID,
		UserID:        s.UserID,
		Items:         items,
		Total:         s.Total,
		PaymentMethod: s.Payment.Method.String(),
		PaymentID:     s.Payment.ID,
		PaymentLast4:  s.Payment.Last4,
		PaymentStatus: s.PaymentStatus.String(),
		RefundID:      s.RefundID,
		Status:        s.Status.String(),
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
		CancelledAt:   s.CancelledAt,
		RefundedAt:    s.RefundedAt,
		ShippedAt:     s.ShippedAt,
		DeliveredAt:   s.DeliveredAt,
	}, nil
}

func newOrderViews(orders []*order.Order) ([]*OrderView, error) {
	out := make([]*OrderView, 0, len(orders))
	for _, o := range orders {
		v, err := NewOrderView(o)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
