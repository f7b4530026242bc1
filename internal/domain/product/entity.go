package product

import (
	"strings"
	"time"

	"storefront/internal/pkg/patch"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is an inventory unit. reserved counts units claimed by active carts
// and never exceeds stock.
type Product struct {
	id        uuid.UUID
	name      string
	price     decimal.Decimal
	stock     int
	reserved  int
	createdAt time.Time
	updatedAt time.Time
}

func NewProduct(name string, price decimal.Decimal, stock int, now time.Time) (*Product, error) {
	p := &Product{
		id:        uuid.New(),
		createdAt: now,
		updatedAt: now,
	}
	if err := p.apply(name, price, stock); err != nil {
		return nil, err
	}
	return p, nil
}

func ReconstructProduct(
	id uuid.UUID,
	name string,
	price decimal.Decimal,
	stock, reserved int,
	createdAt, updatedAt time.Time,
) *Product {
	return &Product{
		id:        id,
		name:      name,
		price:     price,
		stock:     stock,
		reserved:  reserved,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// Update applies the non-nil fields. Lowering stock below the units already
// reserved by carts is rejected.
func (p *Product) Update(name *string, price *decimal.Decimal, stock *int, now time.Time) error {
	err := p.apply(
		patch.Coalesce(name, p.name),
		patch.Coalesce(price, p.price),
		patch.Coalesce(stock, p.stock),
	)
	if err != nil {
		return err
	}
	p.updatedAt = now
	return nil
}

func (p *Product) apply(name string, price decimal.Decimal, stock int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if price.IsNegative() {
		return ErrNegativePrice
	}
	if stock < 0 {
		return ErrNegativeStock
	}
	if stock < p.reserved {
		return ErrStockBelowReserved
	}
	p.name, p.price, p.stock = name, price, stock
	return nil
}

// Available is the quantity offerable to new cart adds.
func (p *Product) Available() int {
	return p.stock - p.reserved
}

func (p *Product) ID() uuid.UUID          { return p.id }
func (p *Product) Name() string           { return p.name }
func (p *Product) Price() decimal.Decimal { return p.price }
func (p *Product) Stock() int             { return p.stock }
func (p *Product) Reserved() int          { return p.reserved }
func (p *Product) CreatedAt() time.Time   { return p.createdAt }
func (p *Product) UpdatedAt() time.Time   { return p.updatedAt }
