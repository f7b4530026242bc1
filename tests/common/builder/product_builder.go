//go:build unit || e2e

package builder

import (
	"time"

	"storefront/internal/handler/dto/request"
	"storefront/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductBuilder struct {
	ID       uuid.UUID
	Name     string
	Price    decimal.Decimal
	Stock    int
	Reserved int
}

func NewProductBuilder() *ProductBuilder {
	return &ProductBuilder{
		ID:    uuid.New(),
		Name:  "Ceramic mug",
		Price: decimal.RequireFromString("12.50"),
		Stock: 20,
	}
}

func (b *ProductBuilder) With(mutate func(*ProductBuilder)) *ProductBuilder {
	mutate(b)
	return b
}

func (b *ProductBuilder) BuildView() *queries.ProductView {
	now := time.Now().UTC().Truncate(time.Second)
	return &queries.ProductView{
		ID:        b.ID,
		Name:      b.Name,
		Price:     b.Price,
		Stock:     b.Stock,
		Reserved:  b.Reserved,
		Available: b.Stock - b.Reserved,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (b *ProductBuilder) BuildCreateDTO() request.CreateProductRequest {
	price := b.Price
	stock := b.Stock
	return request.CreateProductRequest{Name: b.Name, Price: &price, Stock: &stock}
}
