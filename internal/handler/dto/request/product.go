package request

import (
	"storefront/internal/usecase/commands"

	"github.com/shopspring/decimal"
)

type CreateProductRequest struct {
	Name  string           `json:"name" binding:"required"`
	Price *decimal.Decimal `json:"price" binding:"required"`
	Stock *int             `json:"stock" binding:"required"`
}

func (r CreateProductRequest) ToInput() commands.CreateProductInput {
	return commands.CreateProductInput{
		Name:  r.Name,
		Price: *r.Price,
		Stock: *r.Stock,
	}
}

type UpdateProductRequest struct {
	Name  *string          `json:"name"`
	Price *decimal.Decimal `json:"price"`
	Stock *int             `json:"stock"`
}

func (r UpdateProductRequest) ToInput() commands.UpdateProductInput {
	return commands.UpdateProductInput{
		Name:  r.Name,
		Price: r.Price,
		Stock: r.Stock,
	}
}
