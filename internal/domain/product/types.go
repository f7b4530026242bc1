package product

import "errors"

var (
	ErrEmptyName          = errors.New("product name is required")
	ErrNegativePrice      = errors.New("price cannot be negative")
	ErrNegativeStock      = errors.New("stock cannot be negative")
	ErrStockBelowReserved = errors.New("stock cannot be lower than reserved units")
)
