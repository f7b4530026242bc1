package request

import (
	"github.com/google/uuid"
)

type AddItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Qty       int    `json:"qty" binding:"required,min=1"`
}

func (r AddItemRequest) ParsedProductID() (uuid.UUID, error) {
	return uuid.Parse(r.ProductID)
}

// RemoveItemRequest removes the whole line when Qty is omitted.
type RemoveItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Qty       *int   `json:"qty" binding:"omitempty,min=1"`
}

func (r RemoveItemRequest) ParsedProductID() (uuid.UUID, error) {
	return uuid.Parse(r.ProductID)
}
