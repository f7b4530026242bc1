package request

import (
	"strings"

	"storefront/internal/usecase/commands"
)

type CheckoutRequest struct {
	PaymentMethod string `json:"paymentMethod"`
	PaymentID     string `json:"paymentId"`
	PaymentLast4  string `json:"paymentLast4" binding:"omitempty,len=4,numeric"`
}

func (r CheckoutRequest) ToInput(idempotencyKey string) commands.CheckoutInput {
	return commands.CheckoutInput{
		PaymentMethod:  r.PaymentMethod,
		PaymentID:      r.PaymentID,
		PaymentLast4:   r.PaymentLast4,
		IdempotencyKey: idempotencyKey,
	}
}

// UpdateOrderStatusRequest accepts either field name; nextStatus wins.
type UpdateOrderStatusRequest struct {
	NextStatus string `json:"nextStatus"`
	Status     string `json:"status"`
}

func (r UpdateOrderStatusRequest) Target() string {
	if s := strings.TrimSpace(r.NextStatus); s != "" {
		return s
	}
	return strings.TrimSpace(r.Status)
}
