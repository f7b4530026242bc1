package response

import (
	"storefront/internal/usecase/commands"
)

type CancelOrderResponse struct {
	OK            bool    `json:"ok"`
	CancelCount   int     `json:"cancelCount"`
	PaymentStatus string  `json:"paymentStatus"`
	RefundID      *string `json:"refundId"`
}

func FromCancelResult(r *commands.CancelResult) CancelOrderResponse {
	resp := CancelOrderResponse{
		OK:            true,
		CancelCount:   r.CancelCount,
		PaymentStatus: r.PaymentStatus.String(),
	}
	if r.RefundID != "" {
		id := r.RefundID
		resp.RefundID = &id
	}
	return resp
}
