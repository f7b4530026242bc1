package response

import (
	"storefront/internal/usecase/commands"
)

type PaymentResponse struct {
	OK            bool   `json:"ok"`
	PaymentStatus string `json:"paymentStatus"`
	PaymentID     string `json:"paymentId,omitempty"`
	Last4         string `json:"last4,omitempty"`
	Message       string `json:"message,omitempty"`
}

func FromPaymentResult(r *commands.PaymentResult) PaymentResponse {
	return PaymentResponse{
		OK:            true,
		PaymentStatus: r.PaymentStatus.String(),
		PaymentID:     r.PaymentID,
		Last4:         r.Last4,
	}
}

func PaymentFailed(message string) PaymentResponse {
	return PaymentResponse{OK: false, PaymentStatus: "failed", Message: message}
}
