package request

type SimulatePaymentRequest struct {
	CardNumber string `json:"cardNumber"`
}
