package commands

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"storefront/internal/domain/order"
	"storefront/internal/pkg/errs"
	"storefront/internal/pkg/luhn"
)

const paymentIDPrefix = "SIM_"

// PaymentResult is what a simulated card authorization returns. Checkout
// accepts its PaymentID as proof of payment.
type PaymentResult struct {
	PaymentStatus order.PaymentStatus
	PaymentID     string
	Last4         string
}

type PaymentCommands interface {
	Simulate(cardNumber string) (*PaymentResult, error)
}

type paymentCommandsImpl struct{}

func NewPaymentCommands() PaymentCommands {
	return &paymentCommandsImpl{}
}

func (p *paymentCommandsImpl) Simulate(cardNumber string) (*PaymentResult, error) {
	digits := luhn.Digits(cardNumber)
	if digits == "" {
		return nil, ErrCardRequired
	}
	if !luhn.Valid(digits) {
		return nil, ErrPaymentDeclined
	}

	var buf [6]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return nil, errs.Wrap(err, "generate payment id")
	}
	return &PaymentResult{
		PaymentStatus: order.PaymentPaid,
		PaymentID:     paymentIDPrefix + strings.ToUpper(hex.EncodeToString(buf[:])),
		Last4:         digits[len(digits)-4:],
	}, nil
}
