package order

import (
	"errors"
	"fmt"
)

var (
	ErrNoItems              = errors.New("order needs at least one item")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrPaymentRequired      = errors.New("payment required")
	ErrNotPending           = errors.New("only pending orders can be cancelled")
	ErrCancelledImmutable   = errors.New("cancelled orders cannot be updated")
	ErrDeliveredImmutable   = errors.New("delivered orders cannot be updated")
	ErrInvalidStatus        = errors.New("invalid order status")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusDelivered
}

// transitions is the fulfilment graph. pending -> cancelled is only reachable
// through Cancel.
var transitions = map[Status][]Status{
	StatusPending: {StatusShipped, StatusCancelled},
	StatusShipped: {StatusDelivered},
}

type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("Invalid status transition: %s -> %s", e.From, e.To)
}

func CheckTransition(from, to Status) error {
	switch from {
	case StatusCancelled:
		return ErrCancelledImmutable
	case StatusDelivered:
		return ErrDeliveredImmutable
	}
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return &TransitionError{From: from, To: to}
}

type PaymentMethod string

const (
	PaymentCardSim PaymentMethod = "card_sim"
	PaymentCOD     PaymentMethod = "cod"
)

// ParsePaymentMethod defaults an empty method to the card simulation.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(s); m {
	case "":
		return PaymentCardSim, nil
	case PaymentCardSim, PaymentCOD:
		return m, nil
	default:
		return "", ErrInvalidPaymentMethod
	}
}

func (m PaymentMethod) String() string {
	return string(m)
}

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) String() string {
	return string(s)
}
