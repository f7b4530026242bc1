package cart

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrCartEmpty       = errors.New("cart is empty")
	ErrCartExpired     = errors.New("cart expired")
)

type Status string

const (
	StatusActive     Status = "active"
	StatusExpired    Status = "expired"
	StatusCheckedOut Status = "checked_out"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusExpired, StatusCheckedOut:
		return true
	default:
		return false
	}
}

// transitions lists every edge a cart may take. Staying in the same status is
// always allowed and not listed.
var transitions = map[Status][]Status{
	StatusActive:     {StatusExpired, StatusCheckedOut},
	StatusExpired:    {StatusActive},
	StatusCheckedOut: {StatusActive, StatusExpired},
}

type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid cart transition: %s -> %s", e.From, e.To)
}

func CheckTransition(from, to Status) error {
	if from == to {
		return nil
	}
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return &TransitionError{From: from, To: to}
}
