package commands

import (
	"fmt"

	"storefront/internal/domain/cart"
	"storefront/internal/domain/order"
	"storefront/internal/pkg/errs"
	"storefront/internal/usecase/inventory"
	"storefront/internal/usecase/queries"
)

var (
	ErrInvalidQuantity   = inventory.ErrInvalidQuantity
	ErrInsufficientStock = inventory.ErrInsufficientStock
	ErrConcurrentUpdate  = inventory.ErrConcurrentUpdate
	ErrProductNotFound   = inventory.ErrProductNotFound
	ErrOrderNotFound     = queries.ErrOrderNotFound

	ErrCartEmpty            = cart.ErrCartEmpty
	ErrCartExpired          = cart.ErrCartExpired
	ErrPaymentRequired      = order.ErrPaymentRequired
	ErrInvalidPaymentMethod = order.ErrInvalidPaymentMethod

	ErrProductNotInCatalog = errs.New("product in cart no longer exists")
	ErrReservationMismatch = errs.New("reserved stock mismatch")
	ErrNotEnoughStock      = errs.New("not enough stock")
	ErrCancelQuotaExceeded = errs.New("monthly cancellation limit reached")
	ErrStatusRequired      = errs.New("next status is required")
	ErrCardRequired        = errs.New("card number is required")
	ErrPaymentDeclined     = errs.New("invalid card number")
)

// LineError ties a checkout rejection to the cart line that caused it.
type LineError struct {
	Reason      error
	ProductName string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s for %s", e.Reason.Error(), e.ProductName)
}

func (e *LineError) Unwrap() error {
	return e.Reason
}
