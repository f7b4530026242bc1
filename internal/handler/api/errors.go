package api

import (
	"net/http"

	"storefront/internal/domain/order"
	"storefront/internal/domain/product"
	"storefront/internal/handler/httperr"
	"storefront/internal/pkg/errs"
	"storefront/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

const msgInternal = "Internal server error"

type errorMapping struct {
	target  error
	status  int
	message string
}

// First match wins, so more specific sentinels go before the ones they wrap.
var errorMappings = []errorMapping{
	{commands.ErrInvalidQuantity, http.StatusBadRequest, "Invalid product/qty"},
	{commands.ErrInsufficientStock, http.StatusBadRequest, "Not enough stock available"},
	{commands.ErrProductNotFound, http.StatusNotFound, "Product not found"},
	{commands.ErrProductNotInCatalog, http.StatusNotFound, "Product not found in cart"},
	{commands.ErrConcurrentUpdate, http.StatusConflict, "Stock update failed (concurrent update). Try again."},

	{commands.ErrCartEmpty, http.StatusBadRequest, "Cart is empty"},
	{commands.ErrCartExpired, http.StatusBadRequest, "Cart expired"},
	{commands.ErrPaymentRequired, http.StatusBadRequest, "Payment required. Please complete payment simulation first."},
	{commands.ErrInvalidPaymentMethod, http.StatusBadRequest, "Invalid payment method"},
	{commands.ErrCancelQuotaExceeded, http.StatusForbidden, "Order blocked for this month due to too many cancellations"},
	{commands.ErrCardRequired, http.StatusBadRequest, "cardNumber is required"},

	{commands.ErrOrderNotFound, http.StatusNotFound, "Order not found"},
	{commands.ErrStatusRequired, http.StatusBadRequest, "nextStatus is required"},
	{order.ErrNotPending, http.StatusBadRequest, "You can cancel only pending orders"},
	{order.ErrCancelledImmutable, http.StatusBadRequest, "Cancelled orders cannot be updated"},
	{order.ErrDeliveredImmutable, http.StatusBadRequest, "Delivered orders cannot be updated"},
	{order.ErrInvalidStatus, http.StatusBadRequest, "Invalid order status"},

	{product.ErrEmptyName, http.StatusBadRequest, "Product name is required"},
	{product.ErrNegativePrice, http.StatusBadRequest, "Price cannot be negative"},
	{product.ErrNegativeStock, http.StatusBadRequest, "Stock cannot be negative"},
	{product.ErrStockBelowReserved, http.StatusBadRequest, "Stock cannot be lower than reserved units"},

	{errs.ErrIdempotencyInProgress, http.StatusConflict, "Checkout request is currently being processed"},
}

// respondError maps a usecase error onto the public response. Unknown errors
// become a bare 500 while the cause is still attached to the gin context.
func respondError(c *gin.Context, err error) {
	var lineErr *commands.LineError
	if errs.As(err, &lineErr) {
		httperr.AbortWithError(c, http.StatusBadRequest, err, lineMessage(lineErr), nil)
		return
	}
	var transErr *order.TransitionError
	if errs.As(err, &transErr) {
		httperr.AbortWithError(c, http.StatusBadRequest, err, transErr.Error(), nil)
		return
	}
	for _, m := range errorMappings {
		if errs.Is(err, m.target) {
			httperr.AbortWithError(c, m.status, err, m.message, nil)
			return
		}
	}
	httperr.AbortWithError(c, http.StatusInternalServerError, err, msgInternal, nil)
}

func lineMessage(e *commands.LineError) string {
	switch {
	case errs.Is(e.Reason, commands.ErrReservationMismatch):
		return "Reserved stock mismatch for " + e.ProductName
	case errs.Is(e.Reason, commands.ErrNotEnoughStock):
		return "Not enough stock for " + e.ProductName
	default:
		return e.Error()
	}
}
