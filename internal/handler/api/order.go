package api

import (
	"io"
	"net/http"
	"strings"

	reqdto "storefront/internal/handler/dto/request"
	resdto "storefront/internal/handler/dto/response"
	"storefront/internal/handler/httperr"
	"storefront/internal/pkg/errs"
	"storefront/internal/usecase/commands"
	"storefront/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	headerReplayed       = "Idempotent-Replayed"
)

type OrderHandler struct {
	cmds commands.OrderCommands
	q    queries.OrderQueries
}

func NewOrderHandler(cmds commands.OrderCommands, q queries.OrderQueries) *OrderHandler {
	return &OrderHandler{cmds: cmds, q: q}
}

// @Summary Checkout
// @Description Turns the cart into an order. Repeating a request with the same Idempotency-Key replays the first order.
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "Idempotency key"
// @Param request body reqdto.CheckoutRequest true "Payment"
// @Success 201 {object} queries.OrderView
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /orders/checkout [post]
func (h *OrderHandler) Checkout(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req reqdto.CheckoutRequest
	// A chunked request with no payload has an unknown length and decodes to EOF.
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errs.Is(err, io.EOF) {
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
			return
		}
	}

	key := strings.TrimSpace(c.GetHeader(headerIdempotencyKey))
	result, err := h.cmds.Checkout(c.Request.Context(), userID, req.ToInput(key))
	if err != nil {
		respondError(c, err)
		return
	}
	if result.IsReplayed {
		c.Header(headerReplayed, "true")
		c.JSON(http.StatusOK, result.Order)
		return
	}
	c.JSON(http.StatusCreated, result.Order)
}

// @Summary My orders
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Success 200 {array} queries.OrderView
// @Router /orders/my [get]
func (h *OrderHandler) ListMine(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	views, err := h.q.ListMine(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// @Summary Cancel order
// @Description Cancels a pending order, restocks its items and refunds a paid card payment
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} resdto.CancelOrderResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}
	result, err := h.cmds.Cancel(c.Request.Context(), userID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromCancelResult(result))
}

func orderIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid order id", nil)
		return uuid.Nil, false
	}
	return id, true
}
