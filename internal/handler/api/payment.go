package api

import (
	"net/http"

	reqdto "storefront/internal/handler/dto/request"
	resdto "storefront/internal/handler/dto/response"
	"storefront/internal/pkg/errs"
	"storefront/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	cmds commands.PaymentCommands
}

func NewPaymentHandler(cmds commands.PaymentCommands) *PaymentHandler {
	return &PaymentHandler{cmds: cmds}
}

// @Summary Simulate card payment
// @Description Luhn-checks the card number and returns a payment id usable at checkout
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.SimulatePaymentRequest true "Card"
// @Success 200 {object} resdto.PaymentResponse
// @Failure 400 {object} resdto.PaymentResponse
// @Router /payments/simulate [post]
func (h *PaymentHandler) Simulate(c *gin.Context) {
	var req reqdto.SimulatePaymentRequest
	// an unreadable body is treated like an empty card number
	_ = c.ShouldBindJSON(&req)

	result, err := h.cmds.Simulate(req.CardNumber)
	if err != nil {
		if errs.Is(err, commands.ErrPaymentDeclined) {
			_ = c.Error(err)
			c.JSON(http.StatusBadRequest, resdto.PaymentFailed("Payment failed: invalid card number (Luhn)"))
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromPaymentResult(result))
}
