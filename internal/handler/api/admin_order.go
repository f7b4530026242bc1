package api

import (
	"net/http"
	"strings"

	"storefront/internal/domain/order"
	reqdto "storefront/internal/handler/dto/request"
	"storefront/internal/handler/httperr"
	"storefront/internal/usecase/commands"
	"storefront/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type AdminOrderHandler struct {
	cmds commands.OrderCommands
	q    queries.OrderQueries
}

func NewAdminOrderHandler(cmds commands.OrderCommands, q queries.OrderQueries) *AdminOrderHandler {
	return &AdminOrderHandler{cmds: cmds, q: q}
}

// @Summary List all orders
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Success 200 {array} queries.OrderView
// @Failure 400 {object} httperr.Response
// @Router /admin/orders [get]
func (h *AdminOrderHandler) List(c *gin.Context) {
	var filter *order.Status
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		s := order.Status(raw)
		if !s.IsValid() {
			httperr.AbortWithError(c, http.StatusBadRequest, nil, "Invalid order status", nil)
			return
		}
		filter = &s
	}
	views, err := h.q.AdminList(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// @Summary Advance order status
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Param request body reqdto.UpdateOrderStatusRequest true "Target status"
// @Success 200 {object} queries.OrderView
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /admin/orders/{id}/status [patch]
func (h *AdminOrderHandler) UpdateStatus(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}
	var req reqdto.UpdateOrderStatusRequest
	_ = c.ShouldBindJSON(&req)

	view, err := h.cmds.AdvanceStatus(c.Request.Context(), orderID, req.Target())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
