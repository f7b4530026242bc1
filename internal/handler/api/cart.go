package api

import (
	"net/http"

	reqdto "storefront/internal/handler/dto/request"
	resdto "storefront/internal/handler/dto/response"
	"storefront/internal/handler/httperr"
	"storefront/internal/handler/middleware"
	"storefront/internal/usecase/commands"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const msgInvalidLine = "Invalid product/qty"

type CartHandler struct {
	cmds commands.CartCommands
}

func NewCartHandler(cmds commands.CartCommands) *CartHandler {
	return &CartHandler{cmds: cmds}
}

// @Summary Get cart
// @Description Returns the caller's cart. An expired cart is released and reported with status expired.
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} queries.CartView
// @Router /cart [get]
func (h *CartHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	view, err := h.cmds.View(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary Add to cart
// @Description Reserves qty units and adds them to the cart line
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.AddItemRequest true "Line"
// @Success 200 {object} resdto.OKResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /cart/add [post]
func (h *CartHandler) Add(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req reqdto.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, msgInvalidLine, nil)
		return
	}
	productID, err := req.ParsedProductID()
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, msgInvalidLine, nil)
		return
	}
	if err := h.cmds.AddItem(c.Request.Context(), userID, productID, req.Qty); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.OKResponse{OK: true})
}

// @Summary Remove from cart
// @Description Releases qty units of the line, or the whole line when qty is omitted
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.RemoveItemRequest true "Line"
// @Success 200 {object} resdto.OKResponse
// @Failure 400 {object} httperr.Response
// @Router /cart/remove [post]
func (h *CartHandler) Remove(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req reqdto.RemoveItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, msgInvalidLine, nil)
		return
	}
	productID, err := req.ParsedProductID()
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, msgInvalidLine, nil)
		return
	}
	if err := h.cmds.RemoveItem(c.Request.Context(), userID, productID, req.Qty); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.OKResponse{OK: true})
}

// @Summary Clear cart
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} resdto.OKResponse
// @Router /cart/clear [post]
func (h *CartHandler) Clear(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.cmds.Clear(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.OKResponse{OK: true})
}

// currentUser is only empty when the route was mounted without RequireAuth.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, nil, msgInternal, nil)
		return uuid.Nil, false
	}
	return userID, true
}
