package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"storefront/internal/domain/user"
	"storefront/internal/handler/api"
	"storefront/internal/handler/middleware"
	"storefront/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

type Handlers struct {
	Products    *api.ProductHandler
	Cart        *api.CartHandler
	Payments    *api.PaymentHandler
	Orders      *api.OrderHandler
	AdminOrders *api.AdminOrderHandler
}

func NewRouter(engine *gin.Engine, cfg config.Config, logger *middleware.Logger, h Handlers, auth *middleware.AuthMiddleware) {
	setupMiddleware(engine, cfg, logger)
	setupRoutes(engine, h, auth)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config, logger *middleware.Logger) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery(logger.GetSlogLogger()))
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS, logger.GetSlogLogger()))
	engine.Use(logger.LoggingMiddleware())
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(engine *gin.Engine, h Handlers, auth *middleware.AuthMiddleware) {
	engine.GET("/health", healthCheck)

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	adminOnly := []gin.HandlerFunc{auth.RequireAuth(), auth.RequireRole(user.RoleAdmin)}

	apiGroup := engine.Group("/api")
	{
		addRoutes(apiGroup.Group("/products"), []route{
			{Method: http.MethodGet, Path: "", Handler: h.Products.List},
			{Method: http.MethodGet, Path: "/:id", Handler: h.Products.Get},
			{Method: http.MethodPost, Path: "", Handler: h.Products.Create, Mw: adminOnly},
			{Method: http.MethodPut, Path: "/:id", Handler: h.Products.Update, Mw: adminOnly},
			{Method: http.MethodDelete, Path: "/:id", Handler: h.Products.Delete, Mw: adminOnly},
		})

		customer := apiGroup.Group("")
		customer.Use(auth.RequireAuth(), auth.RequireRole(user.RoleCustomer))
		{
			addRoutes(customer.Group("/cart"), []route{
				{Method: http.MethodGet, Path: "", Handler: h.Cart.Get},
				{Method: http.MethodPost, Path: "/add", Handler: h.Cart.Add},
				{Method: http.MethodPost, Path: "/remove", Handler: h.Cart.Remove},
				{Method: http.MethodPost, Path: "/clear", Handler: h.Cart.Clear},
			})
			addRoutes(customer.Group("/payments"), []route{
				{Method: http.MethodPost, Path: "/simulate", Handler: h.Payments.Simulate},
			})
			addRoutes(customer.Group("/orders"), []route{
				{Method: http.MethodPost, Path: "/checkout", Handler: h.Orders.Checkout},
				{Method: http.MethodGet, Path: "/my", Handler: h.Orders.ListMine},
				{Method: http.MethodPost, Path: "/:id/cancel", Handler: h.Orders.Cancel},
			})
		}

		admin := apiGroup.Group("/admin")
		admin.Use(adminOnly...)
		{
			addRoutes(admin.Group("/orders"), []route{
				{Method: http.MethodGet, Path: "", Handler: h.AdminOrders.List},
				{Method: http.MethodPatch, Path: "/:id/status", Handler: h.AdminOrders.UpdateStatus},
			})
		}
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(append([]gin.HandlerFunc(nil), r.Mw...), r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
