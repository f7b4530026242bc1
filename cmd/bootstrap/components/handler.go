package components

import (
	"storefront/internal/handler"
	"storefront/internal/handler/api"
	"storefront/internal/handler/middleware"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewProductHandler,
		api.NewCartHandler,
		api.NewPaymentHandler,
		api.NewOrderHandler,
		api.NewAdminOrderHandler,
		middleware.NewAuthMiddleware,
		func(p *api.ProductHandler, c *api.CartHandler, pay *api.PaymentHandler, o *api.OrderHandler, a *api.AdminOrderHandler) handler.Handlers {
			return handler.Handlers{Products: p, Cart: c, Payments: pay, Orders: o, AdminOrders: a}
		},
	),
	fx.Invoke(handler.NewRouter),
)
