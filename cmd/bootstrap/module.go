package bootstrap

import (
	"storefront/cmd/bootstrap/components"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	StoreModule,
	IdempotencyModule,
	EventsModule,
	JWTModule,
	components.UseCaseModule,
	components.HandlerModule,
	components.WorkerModule,
)
