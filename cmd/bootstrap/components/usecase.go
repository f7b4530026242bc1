package components

import (
	"log/slog"

	"storefront/internal/pkg/clock"
	"storefront/internal/pkg/config"
	"storefront/internal/usecase"
	"storefront/internal/usecase/commands"
	"storefront/internal/usecase/inventory"
	"storefront/internal/usecase/queries"
	"storefront/internal/usecase/shared"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseValidatorsModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	inventory.NewLedger,
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewCartCommands,
		commands.NewCartExpiryCommands,
		commands.NewOrderCommands,
		commands.NewProductCommands,
		commands.NewPaymentCommands,
		func(uow shared.UnitOfWork, pub shared.EventPublisher, clk clock.Clock, cfg config.KafkaConfig, logger *slog.Logger) commands.EventRelayCommands {
			return commands.NewEventRelayCommands(uow, pub, clk, cfg.RelayBatch, logger)
		},
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewOrderQueries,
		queries.NewProductQueries,
	),
)

var usecaseValidatorsModule = fx.Module("usecase/validators",
	fx.Provide(
		usecase.NewTokenValidator,
	),
)
