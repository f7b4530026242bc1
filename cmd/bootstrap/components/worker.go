package components

import (
	"context"

	"storefront/internal/worker"

	"go.uber.org/fx"
)

var WorkerModule = fx.Module("worker",
	fx.Provide(
		worker.NewCartSweeper,
		worker.NewOutboxRelay,
	),
	fx.Invoke(registerWorkers),
)

func registerWorkers(lc fx.Lifecycle, sweeper *worker.CartSweeper, relay *worker.OutboxRelay) {
	for _, p := range []*worker.Periodic{sweeper.Periodic, relay.Periodic} {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				p.Start(ctx)
				return nil
			},
			OnStop: p.Stop,
		})
	}
}
