package bootstrap

import (
	"context"
	"log/slog"

	"storefront/internal/infra/events"
	"storefront/internal/infra/memstore"
	"storefront/internal/infra/redisx"
	"storefront/internal/pkg/config"
	"storefront/internal/usecase/shared"

	"go.uber.org/fx"
)

var IdempotencyModule = fx.Module("idempotency",
	fx.Provide(
		NewIdempotencyStore,
	),
)

var EventsModule = fx.Module("events",
	fx.Provide(
		NewEventPublisher,
	),
)

func NewIdempotencyStore(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) (shared.IdempotencyStore, error) {
	if !cfg.Redis.Enabled() {
		logger.Info("REDIS_ADDR not set, idempotency keys kept in memory")
		return memstore.NewIdempotencyStore(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	rdb, err := redisx.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return rdb.Close()
		},
	})
	return redisx.NewIdempotencyStore(rdb), nil
}

func NewEventPublisher(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) shared.EventPublisher {
	if !cfg.Kafka.Enabled() {
		logger.Info("KAFKA_BROKERS not set, order events are written to the log")
		return events.NewLogPublisher(logger)
	}

	pub := events.NewKafkaPublisher(cfg.Kafka)
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return pub.Close()
		},
	})
	return pub
}
