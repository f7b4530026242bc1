package bootstrap

import (
	"context"
	"log/slog"

	"storefront/internal/infra/db"
	"storefront/internal/infra/memstore"
	"storefront/internal/infra/uow"
	"storefront/internal/pkg/config"
	"storefront/internal/usecase/shared"

	"go.uber.org/fx"
)

var StoreModule = fx.Module("store",
	fx.Provide(
		NewUnitOfWork,
	),
)

// NewUnitOfWork opens the PostgreSQL pool, or builds the in-memory store
// when STORE_DRIVER=memory.
func NewUnitOfWork(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) (shared.UnitOfWork, error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		logger.Warn("in-memory store selected, data is lost on restart")
		return memstore.New(logger), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	pool, cleanup, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			cleanup()
			return nil
		},
	})
	return uow.NewPostgresUoW(pool, logger), nil
}
