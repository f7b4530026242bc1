package commands

import (
	"context"
	"log/slog"

	"storefront/internal/infra"
	"storefront/internal/pkg/clock"
	"storefront/internal/pkg/config"
	"storefront/internal/pkg/errs"
	"storefront/internal/usecase/inventory"
	"storefront/internal/usecase/shared"

	"github.com/google/uuid"
)

type CartExpiryCommands interface {
	// SweepExpired expires every active cart past its deadline and reports
	// how many it expired. A failing cart is logged and skipped.
	SweepExpired(ctx context.Context) (int, error)
}

type cartExpiryImpl struct {
	uow    shared.UnitOfWork
	ledger *inventory.Ledger
	clock  clock.Clock
	batch  int
	logger *slog.Logger
}

func NewCartExpiryCommands(
	uow shared.UnitOfWork,
	ledger *inventory.Ledger,
	clk clock.Clock,
	cfg config.CartConfig,
	logger *slog.Logger,
) CartExpiryCommands {
	return &cartExpiryImpl{
		uow:    uow,
		ledger: ledger,
		clock:  clk,
		batch:  cfg.SweepBatch,
		logger: logger,
	}
}

// SweepExpired drains every cart that expired before the sweep started,
// listing them s.batch at a time. Carts that fail or turn out to be live
// stay in the listing, so each round widens the limit by the number already
// seen and stops once a round yields nothing new.
func (s *cartExpiryImpl) SweepExpired(ctx context.Context) (int, error) {
	now := s.clock.Now()
	seen := make(map[uuid.UUID]struct{})
	swept := 0

	for {
		limit := s.batch + len(seen) - swept
		var ids []uuid.UUID
		if err := s.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
			var err error
			ids, err = tx.Carts().ListExpired(ctx, now, limit)
			return err
		}); err != nil {
			return swept, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		fresh := 0
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			if ctx.Err() != nil {
				return swept, ctx.Err()
			}
			seen[id] = struct{}{}
			fresh++
			expired, err := s.sweepOne(ctx, id)
			if err != nil {
				s.logger.Warn("cart sweep failed",
					slog.String("cart_id", id.String()),
					slog.String("error", err.Error()))
				continue
			}
			if expired {
				swept++
			}
		}
		if fresh == 0 || len(ids) < limit {
			return swept, nil
		}
	}
}

// sweepOne re-checks the deadline under the row lock; the owner may have
// refreshed the cart since it was listed.
func (s *cartExpiryImpl) sweepOne(ctx context.Context, id uuid.UUID) (bool, error) {
	var expired bool
	err := s.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		expired = false
		ct, err := tx.Carts().FindByIDForUpdate(ctx, id)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return nil
			}
			return err
		}
		if !ct.IsExpiredAt(s.clock.Now()) {
			return nil
		}
		if err := expireCart(ctx, tx, s.ledger, ct, s.clock.Now()); err != nil {
			return err
		}
		expired = true
		return nil
	})
	return expired, err
}
