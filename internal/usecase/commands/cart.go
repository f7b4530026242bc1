package commands

import (
	"context"
	"log/slog"
	"time"

	"storefront/internal/domain/cart"
	"storefront/internal/domain/product"
	"storefront/internal/infra"
	"storefront/internal/pkg/clock"
	"storefront/internal/pkg/config"
	"storefront/internal/pkg/errs"
	"storefront/internal/usecase/inventory"
	"storefront/internal/usecase/queries"
	"storefront/internal/usecase/shared"

	"github.com/google/uuid"
)

type CartCommands interface {
	AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) error
	RemoveItem(ctx context.Context, userID, productID uuid.UUID, qty *int) error
	Clear(ctx context.Context, userID uuid.UUID) error
	View(ctx context.Context, userID uuid.UUID) (*queries.CartView, error)
}

type cartCommandsImpl struct {
	uow    shared.UnitOfWork
	ledger *inventory.Ledger
	clock  clock.Clock
	ttl    time.Duration
	logger *slog.Logger
}

func NewCartCommands(
	uow shared.UnitOfWork,
	ledger *inventory.Ledger,
	clk clock.Clock,
	cfg config.CartConfig,
	logger *slog.Logger,
) CartCommands {
	return &cartCommandsImpl{
		uow:    uow,
		ledger: ledger,
		clock:  clk,
		ttl:    cfg.TTL,
		logger: logger,
	}
}

// AddItem reserves qty units first and then records them on the cart. The
// reservation is handed back if the cart write does not go through.
func (c *cartCommandsImpl) AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	now := c.clock.Now()

	// A stale cart gives its units back before new ones are claimed, so
	// re-adding the same product can reuse them.
	if err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		ct, err := c.lockCart(ctx, tx, userID)
		if err != nil || ct == nil {
			return err
		}
		if !ct.IsExpiredAt(now) {
			return nil
		}
		return expireCart(ctx, tx, c.ledger, ct, now)
	}); err != nil {
		return err
	}

	var reserved *product.Product
	if err := c.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
		p, err := c.ledger.Reserve(ctx, tx.Products(), productID, qty)
		reserved = p
		return err
	}); err != nil {
		return err
	}

	return shared.Compensate(ctx,
		func(ctx context.Context) error {
			return c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
				ct, err := tx.Carts().LockOrCreate(ctx, userID, now, c.ttl)
				if err != nil {
					return errs.Mark(err, errs.ErrDatabaseOperationFailed)
				}
				if ct.IsExpiredAt(now) {
					if err := expireCart(ctx, tx, c.ledger, ct, now); err != nil {
						return err
					}
				}
				if err := ct.AddItem(productID, qty, reserved.Price(), now, c.ttl); err != nil {
					return err
				}
				if err := tx.Carts().Save(ctx, ct); err != nil {
					return errs.Mark(err, errs.ErrDatabaseOperationFailed)
				}
				return nil
			})
		},
		func(ctx context.Context) error {
			return c.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
				return c.ledger.Release(ctx, tx.Products(), productID, qty)
			})
		},
	)
}

func (c *cartCommandsImpl) RemoveItem(ctx context.Context, userID, productID uuid.UUID, qty *int) error {
	if qty != nil && *qty < 1 {
		return ErrInvalidQuantity
	}
	now := c.clock.Now()

	return c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		ct, err := c.lockCart(ctx, tx, userID)
		if err != nil || ct == nil {
			return err
		}
		if ct.IsExpiredAt(now) {
			return expireCart(ctx, tx, c.ledger, ct, now)
		}

		removed, err := ct.RemoveItem(productID, qty, now, c.ttl)
		if err != nil || removed == 0 {
			return err
		}
		if err := tx.Carts().Save(ctx, ct); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		return c.ledger.Release(ctx, tx.Products(), productID, removed)
	})
}

func (c *cartCommandsImpl) Clear(ctx context.Context, userID uuid.UUID) error {
	now := c.clock.Now()

	return c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		ct, err := c.lockCart(ctx, tx, userID)
		if err != nil || ct == nil {
			return err
		}
		released := ct.Clear(now, c.ttl)
		if err := tx.Carts().Save(ctx, ct); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		return c.ledger.ReleaseItems(ctx, tx.Products(), released)
	})
}

// View expires a stale cart in place and drops lines whose product was
// deleted before joining the rest with live catalogue data.
func (c *cartCommandsImpl) View(ctx context.Context, userID uuid.UUID) (*queries.CartView, error) {
	now := c.clock.Now()
	view := queries.EmptyCartView()

	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		view = queries.EmptyCartView()

		ct, err := c.lockCart(ctx, tx, userID)
		if err != nil || ct == nil {
			return err
		}
		if ct.IsExpiredAt(now) {
			view.Status = string(cart.StatusExpired)
			return expireCart(ctx, tx, c.ledger, ct, now)
		}

		items := ct.Items()
		ids := make([]uuid.UUID, 0, len(items))
		for _, it := range items {
			ids = append(ids, it.ProductID)
		}
		products, err := tx.Products().FindByIDs(ctx, ids)
		if err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		byID := make(map[uuid.UUID]*product.Product, len(products))
		for _, p := range products {
			byID[p.ID()] = p
		}

		dropped := false
		for _, it := range items {
			if _, ok := byID[it.ProductID]; ok {
				continue
			}
			qty, _ := ct.DropProduct(it.ProductID, now)
			if err := c.ledger.Release(ctx, tx.Products(), it.ProductID, qty); err != nil {
				return err
			}
			dropped = true
		}
		if dropped {
			if err := tx.Carts().Save(ctx, ct); err != nil {
				return errs.Mark(err, errs.ErrDatabaseOperationFailed)
			}
		}

		view = queries.NewCartView(ct, byID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// lockCart returns nil without error when the user has no cart yet.
func (c *cartCommandsImpl) lockCart(ctx context.Context, tx shared.Tx, userID uuid.UUID) (*cart.Cart, error) {
	ct, err := tx.Carts().FindByUserForUpdate(ctx, userID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, nil
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return ct, nil
}

// expireCart persists the expiry and gives every line's units back.
func expireCart(ctx context.Context, tx shared.Tx, ledger *inventory.Ledger, ct *cart.Cart, now time.Time) error {
	released := ct.Expire(now)
	if err := tx.Carts().Save(ctx, ct); err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return ledger.ReleaseItems(ctx, tx.Products(), released)
}
