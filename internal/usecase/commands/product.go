package commands

import (
	"context"
	"log/slog"

	"storefront/internal/domain/product"
	"storefront/internal/infra"
	"storefront/internal/pkg/clock"
	"storefront/internal/pkg/errs"
	"storefront/internal/pkg/patch"
	"storefront/internal/usecase/inventory"
	"storefront/internal/usecase/queries"
	"storefront/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateProductInput struct {
	Name  string
	Price decimal.Decimal
	Stock int
}

// UpdateProductInput leaves nil fields untouched.
type UpdateProductInput struct {
	Name  *string
	Price *decimal.Decimal
	Stock *int
}

type ProductCommands interface {
	Create(ctx context.Context, in CreateProductInput) (*queries.ProductView, error)
	Update(ctx context.Context, id uuid.UUID, in UpdateProductInput) (*queries.ProductView, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type productCommandsImpl struct {
	uow    shared.UnitOfWork
	ledger *inventory.Ledger
	clock  clock.Clock
	logger *slog.Logger
}

func NewProductCommands(uow shared.UnitOfWork, ledger *inventory.Ledger, clk clock.Clock, logger *slog.Logger) ProductCommands {
	return &productCommandsImpl{uow: uow, ledger: ledger, clock: clk, logger: logger}
}

func (c *productCommandsImpl) Create(ctx context.Context, in CreateProductInput) (*queries.ProductView, error) {
	p, err := product.NewProduct(in.Name, in.Price, in.Stock, c.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := c.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Products().Create(ctx, p)
	}); err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return queries.NewProductView(p), nil
}

func (c *productCommandsImpl) Update(ctx context.Context, id uuid.UUID, in UpdateProductInput) (*queries.ProductView, error) {
	var view *queries.ProductView
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		p, err := tx.Products().FindByIDForUpdate(ctx, id)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrProductNotFound
			}
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		priceChanged := in.Price != nil && !in.Price.Equal(p.Price())
		if !patch.Changed(in.Name, p.Name()) && !priceChanged && !patch.Changed(in.Stock, p.Stock()) {
			view = queries.NewProductView(p)
			return nil
		}

		if err := p.Update(in.Name, in.Price, in.Stock, c.clock.Now()); err != nil {
			return err
		}
		if err := tx.Products().Update(ctx, p); err != nil {
			if infra.IsKind(err, infra.KindConflict) {
				return product.ErrStockBelowReserved
			}
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		view = queries.NewProductView(p)
		return nil
	})
	return view, err
}

// Delete strips the product from every cart and hands their units back
// before the row goes away.
func (c *productCommandsImpl) Delete(ctx context.Context, id uuid.UUID) error {
	now := c.clock.Now()

	return c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		carts, err := tx.Carts().ListContainingProduct(ctx, id)
		if err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if _, err := tx.Products().FindByIDForUpdate(ctx, id); err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrProductNotFound
			}
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		held := 0
		for _, ct := range carts {
			qty, ok := ct.DropProduct(id, now)
			if !ok {
				continue
			}
			held += qty
			if err := tx.Carts().Save(ctx, ct); err != nil {
				return errs.Mark(err, errs.ErrDatabaseOperationFailed)
			}
		}
		if err := c.ledger.Release(ctx, tx.Products(), id, held); err != nil {
			return err
		}

		if err := tx.Products().Delete(ctx, id); err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrProductNotFound
			}
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		c.logger.Info("product deleted",
			slog.String("product_id", id.String()),
			slog.Int("carts", len(carts)),
			slog.Int("released", held))
		return nil
	})
}
