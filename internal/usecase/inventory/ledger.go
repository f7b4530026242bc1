package inventory

import (
	"context"
	"log/slog"

	"storefront/internal/domain/cart"
	"storefront/internal/domain/product"
	"storefront/internal/infra"
	"storefront/internal/pkg/errs"
	"storefront/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrInvalidQuantity   = errs.New("quantity must be at least 1")
	ErrInsufficientStock = errs.New("not enough stock available")
	ErrConcurrentUpdate  = errs.New("stock update failed (concurrent update)")
	ErrProductNotFound   = errs.New("product not found")
)

// Ledger moves units between stock and reserved. Every mutation is one
// conditional update at the store, so callers on different requests never
// read-modify-write a product.
type Ledger struct {
	logger *slog.Logger
}

func NewLedger(logger *slog.Logger) *Ledger {
	return &Ledger{logger: logger}
}

// Reserve claims qty units and returns the product as it is after the claim.
func (l *Ledger) Reserve(ctx context.Context, products shared.ProductRepository, id uuid.UUID, qty int) (*product.Product, error) {
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}

	p, ok, err := products.Reserve(ctx, id, qty)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if ok {
		return p, nil
	}

	if _, err := products.FindByID(ctx, id); err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return nil, ErrInsufficientStock
}

// Release gives qty reserved units back. A tripped guard means reserved had
// already drifted below what a cart claimed; it is logged and skipped.
func (l *Ledger) Release(ctx context.Context, products shared.ProductRepository, id uuid.UUID, qty int) error {
	if qty < 1 {
		return nil
	}
	ok, err := products.Release(ctx, id, qty)
	if err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if !ok {
		l.logger.Warn("reservation release skipped",
			slog.String("product_id", id.String()),
			slog.Int("qty", qty))
	}
	return nil
}

func (l *Ledger) ReleaseItems(ctx context.Context, products shared.ProductRepository, items []cart.Item) error {
	for _, it := range items {
		if err := l.Release(ctx, products, it.ProductID, it.Qty); err != nil {
			return err
		}
	}
	return nil
}

// CommitSale converts qty reserved units into a sale. A tripped guard aborts
// the caller's transaction.
func (l *Ledger) CommitSale(ctx context.Context, products shared.ProductRepository, id uuid.UUID, qty int) error {
	ok, err := products.CommitSale(ctx, id, qty)
	if err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if !ok {
		return ErrConcurrentUpdate
	}
	return nil
}

// Restock returns sold units to stock. Products deleted since the sale are
// skipped.
func (l *Ledger) Restock(ctx context.Context, products shared.ProductRepository, id uuid.UUID, qty int) error {
	if qty < 1 {
		return nil
	}
	ok, err := products.Restock(ctx, id, qty)
	if err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if !ok {
		l.logger.Warn("restock skipped for missing product", slog.String("product_id", id.String()))
	}
	return nil
}
