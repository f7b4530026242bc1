package queries

import (
	"context"

	"storefront/internal/infra"
	"storefront/internal/pkg/errs"
	"storefront/internal/usecase/shared"

	"github.com/google/uuid"
)

type ProductQueries interface {
	List(ctx context.Context) ([]*ProductView, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ProductView, error)
}

type productQueriesImpl struct {
	uow shared.UnitOfWork
}

func NewProductQueries(uow shared.UnitOfWork) ProductQueries {
	return &productQueriesImpl{uow: uow}
}

func (q *productQueriesImpl) List(ctx context.Context) ([]*ProductView, error) {
	views := []*ProductView{}
	err := q.uow.WithinReadOnly(ctx, func(ctx context.Context, tx shared.Tx) error {
		products, err := tx.Products().List(ctx)
		if err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		for _, p := range products {
			views = append(views, NewProductView(p))
		}
		return nil
	})
	return views, err
}

func (q *productQueriesImpl) GetByID(ctx context.Context, id uuid.UUID) (*ProductView, error) {
	var view *ProductView
	err := q.uow.WithinReadOnly(ctx, func(ctx context.Context, tx shared.Tx) error {
		p, err := tx.Products().FindByID(ctx, id)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrProductNotFound
			}
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		view = NewProductView(p)
		return nil
	})
	return view, err
}
