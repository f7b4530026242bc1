package queries

import (
	"context"

	"storefront/internal/domain/order"
	"storefront/internal/infra"
	"storefront/internal/pkg/errs"
	"storefront/internal/usecase/shared"

	"github.com/google/uuid"
)

type OrderQueries interface {
	ListMine(ctx context.Context, userID uuid.UUID) ([]*OrderView, error)
	AdminList(ctx context.Context, status *order.Status) ([]*OrderView, error)
	GetByID(ctx context.Context, id uuid.UUID) (*OrderView, error)
}

type orderQueriesImpl struct {
	uow shared.UnitOfWork
}

func NewOrderQueries(uow shared.UnitOfWork) OrderQueries {
	return &orderQueriesImpl{uow: uow}
}

func (q *orderQueriesImpl) ListMine(ctx context.Context, userID uuid.UUID) ([]*OrderView, error) {
	var views []*OrderView
	err := q.uow.WithinReadOnly(ctx, func(ctx context.Context, tx shared.Tx) error {
		orders, err := tx.Orders().ListByUser(ctx, userID)
		if err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		views, err = newOrderViews(orders)
		return err
	})
	return views, err
}

func (q *orderQueriesImpl) AdminList(ctx context.Context, status *order.Status) ([]*OrderView, error) {
	var views []*OrderView
	err := q.uow.WithinReadOnly(ctx, func(ctx context.Context, tx shared.Tx) error {
		orders, err := tx.Orders().List(ctx, shared.OrderFilter{Status: status})
		if err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		views, err = newOrderViews(orders)
		return err
	})
	return views, err
}

func (q *orderQueriesImpl) GetByID(ctx context.Context, id uuid.UUID) (*OrderView, error) {
	var view *OrderView
	err := q.uow.WithinReadOnly(ctx, func(ctx context.Context, tx shared.Tx) error {
		o, err := tx.Orders().FindByID(ctx, id)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrOrderNotFound
			}
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		view, err = NewOrderView(o)
		return err
	})
	return view, err
}
