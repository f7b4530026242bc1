package commands

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"storefront/internal/domain/cart"
	"storefront/internal/domain/order"
	"storefront/internal/domain/user"
	"storefront/internal/infra"
	"storefront/internal/pkg/clock"
	"storefront/internal/pkg/config"
	"storefront/internal/pkg/errs"
	"storefront/internal/usecase/inventory"
	"storefront/internal/usecase/queries"
	"storefront/internal/usecase/shared"

	"github.com/google/uuid"
)

type CheckoutInput struct {
	PaymentMethod  string
	PaymentID      string
	PaymentLast4   string
	IdempotencyKey string
}

type CheckoutResult struct {
	Order      *queries.OrderView
	IsReplayed bool
}

type CancelResult struct {
	CancelCount   int
	PaymentStatus order.PaymentStatus
	RefundID      string
}

type OrderCommands interface {
	Checkout(ctx context.Context, userID uuid.UUID, in CheckoutInput) (*CheckoutResult, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID) (*CancelResult, error)
	AdvanceStatus(ctx context.Context, orderID uuid.UUID, next string) (*queries.OrderView, error)
}

type orderCommandsImpl struct {
	uow          shared.UnitOfWork
	ledger       *inventory.Ledger
	idempotency  shared.IdempotencyStore
	orderQueries queries.OrderQueries
	clock        clock.Clock
	cancelLimit  int
	location     *time.Location
	idemTTL      time.Duration
	logger       *slog.Logger
}

func NewOrderCommands(
	uow shared.UnitOfWork,
	ledger *inventory.Ledger,
	idempotency shared.IdempotencyStore,
	orderQueries queries.OrderQueries,
	clk clock.Clock,
	orderCfg config.OrderConfig,
	redisCfg config.RedisConfig,
	logger *slog.Logger,
) OrderCommands {
	return &orderCommandsImpl{
		uow:          uow,
		ledger:       ledger,
		idempotency:  idempotency,
		orderQueries: orderQueries,
		clock:        clk,
		cancelLimit:  orderCfg.MonthlyCancelLimit,
		location:     orderCfg.Location(),
		idemTTL:      redisCfg.IdempotencyTTL,
		logger:       logger,
	}
}

func (o *orderCommandsImpl) Checkout(ctx context.Context, userID uuid.UUID, in CheckoutInput) (*CheckoutResult, error) {
	method, err := order.ParsePaymentMethod(strings.TrimSpace(in.PaymentMethod))
	if err != nil {
		return nil, err
	}
	payment := order.Payment{
		Method: method,
		ID:     strings.TrimSpace(in.PaymentID),
		Last4:  strings.TrimSpace(in.PaymentLast4),
	}
	if method == order.PaymentCardSim && payment.ID == "" {
		return nil, ErrPaymentRequired
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" {
		view, err := o.checkout(ctx, userID, payment)
		if err != nil {
			return nil, err
		}
		return &CheckoutResult{Order: view}, nil
	}
	return o.checkoutOnce(ctx, userID, payment, fmt.Sprintf("idem:checkout:%s:%s", userID, key))
}

func (o *orderCommandsImpl) checkoutOnce(ctx context.Context, userID uuid.UUID, payment order.Payment, key string) (*CheckoutResult, error) {
	claim, err := o.idempotency.Claim(ctx, key, o.idemTTL)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrIdempotencyCheckFailed)
	}
	if !claim.Acquired {
		if claim.ResultID == nil {
			return nil, errs.ErrIdempotencyInProgress
		}
		view, err := o.orderQueries.GetByID(ctx, *claim.ResultID)
		if err != nil {
			return nil, err
		}
		return &CheckoutResult{Order: view, IsReplayed: true}, nil
	}

	view, err := o.checkout(ctx, userID, payment)
	if err != nil {
		if abandonErr := o.idempotency.Abandon(context.WithoutCancel(ctx), key); abandonErr != nil {
			o.logger.Warn("failed to release idempotency key", slog.String("error", abandonErr.Error()))
		}
		return nil, err
	}
	if err := o.idempotency.Complete(context.WithoutCancel(ctx), key, view.ID, o.idemTTL); err != nil {
		o.logger.Warn("failed to record idempotency result", slog.String("error", err.Error()))
	}
	return &CheckoutResult{Order: view}, nil
}

// checkout turns the user's cart into an order in one transaction. Rows are
// locked user, cart, then products in id order.
func (o *orderCommandsImpl) checkout(ctx context.Context, userID uuid.UUID, payment order.Payment) (*queries.OrderView, error) {
	now := o.clock.Now()
	local := now.In(o.location)

	var created *order.Order
	err := o.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		u, err := o.lockUser(ctx, tx, userID, local)
		if err != nil {
			return err
		}
		if !u.CanCheckout(o.cancelLimit) {
			return ErrCancelQuotaExceeded
		}

		ct, err := tx.Carts().FindByUserForUpdate(ctx, userID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrCartEmpty
			}
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		lines, err := ct.CheckOut(now)
		if err != nil {
			return err
		}

		items, err := o.snapshotLines(ctx, tx, lines)
		if err != nil {
			return err
		}
		for _, it := range items {
			if err := o.ledger.CommitSale(ctx, tx.Products(), it.ProductID, it.Qty); err != nil {
				return err
			}
		}

		created, err = order.NewOrder(userID, items, payment, now)
		if err != nil {
			return err
		}
		if err := tx.Orders().Create(ctx, created); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if err := tx.Carts().Save(ctx, ct); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if err := tx.Users().Save(ctx, u); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		return appendOrderEvent(ctx, tx, created, shared.EventOrderCreated, now)
	})
	if err != nil {
		return nil, err
	}
	return queries.NewOrderView(created)
}

// snapshotLines locks each product and checks the cart's claim against it.
func (o *orderCommandsImpl) snapshotLines(ctx context.Context, tx shared.Tx, lines []cart.Item) ([]order.Item, error) {
	sorted := append([]cart.Item(nil), lines...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ProductID.String() < sorted[j].ProductID.String()
	})

	items := make([]order.Item, 0, len(sorted))
	for _, line := range sorted {
		p, err := tx.Products().FindByIDForUpdate(ctx, line.ProductID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return nil, ErrProductNotInCatalog
			}
			return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		switch {
		case line.Qty < 1:
			return nil, &LineError{Reason: ErrInvalidQuantity, ProductName: p.Name()}
		case p.Reserved() < line.Qty:
			return nil, &LineError{Reason: ErrReservationMismatch, ProductName: p.Name()}
		case p.Stock() < line.Qty:
			return nil, &LineError{Reason: ErrNotEnoughStock, ProductName: p.Name()}
		}
		items = append(items, order.Item{
			ProductID:     p.ID(),
			NameSnapshot:  p.Name(),
			PriceSnapshot: p.Price(),
			Qty:           line.Qty,
		})
	}
	return items, nil
}

func (o *orderCommandsImpl) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*CancelResult, error) {
	now := o.clock.Now()
	local := now.In(o.location)

	var result CancelResult
	err := o.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		u, err := o.lockUser(ctx, tx, userID, local)
		if err != nil {
			return err
		}

		ord, err := tx.Orders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrOrderNotFound
			}
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if ord.UserID() != userID {
			return ErrOrderNotFound
		}

		outcome, err := ord.Cancel(now)
		if err != nil {
			return err
		}

		items := ord.Items()
		sort.Slice(items, func(i, j int) bool {
			return items[i].ProductID.String() < items[j].ProductID.String()
		})
		for _, it := range items {
			if err := o.ledger.Restock(ctx, tx.Products(), it.ProductID, it.Qty); err != nil {
				return err
			}
		}

		count := u.RecordCancellation(local)
		if err := tx.Orders().Save(ctx, ord); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if err := tx.Users().Save(ctx, u); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if err := appendOrderEvent(ctx, tx, ord, shared.EventOrderCancelled, now); err != nil {
			return err
		}

		result = CancelResult{
			CancelCount:   count,
			PaymentStatus: outcome.PaymentStatus,
			RefundID:      outcome.RefundID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (o *orderCommandsImpl) AdvanceStatus(ctx context.Context, orderID uuid.UUID, next string) (*queries.OrderView, error) {
	next = strings.TrimSpace(next)
	if next == "" {
		return nil, ErrStatusRequired
	}
	now := o.clock.Now()

	var updated *order.Order
	err := o.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		ord, err := tx.Orders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrOrderNotFound
			}
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if err := ord.Advance(order.Status(next), now); err != nil {
			return err
		}
		if err := tx.Orders().Save(ctx, ord); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		updated = ord
		return appendOrderEvent(ctx, tx, ord, shared.EventOrderStatusChanged, now)
	})
	if err != nil {
		return nil, err
	}
	return queries.NewOrderView(updated)
}

// lockUser loads the counter row and rolls it into the current month.
func (o *orderCommandsImpl) lockUser(ctx context.Context, tx shared.Tx, userID uuid.UUID, local time.Time) (*user.User, error) {
	u, err := tx.Users().LockOrCreate(ctx, userID, local)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	u.RefreshCancellations(local)
	return u, nil
}
