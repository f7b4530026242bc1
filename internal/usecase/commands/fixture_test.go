//go:build unit

package commands_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"storefront/internal/domain/cart"
	"storefront/internal/domain/order"
	"storefront/internal/infra/memstore"
	"storefront/internal/pkg/clock"
	"storefront/internal/pkg/config"
	"storefront/internal/usecase/commands"
	"storefront/internal/usecase/inventory"
	"storefront/internal/usecase/queries"
	"storefront/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

type fixture struct {
	uow      shared.UnitOfWork
	store    *memstore.Store
	clock    *clock.MockClock
	cfg      config.Config
	idem     *memstore.IdempotencyStore
	products queries.ProductQueries
	orders   queries.OrderQueries

	cart    commands.CartCommands
	expiry  commands.CartExpiryCommands
	order   commands.OrderCommands
	catalog commands.ProductCommands
}

type fixtureOption func(*fixture)

// withUoW decorates the unit of work, e.g. to inject failures.
func withUoW(wrap func(shared.UnitOfWork) shared.UnitOfWork) fixtureOption {
	return func(f *fixture) { f.uow = wrap(f.uow) }
}

func withCancelLimit(n int) fixtureOption {
	return func(f *fixture) { f.cfg.Order.MonthlyCancelLimit = n }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memstore.New(logger)

	f := &fixture{
		uow:   store,
		store: store,
		clock: clock.NewMockClock(baseTime),
		cfg:   config.NewTestConfig(),
		idem:  memstore.NewIdempotencyStore(),
	}
	for _, opt := range opts {
		opt(f)
	}

	ledger := inventory.NewLedger(logger)
	f.products = queries.NewProductQueries(store)
	f.orders = queries.NewOrderQueries(store)
	f.cart = commands.NewCartCommands(f.uow, ledger, f.clock, f.cfg.Cart, logger)
	f.expiry = commands.NewCartExpiryCommands(f.uow, ledger, f.clock, f.cfg.Cart, logger)
	f.order = commands.NewOrderCommands(f.uow, ledger, f.idem, f.orders, f.clock, f.cfg.Order, f.cfg.Redis, logger)
	f.catalog = commands.NewProductCommands(f.uow, ledger, f.clock, logger)
	return f
}

func (f *fixture) seedProduct(t *testing.T, name, price string, stock int) uuid.UUID {
	t.Helper()
	view, err := f.catalog.Create(context.Background(), commands.CreateProductInput{
		Name:  name,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	})
	require.NoError(t, err)
	return view.ID
}

func (f *fixture) product(t *testing.T, id uuid.UUID) *queries.ProductView {
	t.Helper()
	view, err := f.products.GetByID(context.Background(), id)
	require.NoError(t, err)
	return view
}

// reservedInCarts sums every active cart's quantity of the product.
func (f *fixture) reservedInCarts(t *testing.T, id uuid.UUID) int {
	t.Helper()
	total := 0
	require.NoError(t, f.store.WithinReadOnly(context.Background(), func(ctx context.Context, tx shared.Tx) error {
		carts, err := tx.Carts().ListContainingProduct(ctx, id)
		if err != nil {
			return err
		}
		for _, c := range carts {
			total += c.QtyOf(id)
		}
		return nil
	}))
	return total
}

func (f *fixture) paidCheckout(t *testing.T, userID uuid.UUID) *queries.OrderView {
	t.Helper()
	res, err := f.order.Checkout(context.Background(), userID, commands.CheckoutInput{
		PaymentMethod: order.PaymentCardSim.String(),
		PaymentID:     "SIM_0123456789AB",
		PaymentLast4:  "4242",
	})
	require.NoError(t, err)
	return res.Order
}

// faultyUoW hands out transactions whose repositories can be told to fail.
type faultyUoW struct {
	shared.UnitOfWork
	failCommitAfter int
	failCartSave    bool
	commits         int
}

func (u *faultyUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	return u.UnitOfWork.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return fn(ctx, &faultyTx{Tx: tx, uow: u})
	})
}

type faultyTx struct {
	shared.Tx
	uow *faultyUoW
}

func (t *faultyTx) Products() shared.ProductRepository {
	return &faultyProducts{ProductRepository: t.Tx.Products(), uow: t.uow}
}

func (t *faultyTx) Carts() shared.CartRepository {
	return &faultyCarts{CartRepository: t.Tx.Carts(), uow: t.uow}
}

type faultyProducts struct {
	shared.ProductRepository
	uow *faultyUoW
}

func (p *faultyProducts) CommitSale(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	if p.uow.failCommitAfter > 0 {
		p.uow.commits++
		if p.uow.commits > p.uow.failCommitAfter {
			return false, nil
		}
	}
	return p.ProductRepository.CommitSale(ctx, id, qty)
}

type faultyCarts struct {
	shared.CartRepository
	uow *faultyUoW
}

func (c *faultyCarts) Save(ctx context.Context, ct *cart.Cart) error {
	if c.uow.failCartSave {
		return errCartWrite
	}
	return c.CartRepository.Save(ctx, ct)
}

var errCartWrite = errors.New("cart write failed")
