//go:build unit

package commands_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"storefront/internal/domain/order"
	"storefront/internal/pkg/errs"
	"storefront/internal/pkg/ptr"
	"storefront/internal/usecase/commands"
	"storefront/internal/usecase/shared"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderCommands_Checkout(t *testing.T) {
	ctx := context.Background()

	t.Run("turns reservations into a sale", func(t *testing.T) {
		f := newFixture(t)
		a := f.seedProduct(t, "Lamp", "19.99", 5)
		b := f.seedProduct(t, "Bulb", "2.50", 10)
		userID := uuid.New()
		require.NoError(t, f.cart.AddItem(ctx, userID, a, 2))
		require.NoError(t, f.cart.AddItem(ctx, userID, b, 4))

		created := f.paidCheckout(t, userID)

		assert.Equal(t, order.StatusPending.String(), created.Status)
		assert.Equal(t, order.PaymentPaid.String(), created.PaymentStatus)
		assert.Equal(t, "49.98", created.Total.StringFixed(2))
		assert.Len(t, created.Items, 2)

		pa, pb := f.product(t, a), f.product(t, b)
		assert.Equal(t, 3, pa.Stock)
		assert.Equal(t, 0, pa.Reserved)
		assert.Equal(t, 6, pb.Stock)
		assert.Equal(t, 0, pb.Reserved)

		view, err := f.cart.View(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, view.Items)
		require.NotNil(t, view.ExpiresAt)
		assert.Equal(t, baseTime, *view.ExpiresAt)
	})

	t.Run("snapshots the live price", func(t *testing.T) {
		f := newFixture(t)
		pid := f.seedProduct(t, "Lamp", "19.99", 5)
		userID := uuid.New()
		require.NoError(t, f.cart.AddItem(ctx, userID, pid, 1))
		_, err := f.catalog.Update(ctx, pid, commands.UpdateProductInput{
			Name:  ptr.Of("Desk lamp"),
			Price: ptr.Of(decimal.RequireFromString("24.00")),
		})
		require.NoError(t, err)

		created := f.paidCheckout(t, userID)
		require.Len(t, created.Items, 1)
		assert.Equal(t, "Desk lamp", created.Items[0].NameSnapshot)
		assert.Equal(t, "24", created.Items[0].PriceSnapshot.String())
	})

	t.Run("cash on delivery stays payment pending", func(t *testing.T) {
		f := newFixture(t)
		pid := f.seedProduct(t, "Lamp", "19.99", 5)
		userID := uuid.New()
		require.NoError(t, f.cart.AddItem(ctx, userID, pid, 1))

		res, err := f.order.Checkout(ctx, userID, commands.CheckoutInput{PaymentMethod: "cod"})
		require.NoError(t, err)
		assert.Equal(t, order.PaymentPending.String(), res.Order.PaymentStatus)
	})

	t.Run("rejections", func(t *testing.T) {
		f := newFixture(t)
		pid := f.seedProduct(t, "Lamp", "19.99", 5)
		userID := uuid.New()

		_, err := f.order.Checkout(ctx, userID, commands.CheckoutInput{PaymentMethod: "card_sim", PaymentID: "SIM_X"})
		assert.ErrorIs(t, err, commands.ErrCartEmpty)

		require.NoError(t, f.cart.AddItem(ctx, userID, pid, 1))

		_, err = f.order.Checkout(ctx, userID, commands.CheckoutInput{})
		assert.ErrorIs(t, err, commands.ErrPaymentRequired)

		_, err = f.order.Checkout(ctx, userID, commands.CheckoutInput{PaymentMethod: "bitcoin"})
		assert.ErrorIs(t, err, commands.ErrInvalidPaymentMethod)

		f.clock.Add(f.cfg.Cart.TTL + time.Second)
		_, err = f.order.Checkout(ctx, userID, commands.CheckoutInput{PaymentMethod: "cod"})
		assert.ErrorIs(t, err, commands.ErrCartExpired)
		assert.Equal(t, 1, f.product(t, pid).Reserved, "a refused checkout leaves the reservation alone")
	})

	t.Run("product deleted after it was added", func(t *testing.T) {
		f := newFixture(t)
		keep := f.seedProduct(t, "Lamp", "19.99", 5)
		userID := uuid.New()
		require.NoError(t, f.cart.AddItem(ctx, userID, keep, 1))

		// delete through the store so the cart keeps the dangling line
		gone := f.seedProduct(t, "Shade", "5.00", 5)
		require.NoError(t, f.cart.AddItem(ctx, userID, gone, 1))
		require.NoError(t, f.store.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
			if _, err := tx.Products().Release(ctx, gone, 1); err != nil {
				return err
			}
			return tx.Products().Delete(ctx, gone)
		}))

		_, err := f.order.Checkout(ctx, userID, commands.CheckoutInput{PaymentMethod: "cod"})
		assert.ErrorIs(t, err, commands.ErrProductNotInCatalog)
		assert.Equal(t, 1, f.product(t, keep).Reserved)
	})

	t.Run("reservation drift names the product", func(t *testing.T) {
		f := newFixture(t)
		pid := f.seedProduct(t, "Lamp", "19.99", 5)
		userID := uuid.New()
		require.NoError(t, f.cart.AddItem(ctx, userID, pid, 2))
		require.NoError(t, f.store.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
			_, err := tx.Products().Release(ctx, pid, 1)
			return err
		}))

		_, err := f.order.Checkout(ctx, userID, commands.CheckoutInput{PaymentMethod: "cod"})
		var lineErr *commands.LineError
		require.True(t, errs.As(err, &lineErr))
		assert.ErrorIs(t, err, commands.ErrReservationMismatch)
		assert.Equal(t, "Lamp", lineErr.ProductName)
	})
}

func TestOrderCommands_CheckoutIsAtomic(t *testing.T) {
	ctx := context.Background()
	faulty := &faultyUoW{failCommitAfter: 1}
	f := newFixture(t, withUoW(func(u shared.UnitOfWork) shared.UnitOfWork {
		faulty.UnitOfWork = u
		return faulty
	}))
	a := f.seedProduct(t, "Lamp", "19.99", 5)
	b := f.seedProduct(t, "Bulb", "2.50", 5)
	userID := uuid.New()
	require.NoError(t, f.cart.AddItem(ctx, userID, a, 2))
	require.NoError(t, f.cart.AddItem(ctx, userID, b, 3))
	before := []any{f.product(t, a), f.product(t, b)}

	_, err := f.order.Checkout(ctx, userID, commands.CheckoutInput{PaymentMethod: "cod"})
	require.ErrorIs(t, err, commands.ErrConcurrentUpdate)

	after := []any{f.product(t, a), f.product(t, b)}
	if diff := cmp.Diff(before, after); diff != "" {
		t.Fatalf("products changed after a failed checkout (-before +after):\n%s", diff)
	}
	view, err := f.cart.View(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, view.Items, 2)

	mine, err := f.orders.ListMine(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestOrderCommands_CheckoutIdempotency(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pid := f.seedProduct(t, "Lamp", "19.99", 5)
	userID := uuid.New()
	require.NoError(t, f.cart.AddItem(ctx, userID, pid, 1))

	in := commands.CheckoutInput{PaymentMethod: "cod", IdempotencyKey: "retry-1"}
	first, err := f.order.Checkout(ctx, userID, in)
	require.NoError(t, err)
	assert.False(t, first.IsReplayed)

	again, err := f.order.Checkout(ctx, userID, in)
	require.NoError(t, err)
	assert.True(t, again.IsReplayed)
	assert.Equal(t, first.Order.ID, again.Order.ID)
	assert.Equal(t, 4, f.product(t, pid).Stock)

	t.Run("in flight", func(t *testing.T) {
		key := "idem:checkout:" + userID.String() + ":busy"
		_, err := f.idem.Claim(ctx, key, time.Minute)
		require.NoError(t, err)

		_, err = f.order.Checkout(ctx, userID, commands.CheckoutInput{PaymentMethod: "cod", IdempotencyKey: "busy"})
		assert.ErrorIs(t, err, errs.ErrIdempotencyInProgress)
	})

	t.Run("failed attempt frees the key", func(t *testing.T) {
		in := commands.CheckoutInput{PaymentMethod: "cod", IdempotencyKey: "empty-cart"}
		_, err := f.order.Checkout(ctx, userID, in)
		require.ErrorIs(t, err, commands.ErrCartEmpty)

		require.NoError(t, f.cart.AddItem(ctx, userID, pid, 1))
		res, err := f.order.Checkout(ctx, userID, in)
		require.NoError(t, err)
		assert.False(t, res.IsReplayed)
	})
}

func TestOrderCommands_CheckoutRace(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pid := f.seedProduct(t, "Lamp", "19.99", 3)
	userID := uuid.New()
	require.NoError(t, f.cart.AddItem(ctx, userID, pid, 3))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		oks  int
		errL []error
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.order.Checkout(ctx, userID, commands.CheckoutInput{PaymentMethod: "cod"})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				oks++
				return
			}
			errL = append(errL, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, oks)
	for _, err := range errL {
		assert.ErrorIs(t, err, commands.ErrCartEmpty)
	}
	p := f.product(t, pid)
	assert.Equal(t, 0, p.Stock)
	assert.Equal(t, 0, p.Reserved)
}

func TestOrderCommands_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("restocks and refunds a paid order", func(t *testing.T) {
		f := newFixture(t)
		pid := f.seedProduct(t, "Lamp", "19.99", 5)
		userID := uuid.New()
		require.NoError(t, f.cart.AddItem(ctx, userID, pid, 2))
		created := f.paidCheckout(t, userID)

		res, err := f.order.Cancel(ctx, userID, created.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, res.CancelCount)
		assert.Equal(t, order.PaymentRefunded, res.PaymentStatus)
		assert.Equal(t, order.RefundID(created.ID), res.RefundID)

		p := f.product(t, pid)
		assert.Equal(t, 5, p.Stock)
		assert.Equal(t, 0, p.Reserved)

		_, err = f.order.Cancel(ctx, userID, created.ID)
		assert.ErrorIs(t, err, order.ErrNotPending)
		assert.Equal(t, 5, f.product(t, pid).Stock, "a second cancel must not restock twice")
	})

	t.Run("unpaid order has nothing to refund", func(t *testing.T) {
		f := newFixture(t)
		pid := f.seedProduct(t, "Lamp", "19.99", 5)
		userID := uuid.New()
		require.NoError(t, f.cart.AddItem(ctx, userID, pid, 1))
		res, err := f.order.Checkout(ctx, userID, commands.CheckoutInput{PaymentMethod: "cod"})
		require.NoError(t, err)

		out, err := f.order.Cancel(ctx, userID, res.Order.ID)
		require.NoError(t, err)
		assert.Equal(t, order.PaymentUnpaid, out.PaymentStatus)
		assert.Empty(t, out.RefundID)
	})

	t.Run("other users' orders look missing", func(t *testing.T) {
		f := newFixture(t)
		pid := f.seedProduct(t, "Lamp", "19.99", 5)
		owner := uuid.New()
		require.NoError(t, f.cart.AddItem(ctx, owner, pid, 1))
		created := f.paidCheckout(t, owner)

		_, err := f.order.Cancel(ctx, uuid.New(), created.ID)
		assert.ErrorIs(t, err, commands.ErrOrderNotFound)
		_, err = f.order.Cancel(ctx, owner, uuid.New())
		assert.ErrorIs(t, err, commands.ErrOrderNotFound)
	})

	t.Run("shipped orders cannot be cancelled", func(t *testing.T) {
		f := newFixture(t)
		pid := f.seedProduct(t, "Lamp", "19.99", 5)
		userID := uuid.New()
		require.NoError(t, f.cart.AddItem(ctx, userID, pid, 1))
		created := f.paidCheckout(t, userID)
		_, err := f.order.AdvanceStatus(ctx, created.ID, "shipped")
		require.NoError(t, err)

		_, err = f.order.Cancel(ctx, userID, created.ID)
		assert.ErrorIs(t, err, order.ErrNotPending)
	})
}

func TestOrderCommands_CancelQuota(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, withCancelLimit(2))
	pid := f.seedProduct(t, "Lamp", "19.99", 50)
	userID := uuid.New()

	buyAndCancel := func() {
		t.Helper()
		require.NoError(t, f.cart.AddItem(ctx, userID, pid, 1))
		created := f.paidCheckout(t, userID)
		_, err := f.order.Cancel(ctx, userID, created.ID)
		require.NoError(t, err)
	}
	buyAndCancel()
	buyAndCancel()

	require.NoError(t, f.cart.AddItem(ctx, userID, pid, 1))
	_, err := f.order.Checkout(ctx, userID, commands.CheckoutInput{PaymentMethod: "cod"})
	assert.ErrorIs(t, err, commands.ErrCancelQuotaExceeded)
	assert.Equal(t, 1, f.product(t, pid).Reserved, "a blocked checkout keeps the cart intact")

	t.Run("resets in the next calendar month", func(t *testing.T) {
		f.clock.Set(time.Date(2026, 4, 1, 0, 0, 1, 0, time.UTC))
		require.NoError(t, f.cart.AddItem(ctx, userID, pid, 1))
		res, err := f.order.Checkout(ctx, userID, commands.CheckoutInput{PaymentMethod: "cod"})
		require.NoError(t, err)

		out, err := f.order.Cancel(ctx, userID, res.Order.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, out.CancelCount)
	})
}

func TestOrderCommands_AdvanceStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	pid := f.seedProduct(t, "Lamp", "19.99", 5)
	userID := uuid.New()
	require.NoError(t, f.cart.AddItem(ctx, userID, pid, 1))
	created := f.paidCheckout(t, userID)

	_, err := f.order.AdvanceStatus(ctx, created.ID, " ")
	assert.ErrorIs(t, err, commands.ErrStatusRequired)

	_, err = f.order.AdvanceStatus(ctx, uuid.New(), "shipped")
	assert.ErrorIs(t, err, commands.ErrOrderNotFound)

	_, err = f.order.AdvanceStatus(ctx, created.ID, "returned")
	require.True(t, errs.Is(err, order.ErrInvalidStatus))
	current, err := f.orders.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "pending", current.Status)

	_, err = f.order.AdvanceStatus(ctx, created.ID, "delivered")
	var transErr *order.TransitionError
	require.True(t, errs.As(err, &transErr))
	assert.Equal(t, "Invalid status transition: pending -> delivered", transErr.Error())

	shipped, err := f.order.AdvanceStatus(ctx, created.ID, "shipped")
	require.NoError(t, err)
	assert.Equal(t, "shipped", shipped.Status)
	assert.NotNil(t, shipped.ShippedAt)

	delivered, err := f.order.AdvanceStatus(ctx, created.ID, "delivered")
	require.NoError(t, err)
	assert.NotNil(t, delivered.DeliveredAt)

	_, err = f.order.AdvanceStatus(ctx, created.ID, "shipped")
	assert.ErrorIs(t, err, order.ErrDeliveredImmutable)
}
