//go:build unit

package memstore

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"storefront/internal/domain/product"
	"storefront/internal/infra"
	"storefront/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func seedProduct(t *testing.T, s *Store, stock int) uuid.UUID {
	t.Helper()
	p, err := product.NewProduct("Lamp", decimal.RequireFromString("12.00"), stock, time.Now())
	require.NoError(t, err)
	require.NoError(t, s.WithDB(context.Background(), func(ctx context.Context, tx shared.Tx) error {
		return tx.Products().Create(ctx, p)
	}))
	return p.ID()
}

func TestWithinRollsBackOnError(t *testing.T) {
	s := newTestStore()
	id := seedProduct(t, s, 5)

	err := s.Within(context.Background(), func(ctx context.Context, tx shared.Tx) error {
		_, ok, err := tx.Products().Reserve(ctx, id, 3)
		require.NoError(t, err)
		require.True(t, ok)
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	_ = s.WithDB(context.Background(), func(ctx context.Context, tx shared.Tx) error {
		p, err := tx.Products().FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 0, p.Reserved())
		return nil
	})
}

func TestReserveGuardUnderContention(t *testing.T) {
	s := newTestStore()
	id := seedProduct(t, s, 10)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.WithDB(context.Background(), func(ctx context.Context, tx shared.Tx) error {
				_, ok, err := tx.Products().Reserve(ctx, id, 1)
				if err == nil && ok {
					mu.Lock()
					granted++
					mu.Unlock()
				}
				return err
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, granted)
}

func TestReleaseGuard(t *testing.T) {
	s := newTestStore()
	id := seedProduct(t, s, 10)

	_ = s.WithDB(context.Background(), func(ctx context.Context, tx shared.Tx) error {
		ok, err := tx.Products().Release(ctx, id, 1)
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, _ = tx.Products().Reserve(ctx, id, 2)
		require.True(t, ok)
		ok, _ = tx.Products().Release(ctx, id, 2)
		assert.True(t, ok)
		return nil
	})
}

func TestNotFoundKinds(t *testing.T) {
	s := newTestStore()

	_ = s.WithinReadOnly(context.Background(), func(ctx context.Context, tx shared.Tx) error {
		_, err := tx.Products().FindByID(ctx, uuid.New())
		assert.True(t, infra.IsKind(err, infra.KindNotFound))
		_, err = tx.Carts().FindByUserForUpdate(ctx, uuid.New())
		assert.True(t, infra.IsKind(err, infra.KindNotFound))
		_, err = tx.Orders().FindByID(ctx, uuid.New())
		assert.True(t, infra.IsKind(err, infra.KindNotFound))
		return nil
	})
}

func TestOutboxClaimAndMark(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		for i := 0; i < 3; i++ {
			if err := tx.Outbox().Append(ctx, shared.OutboxEvent{ID: uuid.New(), OrderID: uuid.New(), Type: shared.EventOrderCreated, CreatedAt: now}); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, s.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		events, err := tx.Outbox().ClaimPending(ctx, 2)
		require.NoError(t, err)
		require.Len(t, events, 2)
		return tx.Outbox().MarkPublished(ctx, []uuid.UUID{events[0].ID, events[1].ID}, now)
	}))

	_ = s.WithinReadOnly(ctx, func(ctx context.Context, tx shared.Tx) error {
		events, err := tx.Outbox().ClaimPending(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, events, 1)
		return nil
	})
}

func TestIdempotencyStore(t *testing.T) {
	s := NewIdempotencyStore()
	ctx := context.Background()

	claim, err := s.Claim(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, claim.Acquired)

	claim, _ = s.Claim(ctx, "k", time.Minute)
	assert.False(t, claim.Acquired)
	assert.Nil(t, claim.ResultID)

	id := uuid.New()
	require.NoError(t, s.Complete(ctx, "k", id, time.Minute))
	claim, _ = s.Claim(ctx, "k", time.Minute)
	require.NotNil(t, claim.ResultID)
	assert.Equal(t, id, *claim.ResultID)

	require.NoError(t, s.Abandon(ctx, "k"))
	claim, _ = s.Claim(ctx, "k", time.Minute)
	assert.True(t, claim.Acquired)
}
