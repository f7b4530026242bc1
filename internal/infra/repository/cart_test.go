//go:build unit

package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"storefront/internal/domain/cart"
	"storefront/internal/domain/product"
	"storefront/internal/infra"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func mustProduct(t *testing.T) *product.Product {
	t.Helper()
	p, err := product.NewProduct("Mug", decimal.RequireFromString("9.50"), 10, time.Now())
	require.NoError(t, err)
	return p
}

func TestCartScanDecodesItems(t *testing.T) {
	id, userID, pid := uuid.New(), uuid.New(), uuid.New()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	raw, err := json.Marshal([]cart.Item{{ProductID: pid, Qty: 2, PriceSnapshot: decimal.RequireFromString("4.25")}})
	require.NoError(t, err)

	dbtx := new(MockDBTX)
	dbtx.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).
		Return(fakeRow{values: []any{id, userID, raw, "active", now.Add(15 * time.Minute), now, now}})

	c, err := NewCartRepository(dbtx, discardLogger()).FindByUserForUpdate(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, cart.StatusActive, c.Status())
	assert.Equal(t, 2, c.QtyOf(pid))
	assert.True(t, decimal.RequireFromString("4.25").Equal(c.Items()[0].PriceSnapshot))
}

func TestCartSaveEncodesEmptyItemsAsArray(t *testing.T) {
	c := cart.NewCart(uuid.New(), time.Now(), time.Minute)

	dbtx := new(MockDBTX)
	dbtx.On("Exec", mock.Anything, mock.Anything, mock.MatchedBy(func(args []any) bool {
		b, ok := args[1].([]byte)
		return ok && string(b) == "[]"
	})).Return(tag("UPDATE 1"), nil)

	err := NewCartRepository(dbtx, discardLogger()).Save(context.Background(), c)

	require.NoError(t, err)
	dbtx.AssertExpectations(t)
}

func TestCartSaveMissing(t *testing.T) {
	dbtx := new(MockDBTX)
	dbtx.On("Exec", mock.Anything, mock.Anything, mock.Anything).Return(tag("UPDATE 0"), nil)

	err := NewCartRepository(dbtx, discardLogger()).Save(context.Background(), cart.NewCart(uuid.New(), time.Now(), time.Minute))

	assert.True(t, infra.IsKind(err, infra.KindNotFound))
}
