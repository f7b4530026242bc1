//go:build unit || e2e

package dbtest

import (
	"context"
	"testing"
	"time"

	"storefront/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// CreateTestProduct inserts a product with nothing reserved.
func CreateTestProduct(t *testing.T, db DBLike, name, price string, stock int) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec(context.Background(),
		`INSERT INTO products (id, name, price, stock, reserved) VALUES ($1, $2, $3, $4, 0)`,
		id, name, pgconv.NumericFromDecimal(decimal.RequireFromString(price)), stock)
	require.NoError(t, err)
	return id
}

// ProductCounters reads stock and reserved straight from the table.
func ProductCounters(t *testing.T, db DBLike, id uuid.UUID) (stock, reserved int) {
	t.Helper()

	err := db.QueryRow(context.Background(),
		`SELECT stock, reserved FROM products WHERE id = $1`, id).Scan(&stock, &reserved)
	require.NoError(t, err)
	return stock, reserved
}

// ReservedInCarts sums the product's quantity over every cart's items.
func ReservedInCarts(t *testing.T, db DBLike, id uuid.UUID) int {
	t.Helper()

	var total int
	err := db.QueryRow(context.Background(),
		`SELECT COALESCE(SUM((item->>'qty')::int), 0)
		 FROM carts, jsonb_array_elements(items) AS item
		 WHERE item->>'productId' = $1`, id.String()).Scan(&total)
	require.NoError(t, err)
	return total
}

// ExpireCart moves the user's cart deadline into the past.
func ExpireCart(t *testing.T, db DBLike, userID uuid.UUID) {
	t.Helper()

	_, err := db.Exec(context.Background(),
		`UPDATE carts SET expires_at = $2 WHERE user_id = $1`, userID, time.Now().Add(-time.Minute))
	require.NoError(t, err)
}

func PendingEventCount(t *testing.T, db DBLike) int {
	t.Helper()

	var n int
	err := db.QueryRow(context.Background(),
		`SELECT count(*) FROM order_events WHERE published_at IS NULL`).Scan(&n)
	require.NoError(t, err)
	return n
}

// ResetDB empties every table between subtests.
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := pool.Exec(ctx, `TRUNCATE order_events, orders, carts, products, users CASCADE`)
	return err
}
