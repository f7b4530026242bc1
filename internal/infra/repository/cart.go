package repository

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"storefront/internal/domain/cart"
	"storefront/internal/infra"
	"storefront/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const cartColumns = `id, user_id, items, status, expires_at, created_at, updated_at`

type CartRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewCartRepository(dbtx db.DBTX, logger *slog.Logger) *CartRepository {
	return &CartRepository{db: dbtx, logger: logger}
}

func (r *CartRepository) LockOrCreate(ctx context.Context, userID uuid.UUID, now time.Time, ttl time.Duration) (*cart.Cart, error) {
	fresh := cart.NewCart(userID, now, ttl)
	_, err := r.db.Exec(ctx,
		`INSERT INTO carts (id, user_id, items, status, expires_at, created_at, updated_at)
		 VALUES ($1, $2, '[]'::jsonb, $3, $4, $5, $5)
		 ON CONFLICT (user_id) DO NOTHING`,
		fresh.ID(), userID, string(fresh.Status()), fresh.ExpiresAt(), now)
	if err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to create cart", err)
	}
	return r.FindByUserForUpdate(ctx, userID)
}

func (r *CartRepository) FindByUserForUpdate(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	row := r.db.QueryRow(ctx, `SELECT `+cartColumns+` FROM carts WHERE user_id = $1 FOR UPDATE`, userID)
	c, err := scanCart(row)
	if err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to lock cart by user", err)
	}
	return c, nil
}

func (r *CartRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*cart.Cart, error) {
	row := r.db.QueryRow(ctx, `SELECT `+cartColumns+` FROM carts WHERE id = $1 FOR UPDATE`, id)
	c, err := scanCart(row)
	if err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to lock cart", err)
	}
	return c, nil
}

func (r *CartRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id FROM carts WHERE status = 'active' AND expires_at < $1
		 ORDER BY expires_at, id LIMIT $2`, now, limit)
	if err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to list expired carts", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to scan expired carts", err)
	}
	return ids, nil
}

// ListContainingProduct locks every cart holding the product, in id order so
// concurrent deletes never deadlock against each other.
func (r *CartRepository) ListContainingProduct(ctx context.Context, productID uuid.UUID) ([]*cart.Cart, error) {
	probe, err := json.Marshal([]map[string]string{{"productId": productID.String()}})
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to build cart probe", err)
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+cartColumns+` FROM carts WHERE items @> $1::jsonb ORDER BY id FOR UPDATE`, string(probe))
	if err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to list carts by product", err)
	}
	defer rows.Close()

	var out []*cart.Cart
	for rows.Next() {
		c, err := scanCart(rows)
		if err != nil {
			return nil, infra.WrapPgErr(r.logger, "failed to scan cart", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to iterate carts", err)
	}
	return out, nil
}

func (r *CartRepository) Save(ctx context.Context, c *cart.Cart) error {
	items, err := json.Marshal(nonNilItems(c.Items()))
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to encode cart items", err)
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE carts SET items = $2, status = $3, expires_at = $4, updated_at = $5 WHERE id = $1`,
		c.ID(), items, string(c.Status()), c.ExpiresAt(), c.UpdatedAt())
	if err != nil {
		return infra.WrapPgErr(r.logger, "failed to save cart", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr(r.logger, infra.KindNotFound, "cart not found", nil)
	}
	return nil
}

func scanCart(row pgx.Row) (*cart.Cart, error) {
	var (
		id, userID                      uuid.UUID
		raw                             []byte
		status                          string
		expiresAt, createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &userID, &raw, &status, &expiresAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var items []cart.Item
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
	}
	return cart.ReconstructCart(id, userID, items, cart.Status(status), expiresAt, createdAt, updatedAt), nil
}

func nonNilItems[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
