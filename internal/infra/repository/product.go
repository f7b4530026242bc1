package repository

import (
	"context"
	"log/slog"
	"time"

	"storefront/internal/domain/product"
	"storefront/internal/infra"
	"storefront/internal/infra/db"
	"storefront/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const productColumns = `id, name, price, stock, reserved, created_at, updated_at`

type ProductRepository struct {
	db     db.DBTX
	logger *slog.Logger
	now    func() time.Time
}

func NewProductRepository(dbtx db.DBTX, logger *slog.Logger) *ProductRepository {
	return &ProductRepository{db: dbtx, logger: logger, now: time.Now}
}

func (r *ProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*product.Product, error) {
	row := r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to find product", err)
	}
	return p, nil
}

func (r *ProductRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*product.Product, error) {
	row := r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
	p, err := scanProduct(row)
	if err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to lock product", err)
	}
	return p, nil
}

func (r *ProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*product.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to find products", err)
	}
	return r.collect(rows)
}

func (r *ProductRepository) List(ctx context.Context) ([]*product.Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to list products", err)
	}
	return r.collect(rows)
}

func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO products (id, name, price, stock, reserved, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID(), p.Name(), pgconv.NumericFromDecimal(p.Price()), p.Stock(), p.Reserved(), p.CreatedAt(), p.UpdatedAt())
	if err != nil {
		return infra.WrapPgErr(r.logger, "failed to create product", err)
	}
	return nil
}

// Update writes catalogue fields only. reserved belongs to the conditional
// counters below and is never overwritten from a loaded copy.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE products SET name = $2, price = $3, stock = $4, updated_at = $5
		 WHERE id = $1 AND reserved <= $4`,
		p.ID(), p.Name(), pgconv.NumericFromDecimal(p.Price()), p.Stock(), p.UpdatedAt())
	if err != nil {
		return infra.WrapPgErr(r.logger, "failed to update product", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr(r.logger, infra.KindConflict, "product changed or missing during update", nil)
	}
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return infra.WrapPgErr(r.logger, "failed to delete product", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr(r.logger, infra.KindNotFound, "product not found", nil)
	}
	return nil
}

func (r *ProductRepository) Reserve(ctx context.Context, id uuid.UUID, qty int) (*product.Product, bool, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE products SET reserved = reserved + $2, updated_at = $3
		 WHERE id = $1 AND stock - reserved >= $2
		 RETURNING `+productColumns,
		id, qty, r.now())
	p, err := scanProduct(row)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, false, nil
		}
		return nil, false, infra.WrapPgErr(r.logger, "failed to reserve stock", err)
	}
	return p, true, nil
}

func (r *ProductRepository) Release(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	return r.guarded(ctx, "failed to release reservation",
		`UPDATE products SET reserved = reserved - $2, updated_at = $3
		 WHERE id = $1 AND reserved >= $2`, id, qty)
}

func (r *ProductRepository) CommitSale(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	return r.guarded(ctx, "failed to commit sale",
		`UPDATE products SET stock = stock - $2, reserved = reserved - $2, updated_at = $3
		 WHERE id = $1 AND stock >= $2 AND reserved >= $2`, id, qty)
}

func (r *ProductRepository) Restock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	return r.guarded(ctx, "failed to restock product",
		`UPDATE products SET stock = stock + $2, updated_at = $3 WHERE id = $1`, id, qty)
}

func (r *ProductRepository) guarded(ctx context.Context, msg, sql string, id uuid.UUID, qty int) (bool, error) {
	tag, err := r.db.Exec(ctx, sql, id, qty, r.now())
	if err != nil {
		return false, infra.WrapPgErr(r.logger, msg, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *ProductRepository) collect(rows pgx.Rows) ([]*product.Product, error) {
	defer rows.Close()
	var out []*product.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, infra.WrapPgErr(r.logger, "failed to scan product", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to iterate products", err)
	}
	return out, nil
}

func scanProduct(row pgx.Row) (*product.Product, error) {
	var (
		id                   uuid.UUID
		name                 string
		price                pgtype.Numeric
		stock, reserved      int
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &name, &price, &stock, &reserved, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	d, err := pgconv.DecimalFromNumeric(price)
	if err != nil {
		return nil, err
	}
	return product.ReconstructProduct(id, name, d, stock, reserved, createdAt, updatedAt), nil
}
