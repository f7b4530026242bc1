package shared

import (
	"context"
	"time"

	"storefront/internal/domain/cart"
	"storefront/internal/domain/order"
	"storefront/internal/domain/product"
	"storefront/internal/domain/user"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: Full transaction for write operations with retry logic
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// WithinReadOnly: Read-only transaction for multi-table consistent reads
	WithinReadOnly(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// WithDB: every repository call is its own atomic statement
	WithDB(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type Tx interface {
	Products() ProductRepository
	Carts() CartRepository
	Orders() OrderRepository
	Users() UserRepository
	Outbox() OutboxRepository
}

// ProductRepository mutates inventory counters with single conditional
// updates only. The bool results report whether the guard held.
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*product.Product, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*product.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*product.Product, error)
	List(ctx context.Context) ([]*product.Product, error)
	Create(ctx context.Context, p *product.Product) error
	Update(ctx context.Context, p *product.Product) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Reserve adds qty to reserved while stock - reserved >= qty and returns the
	// product as it is after the update.
	Reserve(ctx context.Context, id uuid.UUID, qty int) (*product.Product, bool, error)
	// Release subtracts qty from reserved while reserved >= qty.
	Release(ctx context.Context, id uuid.UUID, qty int) (bool, error)
	// CommitSale subtracts qty from stock and reserved while both are >= qty.
	CommitSale(ctx context.Context, id uuid.UUID, qty int) (bool, error)
	// Restock adds qty to stock. It reports false when the product is gone.
	Restock(ctx context.Context, id uuid.UUID, qty int) (bool, error)
}

type CartRepository interface {
	// LockOrCreate returns the user's cart locked for the rest of the
	// transaction, creating an empty active one first if needed.
	LockOrCreate(ctx context.Context, userID uuid.UUID, now time.Time, ttl time.Duration) (*cart.Cart, error)
	FindByUserForUpdate(ctx context.Context, userID uuid.UUID) (*cart.Cart, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*cart.Cart, error)
	// ListExpired orders by deadline then id so repeated calls agree.
	ListExpired(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
	ListContainingProduct(ctx context.Context, productID uuid.UUID) ([]*cart.Cart, error)
	Save(ctx context.Context, c *cart.Cart) error
}

type OrderRepository interface {
	Create(ctx context.Context, o *order.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*order.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*order.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]*order.Order, error)
	Save(ctx context.Context, o *order.Order) error
}

type OrderFilter struct {
	Status *order.Status
}

type UserRepository interface {
	// LockOrCreate returns the user's row locked for the rest of the transaction.
	LockOrCreate(ctx context.Context, id uuid.UUID, now time.Time) (*user.User, error)
	Save(ctx context.Context, u *user.User) error
}

type OutboxRepository interface {
	Append(ctx context.Context, event OutboxEvent) error
	// ClaimPending returns the oldest unpublished events.
	ClaimPending(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}
