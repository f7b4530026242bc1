// Package memstore keeps the whole store in process memory. Transactions are
// serialized by one mutex and applied by swapping in a modified copy, so a
// failed transaction leaves nothing behind.
package memstore

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"storefront/internal/domain/cart"
	"storefront/internal/domain/order"
	"storefront/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type productRec struct {
	ID        uuid.UUID
	Name      string
	Price     decimal.Decimal
	Stock     int
	Reserved  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type cartRec struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Items     []cart.Item
	Status    cart.Status
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

type userRec struct {
	ID          uuid.UUID
	CancelMonth string
	CancelCount int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// state records are replaced, never mutated in place, so a shallow map copy
// is an independent snapshot.
type state struct {
	products   map[uuid.UUID]productRec
	carts      map[uuid.UUID]cartRec
	cartByUser map[uuid.UUID]uuid.UUID
	orders     map[uuid.UUID]order.Snapshot
	users      map[uuid.UUID]userRec
	events     []shared.OutboxEvent
}

func newState() *state {
	return &state{
		products:   map[uuid.UUID]productRec{},
		carts:      map[uuid.UUID]cartRec{},
		cartByUser: map[uuid.UUID]uuid.UUID{},
		orders:     map[uuid.UUID]order.Snapshot{},
		users:      map[uuid.UUID]userRec{},
	}
}

func (s *state) clone() *state {
	c := &state{
		products:   make(map[uuid.UUID]productRec, len(s.products)),
		carts:      make(map[uuid.UUID]cartRec, len(s.carts)),
		cartByUser: make(map[uuid.UUID]uuid.UUID, len(s.cartByUser)),
		orders:     make(map[uuid.UUID]order.Snapshot, len(s.orders)),
		users:      make(map[uuid.UUID]userRec, len(s.users)),
		events:     append([]shared.OutboxEvent(nil), s.events...),
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.carts {
		c.carts[k] = v
	}
	for k, v := range s.cartByUser {
		c.cartByUser[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	return c
}

type Store struct {
	mu     sync.Mutex
	st     *state
	logger *slog.Logger
	now    func() time.Time
}

func New(logger *slog.Logger) *Store {
	return &Store{st: newState(), logger: logger, now: time.Now}
}

func (s *Store) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.st.clone()
	if err := fn(ctx, s.tx(work, nil)); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) WithinReadOnly(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	s.mu.Lock()
	snapshot := s.st.clone()
	s.mu.Unlock()

	return fn(ctx, s.tx(snapshot, nil))
}

// WithDB applies each repository call to live state under the lock. It must
// not be called from inside Within.
func (s *Store) WithDB(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	return fn(ctx, s.tx(nil, func(op func(*state)) {
		s.mu.Lock()
		defer s.mu.Unlock()
		op(s.st)
	}))
}

func (s *Store) tx(st *state, locked func(func(*state))) *memTx {
	run := locked
	if run == nil {
		run = func(op func(*state)) { op(st) }
	}
	return &memTx{run: run, logger: s.logger, now: s.now}
}

type memTx struct {
	run    func(func(*state))
	logger *slog.Logger
	now    func() time.Time
}

func (t *memTx) Products() shared.ProductRepository { return &productRepo{t} }
func (t *memTx) Carts() shared.CartRepository       { return &cartRepo{t} }
func (t *memTx) Orders() shared.OrderRepository     { return &orderRepo{t} }
func (t *memTx) Users() shared.UserRepository       { return &userRepo{t} }
func (t *memTx) Outbox() shared.OutboxRepository    { return &outboxRepo{t} }
