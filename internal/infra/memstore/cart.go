package memstore

import (
	"context"
	"sort"
	"time"

	"storefront/internal/domain/cart"
	"storefront/internal/infra"

	"github.com/google/uuid"
)

type cartRepo struct{ tx *memTx }

func (r *cartRepo) LockOrCreate(_ context.Context, userID uuid.UUID, now time.Time, ttl time.Duration) (*cart.Cart, error) {
	var rec cartRec
	r.tx.run(func(s *state) {
		if id, ok := s.cartByUser[userID]; ok {
			rec = s.carts[id]
			return
		}
		rec = cartFromDomain(cart.NewCart(userID, now, ttl))
		s.carts[rec.ID] = rec
		s.cartByUser[userID] = rec.ID
	})
	return rec.toDomain(), nil
}

func (r *cartRepo) FindByUserForUpdate(_ context.Context, userID uuid.UUID) (*cart.Cart, error) {
	var (
		rec cartRec
		ok  bool
	)
	r.tx.run(func(s *state) {
		var id uuid.UUID
		if id, ok = s.cartByUser[userID]; ok {
			rec = s.carts[id]
		}
	})
	if !ok {
		return nil, infra.WrapRepoErr(r.tx.logger, infra.KindNotFound, "cart not found", nil)
	}
	return rec.toDomain(), nil
}

func (r *cartRepo) FindByIDForUpdate(_ context.Context, id uuid.UUID) (*cart.Cart, error) {
	var (
		rec cartRec
		ok  bool
	)
	r.tx.run(func(s *state) { rec, ok = s.carts[id] })
	if !ok {
		return nil, infra.WrapRepoErr(r.tx.logger, infra.KindNotFound, "cart not found", nil)
	}
	return rec.toDomain(), nil
}

func (r *cartRepo) ListExpired(_ context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	var recs []cartRec
	r.tx.run(func(s *state) {
		for _, rec := range s.carts {
			if rec.Status == cart.StatusActive && rec.ExpiresAt.Before(now) {
				recs = append(recs, rec)
			}
		}
	})
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].ExpiresAt.Equal(recs[j].ExpiresAt) {
			return recs[i].ExpiresAt.Before(recs[j].ExpiresAt)
		}
		return recs[i].ID.String() < recs[j].ID.String()
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	ids := make([]uuid.UUID, len(recs))
	for i, rec := range recs {
		ids[i] = rec.ID
	}
	return ids, nil
}

func (r *cartRepo) ListContainingProduct(_ context.Context, productID uuid.UUID) ([]*cart.Cart, error) {
	var out []*cart.Cart
	r.tx.run(func(s *state) {
		for _, rec := range s.carts {
			for _, it := range rec.Items {
				if it.ProductID == productID {
					out = append(out, rec.toDomain())
					break
				}
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID().String() < out[j].ID().String() })
	return out, nil
}

func (r *cartRepo) Save(_ context.Context, c *cart.Cart) error {
	var ok bool
	r.tx.run(func(s *state) {
		if _, ok = s.carts[c.ID()]; ok {
			s.carts[c.ID()] = cartFromDomain(c)
		}
	})
	if !ok {
		return infra.WrapRepoErr(r.tx.logger, infra.KindNotFound, "cart not found", nil)
	}
	return nil
}

func cartFromDomain(c *cart.Cart) cartRec {
	return cartRec{
		ID:        c.ID(),
		UserID:    c.UserID(),
		Items:     c.Items(),
		Status:    c.Status(),
		ExpiresAt: c.ExpiresAt(),
		CreatedAt: c.CreatedAt(),
		UpdatedAt: c.UpdatedAt(),
	}
}

func (rec cartRec) toDomain() *cart.Cart {
	return cart.ReconstructCart(rec.ID, rec.UserID, rec.Items, rec.Status, rec.ExpiresAt, rec.CreatedAt, rec.UpdatedAt)
}
