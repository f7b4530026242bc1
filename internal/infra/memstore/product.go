package memstore

import (
	"context"
	"sort"

	"storefront/internal/domain/product"
	"storefront/internal/infra"

	"github.com/google/uuid"
)

type productRepo struct{ tx *memTx }

func (r *productRepo) FindByID(_ context.Context, id uuid.UUID) (*product.Product, error) {
	var (
		rec productRec
		ok  bool
	)
	r.tx.run(func(s *state) { rec, ok = s.products[id] })
	if !ok {
		return nil, infra.WrapRepoErr(r.tx.logger, infra.KindNotFound, "product not found", nil)
	}
	return rec.toDomain(), nil
}

func (r *productRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*product.Product, error) {
	return r.FindByID(ctx, id)
}

func (r *productRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*product.Product, error) {
	var out []*product.Product
	r.tx.run(func(s *state) {
		for _, id := range ids {
			if rec, ok := s.products[id]; ok {
				out = append(out, rec.toDomain())
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID().String() < out[j].ID().String() })
	return out, nil
}

func (r *productRepo) List(_ context.Context) ([]*product.Product, error) {
	var out []*product.Product
	r.tx.run(func(s *state) {
		for _, rec := range s.products {
			out = append(out, rec.toDomain())
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			return out[i].CreatedAt().After(out[j].CreatedAt())
		}
		return out[i].ID().String() < out[j].ID().String()
	})
	return out, nil
}

func (r *productRepo) Create(_ context.Context, p *product.Product) error {
	var dup bool
	r.tx.run(func(s *state) {
		if _, dup = s.products[p.ID()]; !dup {
			s.products[p.ID()] = productFromDomain(p)
		}
	})
	if dup {
		return infra.WrapRepoErr(r.tx.logger, infra.KindDuplicateKey, "product already exists", nil)
	}
	return nil
}

func (r *productRepo) Update(_ context.Context, p *product.Product) error {
	var kind infra.RepositoryErrorKind
	r.tx.run(func(s *state) {
		rec, ok := s.products[p.ID()]
		switch {
		case !ok:
			kind = infra.KindNotFound
		case p.Stock() < rec.Reserved:
			kind = infra.KindConflict
		default:
			rec.Name, rec.Price, rec.Stock, rec.UpdatedAt = p.Name(), p.Price(), p.Stock(), p.UpdatedAt()
			s.products[p.ID()] = rec
		}
	})
	if kind != "" {
		return infra.WrapRepoErr(r.tx.logger, kind, "failed to update product", nil)
	}
	return nil
}

func (r *productRepo) Delete(_ context.Context, id uuid.UUID) error {
	var ok bool
	r.tx.run(func(s *state) {
		if _, ok = s.products[id]; ok {
			delete(s.products, id)
		}
	})
	if !ok {
		return infra.WrapRepoErr(r.tx.logger, infra.KindNotFound, "product not found", nil)
	}
	return nil
}

func (r *productRepo) Reserve(_ context.Context, id uuid.UUID, qty int) (*product.Product, bool, error) {
	var (
		out *product.Product
		ok  bool
	)
	r.tx.run(func(s *state) {
		rec, found := s.products[id]
		if !found || rec.Stock-rec.Reserved < qty {
			return
		}
		rec.Reserved += qty
		rec.UpdatedAt = r.tx.now()
		s.products[id] = rec
		out, ok = rec.toDomain(), true
	})
	return out, ok, nil
}

func (r *productRepo) Release(_ context.Context, id uuid.UUID, qty int) (bool, error) {
	return r.guarded(id, func(rec *productRec) bool {
		if rec.Reserved < qty {
			return false
		}
		rec.Reserved -= qty
		return true
	}), nil
}

func (r *productRepo) CommitSale(_ context.Context, id uuid.UUID, qty int) (bool, error) {
	return r.guarded(id, func(rec *productRec) bool {
		if rec.Stock < qty || rec.Reserved < qty {
			return false
		}
		rec.Stock -= qty
		rec.Reserved -= qty
		return true
	}), nil
}

func (r *productRepo) Restock(_ context.Context, id uuid.UUID, qty int) (bool, error) {
	return r.guarded(id, func(rec *productRec) bool {
		rec.Stock += qty
		return true
	}), nil
}

func (r *productRepo) guarded(id uuid.UUID, apply func(*productRec) bool) bool {
	var ok bool
	r.tx.run(func(s *state) {
		rec, found := s.products[id]
		if !found || !apply(&rec) {
			return
		}
		rec.UpdatedAt = r.tx.now()
		s.products[id] = rec
		ok = true
	})
	return ok
}

func productFromDomain(p *product.Product) productRec {
	return productRec{
		ID:        p.ID(),
		Name:      p.Name(),
		Price:     p.Price(),
		Stock:     p.Stock(),
		Reserved:  p.Reserved(),
		CreatedAt: p.CreatedAt(),
		UpdatedAt: p.UpdatedAt(),
	}
}

func (rec productRec) toDomain() *product.Product {
	return product.ReconstructProduct(rec.ID, rec.Name, rec.Price, rec.Stock, rec.Reserved, rec.CreatedAt, rec.UpdatedAt)
}
