package memstore

import (
	"context"
	"sort"
	"time"

	"storefront/internal/domain/order"
	"storefront/internal/domain/user"
	"storefront/internal/infra"
	"storefront/internal/usecase/shared"

	"github.com/google/uuid"
)

type orderRepo struct{ tx *memTx }

func (r *orderRepo) Create(_ context.Context, o *order.Order) error {
	var dup bool
	r.tx.run(func(s *state) {
		if _, dup = s.orders[o.ID()]; !dup {
			s.orders[o.ID()] = o.Snapshot()
		}
	})
	if dup {
		return infra.WrapRepoErr(r.tx.logger, infra.KindDuplicateKey, "order already exists", nil)
	}
	return nil
}

func (r *orderRepo) FindByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	var (
		snap order.Snapshot
		ok   bool
	)
	r.tx.run(func(s *state) { snap, ok = s.orders[id] })
	if !ok {
		return nil, infra.WrapRepoErr(r.tx.logger, infra.KindNotFound, "order not found", nil)
	}
	return order.ReconstructOrder(snap), nil
}

func (r *orderRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.FindByID(ctx, id)
}

func (r *orderRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*order.Order, error) {
	return r.list(func(s order.Snapshot) bool { return s.UserID == userID }), nil
}

func (r *orderRepo) List(_ context.Context, filter shared.OrderFilter) ([]*order.Order, error) {
	return r.list(func(s order.Snapshot) bool {
		return filter.Status == nil || s.Status == *filter.Status
	}), nil
}

func (r *orderRepo) list(keep func(order.Snapshot) bool) []*order.Order {
	var snaps []order.Snapshot
	r.tx.run(func(s *state) {
		for _, snap := range s.orders {
			if keep(snap) {
				snaps = append(snaps, snap)
			}
		}
	})
	sort.Slice(snaps, func(i, j int) bool {
		if !snaps[i].CreatedAt.Equal(snaps[j].CreatedAt) {
			return snaps[i].CreatedAt.After(snaps[j].CreatedAt)
		}
		return snaps[i].ID.String() < snaps[j].ID.String()
	})
	out := make([]*order.Order, len(snaps))
	for i, snap := range snaps {
		out[i] = order.ReconstructOrder(snap)
	}
	return out
}

func (r *orderRepo) Save(_ context.Context, o *order.Order) error {
	var ok bool
	r.tx.run(func(s *state) {
		if _, ok = s.orders[o.ID()]; ok {
			s.orders[o.ID()] = o.Snapshot()
		}
	})
	if !ok {
		return infra.WrapRepoErr(r.tx.logger, infra.KindNotFound, "order not found", nil)
	}
	return nil
}

type userRepo struct{ tx *memTx }

func (r *userRepo) LockOrCreate(_ context.Context, id uuid.UUID, now time.Time) (*user.User, error) {
	var rec userRec
	r.tx.run(func(s *state) {
		var ok bool
		if rec, ok = s.users[id]; !ok {
			u := user.NewUser(id, now)
			rec = userRec{ID: id, CancelMonth: u.CancelMonth(), CancelCount: u.CancelCount(), CreatedAt: now, UpdatedAt: now}
			s.users[id] = rec
		}
	})
	return user.ReconstructUser(rec.ID, rec.CancelMonth, rec.CancelCount, rec.CreatedAt, rec.UpdatedAt), nil
}

func (r *userRepo) Save(_ context.Context, u *user.User) error {
	var ok bool
	r.tx.run(func(s *state) {
		var rec userRec
		if rec, ok = s.users[u.ID()]; ok {
			rec.CancelMonth, rec.CancelCount, rec.UpdatedAt = u.CancelMonth(), u.CancelCount(), u.UpdatedAt()
			s.users[u.ID()] = rec
		}
	})
	if !ok {
		return infra.WrapRepoErr(r.tx.logger, infra.KindNotFound, "user not found", nil)
	}
	return nil
}

type outboxRepo struct{ tx *memTx }

func (r *outboxRepo) Append(_ context.Context, e shared.OutboxEvent) error {
	r.tx.run(func(s *state) { s.events = append(s.events, e) })
	return nil
}

func (r *outboxRepo) ClaimPending(_ context.Context, limit int) ([]shared.OutboxEvent, error) {
	var out []shared.OutboxEvent
	r.tx.run(func(s *state) {
		for _, e := range s.events {
			if e.PublishedAt != nil {
				continue
			}
			out = append(out, e)
			if limit > 0 && len(out) == limit {
				return
			}
		}
	})
	return out, nil
}

func (r *outboxRepo) MarkPublished(_ context.Context, ids []uuid.UUID, at time.Time) error {
	marked := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		marked[id] = struct{}{}
	}
	r.tx.run(func(s *state) {
		for i := range s.events {
			if _, ok := marked[s.events[i].ID]; ok && s.events[i].PublishedAt == nil {
				ts := at
				s.events[i].PublishedAt = &ts
			}
		}
	})
	return nil
}
