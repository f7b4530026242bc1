package repository

import (
	"context"
	"log/slog"
	"time"

	"storefront/internal/domain/user"
	"storefront/internal/infra"
	"storefront/internal/infra/db"

	"github.com/google/uuid"
)

type UserRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewUserRepository(dbtx db.DBTX, logger *slog.Logger) *UserRepository {
	return &UserRepository{db: dbtx, logger: logger}
}

// LockOrCreate upserts the per-user counter row so the first checkout of an
// unseen user can be serialized like every later one.
func (r *UserRepository) LockOrCreate(ctx context.Context, id uuid.UUID, now time.Time) (*user.User, error) {
	_, err := r.db.Exec(ctx,
		`INSERT INTO users (id, cancel_month, cancel_count, created_at, updated_at)
		 VALUES ($1, $2, 0, $3, $3)
		 ON CONFLICT (id) DO NOTHING`,
		id, user.MonthKey(now), now)
	if err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to create user", err)
	}

	var (
		month                string
		count                int
		createdAt, updatedAt time.Time
	)
	err = r.db.QueryRow(ctx,
		`SELECT cancel_month, cancel_count, created_at, updated_at FROM users WHERE id = $1 FOR UPDATE`, id).
		Scan(&month, &count, &createdAt, &updatedAt)
	if err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to lock user", err)
	}
	return user.ReconstructUser(id, month, count, createdAt, updatedAt), nil
}

func (r *UserRepository) Save(ctx context.Context, u *user.User) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET cancel_month = $2, cancel_count = $3, updated_at = $4 WHERE id = $1`,
		u.ID(), u.CancelMonth(), u.CancelCount(), u.UpdatedAt())
	if err != nil {
		return infra.WrapPgErr(r.logger, "failed to save user", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr(r.logger, infra.KindNotFound, "user not found", nil)
	}
	return nil
}
