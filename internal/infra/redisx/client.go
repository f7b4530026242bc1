package redisx

import (
	"context"
	"time"

	"storefront/internal/pkg/config"
	"storefront/internal/pkg/errs"
	"storefront/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// processing marks a key whose first request has not finished yet.
const processing = "processing"

func New(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errs.Wrap(err, "failed to ping redis")
	}
	return rdb, nil
}

// IdempotencyStore shares checkout keys across every API instance.
type IdempotencyStore struct {
	rdb redis.Cmdable
}

func NewIdempotencyStore(rdb redis.Cmdable) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb}
}

func (s *IdempotencyStore) Claim(ctx context.Context, key string, ttl time.Duration) (shared.IdempotencyClaim, error) {
	ok, err := s.rdb.SetNX(ctx, key, processing, ttl).Result()
	if err != nil {
		return shared.IdempotencyClaim{}, errs.Wrap(err, "claim idempotency key")
	}
	if ok {
		return shared.IdempotencyClaim{Acquired: true}, nil
	}

	val, err := s.rdb.Get(ctx, key).Result()
	if errs.Is(err, redis.Nil) {
		// Expired between the two calls; the next attempt will claim it.
		return shared.IdempotencyClaim{}, nil
	}
	if err != nil {
		return shared.IdempotencyClaim{}, errs.Wrap(err, "read idempotency key")
	}
	if val == processing {
		return shared.IdempotencyClaim{}, nil
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return shared.IdempotencyClaim{}, errs.Wrap(err, "decode idempotency result")
	}
	return shared.IdempotencyClaim{ResultID: &id}, nil
}

func (s *IdempotencyStore) Complete(ctx context.Context, key string, resultID uuid.UUID, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, key, resultID.String(), ttl).Err(); err != nil {
		return errs.Wrap(err, "complete idempotency key")
	}
	return nil
}

func (s *IdempotencyStore) Abandon(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return errs.Wrap(err, "abandon idempotency key")
	}
	return nil
}
