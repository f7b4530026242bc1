//go:build e2e

package redisx_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"storefront/internal/infra/redisx"
	"storefront/internal/pkg/config"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = c.Terminate(context.Background())
	})

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, nat.Port("6379/tcp"))
	require.NoError(t, err)

	rdb, err := redisx.New(ctx, config.RedisConfig{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestIdempotencyStore(t *testing.T) {
	rdb := startRedis(t)
	store := redisx.NewIdempotencyStore(rdb)
	ctx := context.Background()

	t.Run("first claim wins and later claims see it in flight", func(t *testing.T) {
		key := "idem:checkout:" + uuid.NewString() + ":k1"

		first, err := store.Claim(ctx, key, time.Minute)
		require.NoError(t, err)
		assert.True(t, first.Acquired)

		second, err := store.Claim(ctx, key, time.Minute)
		require.NoError(t, err)
		assert.False(t, second.Acquired)
		assert.Nil(t, second.ResultID)
	})

	t.Run("completed key replays the order id", func(t *testing.T) {
		key := "idem:checkout:" + uuid.NewString() + ":k2"
		orderID := uuid.New()

		_, err := store.Claim(ctx, key, time.Minute)
		require.NoError(t, err)
		require.NoError(t, store.Complete(ctx, key, orderID, time.Minute))

		claim, err := store.Claim(ctx, key, time.Minute)
		require.NoError(t, err)
		assert.False(t, claim.Acquired)
		require.NotNil(t, claim.ResultID)
		assert.Equal(t, orderID, *claim.ResultID)

		ttl, err := rdb.TTL(ctx, key).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
	})

	t.Run("abandoned key can be claimed again", func(t *testing.T) {
		key := "idem:checkout:" + uuid.NewString() + ":k3"

		_, err := store.Claim(ctx, key, time.Minute)
		require.NoError(t, err)
		require.NoError(t, store.Abandon(ctx, key))

		claim, err := store.Claim(ctx, key, time.Minute)
		require.NoError(t, err)
		assert.True(t, claim.Acquired)
	})

	t.Run("concurrent claims acquire exactly once", func(t *testing.T) {
		key := "idem:checkout:" + uuid.NewString() + ":k4"

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			acquired int
		)
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				claim, err := store.Claim(ctx, key, time.Minute)
				if err == nil && claim.Acquired {
					mu.Lock()
					acquired++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, acquired)
	})

	t.Run("garbage value surfaces as an error", func(t *testing.T) {
		key := "idem:checkout:" + uuid.NewString() + ":k5"
		require.NoError(t, rdb.Set(ctx, key, "not-a-uuid", time.Minute).Err())

		_, err := store.Claim(ctx, key, time.Minute)
		assert.Error(t, err)
	})
}
