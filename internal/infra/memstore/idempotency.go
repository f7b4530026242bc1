package memstore

import (
	"context"
	"sync"
	"time"

	"storefront/internal/usecase/shared"

	"github.com/google/uuid"
)

type idemEntry struct {
	resultID  *uuid.UUID
	expiresAt time.Time
}

// IdempotencyStore is the single-process counterpart of the Redis store.
type IdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]idemEntry
	now     func() time.Time
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{entries: map[string]idemEntry{}, now: time.Now}
}

func (s *IdempotencyStore) Claim(_ context.Context, key string, ttl time.Duration) (shared.IdempotencyClaim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.entries[key]; ok && now.Before(e.expiresAt) {
		return shared.IdempotencyClaim{ResultID: e.resultID}, nil
	}
	s.entries[key] = idemEntry{expiresAt: now.Add(ttl)}
	return shared.IdempotencyClaim{Acquired: true}, nil
}

func (s *IdempotencyStore) Complete(_ context.Context, key string, resultID uuid.UUID, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := resultID
	s.entries[key] = idemEntry{resultID: &id, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *IdempotencyStore) Abandon(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}
