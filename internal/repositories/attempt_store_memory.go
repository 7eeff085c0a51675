package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/denimhub/dashboard/internal/models"
	lru "github.com/hashicorp/golang-lru/v2"
)

type memoryAttemptEntry struct {
	record    models.LoginAttemptRecord
	expiresAt time.Time
}

// MemoryAttemptStore keeps attempt records in a bounded in-process LRU.
// Writes refresh recency, so the least recently failed identity is evicted first.
// Reads use Peek and do not affect eviction order.
type MemoryAttemptStore struct {
	cache *lru.Cache[string, memoryAttemptEntry]
	now   func() time.Time
}

// NewMemoryAttemptStore creates a store holding at most maxEntries identities
func NewMemoryAttemptStore(maxEntries int) (*MemoryAttemptStore, error) {
	cache, err := lru.New[string, memoryAttemptEntry](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create attempt cache: %w", err)
	}
	return &MemoryAttemptStore{cache: cache, now: time.Now}, nil
}

// SetClock overrides the time source, for tests
func (s *MemoryAttemptStore) SetClock(now func() time.Time) {
	s.now = now
}

func (s *MemoryAttemptStore) Get(_ context.Context, key string) (*models.LoginAttemptRecord, error) {
	entry, ok := s.cache.Peek(key)
	if !ok {
		return nil, nil
	}
	if !s.now().Before(entry.expiresAt) {
		s.cache.Remove(key)
		return nil, nil
	}

	record := entry.record
	return &record, nil
}

func (s *MemoryAttemptStore) Set(_ context.Context, key string, record *models.LoginAttemptRecord, ttl time.Duration) error {
	s.cache.Add(key, memoryAttemptEntry{
		record:    *record,
		expiresAt: s.now().Add(ttl),
	})
	return nil
}

func (s *MemoryAttemptStore) Delete(_ context.Context, key string) error {
	s.cache.Remove(key)
	return nil
}

// Len returns the number of tracked identities, expired or not
func (s *MemoryAttemptStore) Len() int {
	return s.cache.Len()
}

// Sweep drops every entry whose TTL has elapsed and returns how many were removed
func (s *MemoryAttemptStore) Sweep(_ context.Context) (int64, error) {
	now := s.now()
	var removed int64
	for _, key := range s.cache.Keys() {
		entry, ok := s.cache.Peek(key)
		if ok && !now.Before(entry.expiresAt) {
			s.cache.Remove(key)
			removed++
		}
	}
	return removed, nil
}
