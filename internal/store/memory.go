package store

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	address   string
	expiresAt time.Time
}

// MemoryStore is the in-process Store used by default and in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) SaveIdentity(ctx context.Context, partnerID, address string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[partnerID] = memoryEntry{
		address:   address,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

func (s *MemoryStore) LoadIdentity(ctx context.Context, partnerID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[partnerID]
	if !ok || s.now().After(entry.expiresAt) {
		return "", ErrNotFound
	}
	return entry.address, nil
}

func (s *MemoryStore) ClearIdentity(ctx context.Context, partnerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, partnerID)
	return nil
}
