package otp

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	Entry
	expiresAt time.Time
}

// MemoryCodeStore is used when no Redis is configured and in tests.
type MemoryCodeStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCodeStore() *MemoryCodeStore {
	return &MemoryCodeStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryCodeStore) Save(_ context.Context, verificationID string, entry Entry, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[verificationID] = memoryEntry{Entry: entry, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryCodeStore) Get(_ context.Context, verificationID string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(verificationID)
	if !ok {
		return nil, ErrNotFound
	}
	entry := e.Entry
	return &entry, nil
}

func (s *MemoryCodeStore) IncrementAttempts(_ context.Context, verificationID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(verificationID)
	if !ok {
		return 0, ErrNotFound
	}
	e.Attempts++
	s.entries[verificationID] = e
	return e.Attempts, nil
}

func (s *MemoryCodeStore) Consume(_ context.Context, verificationID string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(verificationID)
	if !ok {
		return nil, ErrNotFound
	}
	delete(s.entries, verificationID)
	entry := e.Entry
	return &entry, nil
}

func (s *MemoryCodeStore) Delete(_ context.Context, verificationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, verificationID)
	return nil
}

// live must be called with mu held.
func (s *MemoryCodeStore) live(verificationID string) (memoryEntry, bool) {
	e, ok := s.entries[verificationID]
	if !ok {
		return memoryEntry{}, false
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, verificationID)
		return memoryEntry{}, false
	}
	return e, true
}
