package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local cooldown store. Entries self-expire via a
// deferred deletion scheduled at 2x the window, so the map never grows past
// the set of recently active identities.
//
// Correct for a single server instance only; multi-instance deployments
// must use RedisStore.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]time.Time

	// now is swappable in tests
	now func() time.Time
}

// NewMemoryStore creates an empty in-memory cooldown store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// CheckAndRecord admits the first submission for a key and any submission
// after the window has elapsed, recording the admission time. The check and
// the record happen under one lock, so concurrent submissions for the same
// key admit exactly once.
func (s *MemoryStore) CheckAndRecord(_ context.Context, key string, window time.Duration) (bool, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if last, ok := s.entries[key]; ok {
		elapsed := now.Sub(last)
		if elapsed < window {
			return false, window - elapsed, nil
		}
	}

	s.entries[key] = now
	time.AfterFunc(2*window, func() {
		s.evict(key, now)
	})
	return true, 0, nil
}

// evict removes the entry only if it still holds the timestamp the eviction
// was scheduled for; a later admission re-schedules its own eviction.
func (s *MemoryStore) evict(key string, recordedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if last, ok := s.entries[key]; ok && last.Equal(recordedAt) {
		delete(s.entries, key)
	}
}

// Len returns the number of live entries
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
