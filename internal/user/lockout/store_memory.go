package lockout

import (
	"context"
	"sync"
	"time"
)

type memoryRecord struct {
	failures    int
	windowEnds  time.Time
	lockedUntil time.Time
}

// InMemoryStore keeps lockout state for a single process.
type InMemoryStore struct {
	mu      sync.Mutex
	records map[string]*memoryRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]*memoryRecord)}
}

func (s *InMemoryStore) Get(_ context.Context, key string, now time.Time) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.live(key, now)
	if r == nil {
		return Record{}, nil
	}
	out := Record{LockedUntil: r.lockedUntil}
	if now.Before(r.windowEnds) {
		out.Failures = r.failures
	}
	return out, nil
}

func (s *InMemoryStore) RecordFailure(_ context.Context, key string, window time.Duration, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.live(key, now)
	if r == nil {
		r = &memoryRecord{}
		s.records[key] = r
	}
	if !now.Before(r.windowEnds) {
		r.failures = 0
		r.windowEnds = now.Add(window)
	}
	r.failures++
	return r.failures, nil
}

func (s *InMemoryStore) Lock(_ context.Context, key string, until, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.live(key, now)
	if r == nil {
		r = &memoryRecord{}
		s.records[key] = r
	}
	r.lockedUntil = until
	return nil
}

func (s *InMemoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

// live returns the record for key, dropping it when both its window and
// its lock have passed. Caller holds s.mu.
func (s *InMemoryStore) live(key string, now time.Time) *memoryRecord {
	r, ok := s.records[key]
	if !ok {
		return nil
	}
	if !now.Before(r.windowEnds) && !now.Before(r.lockedUntil) {
		delete(s.records, key)
		return nil
	}
	return r
}
