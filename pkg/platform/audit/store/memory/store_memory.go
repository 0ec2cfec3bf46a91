package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	audit "clinic/pkg/platform/audit"
)

// InMemoryStore is an outbox held in process memory. Entries stay pending
// until MarkPublished drops them, so with no relay running it only grows.
type InMemoryStore struct {
	mu      sync.Mutex
	pending []audit.OutboxEntry
	now     func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{now: time.Now}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	entry, err := audit.NewOutboxEntry(event, s.now())
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, entry)
	return nil
}

// FetchPending returns up to limit pending entries, oldest first.
func (s *InMemoryStore) FetchPending(_ context.Context, limit int) ([]audit.OutboxEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.pending)
	if limit > 0 && limit < n {
		n = limit
	}
	return slices.Clone(s.pending[:n]), nil
}

// MarkPublished drops the given entries.
func (s *InMemoryStore) MarkPublished(_ context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = slices.DeleteFunc(s.pending, func(e audit.OutboxEntry) bool {
		return slices.Contains(ids, e.ID)
	})
	return nil
}
