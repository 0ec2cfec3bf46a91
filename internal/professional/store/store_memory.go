package store

import (
	"context"
	"sort"
	"sync"

	"clinic/internal/professional/models"
	id "clinic/pkg/domain"
	"clinic/pkg/platform/sentinel"
	pstrings "clinic/pkg/platform/strings"
)

// InMemoryStore keeps professionals in a map guarded by a RWMutex.
// Professionals are deep-copied on the way in and out.
type InMemoryStore struct {
	mu            sync.RWMutex
	professionals map[id.ProfessionalID]*models.Professional
	byDocument    map[string]id.ProfessionalID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		professionals: make(map[id.ProfessionalID]*models.Professional),
		byDocument:    make(map[string]id.ProfessionalID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, p *models.Professional) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byDocument[p.Document]; taken {
		return sentinel.ErrAlreadyUsed
	}
	s.professionals[p.ID] = p.Clone()
	s.byDocument[p.Document] = p.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, professionalID id.ProfessionalID) (*models.Professional, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.professionals[professionalID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return p.Clone(), nil
}

// FindByIDs returns the professionals that exist among ids, ordered by name.
func (s *InMemoryStore) FindByIDs(_ context.Context, ids []id.ProfessionalID) ([]*models.Professional, error) {
	s.mu.RLock()
	found := make([]*models.Professional, 0, len(ids))
	seen := make(map[id.ProfessionalID]struct{}, len(ids))
	for _, professionalID := range ids {
		if _, dup := seen[professionalID]; dup {
			continue
		}
		seen[professionalID] = struct{}{}
		if p, ok := s.professionals[professionalID]; ok {
			found = append(found, p.Clone())
		}
	}
	s.mu.RUnlock()
	sortByName(found)
	return found, nil
}

func (s *InMemoryStore) Find(_ context.Context, filter models.Filter) ([]*models.Professional, error) {
	s.mu.RLock()
	matches := make([]*models.Professional, 0, len(s.professionals))
	for _, p := range s.professionals {
		if matchesFilter(p, filter) {
			matches = append(matches, p.Clone())
		}
	}
	s.mu.RUnlock()
	sortByName(matches)

	limit, offset := filter.Page()
	if offset >= len(matches) {
		return []*models.Professional{}, nil
	}
	return matches[offset:min(offset+limit, len(matches))], nil
}

// Execute applies fn to a copy of the stored professional while holding
// the write lock and saves the result when fn succeeds.
func (s *InMemoryStore) Execute(_ context.Context, professionalID id.ProfessionalID, fn func(*models.Professional) error) (*models.Professional, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.professionals[professionalID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	p := current.Clone()
	if err := fn(p); err != nil {
		return nil, err
	}
	if owner, taken := s.byDocument[p.Document]; taken && owner != professionalID {
		return nil, sentinel.ErrAlreadyUsed
	}
	delete(s.byDocument, current.Document)
	s.professionals[professionalID] = p.Clone()
	s.byDocument[p.Document] = professionalID
	return p, nil
}

func sortByName(ps []*models.Professional) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].Name != ps[j].Name {
			return ps[i].Name < ps[j].Name
		}
		return ps[i].ID.String() < ps[j].ID.String()
	})
}

func matchesFilter(p *models.Professional, filter models.Filter) bool {
	if filter.Type != "" && p.Type != filter.Type {
		return false
	}
	if filter.State != "" && p.State != filter.State {
		return false
	}
	if filter.Document != "" && p.Document != filter.Document {
		return false
	}
	if filter.Name != "" {
		if !pstrings.ContainsFold(p.Name, filter.Name) {
			return false
		}
	}
	return true
}
