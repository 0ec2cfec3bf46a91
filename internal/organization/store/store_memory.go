package store

import (
	"context"
	"sort"
	"sync"

	"clinic/internal/organization/models"
	id "clinic/pkg/domain"
	"clinic/pkg/platform/sentinel"
	pstrings "clinic/pkg/platform/strings"
)

// InMemoryStore keeps organizations in a map guarded by a RWMutex.
// Organizations are deep-copied on the way in and out.
type InMemoryStore struct {
	mu     sync.RWMutex
	orgs   map[id.OrganizationID]*models.Organization
	byCNPJ map[string]id.OrganizationID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		orgs:   make(map[id.OrganizationID]*models.Organization),
		byCNPJ: make(map[string]id.OrganizationID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byCNPJ[org.CNPJ]; taken {
		return sentinel.ErrAlreadyUsed
	}
	s.orgs[org.ID] = org.Clone()
	s.byCNPJ[org.CNPJ] = org.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, orgID id.OrganizationID) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	org, ok := s.orgs[orgID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return org.Clone(), nil
}

func (s *InMemoryStore) Find(_ context.Context, filter models.Filter) ([]*models.Organization, error) {
	s.mu.RLock()
	matches := make([]*models.Organization, 0, len(s.orgs))
	for _, org := range s.orgs {
		if matchesFilter(org, filter) {
			matches = append(matches, org.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].TradeName != matches[j].TradeName {
			return matches[i].TradeName < matches[j].TradeName
		}
		return matches[i].ID.String() < matches[j].ID.String()
	})

	limit, offset := filter.Page()
	if offset >= len(matches) {
		return []*models.Organization{}, nil
	}
	return matches[offset:min(offset+limit, len(matches))], nil
}

// Execute applies fn to a copy of the stored organization while holding
// the write lock and saves the result when fn succeeds.
func (s *InMemoryStore) Execute(_ context.Context, orgID id.OrganizationID, fn func(*models.Organization) error) (*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.orgs[orgID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	org := current.Clone()
	if err := fn(org); err != nil {
		return nil, err
	}
	if owner, taken := s.byCNPJ[org.CNPJ]; taken && owner != orgID {
		return nil, sentinel.ErrAlreadyUsed
	}
	delete(s.byCNPJ, current.CNPJ)
	s.orgs[orgID] = org.Clone()
	s.byCNPJ[org.CNPJ] = orgID
	return org, nil
}

func matchesFilter(org *models.Organization, filter models.Filter) bool {
	if filter.State != "" && org.State != filter.State {
		return false
	}
	if filter.CNPJ != "" && org.CNPJ != filter.CNPJ {
		return false
	}
	if filter.Name != "" {
		if !pstrings.ContainsFold(org.TradeName, filter.Name) && !pstrings.ContainsFold(org.LegalName, filter.Name) {
			return false
		}
	}
	return true
}
