package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"clinic/internal/user/models"
	id "clinic/pkg/domain"
	"clinic/pkg/platform/sentinel"
	pstrings "clinic/pkg/platform/strings"
)

// InMemoryStore keeps users in a map guarded by a RWMutex.
// Returned users are copies; changes go through Execute.
type InMemoryStore struct {
	mu      sync.RWMutex
	users   map[id.UserID]models.User
	byEmail map[string]id.UserID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:   make(map[id.UserID]models.User),
		byEmail: make(map[string]id.UserID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[user.Email]; taken {
		return sentinel.ErrAlreadyUsed
	}
	s.users[user.ID] = *user
	s.byEmail[user.Email] = user.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &user, nil
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.byEmail[email]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	user := s.users[userID]
	return &user, nil
}

func (s *InMemoryStore) Find(_ context.Context, filter models.Filter) ([]*models.User, error) {
	s.mu.RLock()
	matches := make([]models.User, 0, len(s.users))
	for _, user := range s.users {
		if matchesFilter(user, filter) {
			matches = append(matches, user)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Name != matches[j].Name {
			return matches[i].Name < matches[j].Name
		}
		return matches[i].ID.String() < matches[j].ID.String()
	})

	limit, offset := filter.Page()
	if offset >= len(matches) {
		return []*models.User{}, nil
	}
	matches = matches[offset:min(offset+limit, len(matches))]
	out := make([]*models.User, 0, len(matches))
	for i := range matches {
		out = append(out, &matches[i])
	}
	return out, nil
}

// Execute applies fn to the stored user while holding the write lock and
// saves the result. When fn fails the stored user is left as it was.
func (s *InMemoryStore) Execute(_ context.Context, userID id.UserID, fn func(*models.User) error) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	user := current
	if err := fn(&user); err != nil {
		return nil, err
	}
	if owner, taken := s.byEmail[user.Email]; taken && owner != userID {
		return nil, sentinel.ErrAlreadyUsed
	}
	delete(s.byEmail, current.Email)
	s.users[userID] = user
	s.byEmail[user.Email] = userID
	return &user, nil
}

func (s *InMemoryStore) Delete(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byEmail, user.Email)
	delete(s.users, userID)
	return nil
}

func matchesFilter(user models.User, filter models.Filter) bool {
	if filter.State != "" && user.State != filter.State {
		return false
	}
	if filter.Email != "" && user.Email != strings.ToLower(strings.TrimSpace(filter.Email)) {
		return false
	}
	if filter.Name != "" && !pstrings.ContainsFold(user.Name, filter.Name) {
		return false
	}
	return true
}
