package memory

import (
	"context"
	"sort"
	"sync"

	"assessment-service/internal/domain"
)

// UserStore is an in-memory implementation of app.UserRepository.
// Email and login id are unique when set.
type UserStore struct {
	mu        sync.RWMutex
	users     map[string]domain.User
	byEmail   map[string]string
	byLoginID map[string]string
}

func NewUserStore() *UserStore {
	return &UserStore{
		users:     make(map[string]domain.User),
		byEmail:   make(map[string]string),
		byLoginID: make(map[string]string),
	}
}

func (s *UserStore) Create(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.Email != "" {
		if _, taken := s.byEmail[user.Email]; taken {
			return domain.ErrEmailTaken
		}
	}
	if user.LoginID != "" {
		if _, taken := s.byLoginID[user.LoginID]; taken {
			return domain.ErrLoginIDTaken
		}
	}
	s.users[user.ID] = user
	if user.Email != "" {
		s.byEmail[user.Email] = user.ID
	}
	if user.LoginID != "" {
		s.byLoginID[user.LoginID] = user.ID
	}
	return nil
}

func (s *UserStore) GetByID(_ context.Context, id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return s.users[id], nil
}

func (s *UserStore) GetByLoginID(_ context.Context, loginID string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byLoginID[loginID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return s.users[id], nil
}

func (s *UserStore) List(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	out := make([]domain.User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
