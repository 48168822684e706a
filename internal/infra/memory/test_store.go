package memory

import (
	"context"
	"sort"
	"sync"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
)

// TestStore is an in-memory implementation of app.TestRepository.
type TestStore struct {
	mu    sync.RWMutex
	tests map[string]domain.Test
}

func NewTestStore() *TestStore {
	return &TestStore{tests: make(map[string]domain.Test)}
}

func (s *TestStore) Create(_ context.Context, test domain.Test) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tests[test.ID] = cloneTest(test)
	return nil
}

func (s *TestStore) Get(_ context.Context, id string) (domain.Test, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	test, ok := s.tests[id]
	if !ok {
		return domain.Test{}, domain.ErrTestNotFound
	}
	return cloneTest(test), nil
}

func (s *TestStore) Update(_ context.Context, test domain.Test) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tests[test.ID]; !ok {
		return domain.ErrTestNotFound
	}
	s.tests[test.ID] = cloneTest(test)
	return nil
}

func (s *TestStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tests[id]; !ok {
		return domain.ErrTestNotFound
	}
	delete(s.tests, id)
	return nil
}

// List returns matching tests ordered by creation time.
func (s *TestStore) List(_ context.Context, filter app.TestFilter) ([]domain.Test, error) {
	var ids map[string]bool
	if len(filter.IDs) > 0 {
		ids = make(map[string]bool, len(filter.IDs))
		for _, id := range filter.IDs {
			ids[id] = true
		}
	}

	s.mu.RLock()
	out := make([]domain.Test, 0, len(s.tests))
	for _, test := range s.tests {
		if filter.Type != "" && test.Type != filter.Type {
			continue
		}
		if filter.ParentID != "" && !test.HasParent(filter.ParentID) {
			continue
		}
		if ids != nil && !ids[test.ID] {
			continue
		}
		out = append(out, cloneTest(test))
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

func cloneTest(t domain.Test) domain.Test {
	t.ParentIDs = append([]string{}, t.ParentIDs...)
	return t
}
