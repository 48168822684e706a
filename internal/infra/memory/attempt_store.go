package memory

import (
	"context"
	"sync"

	"assessment-service/internal/domain"
)

// AttemptStore is an in-memory implementation of app.AttemptRepository.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[submissionKey]domain.Attempt
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{attempts: make(map[submissionKey]domain.Attempt)}
}

// Start keeps the first attempt of a (user, test) pair.
func (s *AttemptStore) Start(_ context.Context, attempt domain.Attempt) (domain.Attempt, error) {
	key := submissionKey{userID: attempt.UserID, testID: attempt.TestID}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.attempts[key]; ok {
		return existing, nil
	}
	s.attempts[key] = attempt
	return attempt, nil
}

func (s *AttemptStore) Get(_ context.Context, userID, testID string) (domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[submissionKey{userID: userID, testID: testID}]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return attempt, nil
}
