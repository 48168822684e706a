package memory

import (
	"context"
	"sort"
	"sync"

	"assessment-service/internal/domain"
)

type submissionKey struct {
	userID string
	testID string
}

// SubmissionStore is an in-memory implementation of app.SubmissionRepository.
// The map key is the (user, test) pair, so Create is an atomic insert-if-absent.
type SubmissionStore struct {
	mu          sync.RWMutex
	submissions map[submissionKey]domain.Submission
}

func NewSubmissionStore() *SubmissionStore {
	return &SubmissionStore{submissions: make(map[submissionKey]domain.Submission)}
}

func (s *SubmissionStore) Create(_ context.Context, sub domain.Submission) error {
	key := submissionKey{userID: sub.UserID, testID: sub.TestID}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.submissions[key]; exists {
		return domain.ErrAlreadySubmitted
	}
	s.submissions[key] = cloneSubmission(sub)
	return nil
}

func (s *SubmissionStore) Get(_ context.Context, userID, testID string) (domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.submissions[submissionKey{userID: userID, testID: testID}]
	if !ok {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	return cloneSubmission(sub), nil
}

// ListByUser returns the user's submissions, newest first.
func (s *SubmissionStore) ListByUser(_ context.Context, userID string) ([]domain.Submission, error) {
	s.mu.RLock()
	out := make([]domain.Submission, 0)
	for key, sub := range s.submissions {
		if key.userID == userID {
			out = append(out, cloneSubmission(sub))
		}
	}
	s.mu.RUnlock()
	sortNewestFirst(out)
	return out, nil
}

func (s *SubmissionStore) ListAll(_ context.Context) ([]domain.Submission, error) {
	s.mu.RLock()
	out := make([]domain.Submission, 0, len(s.submissions))
	for _, sub := range s.submissions {
		out = append(out, cloneSubmission(sub))
	}
	s.mu.RUnlock()
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(subs []domain.Submission) {
	sort.Slice(subs, func(i, j int) bool {
		if !subs[i].SubmittedAt.Equal(subs[j].SubmittedAt) {
			return subs[i].SubmittedAt.After(subs[j].SubmittedAt)
		}
		return subs[i].ID < subs[j].ID
	})
}

func cloneSubmission(sub domain.Submission) domain.Submission {
	sub.Answers = append([]domain.Answer{}, sub.Answers...)
	return sub
}
