package memory

import (
	"context"
	"sort"
	"sync"

	"assessment-service/internal/domain"
)

// QuestionStore is an in-memory implementation of app.QuestionRepository.
type QuestionStore struct {
	mu        sync.RWMutex
	seq       int64
	questions map[string]storedQuestion
}

type storedQuestion struct {
	question domain.Question
	seq      int64
}

func NewQuestionStore() *QuestionStore {
	return &QuestionStore{questions: make(map[string]storedQuestion)}
}

func (s *QuestionStore) Create(_ context.Context, q domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.questions[q.ID] = storedQuestion{question: cloneQuestion(q), seq: s.seq}
	return nil
}

func (s *QuestionStore) Get(_ context.Context, testID, questionID string) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.questions[questionID]
	if !ok || stored.question.TestID != testID {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return cloneQuestion(stored.question), nil
}

func (s *QuestionStore) Update(_ context.Context, q domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.questions[q.ID]
	if !ok || stored.question.TestID != q.TestID {
		return domain.ErrQuestionNotFound
	}
	stored.question = cloneQuestion(q)
	s.questions[q.ID] = stored
	return nil
}

func (s *QuestionStore) Delete(_ context.Context, testID, questionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.questions[questionID]
	if !ok || stored.question.TestID != testID {
		return domain.ErrQuestionNotFound
	}
	delete(s.questions, questionID)
	return nil
}

func (s *QuestionStore) DeleteByTest(_ context.Context, testID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, stored := range s.questions {
		if stored.question.TestID == testID {
			delete(s.questions, id)
		}
	}
	return nil
}

// ListByTest returns a test's questions in insertion order.
func (s *QuestionStore) ListByTest(_ context.Context, testID string) ([]domain.Question, error) {
	s.mu.RLock()
	matched := make([]storedQuestion, 0)
	for _, stored := range s.questions {
		if stored.question.TestID == testID {
			matched = append(matched, stored)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })
	out := make([]domain.Question, 0, len(matched))
	for _, stored := range matched {
		out = append(out, cloneQuestion(stored.question))
	}
	return out, nil
}

func cloneQuestion(q domain.Question) domain.Question {
	q.Options = append([]domain.Option{}, q.Options...)
	if q.AddedBy != nil {
		a := *q.AddedBy
		q.AddedBy = &a
	}
	if q.UpdatedBy != nil {
		a := *q.UpdatedBy
		q.UpdatedBy = &a
	}
	return q
}
