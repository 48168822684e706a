package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"assessment-service/internal/domain"
)

// DefaultTimerSeconds is the countdown sent with questions of tests without a duration.
const DefaultTimerSeconds = 30 * 60

// QuestionInput carries the writable fields of a question.
type QuestionInput struct {
	Text        string
	Options     []domain.Option
	Explanation string
	Category    string
}

// PublicOption is an option with its correctness flag hidden.
type PublicOption struct {
	Text string `json:"text"`
}

// PublicQuestion is the learner's view of a question.
type PublicQuestion struct {
	ID       string         `json:"id"`
	TestID   string         `json:"testId"`
	Text     string         `json:"questionText"`
	Options  []PublicOption `json:"options"`
	Category string         `json:"category,omitempty"`
	AddedBy  *domain.Author `json:"addedBy,omitempty"`
}

// QuestionSheet is what a learner receives before an attempt.
type QuestionSheet struct {
	Questions []PublicQuestion `json:"questions"`
	Timer     int              `json:"timer"` // seconds
}

// QuestionService manages questions. Every write drops the cached answer key
// of the affected test so the scorer never sees a stale key.
type QuestionService struct {
	tests     TestRepository
	questions QuestionRepository
	keys      AnswerKeyRepository
	logger    *zap.Logger
	now       func() time.Time
}

func NewQuestionService(tests TestRepository, questions QuestionRepository, keys AnswerKeyRepository, logger *zap.Logger) *QuestionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuestionService{tests: tests, questions: questions, keys: keys, logger: logger, now: time.Now}
}

// Add creates a question on an existing test.
func (s *QuestionService) Add(ctx context.Context, testID string, in QuestionInput, author domain.Author) (domain.Question, error) {
	if err := validateQuestion(in); err != nil {
		return domain.Question{}, err
	}
	if _, err := s.tests.Get(ctx, testID); err != nil {
		return domain.Question{}, err
	}
	q := domain.Question{
		ID:          uuid.NewString(),
		TestID:      testID,
		Text:        in.Text,
		Options:     in.Options,
		Explanation: in.Explanation,
		Category:    in.Category,
		AddedBy:     &author,
		CreatedAt:   s.now(),
	}
	if err := s.questions.Create(ctx, q); err != nil {
		return domain.Question{}, fmt.Errorf("create question: %w", err)
	}
	s.invalidate(ctx, testID)
	return q, nil
}

// Edit replaces text, options and category of a question.
func (s *QuestionService) Edit(ctx context.Context, testID, questionID string, in QuestionInput, author domain.Author) (domain.Question, error) {
	if err := validateQuestion(in); err != nil {
		return domain.Question{}, err
	}
	q, err := s.questions.Get(ctx, testID, questionID)
	if err != nil {
		return domain.Question{}, err
	}
	q.Text = in.Text
	q.Options = in.Options
	if in.Explanation != "" {
		q.Explanation = in.Explanation
	}
	q.Category = in.Category
	q.UpdatedBy = &author
	q.UpdatedAt = s.now()
	if err := s.questions.Update(ctx, q); err != nil {
		return domain.Question{}, fmt.Errorf("update question: %w", err)
	}
	s.invalidate(ctx, testID)
	return q, nil
}

// SetExplanation stores the text revealed after submission.
func (s *QuestionService) SetExplanation(ctx context.Context, testID, questionID, explanation string, author domain.Author) (domain.Question, error) {
	if strings.TrimSpace(explanation) == "" {
		return domain.Question{}, domain.Invalidf("explanation is required")
	}
	q, err := s.questions.Get(ctx, testID, questionID)
	if err != nil {
		return domain.Question{}, err
	}
	q.Explanation = explanation
	q.UpdatedBy = &author
	q.UpdatedAt = s.now()
	if err := s.questions.Update(ctx, q); err != nil {
		return domain.Question{}, fmt.Errorf("update explanation: %w", err)
	}
	return q, nil
}

func (s *QuestionService) Delete(ctx context.Context, testID, questionID string) error {
	if err := s.questions.Delete(ctx, testID, questionID); err != nil {
		return err
	}
	s.invalidate(ctx, testID)
	return nil
}

// Get returns a question including correctness flags.
func (s *QuestionService) Get(ctx context.Context, testID, questionID string) (domain.Question, error) {
	return s.questions.Get(ctx, testID, questionID)
}

// Sheet returns the learner view of a test's questions with the countdown in seconds.
func (s *QuestionService) Sheet(ctx context.Context, testID string) (QuestionSheet, error) {
	test, err := s.tests.Get(ctx, testID)
	if err != nil {
		return QuestionSheet{}, err
	}
	questions, err := s.questions.ListByTest(ctx, testID)
	if err != nil {
		return QuestionSheet{}, fmt.Errorf("list questions: %w", err)
	}

	sheet := QuestionSheet{
		Questions: make([]PublicQuestion, 0, len(questions)),
		Timer:     DefaultTimerSeconds,
	}
	if test.Duration > 0 {
		sheet.Timer = test.Duration * 60
	}
	for _, q := range questions {
		pq := PublicQuestion{
			ID:       q.ID,
			TestID:   q.TestID,
			Text:     q.Text,
			Options:  make([]PublicOption, 0, len(q.Options)),
			Category: q.Category,
		}
		if q.AddedBy != nil {
			pq.AddedBy = &domain.Author{Name: q.AddedBy.Name}
		}
		for _, opt := range q.Options {
			pq.Options = append(pq.Options, PublicOption{Text: opt.Text})
		}
		sheet.Questions = append(sheet.Questions, pq)
	}
	return sheet, nil
}

// invalidate drops a cached key; failures only delay freshness until the TTL.
func (s *QuestionService) invalidate(ctx context.Context, testID string) {
	if s.keys == nil {
		return
	}
	if err := s.keys.Invalidate(ctx, testID); err != nil {
		s.logger.Warn("answer key invalidation failed", zap.String("testId", testID), zap.Error(err))
	}
}

func validateQuestion(in QuestionInput) error {
	if strings.TrimSpace(in.Text) == "" {
		return domain.Invalidf("questionText is required")
	}
	return domain.ValidateOptions(in.Options)
}
