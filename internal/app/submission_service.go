package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"assessment-service/internal/domain"
)

// ExplanationFilter selects which scored questions to reveal.
type ExplanationFilter string

const (
	FilterCorrect   ExplanationFilter = "correct"
	FilterIncorrect ExplanationFilter = "incorrect"
)

// ParseExplanationFilter accepts only "correct" and "incorrect".
func ParseExplanationFilter(raw string) (ExplanationFilter, error) {
	switch f := ExplanationFilter(raw); f {
	case FilterCorrect, FilterIncorrect:
		return f, nil
	}
	return "", domain.Invalidf("Invalid filter. Use 'correct' or 'incorrect'")
}

// SubmissionService admits one submission per (user, test) and scores it on demand.
type SubmissionService struct {
	repos           Repositories
	stats           *StatsService
	publisher       LeaderboardPublisher
	enforceDeadline bool
	logger          *zap.Logger
	now             func() time.Time
}

// SubmissionOption tweaks a SubmissionService.
type SubmissionOption func(*SubmissionService)

// WithDeadlineEnforcement rejects submissions after the test's validTill or the
// user's attempt deadline.
func WithDeadlineEnforcement(enabled bool) SubmissionOption {
	return func(s *SubmissionService) { s.enforceDeadline = enabled }
}

// WithLeaderboardPublisher pushes a fresh leaderboard after each accepted submission.
func WithLeaderboardPublisher(p LeaderboardPublisher) SubmissionOption {
	return func(s *SubmissionService) { s.publisher = p }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) SubmissionOption {
	return func(s *SubmissionService) { s.now = now }
}

func NewSubmissionService(repos Repositories, stats *StatsService, logger *zap.Logger, opts ...SubmissionOption) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SubmissionService{repos: repos, stats: stats, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit records the user's answers for a test. A second submission for the
// same pair fails with domain.ErrAlreadySubmitted and leaves the first intact.
func (s *SubmissionService) Submit(ctx context.Context, userID, testID string, answers []domain.Answer) (domain.Submission, error) {
	test, err := s.repos.Tests.Get(ctx, testID)
	if err != nil {
		return domain.Submission{}, err
	}
	for i, a := range answers {
		if a.QuestionID == "" {
			return domain.Submission{}, domain.Invalidf("answers[%d].questionId is required", i)
		}
		if a.SelectedOptionIndex < 0 || a.SelectedOptionIndex >= domain.OptionsPerQuestion {
			return domain.Submission{}, domain.Invalidf("answers[%d].selectedOptionIndex must be between 0 and %d", i, domain.OptionsPerQuestion-1)
		}
	}

	now := s.now()
	if s.enforceDeadline {
		if err := s.checkDeadline(ctx, userID, test, now); err != nil {
			return domain.Submission{}, err
		}
	}

	sub := domain.Submission{
		ID:          uuid.NewString(),
		UserID:      userID,
		TestID:      testID,
		Answers:     answers,
		SubmittedAt: now,
	}
	if sub.Answers == nil {
		sub.Answers = []domain.Answer{}
	}
	if err := s.repos.Submissions.Create(ctx, sub); err != nil {
		if errors.Is(err, domain.ErrAlreadySubmitted) {
			return domain.Submission{}, err
		}
		return domain.Submission{}, fmt.Errorf("store submission: %w", err)
	}

	s.logger.Info("submission accepted",
		zap.String("userId", userID),
		zap.String("testId", testID),
		zap.Int("answers", len(answers)),
	)
	s.publishLeaderboard(ctx)
	return sub, nil
}

func (s *SubmissionService) checkDeadline(ctx context.Context, userID string, test domain.Test, now time.Time) error {
	if test.ValidTill != nil && now.After(*test.ValidTill) {
		return domain.ErrDeadlinePassed
	}
	if s.repos.Attempts == nil {
		return nil
	}
	attempt, err := s.repos.Attempts.Get(ctx, userID, test.ID)
	if errors.Is(err, domain.ErrAttemptNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load attempt: %w", err)
	}
	if now.After(attempt.Deadline) {
		return domain.ErrDeadlinePassed
	}
	return nil
}

// publishLeaderboard is best-effort: the submission is already stored.
func (s *SubmissionService) publishLeaderboard(ctx context.Context) {
	if s.publisher == nil || s.stats == nil {
		return
	}
	lb, err := s.stats.Leaderboard(ctx)
	if err != nil {
		s.logger.Warn("leaderboard recompute failed", zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, lb); err != nil {
		s.logger.Warn("leaderboard publish failed", zap.Error(err))
	}
}

// Evaluate scores the user's submission against the test's current answer key.
func (s *SubmissionService) Evaluate(ctx context.Context, userID, testID string) (domain.Evaluation, error) {
	sub, err := s.repos.Submissions.Get(ctx, userID, testID)
	if err != nil {
		return domain.Evaluation{}, err
	}
	key, err := s.repos.AnswerKeys.GetAnswerKey(ctx, testID)
	if err != nil {
		return domain.Evaluation{}, fmt.Errorf("load answer key: %w", err)
	}
	return Score(key, sub), nil
}

// Explanations reveals questions, correctness flags and explanations once the
// user has submitted.
func (s *SubmissionService) Explanations(ctx context.Context, userID, testID string) ([]domain.Question, error) {
	if _, err := s.gate(ctx, userID, testID); err != nil {
		return nil, err
	}
	questions, err := s.repos.Questions.ListByTest(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return questions, nil
}

// FilteredExplanations re-scores the submission and returns only the questions
// answered correctly or incorrectly.
func (s *SubmissionService) FilteredExplanations(ctx context.Context, userID, testID string, filter ExplanationFilter) ([]domain.ExplainedResult, error) {
	if filter != FilterCorrect && filter != FilterIncorrect {
		return nil, domain.Invalidf("Invalid filter. Use 'correct' or 'incorrect'")
	}
	sub, err := s.gate(ctx, userID, testID)
	if err != nil {
		return nil, err
	}
	questions, err := s.repos.Questions.ListByTest(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	want := filter == FilterCorrect
	out := make([]domain.ExplainedResult, 0, len(questions))
	for _, r := range explain(questions, sub) {
		if r.IsCorrect == want {
			out = append(out, r)
		}
	}
	return out, nil
}

// gate returns the submission or domain.ErrNotSubmitted when status is not Submitted.
func (s *SubmissionService) gate(ctx context.Context, userID, testID string) (domain.Submission, error) {
	sub, err := s.repos.Submissions.Get(ctx, userID, testID)
	if errors.Is(err, domain.ErrSubmissionNotFound) {
		return domain.Submission{}, domain.ErrNotSubmitted
	}
	if err != nil {
		return domain.Submission{}, err
	}
	return sub, nil
}
