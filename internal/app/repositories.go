package app

import (
	"context"

	"assessment-service/internal/domain"
)

// TestFilter narrows test listings. Zero values match everything.
type TestFilter struct {
	Type     domain.TestType
	ParentID string
	IDs      []string
}

// TestRepository persists tests.
type TestRepository interface {
	Create(ctx context.Context, test domain.Test) error
	Get(ctx context.Context, id string) (domain.Test, error)
	Update(ctx context.Context, test domain.Test) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter TestFilter) ([]domain.Test, error)
}

// QuestionRepository persists questions. ListByTest returns creation order.
type QuestionRepository interface {
	Create(ctx context.Context, question domain.Question) error
	Get(ctx context.Context, testID, questionID string) (domain.Question, error)
	Update(ctx context.Context, question domain.Question) error
	Delete(ctx context.Context, testID, questionID string) error
	// DeleteByTest removes every question of a test. No questions is not an error.
	DeleteByTest(ctx context.Context, testID string) error
	ListByTest(ctx context.Context, testID string) ([]domain.Question, error)
}

// SubmissionRepository stores at most one submission per (user, test).
// Create must be an atomic insert-if-absent returning domain.ErrAlreadySubmitted.
type SubmissionRepository interface {
	Create(ctx context.Context, submission domain.Submission) error
	Get(ctx context.Context, userID, testID string) (domain.Submission, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Submission, error)
	ListAll(ctx context.Context) ([]domain.Submission, error)
}

// UserRepository persists accounts.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByLoginID(ctx context.Context, loginID string) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

// AnswerKeyLoader fetches an answer key from the backing store.
type AnswerKeyLoader interface {
	LoadAnswerKey(ctx context.Context, testID string) (domain.AnswerKey, error)
}

// AnswerKeyRepository serves answer keys (usually cached) to the scorer.
type AnswerKeyRepository interface {
	GetAnswerKey(ctx context.Context, testID string) (domain.AnswerKey, error)
	Invalidate(ctx context.Context, testID string) error
}

// AttemptRepository records attempt deadlines. Start is insert-if-absent and
// returns the stored attempt when one already exists.
type AttemptRepository interface {
	Start(ctx context.Context, attempt domain.Attempt) (domain.Attempt, error)
	Get(ctx context.Context, userID, testID string) (domain.Attempt, error)
}

// LeaderboardPublisher fans out fresh leaderboard snapshots.
type LeaderboardPublisher interface {
	Publish(ctx context.Context, lb domain.Leaderboard) error
}

// Repositories bundles the storage backends the services run on.
type Repositories struct {
	Tests       TestRepository
	Questions   QuestionRepository
	Submissions SubmissionRepository
	Users       UserRepository
	AnswerKeys  AnswerKeyRepository
	Attempts    AttemptRepository
}

// QuestionKeyLoader derives answer keys from a QuestionRepository.
type QuestionKeyLoader struct {
	questions QuestionRepository
}

func NewQuestionKeyLoader(questions QuestionRepository) *QuestionKeyLoader {
	return &QuestionKeyLoader{questions: questions}
}

func (l *QuestionKeyLoader) LoadAnswerKey(ctx context.Context, testID string) (domain.AnswerKey, error) {
	questions, err := l.questions.ListByTest(ctx, testID)
	if err != nil {
		return domain.AnswerKey{}, err
	}
	return domain.AnswerKeyFromQuestions(testID, questions), nil
}
