package app_test

import (
	"context"
	"testing"
	"time"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
	"assessment-service/internal/infra/memory"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	repos app.Repositories
	users *memory.UserStore
}

func newFixture() *fixture {
	tests := memory.NewTestStore()
	questions := memory.NewQuestionStore()
	users := memory.NewUserStore()
	return &fixture{
		users: users,
		repos: app.Repositories{
			Tests:       tests,
			Questions:   questions,
			Submissions: memory.NewSubmissionStore(),
			Users:       users,
			AnswerKeys:  memory.NewAnswerKeyRepository(app.NewQuestionKeyLoader(questions), time.Minute),
			Attempts:    memory.NewAttemptStore(),
		},
	}
}

func (f *fixture) addTest(t *testing.T, test domain.Test) {
	t.Helper()
	if test.Type == "" {
		test.Type = domain.TestTypeMain
	}
	if err := f.repos.Tests.Create(context.Background(), test); err != nil {
		t.Fatalf("create test: %v", err)
	}
}

// addQuestion stores a four-option question whose correct option is at index correct.
func (f *fixture) addQuestion(t *testing.T, testID, questionID string, correct int) {
	t.Helper()
	options := make([]domain.Option, domain.OptionsPerQuestion)
	for i := range options {
		options[i] = domain.Option{Text: string(rune('A' + i)), IsCorrect: i == correct}
	}
	q := domain.Question{ID: questionID, TestID: testID, Text: "question " + questionID, Options: options, Explanation: "because " + questionID}
	if err := f.repos.Questions.Create(context.Background(), q); err != nil {
		t.Fatalf("create question: %v", err)
	}
}

func (f *fixture) addUser(t *testing.T, id, name string) {
	t.Helper()
	if err := f.users.Create(context.Background(), domain.User{ID: id, Name: name, LoginID: "KN2025" + id, Role: domain.RoleUser}); err != nil {
		t.Fatalf("create user: %v", err)
	}
}

func (f *fixture) submit(t *testing.T, userID, testID string, at time.Time, answers ...domain.Answer) {
	t.Helper()
	sub := domain.Submission{ID: userID + "-" + testID, UserID: userID, TestID: testID, Answers: answers, SubmittedAt: at}
	if err := f.repos.Submissions.Create(context.Background(), sub); err != nil {
		t.Fatalf("create submission: %v", err)
	}
}

func ans(questionID string, selected int) domain.Answer {
	return domain.Answer{QuestionID: questionID, SelectedOptionIndex: selected}
}
