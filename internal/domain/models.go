package domain

import "time"

// TestType tags a test's place in the main/sub hierarchy.
type TestType string

const (
	TestTypeMain TestType = "main"
	TestTypeSub  TestType = "sub"
)

// Test is an assessment containing questions. Sub tests reference one or more main tests.
type Test struct {
	ID          string     `json:"id"`
	Title       string     `json:"testTitle"`
	CompanyName string     `json:"companyName,omitempty"`
	Description string     `json:"description,omitempty"`
	ValidTill   *time.Time `json:"validTill,omitempty"`
	Duration    int        `json:"duration,omitempty"` // minutes
	Type        TestType   `json:"testType,omitempty"`
	ParentIDs   []string   `json:"parentTestIds"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// HasParent reports whether the test is assigned to the given main test.
func (t Test) HasParent(id string) bool {
	for _, p := range t.ParentIDs {
		if p == id {
			return true
		}
	}
	return false
}

// Option is one of the four answers of a question.
type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// Author records who added or last edited a question.
type Author struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID          string    `json:"id"`
	TestID      string    `json:"testId"`
	Text        string    `json:"questionText"`
	Options     []Option  `json:"options"`
	Explanation string    `json:"explanation,omitempty"`
	Category    string    `json:"category,omitempty"`
	AddedBy     *Author   `json:"addedBy,omitempty"`
	UpdatedBy   *Author   `json:"updatedBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// CorrectIndex returns the position of the first option flagged correct, or -1.
func (q Question) CorrectIndex() int {
	for i, opt := range q.Options {
		if opt.IsCorrect {
			return i
		}
	}
	return -1
}

// Answer is a single selected option inside a submission.
type Answer struct {
	QuestionID          string `json:"questionId"`
	SelectedOptionIndex int    `json:"selectedOptionIndex"`
}

// Submission is a user's one-time recorded set of answers for a test.
type Submission struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	TestID      string    `json:"testId"`
	Answers     []Answer  `json:"answers"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// AnswerFor returns the first answer recorded for questionID.
func (s Submission) AnswerFor(questionID string) (Answer, bool) {
	for _, a := range s.Answers {
		if a.QuestionID == questionID {
			return a, true
		}
	}
	return Answer{}, false
}

// KeyEntry is the answer key of one question.
type KeyEntry struct {
	QuestionID   string `json:"questionId"`
	CorrectIndex int    `json:"correctIndex"`
}

// AnswerKey is the ordered answer key of a test.
type AnswerKey struct {
	TestID  string     `json:"testId"`
	Entries []KeyEntry `json:"entries"`
}

// Lookup returns the key entry for questionID.
func (k AnswerKey) Lookup(questionID string) (KeyEntry, bool) {
	for _, e := range k.Entries {
		if e.QuestionID == questionID {
			return e, true
		}
	}
	return KeyEntry{}, false
}

// AnswerKeyFromQuestions builds an answer key preserving question order.
func AnswerKeyFromQuestions(testID string, questions []Question) AnswerKey {
	entries := make([]KeyEntry, 0, len(questions))
	for _, q := range questions {
		entries = append(entries, KeyEntry{QuestionID: q.ID, CorrectIndex: q.CorrectIndex()})
	}
	return AnswerKey{TestID: testID, Entries: entries}
}

// User is an account of any role.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	LoginID      string    `json:"loginId,omitempty"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Attempt records when a user started a timed test.
type Attempt struct {
	UserID    string    `json:"userId"`
	TestID    string    `json:"testId"`
	StartedAt time.Time `json:"startedAt"`
	Deadline  time.Time `json:"deadline"`
}

// Remaining returns the time left before the deadline, never negative.
func (a Attempt) Remaining(now time.Time) time.Duration {
	left := a.Deadline.Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// LeaderboardEntry is one ranked row of the accuracy leaderboard.
type LeaderboardEntry struct {
	UserID   string  `json:"userId"`
	Name     string  `json:"name"`
	LoginID  string  `json:"loginId,omitempty"`
	Accuracy float64 `json:"accuracy"`
}

// Leaderboard captures the ordered top entries at a point in time.
type Leaderboard struct {
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}
