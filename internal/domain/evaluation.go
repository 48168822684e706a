package domain

import "time"

// QuestionResult is the per-question verdict of an evaluation.
type QuestionResult struct {
	QuestionID          string `json:"questionId"`
	SelectedOptionIndex *int   `json:"selectedOptionIndex"`
	CorrectOptionIndex  int    `json:"correctOptionIndex"`
	IsCorrect           bool   `json:"isCorrect"`
}

// Evaluation is the scored outcome of a submission.
type Evaluation struct {
	TotalQuestions  int              `json:"totalQuestions"`
	CorrectAnswers  int              `json:"correctAnswers"`
	ScorePercentage int              `json:"scorePercentage"`
	Details         []QuestionResult `json:"details"`
}

// ExplainedResult is a question revealed after submission.
type ExplainedResult struct {
	QuestionID          string   `json:"questionId"`
	QuestionText        string   `json:"questionText"`
	Options             []Option `json:"options"`
	Explanation         string   `json:"explanation"`
	SelectedOptionIndex *int     `json:"selectedOptionIndex"`
	CorrectOptionIndex  int      `json:"correctOptionIndex"`
	IsCorrect           bool     `json:"isCorrect"`
}

// TestResult is one submission in a user's result history.
type TestResult struct {
	SubmissionID    string            `json:"id"`
	TestID          string            `json:"testId"`
	TestTitle       string            `json:"testTitle"`
	TestDescription string            `json:"testDescription"`
	Duration        int               `json:"duration"`
	SubmittedAt     time.Time         `json:"submittedAt"`
	TotalQuestions  int               `json:"totalQuestions"`
	CorrectAnswers  int               `json:"correctAnswers"`
	ScorePercentage int               `json:"scorePercentage"`
	Details         []ExplainedResult `json:"details"`
}

// UserStats summarizes a user's pass/fail record.
type UserStats struct {
	TotalTests int `json:"totalTests"`
	Passed     int `json:"passed"`
	Failed     int `json:"failed"`
	Average    int `json:"average"`
}
