package app

import (
	"github.com/shopspring/decimal"

	"assessment-service/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Score compares a submission against the answer key. Questions without an
// answer count as incorrect with a nil selected index.
func Score(key domain.AnswerKey, submission domain.Submission) domain.Evaluation {
	eval := domain.Evaluation{
		TotalQuestions: len(key.Entries),
		Details:        make([]domain.QuestionResult, 0, len(key.Entries)),
	}
	for _, entry := range key.Entries {
		result := verdict(entry, submission)
		if result.IsCorrect {
			eval.CorrectAnswers++
		}
		eval.Details = append(eval.Details, result)
	}
	eval.ScorePercentage = Percentage(eval.CorrectAnswers, eval.TotalQuestions)
	return eval
}

func verdict(entry domain.KeyEntry, submission domain.Submission) domain.QuestionResult {
	result := domain.QuestionResult{
		QuestionID:         entry.QuestionID,
		CorrectOptionIndex: entry.CorrectIndex,
	}
	if answer, ok := submission.AnswerFor(entry.QuestionID); ok {
		selected := answer.SelectedOptionIndex
		result.SelectedOptionIndex = &selected
		result.IsCorrect = entry.CorrectIndex >= 0 && selected == entry.CorrectIndex
	}
	return result
}

// Percentage returns round(correct/total*100), or 0 for an empty test.
func Percentage(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(ratio(correct, total).Round(0).IntPart())
}

// Accuracy returns correct/total*100 rounded to two decimals, or 0 when total is 0.
func Accuracy(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return ratio(correct, total).Round(2).InexactFloat64()
}

func ratio(correct, total int) decimal.Decimal {
	return decimal.NewFromInt(int64(correct)).Mul(hundred).Div(decimal.NewFromInt(int64(total)))
}
