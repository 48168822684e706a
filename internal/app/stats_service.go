package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"assessment-service/internal/domain"
)

const (
	// LeaderboardSize caps the ranked entries returned.
	LeaderboardSize = 10
	// DefaultPassPercentage is the pass mark used when none is configured.
	DefaultPassPercentage = 50
	recentSubmissions     = 2
	keyLoadConcurrency    = 8
)

// StatsService folds scoring results into leaderboards and per-user summaries.
type StatsService struct {
	repos          Repositories
	passPercentage int
	now            func() time.Time
}

func NewStatsService(repos Repositories, passPercentage int) *StatsService {
	if passPercentage <= 0 {
		passPercentage = DefaultPassPercentage
	}
	return &StatsService{repos: repos, passPercentage: passPercentage, now: time.Now}
}

type tally struct {
	correct int
	total   int
}

// Leaderboard ranks users by accuracy across all their submissions.
func (s *StatsService) Leaderboard(ctx context.Context) (domain.Leaderboard, error) {
	submissions, err := s.repos.Submissions.ListAll(ctx)
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("list submissions: %w", err)
	}
	keys, err := s.answerKeys(ctx, submissions)
	if err != nil {
		return domain.Leaderboard{}, err
	}

	tallies := make(map[string]*tally)
	for _, sub := range submissions {
		t, ok := tallies[sub.UserID]
		if !ok {
			t = &tally{}
			tallies[sub.UserID] = t
		}
		key := keys[sub.TestID]
		for _, answer := range sub.Answers {
			t.total++
			// Answers to deleted questions never count as correct.
			if entry, ok := key.Lookup(answer.QuestionID); ok && entry.CorrectIndex == answer.SelectedOptionIndex {
				t.correct++
			}
		}
	}

	entries := make([]domain.LeaderboardEntry, 0, len(tallies))
	for userID, t := range tallies {
		user, err := s.repos.Users.GetByID(ctx, userID)
		if errors.Is(err, domain.ErrUserNotFound) {
			continue
		}
		if err != nil {
			return domain.Leaderboard{}, fmt.Errorf("load user %s: %w", userID, err)
		}
		entries = append(entries, domain.LeaderboardEntry{
			UserID:   user.ID,
			Name:     user.Name,
			LoginID:  user.LoginID,
			Accuracy: Accuracy(t.correct, t.total),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Accuracy != entries[j].Accuracy {
			return entries[i].Accuracy > entries[j].Accuracy
		}
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].UserID < entries[j].UserID
	})
	if len(entries) > LeaderboardSize {
		entries = entries[:LeaderboardSize]
	}
	return domain.Leaderboard{Entries: entries, UpdatedAt: s.now()}, nil
}

// UserStats counts passed and failed tests and the average percentage.
func (s *StatsService) UserStats(ctx context.Context, userID string) (domain.UserStats, error) {
	submissions, err := s.repos.Submissions.ListByUser(ctx, userID)
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("list submissions: %w", err)
	}
	keys, err := s.answerKeys(ctx, submissions)
	if err != nil {
		return domain.UserStats{}, err
	}

	stats := domain.UserStats{TotalTests: len(submissions)}
	pass := decimal.NewFromInt(int64(s.passPercentage))
	sum := decimal.Zero
	for _, sub := range submissions {
		eval := Score(keys[sub.TestID], sub)
		pct := decimal.Zero
		if eval.TotalQuestions > 0 {
			pct = ratio(eval.CorrectAnswers, eval.TotalQuestions)
		}
		sum = sum.Add(pct)
		if pct.GreaterThanOrEqual(pass) {
			stats.Passed++
		}
	}
	stats.Failed = stats.TotalTests - stats.Passed
	if stats.TotalTests > 0 {
		stats.Average = int(sum.Div(decimal.NewFromInt(int64(stats.TotalTests))).Round(0).IntPart())
	}
	return stats, nil
}

// UserResults returns the detailed result history of a user, newest first.
// Submissions whose test was deleted are skipped.
func (s *StatsService) UserResults(ctx context.Context, userID string) ([]domain.TestResult, error) {
	submissions, err := s.repos.Submissions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}

	results := make([]domain.TestResult, 0, len(submissions))
	for _, sub := range submissions {
		test, err := s.repos.Tests.Get(ctx, sub.TestID)
		if errors.Is(err, domain.ErrTestNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load test %s: %w", sub.TestID, err)
		}
		questions, err := s.repos.Questions.ListByTest(ctx, sub.TestID)
		if err != nil {
			return nil, fmt.Errorf("list questions: %w", err)
		}
		details := explain(questions, sub)
		correct := 0
		for _, d := range details {
			if d.IsCorrect {
				correct++
			}
		}
		results = append(results, domain.TestResult{
			SubmissionID:    sub.ID,
			TestID:          test.ID,
			TestTitle:       test.Title,
			TestDescription: test.Description,
			Duration:        test.Duration,
			SubmittedAt:     sub.SubmittedAt,
			TotalQuestions:  len(questions),
			CorrectAnswers:  correct,
			ScorePercentage: Percentage(correct, len(questions)),
			Details:         details,
		})
	}
	return results, nil
}

// RecentSubmitted returns the tests behind the user's latest submissions.
func (s *StatsService) RecentSubmitted(ctx context.Context, userID string) ([]domain.Test, error) {
	submissions, err := s.repos.Submissions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	if len(submissions) > recentSubmissions {
		submissions = submissions[:recentSubmissions]
	}
	ids := make([]string, 0, len(submissions))
	for _, sub := range submissions {
		ids = append(ids, sub.TestID)
	}
	if len(ids) == 0 {
		return []domain.Test{}, nil
	}
	return s.repos.Tests.List(ctx, TestFilter{IDs: ids})
}

// answerKeys loads the answer key of every distinct test referenced by submissions.
// A deleted test yields an empty key, so its answers score as wrong.
func (s *StatsService) answerKeys(ctx context.Context, submissions []domain.Submission) (map[string]domain.AnswerKey, error) {
	keys := make(map[string]domain.AnswerKey)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(keyLoadConcurrency)
	seen := make(map[string]bool)
	for _, sub := range submissions {
		testID := sub.TestID
		if seen[testID] {
			continue
		}
		seen[testID] = true
		g.Go(func() error {
			key, err := s.repos.AnswerKeys.GetAnswerKey(gctx, testID)
			if errors.Is(err, domain.ErrTestNotFound) {
				key, err = domain.AnswerKey{TestID: testID}, nil
			}
			if err != nil {
				return fmt.Errorf("answer key %s: %w", testID, err)
			}
			mu.Lock()
			keys[testID] = key
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return keys, nil
}

// explain scores questions one by one and reveals their explanations.
func explain(questions []domain.Question, sub domain.Submission) []domain.ExplainedResult {
	out := make([]domain.ExplainedResult, 0, len(questions))
	for _, q := range questions {
		r := verdict(domain.KeyEntry{QuestionID: q.ID, CorrectIndex: q.CorrectIndex()}, sub)
		out = append(out, domain.ExplainedResult{
			QuestionID:          q.ID,
			QuestionText:        q.Text,
			Options:             q.Options,
			Explanation:         q.Explanation,
			SelectedOptionIndex: r.SelectedOptionIndex,
			CorrectOptionIndex:  r.CorrectOptionIndex,
			IsCorrect:           r.IsCorrect,
		})
	}
	return out
}
