package app

import (
	"context"
	"fmt"
	"time"

	"assessment-service/internal/domain"
)

// TimeRemaining is the countdown reported to a learner.
type TimeRemaining struct {
	Deadline         time.Time `json:"deadline"`
	RemainingSeconds int       `json:"remainingSeconds"`
}

// AttemptClock records when a learner started a timed test and reports how
// much time is left. The deadline is fixed at start; remaining time is always
// derived from it.
type AttemptClock struct {
	tests    TestRepository
	attempts AttemptRepository
	now      func() time.Time
}

func NewAttemptClock(tests TestRepository, attempts AttemptRepository) *AttemptClock {
	return &AttemptClock{tests: tests, attempts: attempts, now: time.Now}
}

// NewAttemptClockWithClock is test-only for deterministic deadlines.
func NewAttemptClockWithClock(tests TestRepository, attempts AttemptRepository, now func() time.Time) *AttemptClock {
	return &AttemptClock{tests: tests, attempts: attempts, now: now}
}

// Start opens an attempt. Repeated calls return the original deadline.
func (c *AttemptClock) Start(ctx context.Context, userID, testID string) (TimeRemaining, error) {
	test, err := c.tests.Get(ctx, testID)
	if err != nil {
		return TimeRemaining{}, err
	}
	now := c.now()
	minutes := test.Duration
	if minutes <= 0 {
		minutes = DefaultTimerSeconds / 60
	}
	attempt, err := c.attempts.Start(ctx, domain.Attempt{
		UserID:    userID,
		TestID:    testID,
		StartedAt: now,
		Deadline:  now.Add(time.Duration(minutes) * time.Minute),
	})
	if err != nil {
		return TimeRemaining{}, fmt.Errorf("start attempt: %w", err)
	}
	return remaining(attempt, now), nil
}

// Remaining reports the time left on a started attempt.
func (c *AttemptClock) Remaining(ctx context.Context, userID, testID string) (TimeRemaining, error) {
	attempt, err := c.attempts.Get(ctx, userID, testID)
	if err != nil {
		return TimeRemaining{}, err
	}
	return remaining(attempt, c.now()), nil
}

func remaining(a domain.Attempt, now time.Time) TimeRemaining {
	return TimeRemaining{
		Deadline:         a.Deadline,
		RemainingSeconds: int(a.Remaining(now) / time.Second),
	}
}
