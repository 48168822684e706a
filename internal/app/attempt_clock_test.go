package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
)

func TestAttemptClock(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.addTest(t, domain.Test{ID: "t1", Duration: 30})

	now := fixedNow
	clock := app.NewAttemptClockWithClock(f.repos.Tests, f.repos.Attempts, func() time.Time { return now })

	if _, err := clock.Remaining(ctx, "u1", "t1"); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected ErrAttemptNotFound, got %v", err)
	}

	started, err := clock.Start(ctx, "u1", "t1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.RemainingSeconds != 30*60 || !started.Deadline.Equal(fixedNow.Add(30*time.Minute)) {
		t.Fatalf("unexpected start %+v", started)
	}

	now = fixedNow.Add(10 * time.Minute)
	restarted, _ := clock.Start(ctx, "u1", "t1")
	if !restarted.Deadline.Equal(started.Deadline) || restarted.RemainingSeconds != 20*60 {
		t.Fatalf("restart must keep the deadline, got %+v", restarted)
	}

	now = fixedNow.Add(time.Hour)
	left, err := clock.Remaining(ctx, "u1", "t1")
	if err != nil {
		t.Fatalf("remaining: %v", err)
	}
	if left.RemainingSeconds != 0 {
		t.Fatalf("remaining time never goes negative, got %d", left.RemainingSeconds)
	}
}
