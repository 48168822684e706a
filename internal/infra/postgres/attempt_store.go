package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"assessment-service/internal/domain"
)

type attemptRow struct {
	bun.BaseModel `bun:"table:attempts,alias:a"`

	UserID    string    `bun:"user_id,pk"`
	TestID    string    `bun:"test_id,pk"`
	StartedAt time.Time `bun:"started_at"`
	Deadline  time.Time `bun:"deadline"`
}

// AttemptStore keeps the first recorded deadline per (user, test).
type AttemptStore struct {
	db bun.IDB
}

func (s *AttemptStore) Start(ctx context.Context, attempt domain.Attempt) (domain.Attempt, error) {
	row := &attemptRow{
		UserID:    attempt.UserID,
		TestID:    attempt.TestID,
		StartedAt: attempt.StartedAt,
		Deadline:  attempt.Deadline,
	}
	if _, err := s.db.NewInsert().Model(row).On("CONFLICT (user_id, test_id) DO NOTHING").Exec(ctx); err != nil {
		return domain.Attempt{}, fmt.Errorf("insert attempt: %w", err)
	}
	return s.Get(ctx, attempt.UserID, attempt.TestID)
}

func (s *AttemptStore) Get(ctx context.Context, userID, testID string) (domain.Attempt, error) {
	var row attemptRow
	err := s.db.NewSelect().Model(&row).
		Where("a.user_id = ?", userID).
		Where("a.test_id = ?", testID).
		Scan(ctx)
	if err != nil {
		return domain.Attempt{}, notFound(err, domain.ErrAttemptNotFound)
	}
	return domain.Attempt{UserID: row.UserID, TestID: row.TestID, StartedAt: row.StartedAt, Deadline: row.Deadline}, nil
}
