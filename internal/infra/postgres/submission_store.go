package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"assessment-service/internal/domain"
)

type submissionRow struct {
	bun.BaseModel `bun:"table:submissions,alias:s"`

	ID          string          `bun:"id,pk"`
	UserID      string          `bun:"user_id"`
	TestID      string          `bun:"test_id"`
	Answers     []domain.Answer `bun:"answers,type:jsonb"`
	SubmittedAt time.Time       `bun:"submitted_at"`
}

func (r submissionRow) toDomain() domain.Submission {
	answers := r.Answers
	if answers == nil {
		answers = []domain.Answer{}
	}
	return domain.Submission{
		ID:          r.ID,
		UserID:      r.UserID,
		TestID:      r.TestID,
		Answers:     answers,
		SubmittedAt: r.SubmittedAt,
	}
}

// SubmissionStore relies on the (user_id, test_id) unique constraint so
// concurrent submits for the same pair store exactly one row.
type SubmissionStore struct {
	db bun.IDB
}

func (s *SubmissionStore) Create(ctx context.Context, sub domain.Submission) error {
	row := &submissionRow{
		ID:          sub.ID,
		UserID:      sub.UserID,
		TestID:      sub.TestID,
		Answers:     sub.Answers,
		SubmittedAt: sub.SubmittedAt,
	}
	if row.Answers == nil {
		row.Answers = []domain.Answer{}
	}
	res, err := s.db.NewInsert().Model(row).
		On("CONFLICT (user_id, test_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return requireAffected(res, domain.ErrAlreadySubmitted)
}

func (s *SubmissionStore) Get(ctx context.Context, userID, testID string) (domain.Submission, error) {
	var row submissionRow
	err := s.db.NewSelect().Model(&row).
		Where("s.user_id = ?", userID).
		Where("s.test_id = ?", testID).
		Scan(ctx)
	if err != nil {
		return domain.Submission{}, notFound(err, domain.ErrSubmissionNotFound)
	}
	return row.toDomain(), nil
}

func (s *SubmissionStore) ListByUser(ctx context.Context, userID string) ([]domain.Submission, error) {
	var rows []submissionRow
	err := s.db.NewSelect().Model(&rows).
		Where("s.user_id = ?", userID).
		OrderExpr("s.submitted_at DESC, s.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return toSubmissions(rows), nil
}

func (s *SubmissionStore) ListAll(ctx context.Context) ([]domain.Submission, error) {
	var rows []submissionRow
	if err := s.db.NewSelect().Model(&rows).OrderExpr("s.submitted_at DESC, s.id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return toSubmissions(rows), nil
}

func toSubmissions(rows []submissionRow) []domain.Submission {
	out := make([]domain.Submission, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out
}
