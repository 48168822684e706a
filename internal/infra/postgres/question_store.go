package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"assessment-service/internal/domain"
)

type questionRow struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID          string          `bun:"id,pk"`
	Seq         int64           `bun:"seq,scanonly"`
	TestID      string          `bun:"test_id"`
	Text        string          `bun:"question_text"`
	Options     []domain.Option `bun:"options,type:jsonb"`
	Explanation string          `bun:"explanation"`
	Category    string          `bun:"category"`
	AddedBy     *domain.Author  `bun:"added_by,type:jsonb"`
	UpdatedBy   *domain.Author  `bun:"updated_by,type:jsonb"`
	CreatedAt   time.Time       `bun:"created_at"`
	UpdatedAt   time.Time       `bun:"updated_at,nullzero"`
}

func toQuestionRow(q domain.Question) *questionRow {
	return &questionRow{
		ID:          q.ID,
		TestID:      q.TestID,
		Text:        q.Text,
		Options:     q.Options,
		Explanation: q.Explanation,
		Category:    q.Category,
		AddedBy:     q.AddedBy,
		UpdatedBy:   q.UpdatedBy,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
}

func (r questionRow) toDomain() domain.Question {
	return domain.Question{
		ID:          r.ID,
		TestID:      r.TestID,
		Text:        r.Text,
		Options:     r.Options,
		Explanation: r.Explanation,
		Category:    r.Category,
		AddedBy:     r.AddedBy,
		UpdatedBy:   r.UpdatedBy,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// QuestionStore persists questions; seq preserves creation order.
type QuestionStore struct {
	db bun.IDB
}

func (s *QuestionStore) Create(ctx context.Context, q domain.Question) error {
	if _, err := s.db.NewInsert().Model(toQuestionRow(q)).Exec(ctx); err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

func (s *QuestionStore) Get(ctx context.Context, testID, questionID string) (domain.Question, error) {
	var row questionRow
	err := s.db.NewSelect().Model(&row).
		Where("q.id = ?", questionID).
		Where("q.test_id = ?", testID).
		Scan(ctx)
	if err != nil {
		return domain.Question{}, notFound(err, domain.ErrQuestionNotFound)
	}
	return row.toDomain(), nil
}

func (s *QuestionStore) Update(ctx context.Context, q domain.Question) error {
	res, err := s.db.NewUpdate().Model(toQuestionRow(q)).
		Column("question_text", "options", "explanation", "category", "updated_by", "updated_at").
		Where("id = ?", q.ID).
		Where("test_id = ?", q.TestID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	return requireAffected(res, domain.ErrQuestionNotFound)
}

func (s *QuestionStore) Delete(ctx context.Context, testID, questionID string) error {
	res, err := s.db.NewDelete().Model((*questionRow)(nil)).
		Where("id = ?", questionID).
		Where("test_id = ?", testID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	return requireAffected(res, domain.ErrQuestionNotFound)
}

func (s *QuestionStore) DeleteByTest(ctx context.Context, testID string) error {
	_, err := s.db.NewDelete().Model((*questionRow)(nil)).
		Where("test_id = ?", testID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete questions: %w", err)
	}
	return nil
}

func (s *QuestionStore) ListByTest(ctx context.Context, testID string) ([]domain.Question, error) {
	var rows []questionRow
	err := s.db.NewSelect().Model(&rows).
		Where("q.test_id = ?", testID).
		OrderExpr("q.seq ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	out := make([]domain.Question, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}
