package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"assessment-service/internal/domain"
)

// AnswerKeyLoader reads answer keys straight from the questions table over a
// pgx pool, bypassing the ORM on the scorer's hot path.
type AnswerKeyLoader struct {
	pool *pgxpool.Pool
}

func NewAnswerKeyLoader(pool *pgxpool.Pool) *AnswerKeyLoader {
	return &AnswerKeyLoader{pool: pool}
}

func (l *AnswerKeyLoader) LoadAnswerKey(ctx context.Context, testID string) (domain.AnswerKey, error) {
	var exists bool
	if err := l.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tests WHERE id=$1)`, testID).Scan(&exists); err != nil {
		return domain.AnswerKey{}, fmt.Errorf("load answer key: %w", err)
	}
	if !exists {
		return domain.AnswerKey{}, domain.ErrTestNotFound
	}

	rows, err := l.pool.Query(ctx, `SELECT id, options FROM questions WHERE test_id=$1 ORDER BY seq`, testID)
	if err != nil {
		return domain.AnswerKey{}, fmt.Errorf("load answer key: %w", err)
	}
	defer rows.Close()

	questions := make([]domain.Question, 0)
	for rows.Next() {
		var (
			q   domain.Question
			raw []byte
		)
		if err := rows.Scan(&q.ID, &raw); err != nil {
			return domain.AnswerKey{}, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(raw, &q.Options); err != nil {
			return domain.AnswerKey{}, fmt.Errorf("unmarshal options: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return domain.AnswerKey{}, fmt.Errorf("load answer key: %w", err)
	}
	return domain.AnswerKeyFromQuestions(testID, questions), nil
}
