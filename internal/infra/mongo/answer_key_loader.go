package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"assessment-service/internal/domain"
)

// AnswerKeyLoader projects only ids and options out of the questions collection.
type AnswerKeyLoader struct {
	tests     *mongo.Collection
	questions *QuestionStore
}

func NewAnswerKeyLoader(db *mongo.Database) *AnswerKeyLoader {
	return &AnswerKeyLoader{
		tests:     db.Collection(testsCollection),
		questions: &QuestionStore{coll: db.Collection(questionsCollection)},
	}
}

func (l *AnswerKeyLoader) LoadAnswerKey(ctx context.Context, testID string) (domain.AnswerKey, error) {
	n, err := l.tests.CountDocuments(ctx, bson.M{"_id": testID})
	if err != nil {
		return domain.AnswerKey{}, fmt.Errorf("load answer key: %w", err)
	}
	if n == 0 {
		return domain.AnswerKey{}, domain.ErrTestNotFound
	}
	docs, err := l.questions.find(ctx, testID, bson.M{"_id": 1, "options": 1})
	if err != nil {
		return domain.AnswerKey{}, err
	}
	questions := make([]domain.Question, 0, len(docs))
	for _, d := range docs {
		questions = append(questions, d.toDomain())
	}
	return domain.AnswerKeyFromQuestions(testID, questions), nil
}
