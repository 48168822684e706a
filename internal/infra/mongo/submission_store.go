package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"assessment-service/internal/domain"
)

type answerDoc struct {
	QuestionID          string `bson:"questionId"`
	SelectedOptionIndex int    `bson:"selectedOptionIndex"`
}

type submissionDoc struct {
	ID          string      `bson:"_id"`
	UserID      string      `bson:"userId"`
	TestID      string      `bson:"testId"`
	Answers     []answerDoc `bson:"answers"`
	SubmittedAt time.Time   `bson:"submittedAt"`
}

func (d submissionDoc) toDomain() domain.Submission {
	answers := make([]domain.Answer, 0, len(d.Answers))
	for _, a := range d.Answers {
		answers = append(answers, domain.Answer{QuestionID: a.QuestionID, SelectedOptionIndex: a.SelectedOptionIndex})
	}
	return domain.Submission{
		ID:          d.ID,
		UserID:      d.UserID,
		TestID:      d.TestID,
		Answers:     answers,
		SubmittedAt: d.SubmittedAt.UTC(),
	}
}

// SubmissionStore depends on the unique (userId, testId) index from EnsureIndexes.
type SubmissionStore struct {
	coll *mongo.Collection
}

func (s *SubmissionStore) Create(ctx context.Context, sub domain.Submission) error {
	doc := submissionDoc{
		ID:          sub.ID,
		UserID:      sub.UserID,
		TestID:      sub.TestID,
		Answers:     make([]answerDoc, 0, len(sub.Answers)),
		SubmittedAt: sub.SubmittedAt,
	}
	for _, a := range sub.Answers {
		doc.Answers = append(doc.Answers, answerDoc{QuestionID: a.QuestionID, SelectedOptionIndex: a.SelectedOptionIndex})
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAlreadySubmitted
		}
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (s *SubmissionStore) Get(ctx context.Context, userID, testID string) (domain.Submission, error) {
	var doc submissionDoc
	if err := s.coll.FindOne(ctx, bson.M{"userId": userID, "testId": testID}).Decode(&doc); err != nil {
		return domain.Submission{}, notFound(err, domain.ErrSubmissionNotFound)
	}
	return doc.toDomain(), nil
}

func (s *SubmissionStore) ListByUser(ctx context.Context, userID string) ([]domain.Submission, error) {
	return s.list(ctx, bson.M{"userId": userID})
}

func (s *SubmissionStore) ListAll(ctx context.Context) ([]domain.Submission, error) {
	return s.list(ctx, bson.M{})
}

func (s *SubmissionStore) list(ctx context.Context, query bson.M) ([]domain.Submission, error) {
	opts := options.Find().SetSort(bson.D{{Key: "submittedAt", Value: -1}, {Key: "_id", Value: 1}})
	cursor, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	var docs []submissionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode submissions: %w", err)
	}
	out := make([]domain.Submission, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}
