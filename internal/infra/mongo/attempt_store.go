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

type attemptDoc struct {
	UserID    string    `bson:"userId"`
	TestID    string    `bson:"testId"`
	StartedAt time.Time `bson:"startedAt"`
	Deadline  time.Time `bson:"deadline"`
}

// AttemptStore upserts with $setOnInsert so the first deadline sticks.
type AttemptStore struct {
	coll *mongo.Collection
}

func (s *AttemptStore) Start(ctx context.Context, attempt domain.Attempt) (domain.Attempt, error) {
	filter := bson.M{"userId": attempt.UserID, "testId": attempt.TestID}
	update := bson.M{"$setOnInsert": bson.M{
		"startedAt": attempt.StartedAt,
		"deadline":  attempt.Deadline,
	}}
	_, err := s.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return domain.Attempt{}, fmt.Errorf("start attempt: %w", err)
	}
	return s.Get(ctx, attempt.UserID, attempt.TestID)
}

func (s *AttemptStore) Get(ctx context.Context, userID, testID string) (domain.Attempt, error) {
	var doc attemptDoc
	if err := s.coll.FindOne(ctx, bson.M{"userId": userID, "testId": testID}).Decode(&doc); err != nil {
		return domain.Attempt{}, notFound(err, domain.ErrAttemptNotFound)
	}
	return domain.Attempt{
		UserID:    doc.UserID,
		TestID:    doc.TestID,
		StartedAt: doc.StartedAt.UTC(),
		Deadline:  doc.Deadline.UTC(),
	}, nil
}
