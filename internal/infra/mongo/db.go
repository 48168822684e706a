package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	testsCollection       = "tests"
	questionsCollection   = "questions"
	submissionsCollection = "submissions"
	usersCollection       = "users"
	attemptsCollection    = "attempts"
	countersCollection    = "counters"

	emailIndex   = "users_email_unique"
	loginIDIndex = "users_login_id_unique"
)

// Open connects and pings the server.
func Open(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, client.Database(database), nil
}

// EnsureIndexes creates the indexes the stores rely on. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	stringField := func(field string) bson.D {
		return bson.D{{Key: field, Value: bson.D{{Key: "$type", Value: "string"}}}}
	}
	specs := map[string][]mongo.IndexModel{
		testsCollection: {
			{Keys: bson.D{{Key: "parentIds", Value: 1}}},
			{Keys: bson.D{{Key: "testType", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
		questionsCollection: {
			{Keys: bson.D{{Key: "testId", Value: 1}, {Key: "seq", Value: 1}}},
		},
		submissionsCollection: {
			{
				Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "testId", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("submissions_user_test_unique"),
			},
			{Keys: bson.D{{Key: "submittedAt", Value: -1}}},
		},
		usersCollection: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true).SetName(emailIndex).SetPartialFilterExpression(stringField("email")),
			},
			{
				Keys:    bson.D{{Key: "loginId", Value: 1}},
				Options: options.Index().SetUnique(true).SetName(loginIDIndex).SetPartialFilterExpression(stringField("loginId")),
			},
		},
		attemptsCollection: {
			{
				Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "testId", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}
	for coll, models := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	return nil
}

// Stores groups the mongo-backed repositories.
type Stores struct {
	Tests       *TestStore
	Questions   *QuestionStore
	Submissions *SubmissionStore
	Users       *UserStore
	Attempts    *AttemptStore
}

func NewStores(db *mongo.Database) Stores {
	return Stores{
		Tests:       &TestStore{coll: db.Collection(testsCollection)},
		Questions:   &QuestionStore{coll: db.Collection(questionsCollection), counters: db.Collection(countersCollection)},
		Submissions: &SubmissionStore{coll: db.Collection(submissionsCollection)},
		Users:       &UserStore{coll: db.Collection(usersCollection)},
		Attempts:    &AttemptStore{coll: db.Collection(attemptsCollection)},
	}
}

func notFound(err, sentinel error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return sentinel
	}
	return err
}

// duplicateIndex reports whether err is a duplicate key error on the named index.
func duplicateIndex(err error, index string) bool {
	return mongo.IsDuplicateKeyError(err) && strings.Contains(err.Error(), index)
}
