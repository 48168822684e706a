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

type userDoc struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email,omitempty"`
	LoginID      string    `bson:"loginId,omitempty"`
	Role         string    `bson:"role"`
	PasswordHash string    `bson:"password"`
	CreatedAt    time.Time `bson:"createdAt"`
}

func (d userDoc) toDomain() domain.User {
	return domain.User{
		ID:           d.ID,
		Name:         d.Name,
		Email:        d.Email,
		LoginID:      d.LoginID,
		Role:         domain.Role(d.Role),
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt.UTC(),
	}
}

// UserStore omits empty email/login id fields so the partial unique indexes skip them.
type UserStore struct {
	coll *mongo.Collection
}

func (s *UserStore) Create(ctx context.Context, user domain.User) error {
	doc := userDoc{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		LoginID:      user.LoginID,
		Role:         string(user.Role),
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		switch {
		case duplicateIndex(err, emailIndex):
			return domain.ErrEmailTaken
		case duplicateIndex(err, loginIDIndex):
			return domain.ErrLoginIDTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (domain.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *UserStore) GetByLoginID(ctx context.Context, loginID string) (domain.User, error) {
	return s.findOne(ctx, bson.M{"loginId": loginID})
}

func (s *UserStore) List(ctx context.Context) ([]domain.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	out := make([]domain.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (s *UserStore) findOne(ctx context.Context, query bson.M) (domain.User, error) {
	var doc userDoc
	if err := s.coll.FindOne(ctx, query).Decode(&doc); err != nil {
		return domain.User{}, notFound(err, domain.ErrUserNotFound)
	}
	return doc.toDomain(), nil
}
