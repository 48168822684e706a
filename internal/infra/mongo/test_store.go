package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
)

type testDoc struct {
	ID          string     `bson:"_id"`
	Title       string     `bson:"testTitle"`
	CompanyName string     `bson:"companyName,omitempty"`
	Description string     `bson:"description,omitempty"`
	ValidTill   *time.Time `bson:"validTill,omitempty"`
	Duration    int        `bson:"duration,omitempty"`
	Type        string     `bson:"testType,omitempty"`
	ParentIDs   []string   `bson:"parentIds"`
	CreatedAt   time.Time  `bson:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt"`
}

func toTestDoc(t domain.Test) testDoc {
	parents := t.ParentIDs
	if parents == nil {
		parents = []string{}
	}
	return testDoc{
		ID:          t.ID,
		Title:       t.Title,
		CompanyName: t.CompanyName,
		Description: t.Description,
		ValidTill:   t.ValidTill,
		Duration:    t.Duration,
		Type:        string(t.Type),
		ParentIDs:   parents,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (d testDoc) toDomain() domain.Test {
	parents := d.ParentIDs
	if parents == nil {
		parents = []string{}
	}
	var validTill *time.Time
	if d.ValidTill != nil {
		v := d.ValidTill.UTC()
		validTill = &v
	}
	return domain.Test{
		ID:          d.ID,
		Title:       d.Title,
		CompanyName: d.CompanyName,
		Description: d.Description,
		ValidTill:   validTill,
		Duration:    d.Duration,
		Type:        domain.TestType(d.Type),
		ParentIDs:   parents,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

// TestStore keeps one document per test; parentIds holds the many-to-many links.
type TestStore struct {
	coll *mongo.Collection
}

func (s *TestStore) Create(ctx context.Context, test domain.Test) error {
	if _, err := s.coll.InsertOne(ctx, toTestDoc(test)); err != nil {
		return fmt.Errorf("insert test: %w", err)
	}
	return nil
}

func (s *TestStore) Get(ctx context.Context, id string) (domain.Test, error) {
	var doc testDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return domain.Test{}, notFound(err, domain.ErrTestNotFound)
	}
	return doc.toDomain(), nil
}

func (s *TestStore) Update(ctx context.Context, test domain.Test) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": test.ID}, toTestDoc(test))
	if err != nil {
		return fmt.Errorf("update test: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrTestNotFound
	}
	return nil
}

func (s *TestStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete test: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrTestNotFound
	}
	return nil
}

func (s *TestStore) List(ctx context.Context, filter app.TestFilter) ([]domain.Test, error) {
	query := bson.M{}
	if filter.Type != "" {
		query["testType"] = string(filter.Type)
	}
	if filter.ParentID != "" {
		query["parentIds"] = filter.ParentID
	}
	if len(filter.IDs) > 0 {
		query["_id"] = bson.M{"$in": filter.IDs}
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list tests: %w", err)
	}
	var docs []testDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode tests: %w", err)
	}
	out := make([]domain.Test, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}
