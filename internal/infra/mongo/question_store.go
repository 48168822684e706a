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

type optionDoc struct {
	Text      string `bson:"text"`
	IsCorrect bool   `bson:"isCorrect"`
}

type authorDoc struct {
	UserID string `bson:"userId"`
	Name   string `bson:"name"`
}

type questionDoc struct {
	ID          string      `bson:"_id"`
	Seq         int64       `bson:"seq"`
	TestID      string      `bson:"testId"`
	Text        string      `bson:"questionText"`
	Options     []optionDoc `bson:"options"`
	Explanation string      `bson:"explanation,omitempty"`
	Category    string      `bson:"category,omitempty"`
	AddedBy     *authorDoc  `bson:"addedBy,omitempty"`
	UpdatedBy   *authorDoc  `bson:"updatedBy,omitempty"`
	CreatedAt   time.Time   `bson:"createdAt"`
	UpdatedAt   time.Time   `bson:"updatedAt,omitempty"`
}

func toAuthorDoc(a *domain.Author) *authorDoc {
	if a == nil {
		return nil
	}
	return &authorDoc{UserID: a.UserID, Name: a.Name}
}

func (a *authorDoc) toDomain() *domain.Author {
	if a == nil {
		return nil
	}
	return &domain.Author{UserID: a.UserID, Name: a.Name}
}

func toOptionDocs(opts []domain.Option) []optionDoc {
	out := make([]optionDoc, 0, len(opts))
	for _, o := range opts {
		out = append(out, optionDoc{Text: o.Text, IsCorrect: o.IsCorrect})
	}
	return out
}

func (d questionDoc) toDomain() domain.Question {
	opts := make([]domain.Option, 0, len(d.Options))
	for _, o := range d.Options {
		opts = append(opts, domain.Option{Text: o.Text, IsCorrect: o.IsCorrect})
	}
	q := domain.Question{
		ID:          d.ID,
		TestID:      d.TestID,
		Text:        d.Text,
		Options:     opts,
		Explanation: d.Explanation,
		Category:    d.Category,
		AddedBy:     d.AddedBy.toDomain(),
		UpdatedBy:   d.UpdatedBy.toDomain(),
		CreatedAt:   d.CreatedAt.UTC(),
	}
	if !d.UpdatedAt.IsZero() {
		q.UpdatedAt = d.UpdatedAt.UTC()
	}
	return q
}

// QuestionStore orders questions by a per-database sequence drawn from the
// counters collection.
type QuestionStore struct {
	coll     *mongo.Collection
	counters *mongo.Collection
}

func (s *QuestionStore) Create(ctx context.Context, q domain.Question) error {
	seq, err := s.nextSeq(ctx)
	if err != nil {
		return err
	}
	doc := questionDoc{
		ID:          q.ID,
		Seq:         seq,
		TestID:      q.TestID,
		Text:        q.Text,
		Options:     toOptionDocs(q.Options),
		Explanation: q.Explanation,
		Category:    q.Category,
		AddedBy:     toAuthorDoc(q.AddedBy),
		UpdatedBy:   toAuthorDoc(q.UpdatedBy),
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

func (s *QuestionStore) Get(ctx context.Context, testID, questionID string) (domain.Question, error) {
	var doc questionDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": questionID, "testId": testID}).Decode(&doc); err != nil {
		return domain.Question{}, notFound(err, domain.ErrQuestionNotFound)
	}
	return doc.toDomain(), nil
}

func (s *QuestionStore) Update(ctx context.Context, q domain.Question) error {
	set := bson.M{
		"questionText": q.Text,
		"options":      toOptionDocs(q.Options),
		"explanation":  q.Explanation,
		"category":     q.Category,
		"updatedAt":    q.UpdatedAt,
	}
	if q.UpdatedBy != nil {
		set["updatedBy"] = toAuthorDoc(q.UpdatedBy)
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": q.ID, "testId": q.TestID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (s *QuestionStore) Delete(ctx context.Context, testID, questionID string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": questionID, "testId": testID})
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (s *QuestionStore) DeleteByTest(ctx context.Context, testID string) error {
	if _, err := s.coll.DeleteMany(ctx, bson.M{"testId": testID}); err != nil {
		return fmt.Errorf("delete questions: %w", err)
	}
	return nil
}

func (s *QuestionStore) ListByTest(ctx context.Context, testID string) ([]domain.Question, error) {
	docs, err := s.find(ctx, testID, nil)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Question, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (s *QuestionStore) find(ctx context.Context, testID string, projection bson.M) ([]questionDoc, error) {
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	if projection != nil {
		opts.SetProjection(projection)
	}
	cursor, err := s.coll.Find(ctx, bson.M{"testId": testID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	var docs []questionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	return docs, nil
}

func (s *QuestionStore) nextSeq(ctx context.Context) (int64, error) {
	var counter struct {
		Value int64 `bson:"value"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": questionsCollection},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next question seq: %w", err)
	}
	return counter.Value, nil
}
