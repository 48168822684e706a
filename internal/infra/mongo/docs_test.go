package mongo

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"assessment-service/internal/domain"
)

func TestTestDocRoundTripKeepsParents(t *testing.T) {
	validTill := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	in := domain.Test{
		ID:        "sub-1",
		Title:     "Arrays",
		Type:      domain.TestTypeSub,
		ParentIDs: []string{"main-1", "main-2"},
		ValidTill: &validTill,
		Duration:  20,
		CreatedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}

	raw, err := bson.Marshal(toTestDoc(in))
	require.NoError(t, err)
	var doc testDoc
	require.NoError(t, bson.Unmarshal(raw, &doc))

	out := doc.toDomain()
	assert.Equal(t, in.ParentIDs, out.ParentIDs)
	assert.Equal(t, in.Type, out.Type)
	require.NotNil(t, out.ValidTill)
	assert.True(t, out.ValidTill.Equal(validTill))
	assert.True(t, out.CreatedAt.Equal(in.CreatedAt))
}

func TestTestDocStoresEmptyParentList(t *testing.T) {
	doc := toTestDoc(domain.Test{ID: "main-1", Type: domain.TestTypeMain})
	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	parents, ok := m["parentIds"].(bson.A)
	require.True(t, ok, "parentIds must be an array, got %T", m["parentIds"])
	assert.Empty(t, parents)
}

func TestQuestionDocPreservesCorrectIndex(t *testing.T) {
	doc := questionDoc{
		ID:     "q1",
		TestID: "t1",
		Options: toOptionDocs([]domain.Option{
			{Text: "a"}, {Text: "b"}, {Text: "c", IsCorrect: true}, {Text: "d"},
		}),
		AddedBy: toAuthorDoc(&domain.Author{UserID: "u1", Name: "Ada"}),
	}
	q := doc.toDomain()
	assert.Equal(t, 2, q.CorrectIndex())
	require.NotNil(t, q.AddedBy)
	assert.Equal(t, "Ada", q.AddedBy.Name)
	assert.Nil(t, q.UpdatedBy)
	assert.True(t, q.UpdatedAt.IsZero())
}

func TestUserDocOmitsEmptyIdentifiers(t *testing.T) {
	raw, err := bson.Marshal(userDoc{ID: "u1", Name: "Learner", LoginID: "KN2025ABCD", Role: "user"})
	require.NoError(t, err)

	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	_, hasEmail := m["email"]
	assert.False(t, hasEmail, "empty email must not be indexed")
	assert.Equal(t, "KN2025ABCD", m["loginId"])
}

func TestDuplicateIndexMatchesIndexName(t *testing.T) {
	err := mongo.WriteException{WriteErrors: []mongo.WriteError{{
		Code:    11000,
		Message: "E11000 duplicate key error collection: assessment.users index: users_email_unique dup key: { email: \"a@b.c\" }",
	}}}

	assert.True(t, duplicateIndex(err, emailIndex))
	assert.False(t, duplicateIndex(err, loginIDIndex))
	assert.False(t, duplicateIndex(errors.New("users_email_unique"), emailIndex))
}

func TestNotFoundMapsNoDocuments(t *testing.T) {
	assert.ErrorIs(t, notFound(mongo.ErrNoDocuments, domain.ErrTestNotFound), domain.ErrTestNotFound)
	other := errors.New("boom")
	assert.Equal(t, other, notFound(other, domain.ErrTestNotFound))
}
