package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessment-service/internal/domain"
)

func TestIssueAndParse(t *testing.T) {
	m := NewManager("test-secret", time.Hour, "assessment-service")

	token, err := m.Issue(domain.User{ID: "u1", Name: "Ada", Role: domain.RoleAdmin})
	require.NoError(t, err)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.ID)
	assert.Equal(t, "Ada", claims.Name)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
}

func TestParseRejectsExpiredAndForeignTokens(t *testing.T) {
	m := NewManager("test-secret", time.Minute, "assessment-service")
	issuedAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issuedAt }
	token, err := m.Issue(domain.User{ID: "u1", Name: "Ada", Role: domain.RoleUser})
	require.NoError(t, err)

	m.now = func() time.Time { return issuedAt.Add(2 * time.Minute) }
	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewManager("other-secret", time.Hour, "x")
	foreign, _ := other.Issue(domain.User{ID: "u1", Name: "Ada"})
	_, err = NewManager("test-secret", time.Hour, "x").Parse(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRequiresIDAndName(t *testing.T) {
	m := NewManager("test-secret", time.Hour, "assessment-service")
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":   "u1",
		"role": "user",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = m.Parse(signed)
	assert.ErrorIs(t, err, ErrMalformedClaims)
}
