package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessment-service/internal/app"
	"assessment-service/internal/auth"
	"assessment-service/internal/domain"
	"assessment-service/internal/infra/memory"
)

func newAuthService() (*app.AuthService, *memory.UserStore) {
	users := memory.NewUserStore()
	tokens := auth.NewManager("secret", time.Hour, "test")
	return app.NewAuthService(users, tokens, true, nil), users
}

func TestCreateUserWithEmailGrantsSuperadmin(t *testing.T) {
	svc, users := newAuthService()
	var out bytes.Buffer

	err := createUser(context.Background(), &out, svc, createUserOptions{
		name: "Root", email: "root@example.com", password: "secret1", role: "superadmin",
	})
	require.NoError(t, err)

	user, err := users.GetByEmail(context.Background(), "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSuperAdmin, user.Role)
	assert.Contains(t, out.String(), "login root@example.com")
}

func TestCreateUserWithoutEmailGeneratesLoginID(t *testing.T) {
	svc, _ := newAuthService()
	var out bytes.Buffer

	err := createUser(context.Background(), &out, svc, createUserOptions{name: "Mentor", password: "secret1", role: "mentor"})
	require.NoError(t, err)
	assert.True(t, strings.Contains(out.String(), "login KN"), out.String())
}

func TestCreateUserRejectsUnknownRole(t *testing.T) {
	svc, _ := newAuthService()
	err := createUser(context.Background(), &bytes.Buffer{}, svc, createUserOptions{name: "X", email: "x@example.com", password: "secret1", role: "wizard"})
	assert.True(t, domain.IsValidation(err))
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	cmd := newRootCmd()
	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"start", "migrate", "create-user"} {
		assert.True(t, names[want], "missing %s", want)
	}
}
