package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/justsurfingit/job-application-tracker/internal/cache"
	"github.com/justsurfingit/job-application-tracker/internal/domain"
	"github.com/justsurfingit/job-application-tracker/internal/models"
	"github.com/justsurfingit/job-application-tracker/internal/repository"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.NoError(t, CheckPassword(hash, "correct horse"))
	assert.ErrorIs(t, CheckPassword(hash, "battery staple"), ErrInvalidCredentials)
}

func TestNewTokenIsUnique(t *testing.T) {
	a, b := NewToken(), NewToken()
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestBearerToken(t *testing.T) {
	cases := map[string]struct {
		header string
		token  string
		ok     bool
	}{
		"valid":        {"Bearer abc", "abc", true},
		"lower scheme": {"bearer abc", "abc", true},
		"missing":      {"", "", false},
		"no token":     {"Bearer ", "", false},
		"blank token":  {"Bearer    ", "", false},
		"basic":        {"Basic abc", "", false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			token, ok := BearerToken(tc.header)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.token, token)
		})
	}
}

// countingBackend records how often the wrapped lookup runs.
type countingBackend struct {
	*repository.Memory
	lookups int
}

func (c *countingBackend) LookupUser(ctx context.Context, token string) (*domain.User, error) {
	c.lookups++
	return c.Memory.LookupUser(ctx, token)
}

func TestCachedIdentity(t *testing.T) {
	ctx := context.Background()
	backend := &countingBackend{Memory: repository.NewMemory()}
	user, err := backend.CreateUser(ctx, models.User{Email: "ada@example.com", Name: "Ada", PasswordHash: "h"})
	require.NoError(t, err)
	require.NoError(t, backend.CreateSession(ctx, models.Session{Token: "tok", UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour)}))

	identity := NewCachedIdentity(backend, cache.NewMemory(), time.Minute, zap.NewNop())

	for i := 0; i < 3; i++ {
		got, err := identity.LookupUser(ctx, "tok")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, "ada@example.com", got.Email)
	}
	assert.Equal(t, 1, backend.lookups)

	missing, err := identity.LookupUser(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
	_, _ = identity.LookupUser(ctx, "nope")
	assert.Equal(t, 3, backend.lookups, "unknown tokens are not cached")

	require.NoError(t, identity.DeleteSession(ctx, "tok"))
	gone, err := identity.LookupUser(ctx, "tok")
	require.NoError(t, err)
	assert.Nil(t, gone)
}
