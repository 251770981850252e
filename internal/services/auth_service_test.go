package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/justsurfingit/job-application-tracker/internal/errors"
	"github.com/justsurfingit/job-application-tracker/internal/notify"
	"github.com/justsurfingit/job-application-tracker/internal/repository"
)

func newAuth() (*AuthService, *SessionManager, *repository.Memory) {
	backend := repository.NewMemory()
	sessions := NewSessionManager(backend, notify.NewBuffer(0), zap.NewNop())
	return NewAuthService(backend, sessions, time.Hour, zap.NewNop()), sessions, backend
}

func TestSignupLoginLogout(t *testing.T) {
	ctx := context.Background()
	svc, sessions, _ := newAuth()

	signed, err := svc.Signup(ctx, "  Ada Lovelace ", " Ada@Example.com", "analytical-engine")
	require.NoError(t, err)
	assert.NotEmpty(t, signed.Token)
	assert.Equal(t, "ada@example.com", signed.User.Email)
	assert.Equal(t, "Ada Lovelace", signed.User.Name)
	assert.Equal(t, 1, sessions.Len())

	logged, err := svc.Login(ctx, "ADA@example.com", "analytical-engine")
	require.NoError(t, err)
	assert.NotEqual(t, signed.Token, logged.Token)
	assert.Equal(t, signed.User.ID, logged.User.ID)
	assert.Equal(t, 2, sessions.Len())

	me, err := svc.Me(ctx, logged.Token)
	require.NoError(t, err)
	assert.Equal(t, signed.User.ID, me.ID)

	require.NoError(t, svc.Logout(ctx, logged.Token))
	assert.Equal(t, 1, sessions.Len())
	_, err = svc.Me(ctx, logged.Token)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotAuthenticated))
}

func TestSignupDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newAuth()

	_, err := svc.Signup(ctx, "Ada", "ada@example.com", "pw-123456")
	require.NoError(t, err)
	_, err = svc.Signup(ctx, "Imposter", "ADA@example.com", "pw-654321")

	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConflict))
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestSignupRejectsPasswordOverBcryptLimit(t *testing.T) {
	svc, sessions, _ := newAuth()

	// 40 runes, 80 bytes.
	_, err := svc.Signup(context.Background(), "Ada", "ada@example.com", strings.Repeat("é", 40))

	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
	assert.Zero(t, sessions.Len())
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	svc, sessions, _ := newAuth()
	_, err := svc.Signup(ctx, "Ada", "ada@example.com", "right-password")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "ada@example.com", "wrong-password")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotAuthenticated))

	_, err = svc.Login(ctx, "nobody@example.com", "right-password")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotAuthenticated))
	assert.Equal(t, 1, sessions.Len())
}

func TestSessionManagerStore(t *testing.T) {
	ctx := context.Background()
	svc, sessions, _ := newAuth()
	s, err := svc.Signup(ctx, "Ada", "ada@example.com", "pw-123456")
	require.NoError(t, err)

	first, err := sessions.Store(ctx, s.Token)
	require.NoError(t, err)
	again, err := sessions.Store(ctx, s.Token)
	require.NoError(t, err)
	assert.Same(t, first, again)

	_, err = sessions.Store(ctx, "forged")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotAuthenticated))
}

func TestSessionManagerRebuildsStoreForKnownSession(t *testing.T) {
	ctx := context.Background()
	svc, sessions, _ := newAuth()
	s, err := svc.Signup(ctx, "Ada", "ada@example.com", "pw-123456")
	require.NoError(t, err)
	store, err := sessions.Store(ctx, s.Token)
	require.NoError(t, err)
	_, err = store.Add(ctx, fields("Acme", "Engineer"))
	require.NoError(t, err)

	// Simulates a restart: the session survives in the backend, the store does not.
	sessions.Close(s.Token)
	rebuilt, err := sessions.Store(ctx, s.Token)
	require.NoError(t, err)
	assert.NotSame(t, store, rebuilt)
	require.Len(t, rebuilt.Jobs(), 1)
	assert.Equal(t, "Acme", rebuilt.Jobs()[0].CompanyName)
}

// manualClock is shared by the backend, the auth service and the session
// manager so expiry is consistent across them.
type manualClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestSessionManagerDropsExpiredStores(t *testing.T) {
	ctx := context.Background()
	clock := &manualClock{t: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)}
	backend := repository.NewMemory()
	backend.Now = clock.Now
	sessions := NewSessionManager(backend, notify.NewBuffer(0), zap.NewNop())
	sessions.Now = clock.Now
	svc := NewAuthService(backend, sessions, time.Minute, zap.NewNop())
	svc.Now = clock.Now

	var tokens []string
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		s, err := svc.Signup(ctx, "User", email, "pw-123456")
		require.NoError(t, err)
		tokens = append(tokens, s.Token)
	}
	require.Equal(t, 3, sessions.Len())

	clock.Advance(time.Hour)

	_, err := sessions.Store(ctx, tokens[0])
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotAuthenticated))
	assert.Zero(t, sessions.Len(), "every expired store is dropped")

	fresh, err := svc.Login(ctx, "b@example.com", "pw-123456")
	require.NoError(t, err)
	_, err = sessions.Store(ctx, fresh.Token)
	require.NoError(t, err)
	assert.Equal(t, 1, sessions.Len())
}

func TestSessionManagerConcurrentRebuildSharesOneStore(t *testing.T) {
	ctx := context.Background()
	svc, sessions, _ := newAuth()
	s, err := svc.Signup(ctx, "Ada", "ada@example.com", "pw-123456")
	require.NoError(t, err)
	sessions.Close(s.Token)

	const n = 8
	stores := make([]*JobStore, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store, err := sessions.Store(ctx, s.Token)
			assert.NoError(t, err)
			stores[i] = store
		}(i)
	}
	wg.Wait()

	require.NotNil(t, stores[0])
	for _, store := range stores[1:] {
		assert.Same(t, stores[0], store)
	}
	assert.Equal(t, 1, sessions.Len())
}
