package auth

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/justsurfingit/job-application-tracker/internal/cache"
	"github.com/justsurfingit/job-application-tracker/internal/domain"
	"github.com/justsurfingit/job-application-tracker/internal/repository"
)

const identityKeyPrefix = "session:"

// CachedIdentity answers token lookups from a cache and falls through to the
// wrapped backend on a miss. Unknown tokens are never cached.
type CachedIdentity struct {
	repository.Backend
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedIdentity(backend repository.Backend, c cache.Cache, ttl time.Duration, logger *zap.Logger) *CachedIdentity {
	return &CachedIdentity{Backend: backend, cache: c, ttl: ttl, logger: logger}
}

type cachedUser domain.User

func (u cachedUser) MarshalBinary() ([]byte, error) { return json.Marshal(domain.User(u)) }

func (u *cachedUser) UnmarshalBinary(b []byte) error { return json.Unmarshal(b, (*domain.User)(u)) }

func (c *CachedIdentity) LookupUser(ctx context.Context, token string) (*domain.User, error) {
	key := identityKeyPrefix + token

	var hit cachedUser
	err := c.cache.Get(ctx, key, &hit)
	if err == nil {
		user := domain.User(hit)
		return &user, nil
	}
	if !errors.Is(err, cache.ErrNotFound) {
		c.logger.Warn("identity cache read failed", zap.Error(err))
	}

	user, err := c.Backend.LookupUser(ctx, token)
	if err != nil || user == nil {
		return user, err
	}
	if err := c.cache.Set(ctx, key, cachedUser(*user), c.ttl); err != nil {
		c.logger.Warn("identity cache write failed", zap.Error(err))
	}
	return user, nil
}

// DeleteSession evicts the cached identity before removing the session.
func (c *CachedIdentity) DeleteSession(ctx context.Context, token string) error {
	if err := c.cache.Delete(ctx, identityKeyPrefix+token); err != nil {
		c.logger.Warn("identity cache eviction failed", zap.Error(err))
	}
	return c.Backend.DeleteSession(ctx, token)
}

func (c *CachedIdentity) Close() error {
	return errors.Join(c.cache.Close(), c.Backend.Close())
}
