// Package cache is a small key/value abstraction with a Redis implementation
// for production and an in-process one for tests and single-node runs.
package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("key not found in cache")
	ErrInvalidValue = errors.New("invalid value for cache")
)

// DefaultTTL applies when Set is called with a zero ttl.
const DefaultTTL = time.Hour

// Cache stores strings, byte slices and encoding.BinaryMarshaler values. Get
// decodes into a *string or an encoding.BinaryUnmarshaler.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	Get(ctx context.Context, key string, value interface{}) error

	Delete(ctx context.Context, key string) error

	Close() error
}

type Options struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}
