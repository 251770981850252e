package cache

import (
	"context"
	"encoding"
	"sync"
	"time"
)

type entry struct {
	data    []byte
	expires time.Time
}

// Memory is a process-local Cache. Expired entries are dropped on read.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry
	Now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]entry), Now: time.Now}
}

func (c *Memory) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = append([]byte(nil), v...)
	case encoding.BinaryMarshaler:
		b, err := v.MarshalBinary()
		if err != nil {
			return err
		}
		data = b
	default:
		return ErrInvalidValue
	}
	if ttl == 0 {
		ttl = DefaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{data: data, expires: c.Now().Add(ttl)}
	return nil
}

func (c *Memory) Get(ctx context.Context, key string, value interface{}) error {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && !c.Now().Before(e.expires) {
		delete(c.entries, key)
		ok = false
	}
	c.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	return decode(e.data, value)
}

func (c *Memory) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *Memory) Close() error { return nil }
