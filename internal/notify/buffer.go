package notify

import (
	"context"
	"sync"
)

// DefaultBufferSize is the per-user capacity when none is configured.
const DefaultBufferSize = 20

// Buffer keeps the most recent notifications of each user until a client
// drains them. When a user's queue is full the oldest entry is dropped.
type Buffer struct {
	mu     sync.Mutex
	size   int
	queues map[string][]Notification
}

func NewBuffer(size int) *Buffer {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Buffer{size: size, queues: make(map[string][]Notification)}
}

// Notify queues n for its user. Notifications without a user are dropped.
func (b *Buffer) Notify(ctx context.Context, n Notification) error {
	if n.UserID == "" {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	q := append(b.queues[n.UserID], n)
	if len(q) > b.size {
		q = append([]Notification(nil), q[len(q)-b.size:]...)
	}
	b.queues[n.UserID] = q
	return nil
}

// Drain returns the pending notifications of userID, oldest first, and
// forgets them.
func (b *Buffer) Drain(userID string) []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()

	q := b.queues[userID]
	delete(b.queues, userID)
	if q == nil {
		return []Notification{}
	}
	return q
}
