package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/justsurfingit/job-application-tracker/internal/errors"
	"github.com/justsurfingit/job-application-tracker/internal/notify"
	"github.com/justsurfingit/job-application-tracker/internal/repository"
)

// SweepInterval is the minimum time between two passes that drop the stores
// of expired sessions.
const SweepInterval = time.Minute

type session struct {
	store     *JobStore
	expiresAt time.Time
}

// SessionManager owns one JobStore per session token. A store is created at
// login and discarded at logout or once its session has expired.
type SessionManager struct {
	backend  repository.Backend
	notifier notify.Notifier
	logger   *zap.Logger

	// Now is the clock session expiry is checked against.
	Now func() time.Time

	mu        sync.Mutex
	sessions  map[string]session
	lastSweep time.Time
}

func NewSessionManager(backend repository.Backend, notifier notify.Notifier, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		backend:  backend,
		notifier: notifier,
		logger:   logger,
		Now:      time.Now,
		sessions: make(map[string]session),
	}
}

// Open builds a fresh store for token, replacing any previous one, and loads
// it. The store is kept even if the initial fetch fails; its State.Error says
// why.
func (m *SessionManager) Open(ctx context.Context, token string, expiresAt time.Time) (*JobStore, error) {
	store := m.newStore(token)

	m.mu.Lock()
	m.sweepLocked(m.Now())
	m.sessions[token] = session{store: store, expiresAt: expiresAt}
	m.mu.Unlock()

	return store, m.load(ctx, store)
}

// Store returns the store of token. Sessions that outlived a restart get a new
// store once the token checks out.
func (m *SessionManager) Store(ctx context.Context, token string) (*JobStore, error) {
	now := m.Now()

	m.mu.Lock()
	m.sweepLocked(now)
	s, ok := m.sessions[token]
	if ok && !s.expiresAt.After(now) {
		delete(m.sessions, token)
		ok = false
	}
	m.mu.Unlock()
	if ok {
		return s.store, nil
	}

	found, err := m.backend.FindSession(ctx, token)
	if err != nil {
		return nil, apperrors.Backend("looking up session", err)
	}
	if found == nil {
		return nil, apperrors.NotAuthenticated("Not authenticated", nil)
	}

	// Concurrent first requests for the same token share one store.
	store := m.newStore(token)
	m.mu.Lock()
	if existing, ok := m.sessions[token]; ok {
		m.mu.Unlock()
		return existing.store, nil
	}
	m.sessions[token] = session{store: store, expiresAt: found.ExpiresAt}
	m.mu.Unlock()

	_ = m.load(ctx, store)
	return store, nil
}

// Close discards the store of token.
func (m *SessionManager) Close(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}

// Len reports how many sessions hold a store.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *SessionManager) newStore(token string) *JobStore {
	return NewJobStore(m.backend, m.backend, m.notifier, m.logger, token)
}

func (m *SessionManager) load(ctx context.Context, store *JobStore) error {
	if err := store.FetchAll(ctx); err != nil {
		m.logger.Warn("initial fetch failed", zap.Error(err))
		return err
	}
	return nil
}

// sweepLocked drops expired sessions, at most once per SweepInterval. m.mu must
// be held.
func (m *SessionManager) sweepLocked(now time.Time) {
	if now.Sub(m.lastSweep) < SweepInterval {
		return
	}
	m.lastSweep = now

	dropped := 0
	for token, s := range m.sessions {
		if !s.expiresAt.After(now) {
			delete(m.sessions, token)
			dropped++
		}
	}
	if dropped > 0 {
		m.logger.Debug("dropped expired session stores", zap.Int("count", dropped))
	}
}
