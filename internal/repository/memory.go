package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/justsurfingit/job-application-tracker/internal/domain"
	"github.com/justsurfingit/job-application-tracker/internal/models"
)

// Memory keeps everything in process. It backs the tests and the "memory"
// storage driver.
type Memory struct {
	mu       sync.Mutex
	jobs     []models.JobRow
	events   []models.JobEvent
	users    map[string]models.User
	sessions map[string]models.Session

	// Now is the clock used for timestamps and session expiry.
	Now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		users:    make(map[string]models.User),
		sessions: make(map[string]models.Session),
		Now:      time.Now,
	}
}

func (m *Memory) LookupUser(ctx context.Context, token string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok || !s.ExpiresAt.After(m.Now()) {
		return nil, nil
	}
	u, ok := m.users[s.UserID]
	if !ok {
		return nil, nil
	}
	return toDomainUser(u), nil
}

func (m *Memory) ListJobs(ctx context.Context, userID string) ([]models.JobRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	// Walk backwards so that rows created in the same instant keep newest first.
	var out []models.JobRow
	for i := len(m.jobs) - 1; i >= 0; i-- {
		if m.jobs[i].UserID == userID {
			out = append(out, cloneRow(m.jobs[i]))
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	return out, nil
}

func (m *Memory) InsertJob(ctx context.Context, row models.JobRow) (models.JobRow, error) {
	if err := ctx.Err(); err != nil {
		return models.JobRow{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.Now().UTC()
	row = cloneRow(row)
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.Priority == "" {
		row.Priority = string(domain.PriorityMedium)
	}
	row.CreatedAt = now
	row.UpdatedAt = now

	m.jobs = append(m.jobs, row)
	m.recordEvent(statusEvent(row, "", now))
	return cloneRow(row), nil
}

func (m *Memory) UpdateJob(ctx context.Context, id, userID string, patch models.RowPatch) (models.JobRow, error) {
	if err := ctx.Err(); err != nil {
		return models.JobRow{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.jobs {
		row := &m.jobs[i]
		if row.ID != id || row.UserID != userID {
			continue
		}
		from := row.Status
		patch.ApplyTo(row)
		now := m.Now().UTC()
		if now.Before(row.CreatedAt) {
			now = row.CreatedAt
		}
		row.UpdatedAt = now
		if row.Status != from {
			m.recordEvent(statusEvent(*row, from, now))
		}
		return cloneRow(*row), nil
	}
	return models.JobRow{}, ErrNotFound
}

func (m *Memory) DeleteJob(ctx context.Context, id, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.jobs[:0]
	for _, row := range m.jobs {
		if row.ID == id && row.UserID == userID {
			continue
		}
		kept = append(kept, row)
	}
	m.jobs = kept
	return nil
}

func (m *Memory) ListEvents(ctx context.Context, userID string, since time.Time) ([]models.JobEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.JobEvent
	for _, e := range m.events {
		if e.UserID == userID && !e.CreatedAt.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *Memory) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return models.User{}, ErrDuplicate
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := m.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	m.users[user.ID] = user
	return user, nil
}

func (m *Memory) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			found := u
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) CreateSession(ctx context.Context, session models.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if session.CreatedAt.IsZero() {
		session.CreatedAt = m.Now().UTC()
	}
	m.sessions[session.Token] = session
	return nil
}

func (m *Memory) FindSession(ctx context.Context, token string) (*models.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok || !s.ExpiresAt.After(m.Now()) {
		return nil, nil
	}
	return &s, nil
}

func (m *Memory) DeleteSession(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, token)
	return nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) recordEvent(e models.JobEvent) {
	e.ID = uint(len(m.events) + 1)
	m.events = append(m.events, e)
}

func cloneRow(r models.JobRow) models.JobRow {
	out := r
	if r.Tags != nil {
		out.Tags = append(pq.StringArray{}, r.Tags...)
	}
	out.Location = cloneString(r.Location)
	out.Notes = cloneString(r.Notes)
	out.ApplicationLink = cloneString(r.ApplicationLink)
	out.ContactName = cloneString(r.ContactName)
	out.ContactEmail = cloneString(r.ContactEmail)
	if r.Salary != nil {
		v := *r.Salary
		out.Salary = &v
	}
	if r.Deadline != nil {
		v := *r.Deadline
		out.Deadline = &v
	}
	if r.FollowUpDate != nil {
		v := *r.FollowUpDate
		out.FollowUpDate = &v
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
