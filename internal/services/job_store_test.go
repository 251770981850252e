package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/justsurfingit/job-application-tracker/internal/domain"
	apperrors "github.com/justsurfingit/job-application-tracker/internal/errors"
	"github.com/justsurfingit/job-application-tracker/internal/models"
	"github.com/justsurfingit/job-application-tracker/internal/notify"
	"github.com/justsurfingit/job-application-tracker/internal/repository"
)

type recorder struct {
	mu    sync.Mutex
	notes []notify.Notification
}

func (r *recorder) Notify(ctx context.Context, n notify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
	return nil
}

func (r *recorder) last() notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notes) == 0 {
		return notify.Notification{}
	}
	return r.notes[len(r.notes)-1]
}

// flakyRepo fails the named operations and delegates the rest.
type flakyRepo struct {
	*repository.Memory
	failInsert bool
	failList   bool
	failDelete bool
}

var errBackendDown = errors.New("backend down")

func (f *flakyRepo) ListJobs(ctx context.Context, userID string) ([]models.JobRow, error) {
	if f.failList {
		return nil, errBackendDown
	}
	return f.Memory.ListJobs(ctx, userID)
}

func (f *flakyRepo) InsertJob(ctx context.Context, row models.JobRow) (models.JobRow, error) {
	if f.failInsert {
		return models.JobRow{}, errBackendDown
	}
	return f.Memory.InsertJob(ctx, row)
}

func (f *flakyRepo) DeleteJob(ctx context.Context, id, userID string) error {
	if f.failDelete {
		return errBackendDown
	}
	return f.Memory.DeleteJob(ctx, id, userID)
}

type fixture struct {
	repo  *flakyRepo
	notes *recorder

	mu    sync.Mutex
	clock time.Time
}

func newFixture() *fixture {
	f := &fixture{
		repo:  &flakyRepo{Memory: repository.NewMemory()},
		notes: &recorder{},
		clock: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC),
	}
	f.repo.Memory.Now = f.tick
	return f
}

// tick advances the backend clock by a second per write.
func (f *fixture) tick() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fixture) now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clock
}

// login creates a user with a live session and returns a store bound to it.
func (f *fixture) login(t *testing.T, email string) (*JobStore, string) {
	t.Helper()
	ctx := context.Background()
	user, err := f.repo.CreateUser(ctx, models.User{Email: email, Name: email, PasswordHash: "h"})
	require.NoError(t, err)
	token := "token-" + email
	require.NoError(t, f.repo.CreateSession(ctx, models.Session{Token: token, UserID: user.ID, ExpiresAt: f.now().Add(24 * time.Hour)}))
	return f.store(token), user.ID
}

func (f *fixture) store(token string) *JobStore {
	s := NewJobStore(f.repo, f.repo, f.notes, zap.NewNop(), token)
	s.Now = f.now
	return s
}

func fields(company, position string) domain.JobFields {
	return domain.JobFields{
		CompanyName: company,
		Position:    position,
		JobType:     domain.JobTypeFullTime,
		Status:      domain.StatusSaved,
		Tags:        []string{"go"},
	}
}

func TestFetchAllUnauthenticatedKeepsJobs(t *testing.T) {
	f := newFixture()
	store := f.store("no-such-token")

	err := store.FetchAll(context.Background())

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotAuthenticated))
	state := store.Snapshot()
	assert.NotNil(t, state.Jobs)
	assert.Empty(t, state.Jobs)
	assert.Equal(t, MsgFetchFailed, state.Error)
	assert.False(t, state.IsLoading)
	assert.Equal(t, notify.LevelError, f.notes.last().Level)
	assert.Equal(t, MsgFetchFailed, f.notes.last().Message)
}

func TestFetchAllNewestFirst(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	store, userID := f.login(t, "ada@example.com")

	for _, c := range []string{"Acme", "Globex", "Initech"} {
		_, err := f.repo.InsertJob(ctx, models.JobRow{UserID: userID, Company: c, Position: "Eng", JobType: "full-time", Status: "saved"})
		require.NoError(t, err)
	}
	_, err := f.repo.InsertJob(ctx, models.JobRow{UserID: "someone-else", Company: "Hidden", Position: "Eng", JobType: "full-time", Status: "saved"})
	require.NoError(t, err)

	require.NoError(t, store.FetchAll(ctx))

	jobs := store.Jobs()
	require.Len(t, jobs, 3)
	assert.Equal(t, "Initech", jobs[0].CompanyName)
	assert.Equal(t, "Acme", jobs[2].CompanyName)
	assert.Empty(t, store.Snapshot().Error)
}

func TestFetchAllBackendFailureKeepsPriorJobs(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	store, _ := f.login(t, "ada@example.com")
	_, err := store.Add(ctx, fields("Acme", "Engineer"))
	require.NoError(t, err)

	f.repo.failList = true
	err = store.FetchAll(ctx)

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeBackend))
	assert.ErrorIs(t, err, errBackendDown)
	state := store.Snapshot()
	require.Len(t, state.Jobs, 1)
	assert.Equal(t, "Acme", state.Jobs[0].CompanyName)
	assert.Equal(t, MsgFetchFailed, state.Error)
}

func TestAddPrependsServerRecord(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	store, _ := f.login(t, "ada@example.com")

	first, err := store.Add(ctx, fields("Acme", "Engineer"))
	require.NoError(t, err)
	second, err := store.Add(ctx, domain.JobFields{
		CompanyName: "Globex",
		Position:    "Analyst",
		JobType:     domain.JobTypeContract,
		Status:      domain.StatusApplied,
		Salary:      "$90,000",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, domain.PriorityMedium, second.Priority)
	assert.Equal(t, "90000", second.Salary)
	assert.NotNil(t, second.Tags)
	assert.False(t, second.CreatedAt.IsZero())

	jobs := store.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, second.ID, jobs[0].ID)
	assert.Equal(t, first.ID, jobs[1].ID)
	assert.Equal(t, MsgAdded, f.notes.last().Message)
	assert.Equal(t, notify.LevelSuccess, f.notes.last().Level)
}

func TestAddFailureLeavesJobsAndClearsOnNextSuccess(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	store, _ := f.login(t, "ada@example.com")
	_, err := store.Add(ctx, fields("Acme", "Engineer"))
	require.NoError(t, err)
	before := store.Snapshot()

	f.repo.failInsert = true
	_, err = store.Add(ctx, fields("Globex", "Analyst"))

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeBackend))
	after := store.Snapshot()
	assert.Equal(t, before.Jobs, after.Jobs)
	assert.Equal(t, MsgAddFailed, after.Error)
	assert.Greater(t, after.Version, before.Version)

	f.repo.failInsert = false
	_, err = store.Add(ctx, fields("Globex", "Analyst"))
	require.NoError(t, err)
	assert.Empty(t, store.Snapshot().Error)
}

func TestAddUnauthenticated(t *testing.T) {
	f := newFixture()
	store := f.store("expired")

	_, err := store.Add(context.Background(), fields("Acme", "Engineer"))

	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotAuthenticated))
	assert.Empty(t, store.Jobs())
	assert.Equal(t, MsgAddFailed, store.Snapshot().Error)
}

func TestUpdateReplacesMatchingRecord(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	store, _ := f.login(t, "ada@example.com")
	other, err := store.Add(ctx, fields("Globex", "Analyst"))
	require.NoError(t, err)
	job, err := store.Add(ctx, fields("Acme", "Engineer"))
	require.NoError(t, err)

	status := domain.StatusInterviewing
	notes := "Phone screen booked"
	updated, err := store.Update(ctx, job.ID, domain.JobPatch{Status: &status, Notes: &notes})
	require.NoError(t, err)

	assert.Equal(t, job.ID, updated.ID)
	assert.Equal(t, domain.StatusInterviewing, updated.Status)
	assert.Equal(t, "Phone screen booked", updated.Notes)
	assert.Equal(t, "Acme", updated.CompanyName)
	assert.True(t, updated.UpdatedAt.After(job.UpdatedAt))

	jobs := store.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, updated, jobs[0])
	assert.Equal(t, other.ID, jobs[1].ID)
	assert.Equal(t, MsgUpdated, f.notes.last().Message)
}

func TestUpdateOtherUsersRecordIsBackendError(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner, _ := f.login(t, "owner@example.com")
	intruder, _ := f.login(t, "intruder@example.com")

	job, err := owner.Add(ctx, fields("Acme", "Engineer"))
	require.NoError(t, err)

	status := domain.StatusRejected
	_, err = intruder.Update(ctx, job.ID, domain.JobPatch{Status: &status})

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeBackend))
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, MsgUpdateFailed, intruder.Snapshot().Error)

	require.NoError(t, owner.FetchAll(ctx))
	assert.Equal(t, domain.StatusSaved, owner.Jobs()[0].Status)
}

func TestRemoveIsIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	store, _ := f.login(t, "ada@example.com")
	job, err := store.Add(ctx, fields("Acme", "Engineer"))
	require.NoError(t, err)

	require.NoError(t, store.Remove(ctx, job.ID))
	assert.Empty(t, store.Jobs())

	require.NoError(t, store.Remove(ctx, job.ID))
	require.NoError(t, store.Remove(ctx, "never-existed"))
	assert.Empty(t, store.Snapshot().Error)
	assert.Equal(t, MsgDeleted, f.notes.last().Message)
}

func TestRemoveFailureKeepsRecord(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	store, _ := f.login(t, "ada@example.com")
	job, err := store.Add(ctx, fields("Acme", "Engineer"))
	require.NoError(t, err)

	f.repo.failDelete = true
	err = store.Remove(ctx, job.ID)

	require.Error(t, err)
	require.Len(t, store.Jobs(), 1)
	assert.Equal(t, MsgDeleteFailed, store.Snapshot().Error)
}

func TestIDsStayUnique(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	store, _ := f.login(t, "ada@example.com")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Add(ctx, fields("Acme", "Engineer"))
		}()
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, j := range store.Jobs() {
		assert.False(t, seen[j.ID], "duplicate id %s", j.ID)
		seen[j.ID] = true
	}
	assert.Len(t, seen, 10)
	assert.False(t, store.Snapshot().IsLoading)
}

func TestSnapshotIsACopy(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	store, _ := f.login(t, "ada@example.com")
	_, err := store.Add(ctx, fields("Acme", "Engineer"))
	require.NoError(t, err)

	snap := store.Snapshot()
	snap.Jobs[0].Tags[0] = "mutated"
	snap.Jobs[0].CompanyName = "Mutated"

	again := store.Jobs()
	assert.Equal(t, "go", again[0].Tags[0])
	assert.Equal(t, "Acme", again[0].CompanyName)
}

func TestActivityCountsEvents(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	store, _ := f.login(t, "ada@example.com")

	job, err := store.Add(ctx, fields("Acme", "Engineer"))
	require.NoError(t, err)
	status := domain.StatusApplied
	_, err = store.Update(ctx, job.ID, domain.JobPatch{Status: &status})
	require.NoError(t, err)

	points, err := store.Activity(ctx, 0)
	require.NoError(t, err)
	require.Len(t, points, 14)
	assert.Equal(t, "2025-03-14", points[13].Day)
	assert.Equal(t, 2, points[13].Count)
	assert.Equal(t, 0, points[0].Count)
}

func TestActivityUnauthenticated(t *testing.T) {
	f := newFixture()
	_, err := f.store("nope").Activity(context.Background(), 7)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotAuthenticated))
}
