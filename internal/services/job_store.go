package services

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/justsurfingit/job-application-tracker/internal/domain"
	apperrors "github.com/justsurfingit/job-application-tracker/internal/errors"
	"github.com/justsurfingit/job-application-tracker/internal/mapper"
	"github.com/justsurfingit/job-application-tracker/internal/notify"
	"github.com/justsurfingit/job-application-tracker/internal/repository"
	"github.com/justsurfingit/job-application-tracker/internal/telemetry"
	"github.com/justsurfingit/job-application-tracker/internal/views"
)

var tracer = telemetry.GetTracer("job-application-tracker/services")

// Messages recorded in State.Error and sent as notifications.
const (
	MsgFetchFailed  = "Failed to fetch jobs"
	MsgAddFailed    = "Failed to add job"
	MsgAdded        = "Job added successfully"
	MsgUpdateFailed = "Failed to update job"
	MsgUpdated      = "Job updated successfully"
	MsgDeleteFailed = "Failed to delete job"
	MsgDeleted      = "Job deleted successfully"
)

// State is the observable state of a JobStore.
type State struct {
	Jobs      []domain.JobApplication `json:"jobs"`
	IsLoading bool                    `json:"isLoading"`
	Error     string                  `json:"error,omitempty"`
	Version   uint64                  `json:"version"`
}

// JobStore holds the job collection of one session and mediates every change
// through the backend. Failed operations leave Jobs as they were.
//
// Overlapping operations are not serialized: each one talks to the backend on
// its own and the last to finish wins locally. The mutex only protects State.
type JobStore struct {
	repo     repository.Repository
	events   repository.EventLog
	notifier notify.Notifier
	logger   *zap.Logger
	token    string

	// Now is the clock used for the activity window.
	Now func() time.Time

	mu       sync.RWMutex
	state    State
	inflight int
	userID   string
}

// NewJobStore builds a store bound to a session token. events may be nil, in
// which case Activity reports an empty series.
func NewJobStore(repo repository.Repository, events repository.EventLog, notifier notify.Notifier, logger *zap.Logger, token string) *JobStore {
	return &JobStore{
		repo:     repo,
		events:   events,
		notifier: notifier,
		logger:   logger,
		token:    token,
		Now:      time.Now,
		state:    State{Jobs: []domain.JobApplication{}},
	}
}

// Snapshot returns a deep copy of the current state.
func (s *JobStore) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.state
	out.Jobs = make([]domain.JobApplication, len(s.state.Jobs))
	for i, j := range s.state.Jobs {
		out.Jobs[i] = j.Clone()
	}
	return out
}

// Jobs returns a copy of the current collection.
func (s *JobStore) Jobs() []domain.JobApplication {
	return s.Snapshot().Jobs
}

// FetchAll replaces the collection with the user's records, newest first.
func (s *JobStore) FetchAll(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "JobStore.FetchAll")
	defer span.End()
	s.begin()

	user, err := s.currentUser(ctx)
	if err != nil {
		return s.fail(ctx, span, "", MsgFetchFailed, err)
	}

	rows, err := s.repo.ListJobs(ctx, user.ID)
	if err != nil {
		return s.fail(ctx, span, user.ID, MsgFetchFailed, apperrors.Backend("listing jobs", err))
	}

	jobs := make([]domain.JobApplication, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, mapper.FromPersistence(row))
	}
	span.SetAttributes(telemetry.Int("jobs.count", len(jobs)))

	s.commit(func(st *State) { st.Jobs = jobs })
	return nil
}

// Add creates a record and prepends the stored version to the collection.
func (s *JobStore) Add(ctx context.Context, fields domain.JobFields) (domain.JobApplication, error) {
	ctx, span := tracer.Start(ctx, "JobStore.Add")
	defer span.End()
	s.begin()

	user, err := s.currentUser(ctx)
	if err != nil {
		return domain.JobApplication{}, s.fail(ctx, span, "", MsgAddFailed, err)
	}

	row, err := s.repo.InsertJob(ctx, mapper.ToPersistence(fields, user.ID))
	if err != nil {
		return domain.JobApplication{}, s.fail(ctx, span, user.ID, MsgAddFailed, apperrors.Backend("inserting job", err))
	}

	job := mapper.FromPersistence(row)
	span.SetAttributes(telemetry.String("job.id", job.ID))
	s.commit(func(st *State) {
		st.Jobs = append([]domain.JobApplication{job}, withoutID(st.Jobs, job.ID)...)
	})
	s.notify(ctx, user.ID, notify.LevelSuccess, MsgAdded)
	return job.Clone(), nil
}

// Update applies patch to the caller's record id and swaps in the stored
// version. A record that does not exist or belongs to someone else is a
// backend error wrapping repository.ErrNotFound.
func (s *JobStore) Update(ctx context.Context, id string, patch domain.JobPatch) (domain.JobApplication, error) {
	ctx, span := tracer.Start(ctx, "JobStore.Update", trace.WithAttributes(telemetry.String("job.id", id)))
	defer span.End()
	s.begin()

	user, err := s.currentUser(ctx)
	if err != nil {
		return domain.JobApplication{}, s.fail(ctx, span, "", MsgUpdateFailed, err)
	}

	row, err := s.repo.UpdateJob(ctx, id, user.ID, mapper.ToPersistencePatch(patch))
	if err != nil {
		return domain.JobApplication{}, s.fail(ctx, span, user.ID, MsgUpdateFailed, apperrors.Backend("updating job", err))
	}

	job := mapper.FromPersistence(row)
	s.commit(func(st *State) {
		for i := range st.Jobs {
			if st.Jobs[i].ID == job.ID {
				st.Jobs[i] = job
			}
		}
	})
	s.notify(ctx, user.ID, notify.LevelSuccess, MsgUpdated)
	return job.Clone(), nil
}

// Remove deletes the caller's record id. Removing an id that is not there
// succeeds.
func (s *JobStore) Remove(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "JobStore.Remove", trace.WithAttributes(telemetry.String("job.id", id)))
	defer span.End()
	s.begin()

	user, err := s.currentUser(ctx)
	if err != nil {
		return s.fail(ctx, span, "", MsgDeleteFailed, err)
	}

	if err := s.repo.DeleteJob(ctx, id, user.ID); err != nil {
		return s.fail(ctx, span, user.ID, MsgDeleteFailed, apperrors.Backend("deleting job", err))
	}

	s.commit(func(st *State) { st.Jobs = withoutID(st.Jobs, id) })
	s.notify(ctx, user.ID, notify.LevelSuccess, MsgDeleted)
	return nil
}

// Activity counts the caller's recorded job events per day over the trailing
// window. It does not touch State.
func (s *JobStore) Activity(ctx context.Context, days int) ([]views.ActivityPoint, error) {
	ctx, span := tracer.Start(ctx, "JobStore.Activity")
	defer span.End()

	if days <= 0 {
		days = views.DefaultActivityDays
	}
	now := s.Now()
	if s.events == nil {
		return views.ActivitySeries(nil, now, days), nil
	}

	user, err := s.currentUser(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	y, m, d := now.Date()
	since := time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, -(days - 1))
	events, err := s.events.ListEvents(ctx, user.ID, since)
	if err != nil {
		span.RecordError(err)
		return nil, apperrors.Backend("listing job events", err)
	}

	times := make([]time.Time, len(events))
	for i, e := range events {
		times[i] = e.CreatedAt
	}
	return views.ActivitySeries(times, now, days), nil
}

func (s *JobStore) currentUser(ctx context.Context) (*domain.User, error) {
	user, err := s.repo.LookupUser(ctx, s.token)
	if err != nil {
		return nil, apperrors.Backend("looking up session", err)
	}
	if user == nil {
		return nil, apperrors.NotAuthenticated("Not authenticated", nil)
	}
	s.mu.Lock()
	s.userID = user.ID
	s.mu.Unlock()
	return user, nil
}

func (s *JobStore) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight++
	s.state.IsLoading = true
}

// commit applies a successful result, clears the error and bumps the version.
func (s *JobStore) commit(apply func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	apply(&s.state)
	s.state.Error = ""
	s.state.Version++
	s.settle()
}

// fail records msg without touching Jobs and returns err for the caller.
func (s *JobStore) fail(ctx context.Context, span trace.Span, userID, msg string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	s.logger.Error(msg, zap.String("user_id", userID), zap.Error(err))

	s.mu.Lock()
	s.state.Error = msg
	s.state.Version++
	s.settle()
	if userID == "" {
		userID = s.userID
	}
	s.mu.Unlock()

	s.notify(ctx, userID, notify.LevelError, msg)
	return err
}

func (s *JobStore) settle() {
	if s.inflight > 0 {
		s.inflight--
	}
	s.state.IsLoading = s.inflight > 0
}

func (s *JobStore) notify(ctx context.Context, userID string, level notify.Level, msg string) {
	if s.notifier == nil {
		return
	}
	n := notify.Notification{UserID: userID, Level: level, Message: msg, At: s.Now()}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.Warn("notification not delivered", zap.String("message", msg), zap.Error(err))
	}
}

func withoutID(jobs []domain.JobApplication, id string) []domain.JobApplication {
	out := make([]domain.JobApplication, 0, len(jobs))
	for _, j := range jobs {
		if j.ID != id {
			out = append(out, j)
		}
	}
	return out
}
