// Package repository is the backend collaborator of the job store. Every call
// takes the session token or the owning user id explicitly.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/justsurfingit/job-application-tracker/internal/domain"
	"github.com/justsurfingit/job-application-tracker/internal/models"
)

var (
	// ErrNotFound means no row matched both the id and the owner.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an account with the same email exists.
	ErrDuplicate = errors.New("record already exists")
)

// Repository is the narrow surface the job store depends on.
type Repository interface {
	// LookupUser resolves a session token. It returns nil, nil when the token is
	// unknown or expired.
	LookupUser(ctx context.Context, token string) (*domain.User, error)
	// ListJobs returns the user's rows, newest first.
	ListJobs(ctx context.Context, userID string) ([]models.JobRow, error)
	// InsertJob assigns id and timestamps and returns the stored row.
	InsertJob(ctx context.Context, row models.JobRow) (models.JobRow, error)
	// UpdateJob applies patch to the row matching id and userID. ErrNotFound when
	// nothing matched.
	UpdateJob(ctx context.Context, id, userID string, patch models.RowPatch) (models.JobRow, error)
	// DeleteJob removes the row matching id and userID. Deleting nothing is not
	// an error.
	DeleteJob(ctx context.Context, id, userID string) error
}

// EventLog reads the creations and status changes recorded by InsertJob and
// UpdateJob.
type EventLog interface {
	ListEvents(ctx context.Context, userID string, since time.Time) ([]models.JobEvent, error)
}

type Accounts interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	// FindUserByEmail returns ErrNotFound when no account uses email.
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateSession(ctx context.Context, session models.Session) error
	// FindSession returns the live session behind token, or nil, nil when it is
	// unknown or expired.
	FindSession(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error
}

// Backend is what a storage driver provides to the application.
type Backend interface {
	Repository
	EventLog
	Accounts
	Close() error
}

func toDomainUser(u models.User) *domain.User {
	out := &domain.User{ID: u.ID, Name: u.Name, Email: u.Email}
	if u.AvatarURL != nil {
		out.AvatarURL = *u.AvatarURL
	}
	return out
}

func statusEvent(row models.JobRow, from string, at time.Time) models.JobEvent {
	kind := models.EventStatusChanged
	if from == "" {
		kind = models.EventCreated
	}
	return models.JobEvent{
		CreatedAt:  at,
		JobID:      row.ID,
		UserID:     row.UserID,
		EventType:  kind,
		FromStatus: from,
		ToStatus:   row.Status,
	}
}
