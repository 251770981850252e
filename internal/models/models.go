package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	EventCreated       = "CREATED"
	EventStatusChanged = "STATUS_CHANGED"
)

type User struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Email        string  `gorm:"uniqueIndex;not null" json:"email"`
	Name         string  `json:"name"`
	AvatarURL    *string `json:"avatar_url"`
	PasswordHash string  `gorm:"not null" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

type Session struct {
	Token     string    `gorm:"primaryKey" json:"-"`
	UserID    string    `gorm:"type:uuid;index;not null" json:"user_id"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// JobRow is the persisted shape of a job application. Column names are the
// storage contract; only the mapper and the repositories should touch them.
type JobRow struct {
	ID     string `gorm:"type:uuid;primaryKey" json:"id"`
	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`

	Company         string         `gorm:"not null" json:"company"`
	Position        string         `gorm:"not null" json:"position"`
	Location        *string        `json:"location"`
	JobType         string         `gorm:"not null;check:job_type IN ('full-time','part-time','contract','freelance','internship')" json:"job_type"`
	Status          string         `gorm:"not null;check:status IN ('saved','applied','interviewing','offer','rejected','accepted')" json:"status"`
	Deadline        *time.Time     `gorm:"type:date" json:"deadline"`
	Salary          *float64       `json:"salary"`
	Notes           *string        `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	Tags            pq.StringArray `gorm:"type:text[]" json:"tags"`
	Priority        string         `gorm:"not null;default:'medium'" json:"priority"`
	ApplicationLink *string        `json:"application_link"`
	ContactName     *string        `json:"contact_name"`
	ContactEmail    *string        `json:"contact_email"`
	FollowUpDate    *time.Time     `gorm:"type:date" json:"follow_up_date"`
}

func (JobRow) TableName() string {
	return "jobs"
}

func (r *JobRow) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Priority == "" {
		r.Priority = "medium"
	}
	return nil
}

// JobEvent records creations and status transitions; the activity chart reads it.
type JobEvent struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	JobID      string    `gorm:"type:uuid;index" json:"job_id"`
	UserID     string    `gorm:"type:uuid;index" json:"user_id"`
	EventType  string    `json:"event_type"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
}
