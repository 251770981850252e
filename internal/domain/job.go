package domain

import "time"

type JobStatus string

const (
	StatusSaved        JobStatus = "saved"
	StatusApplied      JobStatus = "applied"
	StatusInterviewing JobStatus = "interviewing"
	StatusOffer        JobStatus = "offer"
	StatusRejected     JobStatus = "rejected"
	StatusAccepted     JobStatus = "accepted"
)

// Statuses lists the pipeline stages in board order.
var Statuses = []JobStatus{
	StatusSaved,
	StatusApplied,
	StatusInterviewing,
	StatusOffer,
	StatusRejected,
	StatusAccepted,
}

func (s JobStatus) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether the application left the active pipeline.
func (s JobStatus) Terminal() bool {
	return s == StatusRejected || s == StatusAccepted
}

type JobType string

const (
	JobTypeFullTime   JobType = "full-time"
	JobTypePartTime   JobType = "part-time"
	JobTypeContract   JobType = "contract"
	JobTypeFreelance  JobType = "freelance"
	JobTypeInternship JobType = "internship"
)

var JobTypes = []JobType{
	JobTypeFullTime,
	JobTypePartTime,
	JobTypeContract,
	JobTypeFreelance,
	JobTypeInternship,
}

func (t JobType) Valid() bool {
	for _, known := range JobTypes {
		if t == known {
			return true
		}
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// JobApplication is the tracked record as the rest of the app sees it.
// Optional text fields use "" for absent.
type JobApplication struct {
	ID              string     `json:"id"`
	CompanyName     string     `json:"companyName"`
	Position        string     `json:"position"`
	ApplicationLink string     `json:"applicationLink,omitempty"`
	JobType         JobType    `json:"jobType"`
	Salary          string     `json:"salary,omitempty"`
	Status          JobStatus  `json:"status"`
	Notes           string     `json:"notes,omitempty"`
	Priority        Priority   `json:"priority"`
	Deadline        *time.Time `json:"deadline,omitempty"`
	FollowUpDate    *time.Time `json:"followUpDate,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	Location        string     `json:"location,omitempty"`
	ContactName     string     `json:"contactName,omitempty"`
	ContactEmail    string     `json:"contactEmail,omitempty"`
	Tags            []string   `json:"tags"`
}

// Clone returns a copy that shares no slices or pointers with j.
func (j JobApplication) Clone() JobApplication {
	out := j
	out.Tags = append([]string{}, j.Tags...)
	if j.Deadline != nil {
		d := *j.Deadline
		out.Deadline = &d
	}
	if j.FollowUpDate != nil {
		d := *j.FollowUpDate
		out.FollowUpDate = &d
	}
	return out
}

// JobFields is everything a client may supply when creating a record.
type JobFields struct {
	CompanyName     string
	Position        string
	ApplicationLink string
	JobType         JobType
	Salary          string
	Status          JobStatus
	Notes           string
	Priority        Priority
	Deadline        *time.Time
	FollowUpDate    *time.Time
	Location        string
	ContactName     string
	ContactEmail    string
	Tags            []string
}

// JobPatch carries a partial update. Nil means "leave unchanged";
// a pointer to "" clears an optional field.
type JobPatch struct {
	CompanyName     *string
	Position        *string
	ApplicationLink *string
	JobType         *JobType
	Salary          *string
	Status          *JobStatus
	Notes           *string
	Priority        *Priority
	Deadline        **time.Time
	FollowUpDate    **time.Time
	Location        *string
	ContactName     *string
	ContactEmail    *string
	Tags            *[]string
}

func (p JobPatch) Empty() bool {
	return p == JobPatch{}
}

// JobDraft is a best-effort extraction of a posting, used to prefill a new record.
type JobDraft struct {
	CompanyName string   `json:"companyName"`
	Position    string   `json:"position"`
	Location    string   `json:"location,omitempty"`
	JobType     JobType  `json:"jobType,omitempty"`
	Salary      string   `json:"salary,omitempty"`
	Notes       string   `json:"notes,omitempty"`
	Tags        []string `json:"tags"`
}
