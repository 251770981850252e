package dtos

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/justsurfingit/job-application-tracker/internal/domain"
	apperrors "github.com/justsurfingit/job-application-tracker/internal/errors"
	"github.com/justsurfingit/job-application-tracker/internal/views"
)

const dateLayout = "2006-01-02"

type JobExtractionRequest struct {
	RawHTML string `json:"raw_html" binding:"required"`
	URL     string `json:"url"`
}

type JobCreationRequest struct {
	CompanyName string           `json:"companyName" binding:"required,max=200"`
	Position    string           `json:"position" binding:"required,max=200"`
	JobType     domain.JobType   `json:"jobType" binding:"required,oneof=full-time part-time contract freelance internship"`
	Status      domain.JobStatus `json:"status" binding:"required,oneof=saved applied interviewing offer rejected accepted"`

	// Optional Fields
	ApplicationLink string          `json:"applicationLink" binding:"omitempty,url"`
	Salary          string          `json:"salary" binding:"max=100"`
	Notes           string          `json:"notes"`
	Priority        domain.Priority `json:"priority" binding:"omitempty,oneof=low medium high"`
	Deadline        *string         `json:"deadline" binding:"omitempty,datetime=2006-01-02"`
	FollowUpDate    *string         `json:"followUpDate" binding:"omitempty,datetime=2006-01-02"`
	Location        string          `json:"location" binding:"max=200"`
	ContactName     string          `json:"contactName" binding:"max=200"`
	ContactEmail    string          `json:"contactEmail" binding:"omitempty,email"`
	Tags            []string        `json:"tags" binding:"max=50,dive,max=50"`
}

func (r JobCreationRequest) ToFields() (domain.JobFields, error) {
	deadline, err := parseDate("deadline", r.Deadline)
	if err != nil {
		return domain.JobFields{}, err
	}
	followUp, err := parseDate("followUpDate", r.FollowUpDate)
	if err != nil {
		return domain.JobFields{}, err
	}

	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return domain.JobFields{
		CompanyName:     r.CompanyName,
		Position:        r.Position,
		ApplicationLink: r.ApplicationLink,
		JobType:         r.JobType,
		Salary:          r.Salary,
		Status:          r.Status,
		Notes:           r.Notes,
		Priority:        r.Priority,
		Deadline:        deadline,
		FollowUpDate:    followUp,
		Location:        r.Location,
		ContactName:     r.ContactName,
		ContactEmail:    r.ContactEmail,
		Tags:            tags,
	}, nil
}

// JobUpdateRequest is a partial update. A key that is absent leaves the field
// alone; null or "" clears an optional field.
type JobUpdateRequest struct {
	CompanyName     *string           `json:"companyName" binding:"omitempty,min=1,max=200"`
	Position        *string           `json:"position" binding:"omitempty,min=1,max=200"`
	JobType         *domain.JobType   `json:"jobType" binding:"omitempty,oneof=full-time part-time contract freelance internship"`
	Status          *domain.JobStatus `json:"status" binding:"omitempty,oneof=saved applied interviewing offer rejected accepted"`
	Priority        *domain.Priority  `json:"priority" binding:"omitempty,oneof=low medium high"`
	ApplicationLink *string           `json:"applicationLink" binding:"omitempty,len=0|url"`
	Salary          *string           `json:"salary" binding:"omitempty,max=100"`
	Notes           *string           `json:"notes"`
	Deadline        *string           `json:"deadline" binding:"omitempty,len=0|datetime=2006-01-02"`
	FollowUpDate    *string           `json:"followUpDate" binding:"omitempty,len=0|datetime=2006-01-02"`
	Location        *string           `json:"location" binding:"omitempty,max=200"`
	ContactName     *string           `json:"contactName" binding:"omitempty,max=200"`
	ContactEmail    *string           `json:"contactEmail" binding:"omitempty,len=0|email"`
	Tags            *[]string         `json:"tags"`
}

// ToPatch converts the request using the raw body keys to tell an explicit
// null from an absent field.
func (r JobUpdateRequest) ToPatch(keys map[string]json.RawMessage) (domain.JobPatch, error) {
	var p domain.JobPatch
	has := func(k string) bool { _, ok := keys[k]; return ok }

	for _, required := range []struct {
		key string
		set bool
	}{
		{"companyName", r.CompanyName != nil},
		{"position", r.Position != nil},
		{"jobType", r.JobType != nil},
		{"status", r.Status != nil},
		{"priority", r.Priority != nil},
	} {
		if has(required.key) && !required.set {
			return p, apperrors.Validation(required.key+" cannot be null", nil)
		}
	}
	p.CompanyName = r.CompanyName
	p.Position = r.Position
	p.JobType = r.JobType
	p.Status = r.Status
	p.Priority = r.Priority

	p.ApplicationLink = optionalText(has("applicationLink"), r.ApplicationLink)
	p.Salary = optionalText(has("salary"), r.Salary)
	p.Notes = optionalText(has("notes"), r.Notes)
	p.Location = optionalText(has("location"), r.Location)
	p.ContactName = optionalText(has("contactName"), r.ContactName)
	p.ContactEmail = optionalText(has("contactEmail"), r.ContactEmail)

	if has("deadline") {
		d, err := parseDate("deadline", r.Deadline)
		if err != nil {
			return p, err
		}
		p.Deadline = &d
	}
	if has("followUpDate") {
		d, err := parseDate("followUpDate", r.FollowUpDate)
		if err != nil {
			return p, err
		}
		p.FollowUpDate = &d
	}
	if has("tags") {
		var tags []string
		if r.Tags != nil {
			tags = *r.Tags
		}
		p.Tags = &tags
	}

	if p.Empty() {
		return p, apperrors.Validation("no fields to update", nil)
	}
	return p, nil
}

// JobListQuery holds the filters of GET /jobs.
type JobListQuery struct {
	Search string `form:"q"`
	Status string `form:"status" binding:"omitempty,oneof=all saved applied interviewing offer rejected accepted"`
	SortBy string `form:"sortBy" binding:"omitempty,oneof=companyName position createdAt updatedAt"`
	Order  string `form:"order" binding:"omitempty,oneof=asc desc"`
}

func (q JobListQuery) ToQuery() views.Query {
	out := views.DefaultQuery()
	out.Search = q.Search
	if q.Status != "" {
		out.Status = q.Status
	}
	if q.SortBy != "" {
		out.SortBy = views.SortField(q.SortBy)
	}
	if q.Order != "" {
		out.Order = views.SortOrder(q.Order)
	}
	return out
}

type ActivityQuery struct {
	Days int `form:"days" binding:"omitempty,min=1,max=365"`
}

type JobListResponse struct {
	Jobs  []domain.JobApplication `json:"jobs"`
	Total int                     `json:"total"`
}

type StateResponse struct {
	IsLoading bool   `json:"isLoading"`
	Error     string `json:"error,omitempty"`
	Version   uint64 `json:"version"`
	Count     int    `json:"count"`
}

func optionalText(present bool, v *string) *string {
	if !present {
		return nil
	}
	s := ""
	if v != nil {
		s = *v
	}
	return &s
}

func parseDate(field string, v *string) (*time.Time, error) {
	if v == nil || *v == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *v)
	if err != nil {
		return nil, apperrors.Validation(fmt.Sprintf("%s must be a date like 2006-01-02", field), err)
	}
	return &t, nil
}
