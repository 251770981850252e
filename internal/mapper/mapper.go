// Package mapper is the only place that knows both the persisted column layout
// and the domain field names.
package mapper

import (
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/justsurfingit/job-application-tracker/internal/domain"
	"github.com/justsurfingit/job-application-tracker/internal/models"
)

// FromPersistence converts a stored row into a domain record.
func FromPersistence(row models.JobRow) domain.JobApplication {
	tags := []string{}
	if row.Tags != nil {
		tags = append(tags, row.Tags...)
	}

	return domain.JobApplication{
		ID:              row.ID,
		CompanyName:     row.Company,
		Position:        row.Position,
		ApplicationLink: deref(row.ApplicationLink),
		JobType:         domain.JobType(row.JobType),
		Salary:          FormatSalary(row.Salary),
		Status:          domain.JobStatus(row.Status),
		Notes:           deref(row.Notes),
		Priority:        domain.Priority(row.Priority),
		Deadline:        datePtr(row.Deadline),
		FollowUpDate:    datePtr(row.FollowUpDate),
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
		Location:        deref(row.Location),
		ContactName:     deref(row.ContactName),
		ContactEmail:    deref(row.ContactEmail),
		Tags:            tags,
	}
}

// ToPersistence builds an insertable row owned by userID. ID and timestamps are
// left for the backend to assign.
func ToPersistence(fields domain.JobFields, userID string) models.JobRow {
	priority := string(fields.Priority)
	if priority == "" {
		priority = string(domain.PriorityMedium)
	}

	var tags pq.StringArray
	if fields.Tags != nil {
		tags = append(pq.StringArray{}, fields.Tags...)
	}

	return models.JobRow{
		UserID:          userID,
		Company:         fields.CompanyName,
		Position:        fields.Position,
		Location:        optional(fields.Location),
		JobType:         string(fields.JobType),
		Status:          string(fields.Status),
		Deadline:        datePtr(fields.Deadline),
		Salary:          ParseSalary(fields.Salary),
		Notes:           optional(fields.Notes),
		Tags:            tags,
		Priority:        priority,
		ApplicationLink: optional(fields.ApplicationLink),
		ContactName:     optional(fields.ContactName),
		ContactEmail:    optional(fields.ContactEmail),
		FollowUpDate:    datePtr(fields.FollowUpDate),
	}
}

// ToPersistencePatch converts the set fields of patch into column assignments.
func ToPersistencePatch(patch domain.JobPatch) models.RowPatch {
	p := models.RowPatch{}

	if patch.CompanyName != nil {
		p[models.ColCompany] = *patch.CompanyName
	}
	if patch.Position != nil {
		p[models.ColPosition] = *patch.Position
	}
	if patch.JobType != nil {
		p[models.ColJobType] = string(*patch.JobType)
	}
	if patch.Status != nil {
		p[models.ColStatus] = string(*patch.Status)
	}
	if patch.Priority != nil {
		p[models.ColPriority] = string(*patch.Priority)
	}
	if patch.ApplicationLink != nil {
		p[models.ColApplicationLink] = nullable(*patch.ApplicationLink)
	}
	if patch.Notes != nil {
		p[models.ColNotes] = nullable(*patch.Notes)
	}
	if patch.Location != nil {
		p[models.ColLocation] = nullable(*patch.Location)
	}
	if patch.ContactName != nil {
		p[models.ColContactName] = nullable(*patch.ContactName)
	}
	if patch.ContactEmail != nil {
		p[models.ColContactEmail] = nullable(*patch.ContactEmail)
	}
	if patch.Salary != nil {
		if v := ParseSalary(*patch.Salary); v != nil {
			p[models.ColSalary] = *v
		} else {
			p[models.ColSalary] = nil
		}
	}
	if patch.Deadline != nil {
		p[models.ColDeadline] = nullableDate(*patch.Deadline)
	}
	if patch.FollowUpDate != nil {
		p[models.ColFollowUpDate] = nullableDate(*patch.FollowUpDate)
	}
	if patch.Tags != nil {
		if *patch.Tags == nil {
			p[models.ColTags] = nil
		} else {
			p[models.ColTags] = append(pq.StringArray{}, (*patch.Tags)...)
		}
	}

	return p
}

// ToFields strips the backend-owned fields from a record.
func ToFields(job domain.JobApplication) domain.JobFields {
	return domain.JobFields{
		CompanyName:     job.CompanyName,
		Position:        job.Position,
		ApplicationLink: job.ApplicationLink,
		JobType:         job.JobType,
		Salary:          job.Salary,
		Status:          job.Status,
		Notes:           job.Notes,
		Priority:        job.Priority,
		Deadline:        job.Deadline,
		FollowUpDate:    job.FollowUpDate,
		Location:        job.Location,
		ContactName:     job.ContactName,
		ContactEmail:    job.ContactEmail,
		Tags:            job.Tags,
	}
}

// ParseSalary keeps only digits and '.' and reads the longest leading decimal
// number. Text without one yields nil.
func ParseSalary(s string) *float64 {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()

	end, digits, dot := 0, 0, false
	for end < len(cleaned) {
		c := cleaned[end]
		if c == '.' {
			if dot {
				break
			}
			dot = true
		} else {
			digits++
		}
		end++
	}
	if digits == 0 {
		return nil
	}

	v, err := strconv.ParseFloat(cleaned[:end], 64)
	if err != nil {
		return nil
	}
	return &v
}

// FormatSalary renders a stored salary as display text; nil becomes "".
func FormatSalary(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// Date truncates t to its calendar date at midnight UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := Date(*t)
	return &d
}

func nullableDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return Date(*t)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
