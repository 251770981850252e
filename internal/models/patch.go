package models

import (
	"sort"
	"time"

	"github.com/lib/pq"
)

// Column names of the jobs table that a patch may touch.
const (
	ColCompany         = "company"
	ColPosition        = "position"
	ColLocation        = "location"
	ColJobType         = "job_type"
	ColStatus          = "status"
	ColDeadline        = "deadline"
	ColSalary          = "salary"
	ColNotes           = "notes"
	ColTags            = "tags"
	ColPriority        = "priority"
	ColApplicationLink = "application_link"
	ColContactName     = "contact_name"
	ColContactEmail    = "contact_email"
	ColFollowUpDate    = "follow_up_date"
)

// RowPatch maps column names to new values. A nil value clears a nullable column.
// Values are string, float64, time.Time, pq.StringArray or nil.
type RowPatch map[string]any

// Columns returns the patched column names in a stable order.
func (p RowPatch) Columns() []string {
	cols := make([]string, 0, len(p))
	for c := range p {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// ApplyTo writes the patch onto r. Unknown columns are ignored.
func (p RowPatch) ApplyTo(r *JobRow) {
	for col, v := range p {
		switch col {
		case ColCompany:
			r.Company = asString(v)
		case ColPosition:
			r.Position = asString(v)
		case ColJobType:
			r.JobType = asString(v)
		case ColStatus:
			r.Status = asString(v)
		case ColPriority:
			r.Priority = asString(v)
		case ColLocation:
			r.Location = asStringPtr(v)
		case ColNotes:
			r.Notes = asStringPtr(v)
		case ColApplicationLink:
			r.ApplicationLink = asStringPtr(v)
		case ColContactName:
			r.ContactName = asStringPtr(v)
		case ColContactEmail:
			r.ContactEmail = asStringPtr(v)
		case ColSalary:
			if f, ok := v.(float64); ok {
				r.Salary = &f
			} else {
				r.Salary = nil
			}
		case ColDeadline:
			r.Deadline = asTimePtr(v)
		case ColFollowUpDate:
			r.FollowUpDate = asTimePtr(v)
		case ColTags:
			if tags, ok := v.(pq.StringArray); ok {
				r.Tags = append(pq.StringArray{}, tags...)
			} else {
				r.Tags = nil
			}
		}
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asStringPtr(v any) *string {
	if s, ok := v.(string); ok {
		return &s
	}
	return nil
}

func asTimePtr(v any) *time.Time {
	if t, ok := v.(time.Time); ok {
		return &t
	}
	return nil
}
