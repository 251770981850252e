package views

import (
	"sort"
	"time"

	"github.com/justsurfingit/job-application-tracker/internal/domain"
)

// MaxUpcoming caps the reminder list.
const MaxUpcoming = 5

type EntryKind string

const (
	KindDeadline EntryKind = "deadline"
	KindFollowUp EntryKind = "followUp"
)

type DateState string

const (
	StateOverdue  DateState = "overdue"
	StateToday    DateState = "today"
	StateUpcoming DateState = "upcoming"
)

type TimelineEntry struct {
	JobID       string    `json:"jobId"`
	CompanyName string    `json:"companyName"`
	Position    string    `json:"position"`
	Date        time.Time `json:"date"`
	Kind        EntryKind `json:"type"`
	Label       string    `json:"label"`
	State       DateState `json:"state"`
	Display     string    `json:"display"`
}

// UpcomingDeadlines emits one entry per deadline and per follow-up date, sorts
// them by date and keeps the first MaxUpcoming. Entries are classified against
// now, so the same stored date can read "Today" one day and "Overdue" the next.
func UpcomingDeadlines(jobs []domain.JobApplication, now time.Time) []TimelineEntry {
	entries := []TimelineEntry{}
	for _, j := range jobs {
		if j.Deadline != nil {
			entries = append(entries, newEntry(j, *j.Deadline, KindDeadline, "Application Deadline"))
		}
		if j.FollowUpDate != nil {
			entries = append(entries, newEntry(j, *j.FollowUpDate, KindFollowUp, "Follow-up Reminder"))
		}
	}

	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].Date.Before(entries[b].Date)
	})
	if len(entries) > MaxUpcoming {
		entries = entries[:MaxUpcoming]
	}

	for i := range entries {
		entries[i].State, entries[i].Display = Classify(entries[i].Date, now)
	}
	return entries
}

// Classify compares the calendar date of d with the calendar date of now in
// now's location.
func Classify(d, now time.Time) (DateState, string) {
	day := calendarDay(d.Date())
	today := calendarDay(now.Date())

	switch {
	case day.Before(today):
		return StateOverdue, "Overdue"
	case day.Equal(today):
		return StateToday, "Today"
	default:
		return StateUpcoming, d.Format("Jan 2, 2006")
	}
}

func newEntry(j domain.JobApplication, d time.Time, kind EntryKind, label string) TimelineEntry {
	return TimelineEntry{
		JobID:       j.ID,
		CompanyName: j.CompanyName,
		Position:    j.Position,
		Date:        d,
		Kind:        kind,
		Label:       label,
	}
}

func calendarDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
