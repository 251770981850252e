package views

import (
	"time"

	"github.com/justsurfingit/job-application-tracker/internal/domain"
)

type Stats struct {
	Total        int `json:"totalApplications"`
	Active       int `json:"activeApplications"`
	Applied      int `json:"applied"`
	Interviewing int `json:"interviews"`
	Offers       int `json:"offers"`
}

type DashboardView struct {
	Stats     Stats           `json:"stats"`
	Statuses  []StatusCount   `json:"statusCounts"`
	Upcoming  []TimelineEntry `json:"upcomingDeadlines"`
	Generated time.Time       `json:"generatedAt"`
}

// ComputeStats counts an application as active until it is rejected or accepted.
func ComputeStats(jobs []domain.JobApplication) Stats {
	s := Stats{Total: len(jobs)}
	for _, j := range jobs {
		if !j.Status.Terminal() {
			s.Active++
		}
		switch j.Status {
		case domain.StatusApplied:
			s.Applied++
		case domain.StatusInterviewing:
			s.Interviewing++
		case domain.StatusOffer:
			s.Offers++
		}
	}
	return s
}

func Dashboard(jobs []domain.JobApplication, now time.Time) DashboardView {
	return DashboardView{
		Stats:     ComputeStats(jobs),
		Statuses:  StatusCounts(jobs),
		Upcoming:  UpcomingDeadlines(jobs, now),
		Generated: now,
	}
}

type Column struct {
	Title  string                  `json:"title"`
	Status domain.JobStatus        `json:"status"`
	Badge  BadgeVariant            `json:"badge"`
	Jobs   []domain.JobApplication `json:"jobs"`
}

// boardStatuses are the kanban columns; accepted applications are not shown.
var boardStatuses = []domain.JobStatus{
	domain.StatusSaved,
	domain.StatusApplied,
	domain.StatusInterviewing,
	domain.StatusOffer,
	domain.StatusRejected,
}

// Board splits jobs into columns, keeping the input order inside each column.
func Board(jobs []domain.JobApplication) []Column {
	cols := make([]Column, len(boardStatuses))
	index := make(map[domain.JobStatus]int, len(boardStatuses))
	for i, s := range boardStatuses {
		cols[i] = Column{Title: StatusLabel(s), Status: s, Badge: StatusBadge(s), Jobs: []domain.JobApplication{}}
		index[s] = i
	}
	for _, j := range jobs {
		if i, ok := index[j.Status]; ok {
			cols[i].Jobs = append(cols[i].Jobs, j)
		}
	}
	return cols
}
