// Package views holds pure computations over a snapshot of job applications.
// Nothing here talks to a backend or mutates its input.
package views

import (
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/justsurfingit/job-application-tracker/internal/domain"
)

const FallbackColor = "#cbd5e1"

var statusColors = map[domain.JobStatus]string{
	domain.StatusSaved:        "#94a3b8",
	domain.StatusApplied:      "#3b82f6",
	domain.StatusInterviewing: "#f59e0b",
	domain.StatusOffer:        "#10b981",
	domain.StatusRejected:     "#f43f5e",
	domain.StatusAccepted:     "#8b5cf6",
}

type StatusCount struct {
	Status domain.JobStatus `json:"status"`
	Name   string           `json:"name"`
	Value  int              `json:"value"`
	Color  string           `json:"color"`
}

// StatusColor never fails; unknown statuses get FallbackColor.
func StatusColor(s domain.JobStatus) string {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return FallbackColor
}

// StatusLabel upper-cases the first letter of the status value.
func StatusLabel(s domain.JobStatus) string {
	return capitalize(string(s))
}

// StatusCounts groups jobs by status. Known statuses come first in pipeline
// order, then any unknown values alphabetically.
func StatusCounts(jobs []domain.JobApplication) []StatusCount {
	counts := make(map[domain.JobStatus]int)
	for _, j := range jobs {
		counts[j.Status]++
	}

	var unknown []domain.JobStatus
	for s := range counts {
		if !s.Valid() {
			unknown = append(unknown, s)
		}
	}
	sort.Slice(unknown, func(i, j int) bool { return unknown[i] < unknown[j] })

	order := append(append([]domain.JobStatus{}, domain.Statuses...), unknown...)
	out := make([]StatusCount, 0, len(counts))
	for _, s := range order {
		n, ok := counts[s]
		if !ok {
			continue
		}
		out = append(out, StatusCount{
			Status: s,
			Name:   StatusLabel(s),
			Value:  n,
			Color:  StatusColor(s),
		})
	}
	return out
}

type BadgeVariant string

const (
	BadgeDefault   BadgeVariant = "default"
	BadgePrimary   BadgeVariant = "primary"
	BadgeSecondary BadgeVariant = "secondary"
	BadgeSuccess   BadgeVariant = "success"
	BadgeWarning   BadgeVariant = "warning"
	BadgeDanger    BadgeVariant = "danger"
)

func StatusBadge(s domain.JobStatus) BadgeVariant {
	switch s {
	case domain.StatusApplied:
		return BadgePrimary
	case domain.StatusInterviewing:
		return BadgeWarning
	case domain.StatusOffer, domain.StatusAccepted:
		return BadgeSuccess
	case domain.StatusRejected:
		return BadgeDanger
	default:
		return BadgeDefault
	}
}

func PriorityBadge(p domain.Priority) BadgeVariant {
	switch p {
	case domain.PriorityHigh:
		return BadgeDanger
	case domain.PriorityMedium:
		return BadgeWarning
	default:
		return BadgeDefault
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
