package views

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/justsurfingit/job-application-tracker/internal/domain"
)

type SortField string

const (
	SortCompanyName SortField = "companyName"
	SortPosition    SortField = "position"
	SortCreatedAt   SortField = "createdAt"
	SortUpdatedAt   SortField = "updatedAt"
)

func (f SortField) Valid() bool {
	switch f {
	case SortCompanyName, SortPosition, SortCreatedAt, SortUpdatedAt:
		return true
	}
	return false
}

type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// StatusAll disables the status filter.
const StatusAll = "all"

type Query struct {
	Search string
	Status string
	SortBy SortField
	Order  SortOrder
}

// DefaultQuery lists everything, most recently updated first.
func DefaultQuery() Query {
	return Query{Status: StatusAll, SortBy: SortUpdatedAt, Order: Desc}
}

// FilterSort returns a new slice with the jobs matching q, ordered by q.SortBy.
func FilterSort(jobs []domain.JobApplication, q Query) []domain.JobApplication {
	term := strings.ToLower(q.Search)
	out := make([]domain.JobApplication, 0, len(jobs))
	for _, j := range jobs {
		if !matchesSearch(j, term) {
			continue
		}
		if q.Status != "" && q.Status != StatusAll && string(j.Status) != q.Status {
			continue
		}
		out = append(out, j)
	}

	sortBy := q.SortBy
	if !sortBy.Valid() {
		sortBy = SortUpdatedAt
	}
	desc := q.Order != Asc

	// Collators keep internal buffers, so each call gets its own.
	col := collate.New(language.English)

	sort.SliceStable(out, func(a, b int) bool {
		x, y := out[a], out[b]
		if desc {
			x, y = y, x
		}
		switch sortBy {
		case SortCompanyName:
			return col.CompareString(x.CompanyName, y.CompanyName) < 0
		case SortPosition:
			return col.CompareString(x.Position, y.Position) < 0
		case SortCreatedAt:
			return x.CreatedAt.UnixMilli() < y.CreatedAt.UnixMilli()
		default:
			return x.UpdatedAt.UnixMilli() < y.UpdatedAt.UnixMilli()
		}
	})
	return out
}

func matchesSearch(j domain.JobApplication, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(j.CompanyName), term) ||
		strings.Contains(strings.ToLower(j.Position), term)
}
