package board

import (
	"sort"

	"github.com/nexofix/nexo/internal/models"
)

// SortField selects the attribute a filtered view is ordered by.
type SortField string

const (
	SortPriority SortField = "priority"
	SortDate     SortField = "date"
	SortStatus   SortField = "status"
)

// SortOrder selects ascending or descending order.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Query filters and orders a view over issues. Zero-valued filters match
// everything; an empty SortField keeps the input order.
type Query struct {
	Priority  models.Priority
	Status    models.Status
	SortField SortField
	SortOrder SortOrder
}

// statusRank orders statuses by workflow position for sorting.
func statusRank(s models.Status) int {
	switch s {
	case models.StatusPending:
		return 0
	case models.StatusInProgress:
		return 1
	default:
		return 2
	}
}

// ApplyQuery returns the subset of issues matching the query's filters,
// ordered by its sort field. Priority sorts by severity (high > medium >
// low), never by label text. The input slice is not modified.
func ApplyQuery(issues []*models.Issue, q Query) []*models.Issue {
	var out []*models.Issue
	for _, issue := range issues {
		if q.Priority != "" && issue.Priority != q.Priority {
			continue
		}
		if q.Status != "" && issue.Status != q.Status {
			continue
		}
		out = append(out, issue)
	}

	if q.SortField == "" {
		return out
	}

	less := func(a, b *models.Issue) bool { return false }
	switch q.SortField {
	case SortPriority:
		less = func(a, b *models.Issue) bool { return a.Priority.Rank() < b.Priority.Rank() }
	case SortDate:
		less = func(a, b *models.Issue) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortStatus:
		less = func(a, b *models.Issue) bool { return statusRank(a.Status) < statusRank(b.Status) }
	}

	sort.SliceStable(out, func(i, j int) bool {
		if q.SortOrder == Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}
