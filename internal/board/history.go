package board

import (
	"sort"

	"github.com/nexofix/nexo/internal/models"
)

// ProjectHistory returns the issue's status timeline, newest first. The
// sort is stable so entries sharing a timestamp keep their insertion
// order. The issue's own history slice is left untouched.
func ProjectHistory(issue *models.Issue) []models.HistoryEntry {
	out := make([]models.HistoryEntry, len(issue.History))
	copy(out, issue.History)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ChangedAt.After(out[j].ChangedAt)
	})
	return out
}
