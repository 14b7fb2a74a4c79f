package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexofix/nexo/internal/models"
)

func entryAt(id string, status models.Status, at time.Time) models.HistoryEntry {
	return models.HistoryEntry{ID: id, IssueID: "issue-1", Status: status, ChangedAt: at}
}

func TestProjectHistory_NewestFirst(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []models.HistoryEntry{
		entryAt("e1", models.StatusPending, base),
		entryAt("e2", models.StatusInProgress, base.Add(time.Hour)),
		entryAt("e3", models.StatusCompleted, base.Add(2*time.Hour)),
	}

	// Any input permutation yields the same ordering.
	perms := [][]models.HistoryEntry{
		{entries[0], entries[1], entries[2]},
		{entries[2], entries[0], entries[1]},
		{entries[1], entries[2], entries[0]},
	}
	for _, perm := range perms {
		issue := &models.Issue{ID: "issue-1", History: perm}
		got := ProjectHistory(issue)
		require.Len(t, got, 3)
		assert.Equal(t, "e3", got[0].ID)
		assert.Equal(t, "e2", got[1].ID)
		assert.Equal(t, "e1", got[2].ID)
	}
}

func TestProjectHistory_StableOnEqualTimestamps(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	issue := &models.Issue{
		ID: "issue-1",
		History: []models.HistoryEntry{
			entryAt("first", models.StatusPending, at),
			entryAt("second", models.StatusInProgress, at),
		},
	}

	got := ProjectHistory(issue)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].ID, "equal timestamps keep insertion order")
	assert.Equal(t, "second", got[1].ID)
}

func TestProjectHistory_DoesNotMutateInput(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	issue := &models.Issue{
		ID: "issue-1",
		History: []models.HistoryEntry{
			entryAt("old", models.StatusPending, base),
			entryAt("new", models.StatusInProgress, base.Add(time.Hour)),
		},
	}

	_ = ProjectHistory(issue)
	assert.Equal(t, "old", issue.History[0].ID)
	assert.Equal(t, "new", issue.History[1].ID)
}

func TestProjectHistory_Empty(t *testing.T) {
	got := ProjectHistory(&models.Issue{ID: "issue-1"})
	assert.Empty(t, got)
}
