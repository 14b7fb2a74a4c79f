package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexofix/nexo/internal/models"
)

func TestBoard_LoadAndGroup(t *testing.T) {
	b := NewBoard()
	b.Load([]*models.Issue{
		{ID: "a", Module: "auth", Status: models.StatusPending},
		{ID: "b", Module: "billing", Status: models.StatusInProgress},
		{ID: "c", Module: "search", Status: models.StatusPending},
	})

	assert.Equal(t, 3, b.Len())

	pending := b.ByStatus(models.StatusPending)
	require.Len(t, pending, 2)
	assert.Equal(t, "a", pending[0].ID)
	assert.Equal(t, "c", pending[1].ID)

	assert.Len(t, b.ByStatus(models.StatusCompleted), 0)

	got, ok := b.Get("b")
	require.True(t, ok)
	assert.Equal(t, "billing", got.Module)

	_, ok = b.Get("missing")
	assert.False(t, ok)
}

func TestBoard_LoadReplacesContents(t *testing.T) {
	b := NewBoard()
	b.Load([]*models.Issue{{ID: "a", Status: models.StatusPending}})
	b.Load([]*models.Issue{{ID: "x", Status: models.StatusCompleted}})

	assert.Equal(t, 1, b.Len())
	_, ok := b.Get("a")
	assert.False(t, ok)
}

func TestBoard_IssuesReturnsCopy(t *testing.T) {
	b := NewBoard()
	b.Load([]*models.Issue{{ID: "a", Status: models.StatusPending}})

	issues := b.Issues()
	issues[0] = &models.Issue{ID: "z"}

	got, ok := b.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a", got.ID)
}
