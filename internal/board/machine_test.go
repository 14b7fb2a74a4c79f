package board

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nexofix/nexo/internal/models"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		from models.Status
		dir  Direction
		want models.Status
	}{
		{models.StatusPending, Next, models.StatusInProgress},
		{models.StatusInProgress, Next, models.StatusCompleted},
		{models.StatusCompleted, Next, models.StatusPending}, // wraps
		{models.StatusPending, Prev, models.StatusCompleted}, // wraps
		{models.StatusInProgress, Prev, models.StatusPending},
		{models.StatusCompleted, Prev, models.StatusInProgress},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+tt.dir.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Transition(tt.from, tt.dir))
		})
	}
}

func TestTransition_CyclicProperty(t *testing.T) {
	// Applying the same direction three times returns to the start.
	for _, start := range []models.Status{models.StatusPending, models.StatusInProgress, models.StatusCompleted} {
		for _, dir := range []Direction{Next, Prev} {
			s := start
			for i := 0; i < 3; i++ {
				s = Transition(s, dir)
			}
			assert.Equal(t, start, s, "three %s steps from %s should cycle back", dir, start)
		}
	}
}

func TestTransition_NeverSameStatus(t *testing.T) {
	for _, s := range []models.Status{models.StatusPending, models.StatusInProgress, models.StatusCompleted} {
		assert.NotEqual(t, s, Transition(s, Next))
		assert.NotEqual(t, s, Transition(s, Prev))
	}
}

func TestTransition_UnknownStatusUnchanged(t *testing.T) {
	assert.Equal(t, models.Status("bogus"), Transition("bogus", Next))
}
