package board

import "github.com/nexofix/nexo/internal/models"

// Direction selects which neighbor of the status ring to move to.
type Direction int

const (
	Next Direction = iota
	Prev
)

func (d Direction) String() string {
	if d == Prev {
		return "prev"
	}
	return "next"
}

// The workflow is a cyclic ring, not a linear pipeline: prev from pending
// wraps to completed and next from completed wraps to pending. Both
// directions are legal from every status; whether a given move is offered
// to the user is the caller's concern.
var transitions = map[models.Status]map[Direction]models.Status{
	models.StatusPending: {
		Next: models.StatusInProgress,
		Prev: models.StatusCompleted,
	},
	models.StatusInProgress: {
		Next: models.StatusCompleted,
		Prev: models.StatusPending,
	},
	models.StatusCompleted: {
		Next: models.StatusPending,
		Prev: models.StatusInProgress,
	},
}

// Transition returns the status adjacent to from in the given direction.
// It is total over the three workflow statuses and never fails; an
// unrecognized status is returned unchanged.
func Transition(from models.Status, dir Direction) models.Status {
	if to, ok := transitions[from][dir]; ok {
		return to
	}
	return from
}
