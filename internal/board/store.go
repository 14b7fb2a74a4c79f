package board

import "github.com/nexofix/nexo/internal/models"

// Board is the in-memory issue collection backing the kanban view. It is
// rebuilt wholesale on load and patched in place for optimistic mutations.
// The owning Engine is the only writer.
type Board struct {
	issues []*models.Issue
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{}
}

// Load replaces the board contents.
func (b *Board) Load(issues []*models.Issue) {
	b.issues = issues
}

// Issues returns the issues in board order.
func (b *Board) Issues() []*models.Issue {
	out := make([]*models.Issue, len(b.issues))
	copy(out, b.issues)
	return out
}

// ByStatus returns the issues in the given column, preserving board order.
func (b *Board) ByStatus(status models.Status) []*models.Issue {
	var out []*models.Issue
	for _, issue := range b.issues {
		if issue.Status == status {
			out = append(out, issue)
		}
	}
	return out
}

// Get returns the issue with the given id, if present.
func (b *Board) Get(id string) (*models.Issue, bool) {
	for _, issue := range b.issues {
		if issue.ID == id {
			return issue, true
		}
	}
	return nil, false
}

// Len returns the number of issues on the board.
func (b *Board) Len() int {
	return len(b.issues)
}

func (b *Board) append(issue *models.Issue) {
	b.issues = append(b.issues, issue)
}

func (b *Board) remove(id string) {
	for i, issue := range b.issues {
		if issue.ID == id {
			b.issues = append(b.issues[:i], b.issues[i+1:]...)
			return
		}
	}
}

// setStatus patches only the status field so a later rollback restores
// the issue exactly as it was.
func (b *Board) setStatus(id string, status models.Status) {
	if issue, ok := b.Get(id); ok {
		issue.Status = status
	}
}
