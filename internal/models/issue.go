package models

import "time"

// Status represents where an issue sits in the board workflow.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Valid reports whether s is one of the three workflow statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Priority represents the urgency of an issue.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Rank returns the severity order of a priority: high > medium > low.
// Sorting must use this, never the raw label text.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// Valid reports whether p is a defined priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// IssueType represents the kind of work an issue tracks.
type IssueType string

const (
	TypeProblem IssueType = "problem"
	TypeBug     IssueType = "bug"
	TypeFeature IssueType = "feature"
)

// Valid reports whether t is a defined issue type.
func (t IssueType) Valid() bool {
	switch t {
	case TypeProblem, TypeBug, TypeFeature:
		return true
	}
	return false
}

// Issue is the tracked unit of work on the board.
type Issue struct {
	ID          string
	Module      string // system/category the issue belongs to
	Description string
	Priority    Priority
	Type        IssueType
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	OwnerID     string
	ImageURL    string

	// Denormalized by the store on reads; never written back.
	Owner   *Profile
	History []HistoryEntry
}

// Column is a display grouping keyed by status. Derived, never persisted.
type Column struct {
	Status Status
	Title  string
}

// Columns returns the board columns in workflow order.
func Columns() []Column {
	return []Column{
		{Status: StatusPending, Title: "Pending"},
		{Status: StatusInProgress, Title: "In Progress"},
		{Status: StatusCompleted, Title: "Completed"},
	}
}
