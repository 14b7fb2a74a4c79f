package models

import "time"

// HistoryEntry records one status transition of an issue. Entries are
// appended by the store as a side effect of status updates and are never
// mutated or deleted afterwards.
type HistoryEntry struct {
	ID        string
	IssueID   string
	Status    Status // the status transitioned to
	ChangedAt time.Time
	ChangedBy string // user id, may be empty for imported rows

	// Denormalized display name of the user, filled on reads.
	ChangedByName string
}
