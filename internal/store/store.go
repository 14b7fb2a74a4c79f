package store

import (
	"context"
	"time"

	"github.com/nexofix/nexo/internal/models"
)

// IssuePatch carries field updates for an existing issue. Zero-valued
// fields are left unchanged; status is deliberately absent — status moves
// go through UpdateIssueStatus so the history trail stays complete.
type IssuePatch struct {
	Module      string
	Description string
	Priority    models.Priority
	Type        models.IssueType
	ImageURL    string
}

// Store is the persistence contract the board engine depends on.
// Reads return issues denormalized with their owner profile and full
// status history. Every status-changing write appends exactly one
// history row as a side effect; the engine only ever reads history back.
type Store interface {
	ListIssues(ctx context.Context) ([]*models.Issue, error)
	ListSystems(ctx context.Context) ([]*models.System, error)

	// CurrentUser resolves the logged-in profile, or (nil, nil) when
	// nobody is logged in.
	CurrentUser(ctx context.Context) (*models.Profile, error)

	CreateIssue(ctx context.Context, issue *models.Issue) error
	UpdateIssue(ctx context.Context, id string, patch IssuePatch) error
	UpdateIssueStatus(ctx context.Context, id string, status models.Status, at time.Time) error
	DeleteIssue(ctx context.Context, id string) error

	// UploadImage stores an attachment and returns a URL for it.
	UploadImage(ctx context.Context, path string) (string, error)

	Close() error
}
