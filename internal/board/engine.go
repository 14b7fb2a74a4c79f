package board

import (
	"context"
	"fmt"
	"time"

	"github.com/nexofix/nexo/internal/models"
	"github.com/nexofix/nexo/internal/notify"
	"github.com/nexofix/nexo/internal/store"
)

// Engine orchestrates every state-changing board operation against the
// store, applying mutations optimistically and rolling them back when the
// store rejects the write. It owns the Board for the lifetime of a
// session; nothing else writes to it.
type Engine struct {
	store  store.Store
	notify notify.Notifier
	board  *Board
}

// NewEngine creates an engine with an empty board. Call Load before
// operating on existing issues.
func NewEngine(s store.Store, n notify.Notifier) *Engine {
	return &Engine{
		store:  s,
		notify: n,
		board:  NewBoard(),
	}
}

// Board returns the engine's board for reading.
func (e *Engine) Board() *Board {
	return e.board
}

// Load fetches all issues into the board, replacing its contents.
func (e *Engine) Load(ctx context.Context) error {
	issues, err := e.store.ListIssues(ctx)
	if err != nil {
		return fmt.Errorf("load board: %w", err)
	}
	e.board.Load(issues)
	return nil
}

// reconcile re-fetches the issue set so the board picks up server-derived
// state (history rows, denormalized profiles). Failure is tolerated: the
// board already holds the confirmed value, which is the weaker but still
// consistent outcome.
func (e *Engine) reconcile(ctx context.Context) {
	issues, err := e.store.ListIssues(ctx)
	if err != nil {
		return
	}
	e.board.Load(issues)
}

// IssueDraft holds the fields for a new issue. ImagePath optionally names
// a local file to attach.
type IssueDraft struct {
	Module      string
	Description string
	Priority    models.Priority
	Type        models.IssueType
	ImagePath   string
}

// IssuePatch holds field updates for an existing issue. Empty fields are
// left unchanged. Status cannot be patched; use Move.
type IssuePatch struct {
	Module      string
	Description string
	Priority    models.Priority
	Type        models.IssueType
	ImagePath   string
}

// Create persists a new issue with status pending and adds it to the
// board. It requires a logged-in user. A failed image upload degrades to
// creating the issue without an attachment; the upload error is reported
// on its own, separate from the create outcome.
func (e *Engine) Create(ctx context.Context, draft IssueDraft) (*models.Issue, error) {
	user, err := e.store.CurrentUser(ctx)
	if err != nil {
		e.notify.Error("Could not resolve current user")
		return nil, fmt.Errorf("resolve current user: %w", err)
	}
	if user == nil {
		e.notify.Error("You must be logged in to create an issue")
		return nil, ErrUnauthenticated
	}

	imageURL := e.uploadImage(ctx, draft.ImagePath)

	issue := &models.Issue{
		Module:      draft.Module,
		Description: draft.Description,
		Priority:    draft.Priority,
		Type:        draft.Type,
		Status:      models.StatusPending,
		OwnerID:     user.UserID,
		ImageURL:    imageURL,
		Owner:       user,
	}
	if err := e.store.CreateIssue(ctx, issue); err != nil {
		e.notify.Error("Could not save issue for %s", draft.Module)
		return nil, fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}

	e.board.append(issue)
	e.reconcile(ctx)
	e.notify.Success("Issue created: %s", issue.Module)

	created, ok := e.board.Get(issue.ID)
	if !ok {
		created = issue
	}
	return created, nil
}

// Update applies field changes to an existing issue. The issue must be on
// the board; an unknown id fails without touching the store.
func (e *Engine) Update(ctx context.Context, id string, patch IssuePatch) error {
	issue, ok := e.board.Get(id)
	if !ok {
		e.notify.Error("Issue not found")
		return ErrNotFound
	}

	p := store.IssuePatch{
		Module:      patch.Module,
		Description: patch.Description,
		Priority:    patch.Priority,
		Type:        patch.Type,
		ImageURL:    e.uploadImage(ctx, patch.ImagePath),
	}
	if err := e.store.UpdateIssue(ctx, id, p); err != nil {
		e.notify.Error("Could not save changes to %s", issue.Module)
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}

	e.reconcile(ctx)
	e.notify.Success("Issue updated: %s", issue.Module)
	return nil
}

// Delete removes an issue from the store first and drops it from the
// board only once the store confirms. A failed delete leaves the board
// exactly as it was.
func (e *Engine) Delete(ctx context.Context, id string) error {
	issue, ok := e.board.Get(id)
	if !ok {
		e.notify.Error("Issue not found")
		return ErrNotFound
	}

	if err := e.store.DeleteIssue(ctx, id); err != nil {
		e.notify.Error("Could not delete %s", issue.Module)
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}

	e.board.remove(id)
	e.reconcile(ctx)
	e.notify.Success("Issue deleted: %s", issue.Module)
	return nil
}

// pendingMove snapshots one in-flight status change. Rollback targets the
// snapshot taken when this particular call was issued, so overlapping
// moves on the same issue cannot corrupt each other's revert target.
type pendingMove struct {
	issueID  string
	previous models.Status
	next     models.Status
}

// Move transfers an issue to the destination column. Dropping an issue on
// its own column is a no-op: no store call, no notification.
func (e *Engine) Move(ctx context.Context, id string, dest models.Status) error {
	issue, ok := e.board.Get(id)
	if !ok {
		e.notify.Error("Issue not found")
		return ErrNotFound
	}
	if issue.Status == dest {
		return nil
	}
	return e.commitMove(ctx, pendingMove{issueID: id, previous: issue.Status, next: dest}, issue.Module)
}

// MoveByDirection moves the issue to its ring neighbor in the given
// direction. The source status comes from the issue value the caller
// resolved, not from a live board lookup, so list mutations earlier in
// the same tick cannot redirect the move.
func (e *Engine) MoveByDirection(ctx context.Context, issue *models.Issue, dir Direction) error {
	dest := Transition(issue.Status, dir)
	return e.commitMove(ctx, pendingMove{issueID: issue.ID, previous: issue.Status, next: dest}, issue.Module)
}

// commitMove runs the optimistic protocol: apply to the board, write to
// the store, roll back to the per-call snapshot on failure, reconcile
// with server state on success.
func (e *Engine) commitMove(ctx context.Context, mv pendingMove, module string) error {
	e.board.setStatus(mv.issueID, mv.next)

	if err := e.store.UpdateIssueStatus(ctx, mv.issueID, mv.next, time.Now().UTC()); err != nil {
		e.board.setStatus(mv.issueID, mv.previous)
		e.notify.Error("Could not move %s; change reverted", module)
		return fmt.Errorf("%w: %v", ErrSyncFailed, err)
	}

	e.reconcile(ctx)
	e.notify.Success("Moved %s to %s", module, mv.next)
	return nil
}

// uploadImage uploads the attachment if one was given. Failure is a
// non-fatal degradation: it is reported and the operation proceeds with
// no image.
func (e *Engine) uploadImage(ctx context.Context, path string) string {
	if path == "" {
		return ""
	}
	url, err := e.store.UploadImage(ctx, path)
	if err != nil {
		e.notify.Error("Image upload failed; continuing without attachment")
		return ""
	}
	return url
}
