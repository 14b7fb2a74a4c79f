package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/nexofix/nexo/internal/board"
	"github.com/nexofix/nexo/internal/models"
	"github.com/nexofix/nexo/internal/store"
)

// Server wraps the board engine and exposes it as MCP tools.
type Server struct {
	engine *board.Engine
	store  store.Store
}

// NewServer creates the MCP server wrapper around a loaded engine.
func NewServer(engine *board.Engine, s store.Store) *Server {
	return &Server{
		engine: engine,
		store:  s,
	}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("nexo", "1.0.0", server.WithToolCapabilities(true))

	srv.AddTool(s.listIssuesTool())
	srv.AddTool(s.createIssueTool())
	srv.AddTool(s.updateIssueTool())
	srv.AddTool(s.moveIssueTool())
	srv.AddTool(s.issueHistoryTool())
	srv.AddTool(s.listSystemsTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

type issueOut struct {
	ID          string `json:"id"`
	Module      string `json:"module"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	Owner       string `json:"owner,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

func issueToOut(issue *models.Issue) issueOut {
	out := issueOut{
		ID:          issue.ID,
		Module:      issue.Module,
		Description: issue.Description,
		Priority:    string(issue.Priority),
		Type:        string(issue.Type),
		Status:      string(issue.Status),
		ImageURL:    issue.ImageURL,
		CreatedAt:   issue.CreatedAt.Format(time.RFC3339),
	}
	if issue.Owner != nil {
		out.Owner = issue.Owner.FullName
	}
	if issue.UpdatedAt != nil {
		out.UpdatedAt = issue.UpdatedAt.Format(time.RFC3339)
	}
	return out
}

// nexo_list_issues
func (s *Server) listIssuesTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("nexo_list_issues",
		mcp.WithDescription("List issues on the board, optionally filtered by status and/or priority. Returns a JSON array of issues with id, module, description, priority (low/medium/high), type (problem/bug/feature), status (pending/in_progress/completed), and owner."),
		mcp.WithString("status", mcp.Description("Status filter: pending, in_progress, completed")),
		mcp.WithString("priority", mcp.Description("Priority filter: low, medium, high")),
		mcp.WithString("sort", mcp.Description("Sort field: priority, date, status")),
		mcp.WithString("order", mcp.Description("Sort order: asc, desc")),
	)
	return tool, s.handleListIssues
}

func (s *Server) handleListIssues(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.engine.Load(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list issues: %v", err)), nil
	}

	q := board.Query{
		Status:    models.Status(request.GetString("status", "")),
		Priority:  models.Priority(request.GetString("priority", "")),
		SortField: board.SortField(request.GetString("sort", "")),
		SortOrder: board.SortOrder(request.GetString("order", "")),
	}
	issues := board.ApplyQuery(s.engine.Board().Issues(), q)

	out := make([]issueOut, len(issues))
	for i, issue := range issues {
		out[i] = issueToOut(issue)
	}

	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal issues: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// nexo_create_issue
func (s *Server) createIssueTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("nexo_create_issue",
		mcp.WithDescription("Create a new issue in the pending column. Requires a logged-in user. Returns the created issue as JSON."),
		mcp.WithString("module", mcp.Required(), mcp.Description("System or module the issue belongs to")),
		mcp.WithString("description", mcp.Required(), mcp.Description("What is wrong or wanted")),
		mcp.WithString("type", mcp.Description("Issue type: problem, bug, feature (default: problem)")),
		mcp.WithString("priority", mcp.Description("Issue priority: low, medium, high (default: medium)")),
	)
	return tool, s.handleCreateIssue
}

func (s *Server) handleCreateIssue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	module, err := request.RequireString("module")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: module"), nil
	}
	description, err := request.RequireString("description")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: description"), nil
	}

	draft := board.IssueDraft{
		Module:      module,
		Description: description,
		Priority:    models.Priority(request.GetString("priority", "medium")),
		Type:        models.IssueType(request.GetString("type", "problem")),
	}
	if !draft.Priority.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("invalid priority: %s", draft.Priority)), nil
	}
	if !draft.Type.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("invalid type: %s", draft.Type)), nil
	}

	issue, err := s.engine.Create(ctx, draft)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create issue: %v", err)), nil
	}

	data, err := json.Marshal(issueToOut(issue))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal issue: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// nexo_update_issue
func (s *Server) updateIssueTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("nexo_update_issue",
		mcp.WithDescription("Update an existing issue's fields. Provide the issue ID (full or prefix) and at least one field. Status cannot be changed here; use nexo_move_issue."),
		mcp.WithString("issue_id", mcp.Required(), mcp.Description("Issue ID (full ULID or unique prefix)")),
		mcp.WithString("module", mcp.Description("New module")),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithString("priority", mcp.Description("New priority: low, medium, high")),
		mcp.WithString("type", mcp.Description("New type: problem, bug, feature")),
	)
	return tool, s.handleUpdateIssue
}

func (s *Server) handleUpdateIssue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	issueID, err := request.RequireString("issue_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: issue_id"), nil
	}

	issue, err := s.findIssue(ctx, issueID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	patch := board.IssuePatch{
		Module:      request.GetString("module", ""),
		Description: request.GetString("description", ""),
		Priority:    models.Priority(request.GetString("priority", "")),
		Type:        models.IssueType(request.GetString("type", "")),
	}
	if patch == (board.IssuePatch{}) {
		return mcp.NewToolResultError("no fields provided to update; specify at least one of: module, description, priority, type"), nil
	}
	if patch.Priority != "" && !patch.Priority.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("invalid priority: %s", patch.Priority)), nil
	}
	if patch.Type != "" && !patch.Type.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("invalid type: %s", patch.Type)), nil
	}

	if err := s.engine.Update(ctx, issue.ID, patch); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update issue: %v", err)), nil
	}

	updated, _ := s.engine.Board().Get(issue.ID)
	data, err := json.Marshal(issueToOut(updated))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal issue: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// nexo_move_issue
func (s *Server) moveIssueTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("nexo_move_issue",
		mcp.WithDescription("Move an issue to another column. Provide either a target status (pending, in_progress, completed) or a direction (next, prev) to step around the workflow ring. Moving to the current column is a no-op."),
		mcp.WithString("issue_id", mcp.Required(), mcp.Description("Issue ID (full ULID or unique prefix)")),
		mcp.WithString("status", mcp.Description("Target status: pending, in_progress, completed")),
		mcp.WithString("direction", mcp.Description("Direction: next or prev")),
	)
	return tool, s.handleMoveIssue
}

func (s *Server) handleMoveIssue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	issueID, err := request.RequireString("issue_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: issue_id"), nil
	}

	issue, err := s.findIssue(ctx, issueID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	status := request.GetString("status", "")
	direction := request.GetString("direction", "")

	switch {
	case direction != "":
		var dir board.Direction
		switch direction {
		case "next":
			dir = board.Next
		case "prev":
			dir = board.Prev
		default:
			return mcp.NewToolResultError(fmt.Sprintf("invalid direction: %s (must be next or prev)", direction)), nil
		}
		err = s.engine.MoveByDirection(ctx, issue, dir)
	case status != "":
		dest := models.Status(status)
		if !dest.Valid() {
			return mcp.NewToolResultError(fmt.Sprintf("invalid status: %s", status)), nil
		}
		err = s.engine.Move(ctx, issue.ID, dest)
	default:
		return mcp.NewToolResultError("specify status or direction"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to move issue: %v", err)), nil
	}

	moved, _ := s.engine.Board().Get(issue.ID)
	data, err := json.Marshal(issueToOut(moved))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal issue: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// nexo_issue_history
func (s *Server) issueHistoryTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("nexo_issue_history",
		mcp.WithDescription("Get the status change history of an issue, newest first. Each entry has the status entered, when, and who made the change."),
		mcp.WithString("issue_id", mcp.Required(), mcp.Description("Issue ID (full ULID or unique prefix)")),
	)
	return tool, s.handleIssueHistory
}

func (s *Server) handleIssueHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	issueID, err := request.RequireString("issue_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: issue_id"), nil
	}

	issue, err := s.findIssue(ctx, issueID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	type entryOut struct {
		Status    string `json:"status"`
		ChangedAt string `json:"changed_at"`
		ChangedBy string `json:"changed_by,omitempty"`
	}

	trail := board.ProjectHistory(issue)
	out := make([]entryOut, len(trail))
	for i, e := range trail {
		out[i] = entryOut{
			Status:    string(e.Status),
			ChangedAt: e.ChangedAt.Format(time.RFC3339),
			ChangedBy: e.ChangedByName,
		}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal history: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// nexo_list_systems
func (s *Server) listSystemsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("nexo_list_systems",
		mcp.WithDescription("List the registered systems issues can be filed against. Returns a JSON array of names."),
	)
	return tool, s.handleListSystems
}

func (s *Server) handleListSystems(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	systems, err := s.store.ListSystems(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list systems: %v", err)), nil
	}

	names := make([]string, len(systems))
	for i, sys := range systems {
		names[i] = sys.Name
	}

	data, err := json.Marshal(names)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal systems: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// findIssue resolves an issue by full ID or unique prefix against a fresh
// board load.
func (s *Server) findIssue(ctx context.Context, id string) (*models.Issue, error) {
	if err := s.engine.Load(ctx); err != nil {
		return nil, err
	}

	if issue, ok := s.engine.Board().Get(id); ok {
		return issue, nil
	}

	upper := strings.ToUpper(id)
	var matches []*models.Issue
	for _, issue := range s.engine.Board().Issues() {
		if strings.HasPrefix(issue.ID, upper) {
			matches = append(matches, issue)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("issue not found: %s", id)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("ambiguous issue ID %s: matches %d issues", id, len(matches))
	}
}
