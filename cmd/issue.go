package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nexofix/nexo/internal/board"
	"github.com/nexofix/nexo/internal/models"
	"github.com/nexofix/nexo/internal/output"
)

var (
	issueModule   string
	issueDesc     string
	issuePriority string
	issueType     string
	issueImage    string
	issueStatus   string
	issueSort     string
	issueOrder    string
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Manage issues on the board",
	Long:  "Create, list, move, and inspect issues.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueListRun()
	},
}

var issueAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new issue",
	Long:  "Add a new issue to the pending column. Requires a logged-in user.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueAddRun()
	},
}

var issueListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List issues",
	Long:    "List issues, optionally filtered by status and priority and sorted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueListRun()
	},
}

var issueShowCmd = &cobra.Command{
	Use:   "show <issue-id>",
	Short: "Show issue details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueShowRun(args[0])
	},
}

var issueEditCmd = &cobra.Command{
	Use:   "edit <issue-id>",
	Short: "Edit an issue's fields",
	Long:  "Edit an issue's module, description, priority, type, or attachment.\nStatus cannot be edited; use 'nexo issue move'.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueEditRun(args[0])
	},
}

var issueRmCmd = &cobra.Command{
	Use:     "rm <issue-id>",
	Aliases: []string{"delete"},
	Short:   "Delete an issue",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueRmRun(args[0])
	},
}

var issueMoveCmd = &cobra.Command{
	Use:   "move <issue-id> <status>",
	Short: "Move an issue to a column",
	Long:  "Move an issue to pending, in_progress, or completed.\nMoving to its current column does nothing.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueMoveRun(args[0], args[1])
	},
}

var issueNextCmd = &cobra.Command{
	Use:   "next <issue-id>",
	Short: "Advance an issue to the next column",
	Long:  "Advance an issue one step: pending to in_progress to completed,\nand from completed back around to pending.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueStepRun(args[0], board.Next)
	},
}

var issuePrevCmd = &cobra.Command{
	Use:   "prev <issue-id>",
	Short: "Send an issue back to the previous column",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueStepRun(args[0], board.Prev)
	},
}

var issueHistoryCmd = &cobra.Command{
	Use:   "history <issue-id>",
	Short: "Show an issue's status history",
	Long:  "Show every status an issue has been through, newest first.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueHistoryRun(args[0])
	},
}

func init() {
	issueAddCmd.Flags().StringVar(&issueModule, "module", "", "System the issue belongs to (required)")
	issueAddCmd.Flags().StringVar(&issueDesc, "desc", "", "Issue description (required)")
	issueAddCmd.Flags().StringVar(&issuePriority, "priority", "medium", "Priority: low, medium, high")
	issueAddCmd.Flags().StringVar(&issueType, "type", "problem", "Type: problem, bug, feature")
	issueAddCmd.Flags().StringVar(&issueImage, "image", "", "Path to an image to attach")
	_ = issueAddCmd.MarkFlagRequired("module")
	_ = issueAddCmd.MarkFlagRequired("desc")

	issueListCmd.Flags().StringVar(&issueStatus, "status", "", "Filter by status: pending, in_progress, completed")
	issueListCmd.Flags().StringVar(&issuePriority, "priority", "", "Filter by priority: low, medium, high")
	issueListCmd.Flags().StringVar(&issueSort, "sort", "", "Sort by: priority, date, status")
	issueListCmd.Flags().StringVar(&issueOrder, "order", "desc", "Sort order: asc, desc")

	issueEditCmd.Flags().StringVar(&issueModule, "module", "", "New module")
	issueEditCmd.Flags().StringVar(&issueDesc, "desc", "", "New description")
	issueEditCmd.Flags().StringVar(&issuePriority, "priority", "", "New priority")
	issueEditCmd.Flags().StringVar(&issueType, "type", "", "New type")
	issueEditCmd.Flags().StringVar(&issueImage, "image", "", "Path to a new image attachment")

	issueCmd.AddCommand(issueAddCmd)
	issueCmd.AddCommand(issueListCmd)
	issueCmd.AddCommand(issueShowCmd)
	issueCmd.AddCommand(issueEditCmd)
	issueCmd.AddCommand(issueRmCmd)
	issueCmd.AddCommand(issueMoveCmd)
	issueCmd.AddCommand(issueNextCmd)
	issueCmd.AddCommand(issuePrevCmd)
	issueCmd.AddCommand(issueHistoryCmd)
	rootCmd.AddCommand(issueCmd)
}

func issueAddRun() error {
	e, err := getEngine()
	if err != nil {
		return err
	}
	ctx := rootCmd.Context()

	priority := models.Priority(issuePriority)
	if !priority.Valid() {
		return fmt.Errorf("invalid priority: %s (must be low, medium, or high)", issuePriority)
	}
	typ := models.IssueType(issueType)
	if !typ.Valid() {
		return fmt.Errorf("invalid type: %s (must be problem, bug, or feature)", issueType)
	}
	if err := validateModule(issueModule); err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would add issue: %s [%s/%s]", issueModule, issuePriority, issueType)
		return nil
	}

	_, err = e.Create(ctx, board.IssueDraft{
		Module:      issueModule,
		Description: issueDesc,
		Priority:    priority,
		Type:        typ,
		ImagePath:   issueImage,
	})
	return err
}

// validateModule rejects modules that are not registered systems. An
// empty systems list means systems are not being curated; anything goes.
func validateModule(module string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	systems, err := s.ListSystems(rootCmd.Context())
	if err != nil {
		return err
	}
	if len(systems) == 0 {
		return nil
	}

	names := make([]string, len(systems))
	for i, sys := range systems {
		if sys.Name == module {
			return nil
		}
		names[i] = sys.Name
	}
	return fmt.Errorf("unknown system: %s (registered: %s)", module, strings.Join(names, ", "))
}

func issueListRun() error {
	e, err := getEngine()
	if err != nil {
		return err
	}

	if issueStatus != "" && !models.Status(issueStatus).Valid() {
		return fmt.Errorf("invalid status: %s", issueStatus)
	}
	if issuePriority != "" && !models.Priority(issuePriority).Valid() {
		return fmt.Errorf("invalid priority: %s", issuePriority)
	}

	q := board.Query{
		Status:    models.Status(issueStatus),
		Priority:  models.Priority(issuePriority),
		SortField: board.SortField(issueSort),
		SortOrder: board.SortOrder(issueOrder),
	}
	issues := board.ApplyQuery(e.Board().Issues(), q)

	if len(issues) == 0 {
		ui.Info("No issues found.")
		return nil
	}

	table := ui.Table([]string{"ID", "Module", "Description", "Status", "Priority", "Type", "Owner"})
	for _, issue := range issues {
		owner := ""
		if issue.Owner != nil {
			owner = issue.Owner.FullName
		}
		_ = table.Append([]string{
			shortID(issue.ID),
			issue.Module,
			truncate(issue.Description, 48),
			output.StatusColor(string(issue.Status)),
			output.PriorityColor(string(issue.Priority)),
			string(issue.Type),
			owner,
		})
	}
	_ = table.Render()
	return nil
}

func issueShowRun(id string) error {
	issue, err := findBoardIssue(id)
	if err != nil {
		return err
	}

	fmt.Fprintf(ui.Out, "%s  %s\n", output.Cyan(shortID(issue.ID)), issue.Module)
	fmt.Fprintf(ui.Out, "  Status:      %s\n", output.StatusColor(string(issue.Status)))
	fmt.Fprintf(ui.Out, "  Priority:    %s\n", output.PriorityColor(string(issue.Priority)))
	fmt.Fprintf(ui.Out, "  Type:        %s\n", issue.Type)
	fmt.Fprintf(ui.Out, "  Description: %s\n", issue.Description)
	if issue.Owner != nil {
		fmt.Fprintf(ui.Out, "  Owner:       %s\n", issue.Owner.FullName)
	}
	if issue.ImageURL != "" {
		fmt.Fprintf(ui.Out, "  Image:       %s\n", issue.ImageURL)
	}
	fmt.Fprintf(ui.Out, "  Created:     %s\n", issue.CreatedAt.Format(time.RFC3339))
	if issue.UpdatedAt != nil {
		fmt.Fprintf(ui.Out, "  Updated:     %s\n", issue.UpdatedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(ui.Out, "  Full ID:     %s\n", issue.ID)

	return nil
}

func issueEditRun(id string) error {
	e, err := getEngine()
	if err != nil {
		return err
	}

	issue, err := findBoardIssue(id)
	if err != nil {
		return err
	}

	patch := board.IssuePatch{
		Module:      issueModule,
		Description: issueDesc,
		Priority:    models.Priority(issuePriority),
		Type:        models.IssueType(issueType),
		ImagePath:   issueImage,
	}
	if patch == (board.IssuePatch{}) {
		return fmt.Errorf("no changes specified (use --module, --desc, --priority, --type, or --image)")
	}
	if patch.Priority != "" && !patch.Priority.Valid() {
		return fmt.Errorf("invalid priority: %s", issuePriority)
	}
	if patch.Type != "" && !patch.Type.Valid() {
		return fmt.Errorf("invalid type: %s", issueType)
	}
	if patch.Module != "" {
		if err := validateModule(patch.Module); err != nil {
			return err
		}
	}

	if dryRun {
		ui.DryRunMsg("Would update issue %s", shortID(issue.ID))
		return nil
	}

	return e.Update(rootCmd.Context(), issue.ID, patch)
}

func issueRmRun(id string) error {
	e, err := getEngine()
	if err != nil {
		return err
	}

	issue, err := findBoardIssue(id)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would delete issue %s: %s", shortID(issue.ID), issue.Module)
		return nil
	}

	return e.Delete(rootCmd.Context(), issue.ID)
}

func issueMoveRun(id, status string) error {
	e, err := getEngine()
	if err != nil {
		return err
	}

	dest := models.Status(status)
	if !dest.Valid() {
		return fmt.Errorf("invalid status: %s (must be pending, in_progress, or completed)", status)
	}

	issue, err := findBoardIssue(id)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would move issue %s to %s", shortID(issue.ID), dest)
		return nil
	}

	return e.Move(rootCmd.Context(), issue.ID, dest)
}

func issueStepRun(id string, dir board.Direction) error {
	e, err := getEngine()
	if err != nil {
		return err
	}

	issue, err := findBoardIssue(id)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would move issue %s to %s", shortID(issue.ID), board.Transition(issue.Status, dir))
		return nil
	}

	return e.MoveByDirection(rootCmd.Context(), issue, dir)
}

func issueHistoryRun(id string) error {
	issue, err := findBoardIssue(id)
	if err != nil {
		return err
	}

	trail := board.ProjectHistory(issue)
	if len(trail) == 0 {
		ui.Info("No history recorded for %s.", shortID(issue.ID))
		return nil
	}

	fmt.Fprintf(ui.Out, "%s  %s\n", output.Cyan(shortID(issue.ID)), issue.Module)
	table := ui.Table([]string{"When", "Status", "By"})
	for _, entry := range trail {
		_ = table.Append([]string{
			entry.ChangedAt.Local().Format("2006-01-02 15:04"),
			output.StatusColor(string(entry.Status)),
			entry.ChangedByName,
		})
	}
	_ = table.Render()
	return nil
}

// findBoardIssue finds an issue on the loaded board by full ID or prefix.
func findBoardIssue(id string) (*models.Issue, error) {
	e, err := getEngine()
	if err != nil {
		return nil, err
	}

	if issue, ok := e.Board().Get(id); ok {
		return issue, nil
	}

	upper := strings.ToUpper(id)
	var matches []*models.Issue
	for _, issue := range e.Board().Issues() {
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

// shortID returns a truncated ULID for display (first 12 chars).
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
