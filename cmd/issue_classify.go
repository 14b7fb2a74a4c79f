package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nexofix/nexo/internal/board"
	"github.com/nexofix/nexo/internal/models"
	"github.com/nexofix/nexo/internal/output"
)

var classifyApply bool

var issueClassifyCmd = &cobra.Command{
	Use:   "classify <issue-id>",
	Short: "Suggest a type and priority for an issue",
	Long: `Classify an issue's type and priority from its description.

Uses the Anthropic API when an API key is configured (anthropic.api_key
or ANTHROPIC_API_KEY), falling back to keyword heuristics otherwise.
With --apply, the suggestion is written back to the issue.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueClassifyRun(args[0])
	},
}

func init() {
	issueClassifyCmd.Flags().BoolVar(&classifyApply, "apply", false, "Apply the suggested type and priority to the issue")
	issueCmd.AddCommand(issueClassifyCmd)
}

func issueClassifyRun(id string) error {
	issue, err := findBoardIssue(id)
	if err != nil {
		return err
	}

	var suggestedType, suggestedPriority, reason string

	if client := newLLMClient(); client != nil {
		c, err := client.ClassifyIssue(rootCmd.Context(), issue.Module, issue.Description)
		if err != nil {
			return fmt.Errorf("classify issue: %w", err)
		}
		suggestedType, suggestedPriority, reason = c.Type, c.Priority, c.Reason
	} else {
		ui.VerboseLog("No API key configured; using keyword heuristics")
		suggestedType = classifyIssueType(issue.Description)
		suggestedPriority = classifyIssuePriority(issue.Description)
		reason = "keyword heuristics"
	}

	if !models.IssueType(suggestedType).Valid() || !models.Priority(suggestedPriority).Valid() {
		return fmt.Errorf("classifier returned invalid suggestion: %s/%s", suggestedType, suggestedPriority)
	}

	fmt.Fprintf(ui.Out, "%s  %s\n", output.Cyan(shortID(issue.ID)), issue.Module)
	fmt.Fprintf(ui.Out, "  Type:     %s (current: %s)\n", suggestedType, issue.Type)
	fmt.Fprintf(ui.Out, "  Priority: %s (current: %s)\n", suggestedPriority, issue.Priority)
	fmt.Fprintf(ui.Out, "  Reason:   %s\n", reason)

	if !classifyApply {
		return nil
	}

	if dryRun {
		ui.DryRunMsg("Would apply classification to issue %s", shortID(issue.ID))
		return nil
	}

	e, err := getEngine()
	if err != nil {
		return err
	}
	return e.Update(rootCmd.Context(), issue.ID, board.IssuePatch{
		Type:     models.IssueType(suggestedType),
		Priority: models.Priority(suggestedPriority),
	})
}

// classifyIssueType infers the issue type from the description using keyword
// heuristics. Bug keywords are checked before feature keywords.
// Defaults to "problem" if no keywords match.
func classifyIssueType(description string) string {
	lower := strings.ToLower(description)

	bugPhrases := []string{
		"issue with", "not working",
	}
	for _, kw := range bugPhrases {
		if strings.Contains(lower, kw) {
			return "bug"
		}
	}

	bugWords := []string{
		"fix ", "fix:", "fixed", "fixes", "fixing",
		"bug", "broken", "crash", "error",
		"regression", "fail", "fault", "defect",
	}
	for _, kw := range bugWords {
		if strings.Contains(lower, kw) {
			return "bug"
		}
	}
	// "fix" at end of string
	if strings.HasSuffix(lower, "fix") {
		return "bug"
	}

	featureKeywords := []string{
		"add ", "support", "feature", "implement", "new ",
		"allow", "enable", "would be nice", "request",
	}
	for _, kw := range featureKeywords {
		if strings.Contains(lower, kw) {
			return "feature"
		}
	}

	return "problem"
}

// classifyIssuePriority infers the issue priority from the description using
// keyword heuristics. High keywords are checked before low keywords.
// Defaults to "medium".
func classifyIssuePriority(description string) string {
	lower := strings.ToLower(description)

	highKeywords := []string{
		"critical", "urgent", "blocker", "crash", "security",
		"data loss", "production down", "p0", "p1",
	}
	for _, kw := range highKeywords {
		if strings.Contains(lower, kw) {
			return "high"
		}
	}

	lowKeywords := []string{
		"minor", "nice to have", "cosmetic", "trivial",
		"low priority", "cleanup", "clean up",
	}
	for _, kw := range lowKeywords {
		if strings.Contains(lower, kw) {
			return "low"
		}
	}

	return "medium"
}
