package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nexofix/nexo/internal/models"
	"github.com/nexofix/nexo/internal/output"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Show the issue board",
	Long:  "Show all issues grouped into the pending, in progress, and completed columns.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return boardRun()
	},
}

func init() {
	rootCmd.AddCommand(boardCmd)
}

func boardRun() error {
	e, err := getEngine()
	if err != nil {
		return err
	}

	if e.Board().Len() == 0 {
		ui.Info("No issues yet. Add one with: nexo issue add")
		return nil
	}

	for _, col := range models.Columns() {
		issues := e.Board().ByStatus(col.Status)
		fmt.Fprintf(ui.Out, "%s (%d)\n", output.StatusColor(string(col.Status)), len(issues))

		if len(issues) == 0 {
			fmt.Fprintln(ui.Out, "  (empty)")
			fmt.Fprintln(ui.Out)
			continue
		}

		table := ui.Table([]string{"ID", "Module", "Description", "Priority", "Type", "Owner"})
		for _, issue := range issues {
			owner := ""
			if issue.Owner != nil {
				owner = issue.Owner.FullName
			}
			_ = table.Append([]string{
				shortID(issue.ID),
				issue.Module,
				truncate(issue.Description, 48),
				output.PriorityColor(string(issue.Priority)),
				string(issue.Type),
				owner,
			})
		}
		_ = table.Render()
		fmt.Fprintln(ui.Out)
	}

	return nil
}

// truncate shortens s to max runes for table display.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
