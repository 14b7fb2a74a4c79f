package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nexofix/nexo/internal/board"
	"github.com/nexofix/nexo/internal/mcp"
	"github.com/nexofix/nexo/internal/notify"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server for Claude Code integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This allows Claude Code to work the board natively. Configure in
Claude Code with:

  {
    "mcpServers": {
      "nexo": { "command": "nexo", "args": ["mcp"] }
    }
  }

Available tools: nexo_list_issues, nexo_create_issue, nexo_update_issue,
nexo_move_issue, nexo_issue_history, nexo_list_systems`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}

		// Notifications have nowhere to go on a stdio transport; tool
		// results carry the outcome instead.
		engine := board.NewEngine(s, &notify.Recorder{})
		if err := engine.Load(cmd.Context()); err != nil {
			return err
		}

		srv := mcp.NewServer(engine, s)
		return srv.ServeStdio(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
