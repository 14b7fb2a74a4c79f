package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nexofix/nexo/internal/models"
)

var systemCmd = &cobra.Command{
	Use:   "system",
	Short: "Manage the systems issues are filed against",
	RunE: func(cmd *cobra.Command, args []string) error {
		return systemListRun()
	},
}

var systemAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a system",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return systemAddRun(args[0])
	},
}

var systemListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List registered systems",
	RunE: func(cmd *cobra.Command, args []string) error {
		return systemListRun()
	},
}

var systemRmCmd = &cobra.Command{
	Use:     "rm <name>",
	Aliases: []string{"delete"},
	Short:   "Remove a system",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return systemRmRun(args[0])
	},
}

func init() {
	systemCmd.AddCommand(systemAddCmd)
	systemCmd.AddCommand(systemListCmd)
	systemCmd.AddCommand(systemRmCmd)
	rootCmd.AddCommand(systemCmd)
}

func systemAddRun(name string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would register system: %s", name)
		return nil
	}

	if err := s.CreateSystem(rootCmd.Context(), &models.System{Name: name}); err != nil {
		return err
	}
	ui.Success("System registered: %s", name)
	return nil
}

func systemListRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}

	systems, err := s.ListSystems(rootCmd.Context())
	if err != nil {
		return err
	}

	if len(systems) == 0 {
		ui.Info("No systems registered. Add one with: nexo system add <name>")
		return nil
	}

	table := ui.Table([]string{"Name"})
	for _, sys := range systems {
		_ = table.Append([]string{sys.Name})
	}
	_ = table.Render()
	return nil
}

func systemRmRun(name string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would remove system: %s", name)
		return nil
	}

	if err := s.DeleteSystem(rootCmd.Context(), name); err != nil {
		return err
	}
	ui.Success("System removed: %s", name)
	return nil
}
