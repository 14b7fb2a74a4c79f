package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nexofix/nexo/internal/models"
)

var (
	userName  string
	userEmail string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user profiles and the active session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return userWhoamiRun()
	},
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a user profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		return userAddRun()
	},
}

var userListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List user profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		return userListRun()
	},
}

var userLoginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Log in as a user",
	Long:  "Log in as the user with the given email. Issue operations are attributed to the logged-in user.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return userLoginRun(args[0])
	},
}

var userLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out the current user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return userLogoutRun()
	},
}

var userWhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return userWhoamiRun()
	},
}

func init() {
	userAddCmd.Flags().StringVar(&userName, "name", "", "Full name (required)")
	userAddCmd.Flags().StringVar(&userEmail, "email", "", "Email address (required)")
	_ = userAddCmd.MarkFlagRequired("name")
	_ = userAddCmd.MarkFlagRequired("email")

	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userLoginCmd)
	userCmd.AddCommand(userLogoutCmd)
	userCmd.AddCommand(userWhoamiCmd)
	rootCmd.AddCommand(userCmd)
}

func userAddRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would create user: %s <%s>", userName, userEmail)
		return nil
	}

	p := &models.Profile{FullName: userName, Email: userEmail}
	if err := s.CreateProfile(rootCmd.Context(), p); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	ui.Success("User created: %s <%s>", p.FullName, p.Email)
	return nil
}

func userListRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}

	profiles, err := s.ListProfiles(rootCmd.Context())
	if err != nil {
		return err
	}

	if len(profiles) == 0 {
		ui.Info("No users yet. Add one with: nexo user add")
		return nil
	}

	table := ui.Table([]string{"Name", "Email"})
	for _, p := range profiles {
		_ = table.Append([]string{p.FullName, p.Email})
	}
	_ = table.Render()
	return nil
}

func userLoginRun(email string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would log in as %s", email)
		return nil
	}

	p, err := s.Login(rootCmd.Context(), email)
	if err != nil {
		return err
	}
	ui.Success("Logged in as %s <%s>", p.FullName, p.Email)
	return nil
}

func userLogoutRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would log out")
		return nil
	}

	if err := s.Logout(rootCmd.Context()); err != nil {
		return err
	}
	ui.Success("Logged out")
	return nil
}

func userWhoamiRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}

	p, err := s.CurrentUser(rootCmd.Context())
	if err != nil {
		return err
	}
	if p == nil {
		ui.Info("Not logged in. Log in with: nexo user login <email>")
		return nil
	}
	fmt.Fprintf(ui.Out, "%s <%s>\n", p.FullName, p.Email)
	return nil
}
