package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nexofix/nexo/internal/board"
	"github.com/nexofix/nexo/internal/notify"
	"github.com/nexofix/nexo/internal/output"
	"github.com/nexofix/nexo/internal/store"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui        *output.UI
	dataStore *store.SQLiteStore
	engine    *board.Engine

	verbose bool
	dryRun  bool
)

var rootCmd = &cobra.Command{
	Use:   "nexo",
	Short: "nexo - issue tracking board for your systems",
	Long: `nexo tracks issues across your systems on a three-column board:
pending, in progress, and completed. Issues move between columns with
full status history, and the board is available from the terminal, an
HTTP API, or an MCP server.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return boardRun()
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without making changes")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/nexo/config.yaml)")
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".config", "nexo")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("NEXO")
	viper.AutomaticEnv()

	// Defaults via viper.SetDefault()
	home, _ := os.UserHomeDir()
	defaultConfigDir := filepath.Join(home, ".config", "nexo")

	viper.SetDefault("state_dir", defaultConfigDir)
	viper.SetDefault("db_path", filepath.Join(defaultConfigDir, "nexo.db"))
	viper.SetDefault("images_dir", filepath.Join(defaultConfigDir, "images"))
	viper.SetDefault("anthropic.api_key", "")
	viper.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.DryRun = dryRun

	// Store and engine are initialized lazily so config/version commands
	// can run without a db.
}

// getStore returns the shared store, initializing it on first call.
func getStore() (*store.SQLiteStore, error) {
	if dataStore != nil {
		return dataStore, nil
	}

	s, err := store.NewSQLiteStore(viper.GetString("db_path"), viper.GetString("images_dir"))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := s.Migrate(rootCmd.Context()); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	dataStore = s
	return dataStore, nil
}

// getEngine returns the shared board engine over a loaded board.
func getEngine() (*board.Engine, error) {
	if engine != nil {
		return engine, nil
	}

	s, err := getStore()
	if err != nil {
		return nil, err
	}

	e := board.NewEngine(s, notify.NewUI(ui))
	if err := e.Load(rootCmd.Context()); err != nil {
		return nil, err
	}

	engine = e
	return engine, nil
}
