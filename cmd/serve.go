package cmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nexofix/nexo/internal/api"
	"github.com/nexofix/nexo/internal/board"
	"github.com/nexofix/nexo/internal/notify"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Start an HTTP server exposing the board as a REST API.\nBy default it listens on port 8080. Use --port to change it.",
	RunE: func(cmd *cobra.Command, args []string) error {
		port := viper.GetInt("port")

		s, err := getStore()
		if err != nil {
			return err
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		engine := board.NewEngine(s, notify.NewLog(logger))
		if err := engine.Load(cmd.Context()); err != nil {
			return err
		}

		srv := api.NewServer(engine, s, logger)
		addr := fmt.Sprintf(":%d", port)
		logger.Info("serving API", "addr", addr)
		return http.ListenAndServe(addr, srv.Router())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	viper.SetDefault("port", 8080)
	_ = viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))
}
