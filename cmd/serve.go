package cmd

import (
	"career_coach_backend/internal/app"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	serveCmd.Flags().Bool("migrate", false, "Run database migration on startup, even in release mode")
}

func runServe(cmd *cobra.Command) error {
	cfg, cfgPath, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Lookup("migrate") != nil {
		cfg.ForceMigrate, _ = cmd.Flags().GetBool("migrate")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer application.Close()
	application.ConfigPath = cfgPath

	return application.Run(ctx)
}
