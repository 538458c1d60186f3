package cmd

import (
	"career_coach_backend/internal/app"
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migration and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg.ForceMigrate = true
		cfg.MigrateOnly = true

		application, err := app.NewApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		application.Close()

		fmt.Fprintln(cmd.OutOrStdout(), "migration completed")
		return nil
	},
}
