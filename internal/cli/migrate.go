package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/classpulse/participation-hub/config"
	"github.com/classpulse/participation-hub/internal/infrastructure/persistence/postgres"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath)
		},
	}
}

func runMigrations(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("database url not configured")
	}

	pgCfg := postgres.DefaultConfig()
	pgCfg.URL = cfg.Database.URL

	conn, err := postgres.NewConnection(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	return postgres.Migrate(ctx, conn)
}
