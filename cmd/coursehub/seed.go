package main

import (
	"fmt"

	"github.com/smallbiznis/coursehub/internal/config"
	"github.com/smallbiznis/coursehub/internal/migration"
	"github.com/smallbiznis/coursehub/internal/seed"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the demo courses matching the billing stub",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(cfg config.Config, log *zap.Logger, conn *gorm.DB) error {
				if err := migration.Run(conn, cfg.DBType); err != nil {
					return fmt.Errorf("failed to migrate: %w", err)
				}
				created, err := seed.EnsureDemoContent(cmd.Context(), conn)
				if err != nil {
					return fmt.Errorf("failed to seed: %w", err)
				}
				log.Info("demo content seeded", zap.Int("created", created))
				return nil
			})
		},
	}
}
