package main

import (
	"fmt"

	"github.com/smallbiznis/coursehub/internal/config"
	"github.com/smallbiznis/coursehub/internal/migration"
	"github.com/smallbiznis/coursehub/internal/observability"
	obslogger "github.com/smallbiznis/coursehub/internal/observability/logger"
	"github.com/smallbiznis/coursehub/pkg/db"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply content schema migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(cfg config.Config, log *zap.Logger, conn *gorm.DB) error {
				if err := migration.Run(conn, cfg.DBType); err != nil {
					return fmt.Errorf("failed to migrate: %w", err)
				}
				log.Info("content schema ready", zap.String("db_type", cfg.DBType))
				return nil
			})
		},
	}
}

// withDatabase runs fn against the configured database outside the fx app.
func withDatabase(fn func(cfg config.Config, log *zap.Logger, conn *gorm.DB) error) error {
	cfg := config.Load()
	log, err := obslogger.New(nil, observability.LoadConfig(cfg).Logger())
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	conn, err := db.Open(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	return fn(cfg, log, conn)
}
