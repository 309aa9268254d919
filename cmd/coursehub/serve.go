package main

import (
	"strings"

	"github.com/smallbiznis/coursehub/internal/account"
	"github.com/smallbiznis/coursehub/internal/billing"
	"github.com/smallbiznis/coursehub/internal/cache"
	"github.com/smallbiznis/coursehub/internal/catalog"
	"github.com/smallbiznis/coursehub/internal/clock"
	"github.com/smallbiznis/coursehub/internal/config"
	"github.com/smallbiznis/coursehub/internal/content"
	"github.com/smallbiznis/coursehub/internal/course"
	"github.com/smallbiznis/coursehub/internal/identity"
	"github.com/smallbiznis/coursehub/internal/migration"
	"github.com/smallbiznis/coursehub/internal/observability"
	"github.com/smallbiznis/coursehub/internal/ratelimit"
	"github.com/smallbiznis/coursehub/internal/server"
	"github.com/smallbiznis/coursehub/pkg/db"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func newServeCommand() *cobra.Command {
	var (
		addr        string
		autoMigrate bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []fx.Option{
				config.Module,
				fx.Decorate(func(cfg config.Config) config.Config {
					if addr = strings.TrimSpace(addr); addr != "" {
						cfg.HTTPAddr = addr
					}
					return cfg
				}),
				observability.Module,
				db.Module,
				cache.Module,
				clock.Module,

				billing.Module,
				identity.Module,
				course.Module,
				account.Module,
				content.Module,
				catalog.Module,
				ratelimit.Module,

				server.Module,
			}
			if autoMigrate {
				opts = append(opts, migration.Module)
			}

			app := fx.New(opts...)
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides HTTP_ADDR")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", true, "Apply content schema migrations on startup")

	return cmd
}
