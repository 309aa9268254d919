// Command billingstub serves the in-memory billing fake for local
// development, seeded with the demo accounts and courses.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/coursehub/internal/billing/billingtest"
	obslogger "github.com/smallbiznis/coursehub/internal/observability/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	var (
		addr     string
		tokenTTL time.Duration
	)

	cmd := &cobra.Command{
		Use:   "billingstub",
		Short: "Run a seeded in-memory billing service",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := obslogger.New(nil, obslogger.Config{ServiceName: "billingstub", Level: "info", Format: "console"})
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			gin.SetMode(gin.ReleaseMode)
			fake := billingtest.New(billingtest.WithTokenTTL(tokenTTL))
			srv := &http.Server{
				Addr:              addr,
				Handler:           fake.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Info("billing stub listening",
					zap.String("addr", addr),
					zap.String("admin", billingtest.AdminEmail),
					zap.String("user", billingtest.UserEmail),
				)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8081", "Listen address")
	cmd.Flags().DurationVar(&tokenTTL, "token-ttl", time.Hour, "Access token lifetime")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
