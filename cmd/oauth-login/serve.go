package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/brizzai/oauth-login/internal/auth"
	"github.com/brizzai/oauth-login/internal/auth/providers"
	"github.com/brizzai/oauth-login/internal/auth/session"
	"github.com/brizzai/oauth-login/internal/config"
	"github.com/brizzai/oauth-login/internal/logger"
	"github.com/brizzai/oauth-login/internal/metrics"
	"github.com/brizzai/oauth-login/internal/requester"
	"github.com/brizzai/oauth-login/internal/server"
	"github.com/brizzai/oauth-login/internal/store/factory"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the login HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			app := newApp(cfg)
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}
}

func newApp(cfg *config.Config) *fx.App {
	return fx.New(
		appOptions(cfg),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx").WithOptions(zap.IncreaseLevel(zap.WarnLevel))}
		}),
	)
}

func appOptions(cfg *config.Config) fx.Option {
	return fx.Options(
		fx.Supply(cfg),
		config.Module,
		logger.Module,
		requester.Module,
		providers.Module,
		factory.Module,
		session.Module,
		auth.Module,
		metrics.Module,
		server.Module,
	)
}
