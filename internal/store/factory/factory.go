// Package factory selects the UserStore backend from configuration.
package factory

import (
	"context"
	"fmt"

	"github.com/brizzai/oauth-login/internal/config"
	"github.com/brizzai/oauth-login/internal/logger"
	"github.com/brizzai/oauth-login/internal/store"
	"github.com/brizzai/oauth-login/internal/store/bolt"
	"github.com/brizzai/oauth-login/internal/store/memory"
	"github.com/brizzai/oauth-login/internal/store/sqlstore"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// New opens the backend named by cfg.Driver.
func New(ctx context.Context, cfg *config.StoreConfig) (store.UserStore, error) {
	switch cfg.Driver {
	case config.StoreDriverMemory, "":
		return memory.New(), nil
	case config.StoreDriverBolt:
		return bolt.Open(cfg.DSN)
	case config.StoreDriverSQLite:
		return sqlstore.Open(ctx, sqlstore.SQLite, cfg.DSN)
	case config.StoreDriverPostgres:
		return sqlstore.Open(ctx, sqlstore.Postgres, cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
}

func provide(lc fx.Lifecycle, cfg *config.StoreConfig) (store.UserStore, error) {
	s, err := New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("user store opened", zap.String("driver", string(cfg.Driver)))
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return s.Close()
		},
	})
	return s, nil
}

// Module provides store.UserStore and closes it when the app stops
var Module = fx.Module("store", fx.Provide(provide))
