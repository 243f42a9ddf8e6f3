// Package factory constructs the storage layer from configuration.
package factory

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/opsdeck/timetracker/internal/config"
	"github.com/opsdeck/timetracker/internal/store"
	"github.com/opsdeck/timetracker/internal/store/postgres"
	"github.com/opsdeck/timetracker/internal/store/sqlite"
)

// NewStore opens the configured storage backend and runs migrations.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		db, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := postgres.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		log.Info().Str("driver", "postgres").Msg("store ready")
		return postgres.NewWithDB(db), nil
	case "sqlite":
		st, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		log.Info().Str("driver", "sqlite").Str("path", cfg.SQLitePath).Msg("store ready")
		return st, nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER: %s", cfg.DBDriver)
	}
}
