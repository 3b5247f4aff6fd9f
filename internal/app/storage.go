package app

import (
	"context"
	"fmt"
	"log/slog"

	"bizflow/internal/adapter/httpapi"
	"bizflow/internal/config"
	"bizflow/internal/inventory"
	"bizflow/internal/inventory/pgstore"
	"bizflow/internal/inventory/sqlitestore"
	"bizflow/internal/platform/pg"
	"bizflow/internal/platform/sqlite"
	"bizflow/migrations"
)

const pgWaitAttempts = 10

type storage struct {
	repo   inventory.Store
	tx     inventory.Transactor
	health httpapi.HealthFunc
	close  func()
}

// openStorage opens the configured driver and brings its schema up to date.
func openStorage(ctx context.Context, cfg config.Config, log *slog.Logger) (*storage, error) {
	switch cfg.DB.Driver {
	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.DB.SQLitePath, sqlite.DefaultOptions())
		if err != nil {
			return nil, err
		}
		if err := sqlite.ApplyMigrations(db, migrations.FS, migrations.SQLiteDir); err != nil {
			_ = db.Close()
			return nil, err
		}
		if v, dirty, err := sqlite.MigrationVersion(db, migrations.FS, migrations.SQLiteDir); err == nil {
			log.Info("sqlite ready", slog.String("path", cfg.DB.SQLitePath), slog.Uint64("version", uint64(v)), slog.Bool("dirty", dirty))
		}
		runner := sqlite.NewTxRunner(db, nil)
		return &storage{
			repo:   sqlitestore.New(runner),
			tx:     runner,
			health: db.PingContext,
			close:  func() { _ = db.Close() },
		}, nil

	case "postgres":
		if err := pg.WaitForDB(ctx, cfg.DB.PGDSN, pgWaitAttempts); err != nil {
			return nil, err
		}
		info, err := pg.ApplyMigrations(cfg.DB.PGDSN, migrations.FS, migrations.PostgresDir)
		if err != nil {
			return nil, err
		}
		log.Info("postgres migrated", slog.Bool("applied", info.Applied), slog.Uint64("version", uint64(info.FinalVersion)))
		pool, err := pg.NewPool(ctx, cfg.DB.PGDSN, pg.DefaultPoolOptions())
		if err != nil {
			return nil, err
		}
		runner := pg.NewTxRunner(pool)
		return &storage{
			repo:   pgstore.New(runner),
			tx:     runner,
			health: func(ctx context.Context) error { return pg.Ping(ctx, pool) },
			close:  pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DB.Driver)
	}
}
