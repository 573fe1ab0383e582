package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/arxiv/zero/internal/config"
	"github.com/arxiv/zero/internal/platform/migrations"
	"github.com/arxiv/zero/internal/platform/postgres"
	"github.com/arxiv/zero/internal/platform/sqlite"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
)

// Supported values of database.driver.
const (
	driverPostgres = "postgres"
	driverSQLite   = "sqlite"
)

// setupAppDatabase opens the configured database and returns it with the
// migrations for its dialect.
func setupAppDatabase(
	ctx context.Context,
	cfg config.DatabaseConfig,
	logger *slog.Logger,
) (*sql.DB, migrations.Source, error) {
	switch cfg.Driver {
	case driverSQLite:
		db, err := sqlite.Open(ctx, strings.TrimPrefix(cfg.URL, "sqlite://"))
		if err != nil {
			return nil, migrations.Source{}, err
		}
		logger.Info("database connection established", "driver", cfg.Driver)
		return db, sqlite.Migrations(), nil

	case driverPostgres:
		db, err := sql.Open("pgx", cfg.URL)
		if err != nil {
			return nil, migrations.Source{}, fmt.Errorf("failed to open database connection: %w", err)
		}

		maxOpen := cfg.MaxOpenConns
		if maxOpen <= 0 {
			maxOpen = 10
		}
		db.SetMaxOpenConns(maxOpen)
		db.SetMaxIdleConns(max(1, maxOpen/2))
		db.SetConnMaxLifetime(5 * time.Minute)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			_ = db.Close()
			return nil, migrations.Source{}, fmt.Errorf("failed to ping database: %w", postgres.MapError(err))
		}

		logger.Info("database connection established", "driver", cfg.Driver, "max_open_conns", maxOpen)
		return db, postgres.Migrations(), nil

	default:
		return nil, migrations.Source{}, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
