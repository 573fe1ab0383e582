package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/arxiv/zero/internal/platform/migrations"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrations returns the schema migrations for SQLite.
func Migrations() migrations.Source {
	return migrations.Source{
		Dialect: "sqlite3",
		FS:      migrationFS,
		Dir:     "migrations",
	}
}

// Open opens the SQLite database file at path. The handle is limited to one
// connection, so writers never contend for the database lock.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("empty sqlite path")
	}

	dsn := p
	if !strings.Contains(dsn, "_pragma=") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", MapError(err))
	}
	return db, nil
}
