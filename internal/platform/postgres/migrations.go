package postgres

import (
	"embed"

	"github.com/arxiv/zero/internal/platform/migrations"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrations returns the schema migrations for PostgreSQL.
func Migrations() migrations.Source {
	return migrations.Source{
		Dialect: "postgres",
		FS:      migrationFS,
		Dir:     "migrations",
	}
}
