//go:build embed_migrations

package main

import (
	"fmt"
	"io/fs"

	"github.com/mediamind-ai/mediamind/db"
	"github.com/mediamind-ai/mediamind/pkg/database"
)

// newMigrator reads the migrations compiled into the binary
func newMigrator(_ string, cfg database.Config) (*database.Migrator, error) {
	migrationsFS, err := fs.Sub(db.Migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to get embedded migrations: %w", err)
	}
	return database.NewMigratorFS(migrationsFS, cfg)
}
