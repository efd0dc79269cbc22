//go:build !embed_migrations

package main

import (
	"path/filepath"

	"github.com/mediamind-ai/mediamind/pkg/database"
)

// newMigrator reads the migrations from db/migrations below the base path
func newMigrator(base string, cfg database.Config) (*database.Migrator, error) {
	return database.NewMigratorDir(filepath.Join(base, "db", "migrations"), cfg)
}
