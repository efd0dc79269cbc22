package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mediamind-ai/mediamind/pkg/database"
	"github.com/mediamind-ai/mediamind/pkg/site"
)

var errNoDatabase = errors.New("DB_CONNECTION is not set")

// dbMigrateCmd represents the db migrate command
var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create and/or upgrade the database schema",
	Long: `Create and/or upgrade the database schema.

This command runs all pending database migrations to bring the schema
up to date. Migrations are located in db/migrations/<driver>.

Example:
  mediamind db migrate`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, base, err := migrationConfig(cmd)
		if err == nil {
			err = runMigrations(base, cfg)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "Migration failed:", err)
			os.Exit(1)
		}
	},
}

var dbMigrateDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Rollback database migrations",
	Long: `Rollback database migrations.

This command rolls back the specified number of migrations (default: 1).

Example:
  mediamind db down      # Rollback 1 migration
  mediamind db down 3    # Rollback 3 migrations`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		steps := 1
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				fmt.Fprintf(os.Stderr, "Invalid number of steps: %s\n", args[0])
				os.Exit(1)
			}
			steps = n
		}

		cfg, base, err := migrationConfig(cmd)
		if err == nil {
			err = runMigrationsDown(base, cfg, steps)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "Rollback failed:", err)
			os.Exit(1)
		}
	},
}

var dbMigrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current migration version",
	Long:  `Show the current database migration version.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, base, err := migrationConfig(cmd)
		if err == nil {
			err = showMigrationStatus(base, cfg)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "Failed to get status:", err)
			os.Exit(1)
		}
	},
}

func init() {
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbMigrateDownCmd)
	dbCmd.AddCommand(dbMigrateStatusCmd)
}

func migrationConfig(cmd *cobra.Command) (database.Config, string, error) {
	app, settings, err := configure(cmd)
	if err != nil {
		return database.Config{}, "", err
	}
	if settings.Database.Connection == "" {
		return database.Config{}, "", errNoDatabase
	}
	cfg := site.DatabaseConfig(settings)
	if cfg.Driver() == "sqlite" {
		cfg.Path = sqlitePath(app.BasePath(), cfg)
	}
	return cfg, app.BasePath(), nil
}

func runMigrations(base string, cfg database.Config) error {
	m, err := newMigrator(base, cfg)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() { _ = m.Close() }()

	version, dirty, _ := m.Version()
	fmt.Printf("Current version: %d (dirty: %v)\n", version, dirty)

	changed, err := m.Up()
	if err != nil {
		return err
	}
	if !changed {
		fmt.Println("No migrations to run - database is up to date")
		return nil
	}

	version, _, _ = m.Version()
	fmt.Printf("Migrated to version: %d\n", version)
	return nil
}

func runMigrationsDown(base string, cfg database.Config, steps int) error {
	m, err := newMigrator(base, cfg)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() { _ = m.Close() }()

	fmt.Printf("Rolling back %d migration(s)...\n", steps)
	if err := m.Down(steps); err != nil {
		return err
	}

	version, _, _ := m.Version()
	fmt.Printf("Rolled back to version: %d\n", version)
	return nil
}

func showMigrationStatus(base string, cfg database.Config) error {
	m, err := newMigrator(base, cfg)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() { _ = m.Close() }()

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	if version == 0 {
		fmt.Println("No migrations have been applied yet")
		return nil
	}

	fmt.Printf("Current version: %d\n", version)
	if dirty {
		fmt.Println("Warning: Database is in a dirty state")
	}
	return nil
}

// sqlitePath resolves a relative sqlite file against the base path
func sqlitePath(base string, cfg database.Config) string {
	if cfg.Path == "" || filepath.IsAbs(cfg.Path) {
		return cfg.Path
	}
	return filepath.Join(base, cfg.Path)
}
