package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/mediamind-ai/mediamind/pkg/database"
)

// dbCreateCmd represents the db create command
var dbCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the configured database",
	Long: `Create the configured database if it does not exist.

For pgsql and mysql the database named by DB_DATABASE is created on the
server. For sqlite the directory of DB_PATH is created.

Example:
  mediamind db create`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, _, err := migrationConfig(cmd)
		if err == nil {
			err = createDatabase(cmd.Context(), cfg)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "Failed to create database:", err)
			os.Exit(1)
		}
	},
}

func init() {
	dbCmd.AddCommand(dbCreateCmd)
}

func createDatabase(ctx context.Context, cfg database.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	switch cfg.Driver() {
	case "postgres":
		return createPostgresDatabase(ctx, cfg)
	case "mysql":
		return createMySQLDatabase(ctx, cfg)
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return err
		}
		fmt.Printf("Database file: %s\n", cfg.Path)
		return nil
	}
	return fmt.Errorf("%w: %q", database.ErrUnsupportedDriver, cfg.Connection)
}

func createPostgresDatabase(ctx context.Context, cfg database.Config) error {
	name := cfg.Database
	cfg.Database = "postgres"
	dsn, err := database.DSN(cfg)
	if err != nil {
		return err
	}

	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	var exists bool
	if err := conn.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", name,
	).Scan(&exists); err != nil {
		return err
	}
	if exists {
		fmt.Printf("Database %s already exists\n", name)
		return nil
	}

	if _, err := conn.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(name)); err != nil {
		return err
	}
	fmt.Printf("Created database %s\n", name)
	return nil
}

func createMySQLDatabase(ctx context.Context, cfg database.Config) error {
	name := cfg.Database
	cfg.Database = ""
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()

	quoted := "`" + strings.ReplaceAll(name, "`", "``") + "`"
	if err := db.WithContext(ctx).Exec("CREATE DATABASE IF NOT EXISTS " + quoted).Error; err != nil {
		return err
	}
	fmt.Printf("Database %s is ready\n", name)
	return nil
}
