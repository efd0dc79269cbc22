package database

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path/filepath"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// MigrationsDir is the directory holding the migrations for cfg's driver
func MigrationsDir(cfg Config) string {
	if cfg.Driver() == "sqlite" {
		return "sqlite3"
	}
	return cfg.Driver()
}

// MigrationURL returns the golang-migrate database URL for cfg
func MigrationURL(cfg Config) (string, error) {
	switch cfg.Driver() {
	case "postgres":
		port := cfg.Port
		if port == 0 {
			port = 5432
		}
		q := url.Values{}
		q.Set("sslmode", "disable")
		for k, v := range cfg.Options {
			q.Set(k, v)
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(cfg.Username, cfg.Password),
			Host:     cfg.Host + ":" + strconv.Itoa(port),
			Path:     "/" + cfg.Database,
			RawQuery: q.Encode(),
		}
		return u.String(), nil

	case "mysql":
		cfg.Options = withOption(cfg.Options, "multiStatements", "true")
		dsn, err := DSN(cfg)
		if err != nil {
			return "", err
		}
		return "mysql://" + dsn, nil

	case "sqlite":
		dsn, err := DSN(cfg)
		if err != nil {
			return "", err
		}
		return "sqlite3://" + filepath.ToSlash(dsn), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Connection)
}

func withOption(opts map[string]string, key, value string) map[string]string {
	out := make(map[string]string, len(opts)+1)
	for k, v := range opts {
		out[k] = v
	}
	out[key] = value
	return out
}

// Migrator applies the migrations for one database
type Migrator struct {
	m *migrate.Migrate
}

// NewMigratorFS reads migrations from the driver directory of fsys, as
// embedded in the binary
func NewMigratorFS(fsys fs.FS, cfg Config) (*Migrator, error) {
	dbURL, err := MigrationURL(cfg)
	if err != nil {
		return nil, err
	}
	src, err := iofs.New(fsys, MigrationsDir(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return &Migrator{m: m}, nil
}

// NewMigratorDir reads migrations from the driver directory below dir on disk
func NewMigratorDir(dir string, cfg Config) (*Migrator, error) {
	dbURL, err := MigrationURL(cfg)
	if err != nil {
		return nil, err
	}
	src := "file://" + filepath.ToSlash(filepath.Join(dir, MigrationsDir(cfg)))
	m, err := migrate.New(src, dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return &Migrator{m: m}, nil
}

// Up applies every pending migration. It reports whether anything ran.
func (m *Migrator) Up() (bool, error) {
	if err := m.m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return false, nil
		}
		return false, fmt.Errorf("migration failed: %w", err)
	}
	return true, nil
}

// Down rolls back steps migrations
func (m *Migrator) Down(steps int) error {
	if steps < 1 {
		steps = 1
	}
	if err := m.m.Steps(-steps); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}
	return nil
}

// Version returns the applied version; zero when nothing has run
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	if srcErr != nil {
		return srcErr
	}
	return dbErr
}
