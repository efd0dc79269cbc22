package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	// ErrNoConnection is returned when no default connection has been set
	ErrNoConnection = errors.New("Database connection has not been established.")
	// ErrUnsupportedDriver is returned for unknown connection names
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)

// Config holds database connection configuration
type Config struct {
	// Connection is the driver: mysql, pgsql (or postgres) or sqlite
	Connection string
	Host       string
	Port       int
	Database   string
	Username   string
	Password   string
	Charset    string
	// Path is the sqlite database file. Database is used when empty.
	Path string
	// Options are appended to the DSN as driver parameters
	Options map[string]string
	// Debug enables gorm's SQL logging
	Debug bool
}

// Driver returns the normalised driver name
func (c Config) Driver() string {
	switch strings.ToLower(c.Connection) {
	case "pgsql", "postgres", "postgresql":
		return "postgres"
	case "sqlite", "sqlite3":
		return "sqlite"
	default:
		return strings.ToLower(c.Connection)
	}
}

// DSN builds the data source name for cfg's driver
func DSN(cfg Config) (string, error) {
	switch cfg.Driver() {
	case "mysql":
		port := cfg.Port
		if port == 0 {
			port = 3306
		}
		charset := cfg.Charset
		if charset == "" {
			charset = "utf8mb4"
		}
		params := url.Values{}
		params.Set("charset", charset)
		params.Set("parseTime", "true")
		for k, v := range cfg.Options {
			params.Set(k, v)
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
			cfg.Username, cfg.Password, cfg.Host, port, cfg.Database, params.Encode()), nil

	case "postgres":
		port := cfg.Port
		if port == 0 {
			port = 5432
		}
		opts := map[string]string{"sslmode": "disable"}
		for k, v := range cfg.Options {
			opts[k] = v
		}
		parts := []string{
			"host=" + quoteDSN(cfg.Host),
			fmt.Sprintf("port=%d", port),
			"user=" + quoteDSN(cfg.Username),
			"password=" + quoteDSN(cfg.Password),
			"dbname=" + quoteDSN(cfg.Database),
		}
		keys := make([]string, 0, len(opts))
		for k := range opts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, k+"="+quoteDSN(opts[k]))
		}
		return strings.Join(parts, " "), nil

	case "sqlite":
		path := cfg.Path
		if path == "" {
			path = cfg.Database
		}
		if path == "" {
			return "", fmt.Errorf("sqlite connection requires a path")
		}
		return path, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Connection)
}

// quoteDSN quotes libpq key/value values that are empty or contain spaces
func quoteDSN(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// Dialector returns the gorm dialector for cfg
func Dialector(cfg Config) (gorm.Dialector, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}
	switch cfg.Driver() {
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true, // disables implicit prepared statement usage
		}), nil
	default:
		return sqlite.Open(dsn), nil
	}
}

// Connect opens a connection for cfg and verifies it
func Connect(ctx context.Context, cfg Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	logMode := logger.Silent
	if cfg.Debug {
		logMode = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.Default.LogMode(logMode),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := Ping(ctx, db); err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return db, nil
}

// Ping runs a trivial query against db
func Ping(ctx context.Context, db *gorm.DB) error {
	var one int
	return db.WithContext(ctx).Raw("SELECT 1").Row().Scan(&one)
}

var (
	connMu     sync.RWMutex
	connection *gorm.DB
)

// SetConnection sets the connection used by schemas without their own
func SetConnection(db *gorm.DB) {
	connMu.Lock()
	defer connMu.Unlock()
	connection = db
}

// Connection returns the default connection
func Connection() (*gorm.DB, error) {
	connMu.RLock()
	defer connMu.RUnlock()
	if connection == nil {
		return nil, ErrNoConnection
	}
	return connection, nil
}

// HasConnection reports whether a default connection is set
func HasConnection() bool {
	_, err := Connection()
	return err == nil
}

// Close closes the underlying pool of db
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
