package integration

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/mediamind-ai/mediamind/pkg/auth"
	"github.com/mediamind-ai/mediamind/pkg/database"
	"github.com/mediamind-ai/mediamind/pkg/encryption"
)

const appName = "MediaMind AI"

// TestContext holds all the resources needed for integration tests
type TestContext struct {
	DB            *gorm.DB
	DBConfig      database.Config
	Container     testcontainers.Container
	ServerURL     string
	AppKey        string
	Tokens        *auth.Tokens
	HTTPClient    *http.Client
	Cancel        context.CancelFunc
	ServerProcess *exec.Cmd
}

// NewTestContext starts PostgreSQL in a container, migrates it and starts
// the server against it.
// Modes:
//   - Inline mode (default): the server runs in-process
//   - Binary mode: set MEDIAMIND_BINARY to the path of the mediamind binary
func NewTestContext(ctx context.Context) (*TestContext, error) {
	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to find project root: %w", err)
	}

	binaryPath := os.Getenv("MEDIAMIND_BINARY")
	if binaryPath != "" {
		if _, err := os.Stat(binaryPath); err != nil {
			return nil, fmt.Errorf("MEDIAMIND_BINARY path does not exist: %s", binaryPath)
		}
		log.Printf("Using binary: %s", binaryPath)
	} else {
		log.Println("Using inline server mode")
	}

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("mediamind_test"),
		tcpostgres.WithUsername("mediamind"),
		tcpostgres.WithPassword("mediamind"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := pgContainer.Host(ctx)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	cfg := database.Config{
		Connection: "pgsql",
		Host:       host,
		Port:       port.Int(),
		Database:   "mediamind_test",
		Username:   "mediamind",
		Password:   "mediamind",
	}

	m, err := database.NewMigratorDir(filepath.Join(projectRoot, "db", "migrations"), cfg)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, err
	}
	_, err = m.Up()
	_ = m.Close()
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// fixed key so tokens issued by the steps verify on the server
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	appKey := encryption.FormatKey(key)

	serverPort := freePort()
	serverURL := fmt.Sprintf("http://127.0.0.1:%d", serverPort)

	var serverProcess *exec.Cmd
	var cancel context.CancelFunc
	if binaryPath == "" {
		cancel, err = startInlineServer(projectRoot, db, cfg, appKey, serverPort)
	} else {
		serverProcess, cancel, err = startBinary(binaryPath, projectRoot, cfg, appKey, serverPort)
	}
	if err != nil {
		_ = database.Close(db)
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to start server: %w", err)
	}

	if err := waitForServer(serverURL, 30*time.Second); err != nil {
		cancel()
		if serverProcess != nil && serverProcess.Process != nil {
			_ = serverProcess.Process.Kill()
		}
		_ = database.Close(db)
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("server failed to become ready: %w", err)
	}

	return &TestContext{
		DB:            db,
		DBConfig:      cfg,
		Container:     pgContainer,
		ServerURL:     serverURL,
		AppKey:        appKey,
		Tokens:        auth.NewTokens(key, appName),
		HTTPClient:    &http.Client{Timeout: 10 * time.Second},
		Cancel:        cancel,
		ServerProcess: serverProcess,
	}, nil
}

// Reset empties the tables written by scenarios
func (tc *TestContext) Reset() error {
	return tc.DB.Exec("TRUNCATE contents, contact_messages, tests, audit_messages RESTART IDENTITY").Error
}

// Close cleans up all test resources
func (tc *TestContext) Close(ctx context.Context) {
	if tc.Cancel != nil {
		tc.Cancel()
	}
	if tc.ServerProcess != nil && tc.ServerProcess.Process != nil {
		_ = tc.ServerProcess.Process.Kill()
		_ = tc.ServerProcess.Wait()
	}
	if tc.DB != nil {
		_ = database.Close(tc.DB)
	}
	if tc.Container != nil {
		_ = tc.Container.Terminate(ctx)
	}
}

// findProjectRoot locates the project root directory
func findProjectRoot() (string, error) {
	paths := []string{
		"../..",
		"..",
		".",
	}

	for _, p := range paths {
		goMod := filepath.Join(p, "go.mod")
		if _, err := os.Stat(goMod); err == nil {
			return filepath.Abs(p)
		}
	}

	return "", fmt.Errorf("project root not found (looking for go.mod)")
}

func envFor(cfg database.Config, appKey string) []string {
	return []string{
		"APP_NAME=" + appName,
		"APP_ENV=testing",
		"APP_KEY=" + appKey,
		"DB_CONNECTION=" + cfg.Connection,
		"DB_HOST=" + cfg.Host,
		"DB_PORT=" + strconv.Itoa(cfg.Port),
		"DB_DATABASE=" + cfg.Database,
		"DB_USERNAME=" + cfg.Username,
		"DB_PASSWORD=" + cfg.Password,
		"LOG_LEVEL=warn",
	}
}
