package integration

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mediamind-ai/mediamind/pkg/config"
	"github.com/mediamind-ai/mediamind/pkg/database"
	"github.com/mediamind-ai/mediamind/pkg/foundation"
	"github.com/mediamind-ai/mediamind/pkg/server"
	"github.com/mediamind-ai/mediamind/pkg/site"
)

// freePort asks the kernel for an unused port
func freePort() int {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 18080
	}
	defer func() { _ = ln.Close() }()
	return ln.Addr().(*net.TCPAddr).Port
}

// startInlineServer boots the application in-process on db
func startInlineServer(root string, db *gorm.DB, cfg database.Config, appKey string, port int) (context.CancelFunc, error) {
	settings := config.DefaultSettings()
	settings.App.Name = appName
	settings.App.Env = "testing"
	settings.App.Key = appKey
	settings.Database.Connection = cfg.Connection
	settings.Database.Host = cfg.Host
	settings.Database.Port = cfg.Port
	settings.Database.Database = cfg.Database
	settings.Database.Username = cfg.Username
	settings.Database.Password = cfg.Password

	logger := zap.NewNop()
	app, err := site.NewApplication(root,
		site.WithInstance(foundation.ServiceSettings, &settings),
		site.WithInstance(foundation.ServiceLogger, logger),
		site.WithInstance(foundation.ServiceDB, db),
	)
	if err != nil {
		return nil, err
	}

	srv, err := server.NewServer(app, server.Options{
		Host:   "127.0.0.1",
		Port:   strconv.Itoa(port),
		Logger: logger,
		DB:     db,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = srv.Start(ctx)
	}()
	return cancel, nil
}

// startBinary starts the mediamind serve command
func startBinary(binaryPath, root string, cfg database.Config, appKey string, port int) (*exec.Cmd, context.CancelFunc, error) {
	ctx, cancel := context.WithCancel(context.Background())

	// Use --no-migrate since we already ran migrations in the test setup
	cmd := exec.CommandContext(ctx, binaryPath, "serve", "--no-migrate",
		"--base-path", root, "-H", "127.0.0.1", "-p", strconv.Itoa(port))
	cmd.Env = append(os.Environ(), envFor(cfg, appKey)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, nil, fmt.Errorf("failed to start binary: %w", err)
	}

	return cmd, cancel, nil
}

// waitForServer polls /healthz until it responds or times out
func waitForServer(serverURL string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(serverURL + "/healthz")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("server did not become ready within %v", timeout)
}
