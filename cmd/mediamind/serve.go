package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/mediamind-ai/mediamind/pkg/env"
	"github.com/mediamind-ai/mediamind/pkg/foundation"
	"github.com/mediamind-ai/mediamind/pkg/server"
	"github.com/mediamind-ai/mediamind/pkg/site"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the application server",
	Long: `Run the application server.

The listen address defaults to APP_HOST and APP_PORT. When a database is
configured, pending migrations are run on startup. Use --no-migrate to skip.

With --watch, edits to .env are picked up without a restart for values
read per request, such as app.debug.

Example:
  mediamind serve
  mediamind serve --port 9000 --watch`,
	Run: func(cmd *cobra.Command, args []string) {
		app, settings, err := configure(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}

		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		if !noMigrate && settings.Database.Connection != "" {
			fmt.Println("Running database migrations...")
			if err := runMigrations(app.BasePath(), site.DatabaseConfig(settings)); err != nil {
				fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
				os.Exit(1)
			}
		}

		app, settings, err = boot(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to start application: %v\n", err)
			os.Exit(1)
		}
		logger := app.Logger()
		defer syncLogger(logger)

		host, _ := cmd.Flags().GetString("host")
		if host == "" {
			host = settings.App.Host
		}
		port, _ := cmd.Flags().GetInt("port")
		if port == 0 {
			port = settings.App.Port
		}

		var db *gorm.DB
		if app.Bound(foundation.ServiceDB) {
			db, _ = foundation.Resolve[*gorm.DB](app.Container, foundation.ServiceDB)
		}

		srv, err := server.NewServer(app, server.Options{
			Host:   host,
			Port:   strconv.Itoa(port),
			Logger: logger,
			DB:     db,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create server: %v\n", err)
			os.Exit(1)
		}

		watch, _ := cmd.Flags().GetBool("watch")
		if err := serve(app, srv, watch); err != nil {
			logger.Error("server stopped", zap.Error(err))
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("host", "H", "", "Host to bind (default APP_HOST)")
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (default APP_PORT)")
	serveCmd.Flags().Bool("watch", false, "Reload .env when it changes")
	serveCmd.Flags().Bool("no-migrate", false, "Skip database migrations on startup")
}

// serve runs srv until SIGINT or SIGTERM, alongside the .env watcher
func serve(app *foundation.Application, srv *server.Server, watch bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := app.Logger()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(ctx)
	})
	if watch {
		path := app.BasePath(".env")
		g.Go(func() error {
			return env.Watch(ctx, path, func() {
				if err := reloadEnv(app, path); err != nil {
					logger.Warn("failed to reload environment", zap.String("path", path), zap.Error(err))
					return
				}
				logger.Info("environment reloaded", zap.String("path", path))
			})
		})
	}
	return g.Wait()
}

func reloadEnv(app *foundation.Application, path string) error {
	if err := env.Load(path); err != nil {
		return err
	}
	return app.Config().Load()
}
