package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mediamind-ai/mediamind/pkg/config"
	"github.com/mediamind-ai/mediamind/pkg/foundation"
	"github.com/mediamind-ai/mediamind/pkg/site"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mediamind",
	Short: "MediaMind AI application console",
	Long: `MediaMind AI application console.

Serves the MediaMind AI website and API and provides maintenance commands
for the database, the application key and the configuration cache.

Every command reads .env and config/*.yml below the base path.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("base-path", defaultBasePath(), "Application base path")
}

func main() {
	Execute()
}

func defaultBasePath() string {
	if p := os.Getenv("MEDIAMIND_BASE_PATH"); p != "" {
		return p
	}
	return "."
}

func basePath(cmd *cobra.Command) string {
	p, _ := cmd.Flags().GetString("base-path")
	return p
}

// configure loads the settings without connecting to the database
func configure(cmd *cobra.Command) (*foundation.Application, *config.Settings, error) {
	app, err := site.Configure(basePath(cmd))
	if err != nil {
		return nil, nil, err
	}
	settings, err := site.Settings(app)
	if err != nil {
		return nil, nil, err
	}
	return app, settings, nil
}

// boot builds the fully booted application
func boot(cmd *cobra.Command, opts ...site.Option) (*foundation.Application, *config.Settings, error) {
	app, err := site.NewApplication(basePath(cmd), opts...)
	if err != nil {
		return nil, nil, err
	}
	settings, err := site.Settings(app)
	if err != nil {
		return nil, nil, err
	}
	return app, settings, nil
}

func syncLogger(logger *zap.Logger) {
	_ = logger.Sync()
}
