package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration cache",
	Long: `Manage the configuration cache.

A cached configuration is read from bootstrap/cache/config.json instead of
config/*.yml, so changes to .env have no effect until the cache is cleared.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'config' requires a subcommand (cache, clear)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

var configCacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Create a cache file for faster configuration loading",
	Run: func(cmd *cobra.Command, args []string) {
		app, _, err := configure(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}

		path := app.ConfigCachePath()
		if err := clearConfigCache(path); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to clear configuration cache: %v\n", err)
			os.Exit(1)
		}
		// reload from config/*.yml now that the old cache is gone
		cfg := app.Config()
		if err := cfg.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
		if err := cfg.WriteCache(path); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write configuration cache: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Configuration cached successfully!")
	},
}

var configClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the configuration cache file",
	Run: func(cmd *cobra.Command, args []string) {
		app, _, err := configure(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
		if err := clearConfigCache(app.ConfigCachePath()); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to clear configuration cache: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Configuration cache cleared!")
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configCacheCmd)
	configCmd.AddCommand(configClearCmd)
}
