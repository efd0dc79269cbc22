package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mediamind-ai/mediamind/pkg/config"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage application caches",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'cache' requires a subcommand (clear)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Flush the configuration cache and the compiled views directory",
	Long: `Flush the configuration cache and the compiled views directory.

Removes bootstrap/cache/config.json and everything except dotfiles in the
view.compiled directory. The server keeps compiled templates in memory
and never writes to that directory; it is kept for views rendered ahead
of time by external tooling. Restart the server to drop its in-memory
template cache.`,
	Run: func(cmd *cobra.Command, args []string) {
		app, settings, err := configure(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}

		if err := clearConfigCache(app.ConfigCachePath()); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to clear configuration cache: %v\n", err)
			os.Exit(1)
		}

		compiled := settings.View.Compiled
		if compiled != "" && !filepath.IsAbs(compiled) {
			compiled = app.BasePath(compiled)
		}
		n, err := clearDir(compiled)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to clear compiled views: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Application cache cleared! (%d file(s) removed from %s)\n", n, compiled)
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func clearConfigCache(path string) error {
	return config.ClearCache(path)
}

// clearDir removes the entries of dir, keeping dir itself and dotfiles
// such as .gitignore. A missing dir is not an error.
func clearDir(dir string) (int, error) {
	if dir == "" {
		return 0, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if entry.Name()[0] == '.' {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
