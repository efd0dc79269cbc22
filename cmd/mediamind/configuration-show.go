package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mediamind-ai/mediamind/pkg/config"
)

// configurationShowCmd represents the configuration show command
var configurationShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show configuration attributes and their sources",
	Long: `Show configuration attributes and their sources.

The source of an attribute is the environment variable that set it, the
config file, the configuration cache or the built-in default. The values
may not match those of a running server started before a change.

Example:
  mediamind configuration show
  mediamind configuration show --output json`,
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")

		app, _, err := configure(cmd)
		if err == nil {
			err = showConfiguration(app.Config(), output)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to show configuration: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	configurationCmd.AddCommand(configurationShowCmd)
	configurationShowCmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
}

func showConfiguration(cfg *config.Repository, output string) error {
	switch output {
	case "json":
		jsonOutput, err := cfg.FormatJSON()
		if err != nil {
			return err
		}
		fmt.Println(jsonOutput)
		return nil
	case "text":
	default:
		return fmt.Errorf("unknown output format %q", output)
	}

	attrs, err := cfg.Attributes()
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(attrs))
	for _, attr := range attrs {
		value := attr.Value
		if value == "" {
			value = mutedStyle.Render("(not set)")
		}
		rows = append(rows, []string{attr.Name, value, attr.Source})
	}

	fmt.Printf("Config paths: %s\n", strings.Join(cfg.Paths(), ", "))
	fmt.Println(renderTable([]string{"NAME", "VALUE", "SOURCE"}, rows))
	return nil
}
