package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// routeCmd represents the route command
var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Inspect the registered routes",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'route' requires a subcommand (list)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

var routeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all registered routes",
	Long: `List all registered routes in matching order.

Example:
  mediamind route list
  mediamind route list -o json`,
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")

		app, _, err := boot(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to start application: %v\n", err)
			os.Exit(1)
		}
		router, err := app.Router()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to resolve router: %v\n", err)
			os.Exit(1)
		}
		routes := router.Routes()

		if output == "json" {
			data, err := json.MarshalIndent(routes, "", "  ")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to encode routes: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(data))
			return
		}

		rows := make([][]string, 0, len(routes))
		for _, r := range routes {
			rows = append(rows, []string{r.Method, r.URI, r.Name})
		}
		fmt.Println(renderTable([]string{"METHOD", "URI", "NAME"}, rows))
		fmt.Printf("Showing [%d] routes\n", len(routes))
	},
}

func init() {
	rootCmd.AddCommand(routeCmd)
	routeCmd.AddCommand(routeListCmd)
	routeListCmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
}
