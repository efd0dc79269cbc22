package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mediamind-ai/mediamind/pkg/site"
)

// appTestCmd represents the app:test command
var appTestCmd = &cobra.Command{
	Use:   "app:test",
	Short: "Check that the application boots",
	Long: `Check that the application boots.

With --database a row is written to the tests table and read back.`,
	Run: func(cmd *cobra.Command, args []string) {
		withDB, _ := cmd.Flags().GetBool("database")

		app, _, err := boot(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to start application: %v\n", err)
			os.Exit(1)
		}
		defer syncLogger(app.Logger())

		if withDB {
			if err := checkDatabase(cmd.Context()); err != nil {
				fmt.Fprintf(os.Stderr, "Database check failed: %v\n", err)
				os.Exit(1)
			}
		}
		fmt.Println("Test command executed successfully!")
	},
}

func init() {
	rootCmd.AddCommand(appTestCmd)
	appTestCmd.Flags().Bool("database", false, "Also write and read a row of the tests table")
}

func checkDatabase(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	tests := site.NewTestSchema(nil)
	created, err := tests.Create(ctx, map[string]interface{}{"name": "app:test"})
	if err != nil {
		return err
	}
	found, err := tests.Find(ctx, created.Key())
	if err != nil {
		return err
	}
	fmt.Printf("Stored test row %v (%v)\n", found.Key(), found.Get("name"))
	return nil
}
