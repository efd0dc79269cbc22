package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/mediamind-ai/mediamind/pkg/audit"
	"github.com/mediamind-ai/mediamind/pkg/foundation"
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the audit trail",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'audit' requires a subcommand (list)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the latest audit messages stored in the database",
	Long: `List the latest audit messages stored in the database.

Messages are only stored when AUDIT_ENABLED and AUDIT_DATABASE are set.

Example:
  mediamind audit list --limit 50`,
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")

		app, _, err := boot(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to start application: %v\n", err)
			os.Exit(1)
		}
		db, err := foundation.Resolve[*gorm.DB](app.Container, foundation.ServiceDB)
		if err != nil {
			fmt.Fprintf(os.Stderr, "No database configured: %v\n", err)
			os.Exit(1)
		}

		messages, err := audit.NewStore(db).Recent(context.Background(), limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read audit messages: %v\n", err)
			os.Exit(1)
		}

		rows := make([][]string, 0, len(messages))
		for _, m := range messages {
			rows = append(rows, []string{
				m.Timestamp.Format("2006-01-02 15:04:05"),
				m.Msgid,
				strconv.Itoa(m.Severity),
				m.Message,
			})
		}
		fmt.Println(renderTable([]string{"TIME", "MSGID", "SEVERITY", "MESSAGE"}, rows))
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditListCmd)
	auditListCmd.Flags().IntP("limit", "n", 20, "Number of messages to show")
}
