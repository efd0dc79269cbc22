package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mediamind-ai/mediamind/pkg/auth"
	"github.com/mediamind-ai/mediamind/pkg/foundation"
	"github.com/mediamind-ai/mediamind/pkg/site"
)

// tokenCmd represents the token command
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage API tokens",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'token' requires a subcommand (issue)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a bearer token for the content API",
	Long: `Issue a bearer token for the content API.

The token is signed with APP_KEY and printed to stdout.

Example:
  mediamind token issue --subject editor
  curl -H "Authorization: Bearer $(mediamind token issue -s editor)" localhost:8000/api/content`,
	Run: func(cmd *cobra.Command, args []string) {
		subject, _ := cmd.Flags().GetString("subject")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		signed, err := issueToken(cmd, subject, ttl)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to issue token: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(signed)
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenIssueCmd)
	tokenIssueCmd.Flags().StringP("subject", "s", "", "Subject of the token (required)")
	tokenIssueCmd.Flags().Duration("ttl", auth.DefaultTTL, "Lifetime of the token")
	_ = tokenIssueCmd.MarkFlagRequired("subject")
}

func issueToken(cmd *cobra.Command, subject string, ttl time.Duration) (string, error) {
	app, _, err := configure(cmd)
	if err != nil {
		return "", err
	}
	if err := app.Register(&site.EncryptionServiceProvider{}); err != nil {
		return "", err
	}
	tokens, err := foundation.Resolve[*auth.Tokens](app.Container, foundation.ServiceTokens)
	if err != nil {
		return "", err
	}
	return tokens.Issue(subject, ttl)
}
