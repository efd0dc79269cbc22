package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mediamind-ai/mediamind/pkg/encryption"
)

// keyGenerateCmd represents the key generate command
var keyGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Set the application key",
	Long: `Generate a random 256-bit application key.

The key is written to APP_KEY in the env file unless --show is given, in
which case it is only printed.

Example:
  mediamind key generate
  mediamind key generate --show`,
	Run: func(cmd *cobra.Command, args []string) {
		show, _ := cmd.Flags().GetBool("show")
		envFile, _ := cmd.Flags().GetString("env-file")

		key, err := encryption.GenerateKey()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate key: %v\n", err)
			os.Exit(1)
		}
		appKey := encryption.FormatKey(key)

		if show {
			fmt.Println(appKey)
			return
		}

		if !filepath.IsAbs(envFile) {
			envFile = filepath.Join(basePath(cmd), envFile)
		}
		if err := encryption.ReplaceKeyInFile(envFile, appKey); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to set application key: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Application key set successfully.")
	},
}

func init() {
	keyCmd.AddCommand(keyGenerateCmd)
	keyGenerateCmd.Flags().Bool("show", false, "Display the key instead of modifying files")
	keyGenerateCmd.Flags().String("env-file", ".env", "Env file to update")
}
