package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mediamind-ai/mediamind/pkg/encryption"
	"github.com/mediamind-ai/mediamind/pkg/foundation"
	"github.com/mediamind-ai/mediamind/pkg/site"
)

// keyTestCmd represents the key test command
var keyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Check that APP_KEY can encrypt and decrypt",
	Long: `Check that APP_KEY can encrypt and decrypt.

Encrypts a sample value with the configured key, decrypts it again and
reports the cipher in use.`,
	Run: func(cmd *cobra.Command, args []string) {
		app, _, err := configure(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
		if err := app.Register(&site.EncryptionServiceProvider{}); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to register encryption: %v\n", err)
			os.Exit(1)
		}

		e, err := foundation.Resolve[*encryption.Encrypter](app.Container, foundation.ServiceEncrypter)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid application key: %v\n", err)
			os.Exit(1)
		}
		if err := roundTrip(e); err != nil {
			fmt.Fprintf(os.Stderr, "Key test failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Application key is valid (%s, %d bytes)\n", e.Cipher(), e.KeyLength())
	},
}

func init() {
	keyCmd.AddCommand(keyTestCmd)
}

func roundTrip(e *encryption.Encrypter) error {
	const sample = "mediamind"
	payload, err := e.EncryptString(sample)
	if err != nil {
		return err
	}
	out, err := e.DecryptString(payload)
	if err != nil {
		return err
	}
	if out != sample {
		return fmt.Errorf("decrypted %q, want %q", out, sample)
	}
	return nil
}
