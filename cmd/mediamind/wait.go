package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// waitCmd represents the wait command
var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Block until the server reports healthy",
	Long: `Poll the /healthz endpoint once per interval until it answers 200.

With --require-db the database reported by /healthz must be "ok" as well,
which is useful in deploy scripts that run right after "db migrate".

Example:
  mediamind wait
  mediamind wait --host app --port 9000 --retries 60 --require-db`,
	Run: func(cmd *cobra.Command, args []string) {
		host, _ := cmd.Flags().GetString("host")
		port, _ := cmd.Flags().GetInt("port")
		retries, _ := cmd.Flags().GetInt("retries")
		interval, _ := cmd.Flags().GetDuration("interval")
		requireDB, _ := cmd.Flags().GetBool("require-db")

		if port == 0 {
			port = 8000
			if _, settings, err := configure(cmd); err == nil && settings.App.Port != 0 {
				port = settings.App.Port
			}
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		url := "http://" + net.JoinHostPort(host, strconv.Itoa(port)) + "/healthz"
		if err := waitHealthy(ctx, url, retries, interval, requireDB); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("MediaMind is ready")
	},
}

func init() {
	rootCmd.AddCommand(waitCmd)
	waitCmd.Flags().StringP("host", "H", "localhost", "Server host")
	waitCmd.Flags().IntP("port", "p", 0, "Server port (default APP_PORT)")
	waitCmd.Flags().IntP("retries", "r", 90, "Number of attempts")
	waitCmd.Flags().Duration("interval", time.Second, "Delay between attempts")
	waitCmd.Flags().Bool("require-db", false, "Also wait for the database to be reachable")
}

type healthReport struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// probeHealth reports whether url answered 200 and, when requireDB is
// set, whether the database was reported reachable
func probeHealth(ctx context.Context, client *http.Client, url string, requireDB bool) (bool, string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err.Error()
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, "unreachable"
	}
	defer func() { _ = resp.Body.Close() }()

	var report healthReport
	_ = json.NewDecoder(resp.Body).Decode(&report)
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Sprintf("status %d", resp.StatusCode)
	}
	if requireDB && report.Database != "ok" {
		return false, "database " + report.Database
	}
	return true, report.Status
}

func waitHealthy(ctx context.Context, url string, retries int, interval time.Duration, requireDB bool) error {
	client := &http.Client{Timeout: 2 * time.Second}
	fmt.Printf("Waiting for %s", url)

	last := "no attempts"
	for i := 0; i < retries; i++ {
		ok, state := probeHealth(ctx, client, url, requireDB)
		if ok {
			fmt.Println()
			return nil
		}
		last = state

		fmt.Print(".")
		select {
		case <-ctx.Done():
			fmt.Println()
			return ctx.Err()
		case <-time.After(interval):
		}
	}

	fmt.Println()
	return fmt.Errorf("server not ready after %d attempts (last: %s)", retries, last)
}
