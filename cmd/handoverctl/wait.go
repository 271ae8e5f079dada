package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/spf13/cobra"
)

// waitCmd represents the wait command
var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for the server to be ready",
	Long: `Wait for the server to be ready by polling the health endpoint.

This command will repeatedly check /api/health until it responds
successfully or the maximum number of retries is reached.

Example:
  handoverctl wait
  handoverctl wait --port 3000 --retries 60`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")
		retries, _ := cmd.Flags().GetUint("retries")

		if err := waitForServer(cmd.Context(), fmt.Sprintf("http://localhost:%d/api/health", port), retries, time.Second); err != nil {
			return fmt.Errorf("server did not become ready: %w", err)
		}
		fmt.Println("Handover tracker is ready")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(waitCmd)
	waitCmd.Flags().IntP("port", "p", 8000, "Server port to check")
	waitCmd.Flags().UintP("retries", "r", 90, "Number of retries")
}

func waitForServer(ctx context.Context, url string, retries uint, delay time.Duration) error {
	if ctx == nil {
		ctx = context.Background()
	}
	client := &http.Client{Timeout: 2 * time.Second}

	fmt.Println("Waiting for the handover tracker to be ready...")
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			_ = resp.Body.Close()
			if resp.StatusCode >= 300 {
				return fmt.Errorf("health check returned %d", resp.StatusCode)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(retries),
		retry.Delay(delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(uint, error) { fmt.Print(".") }),
	)
	fmt.Println()
	return err
}
