// Package cli implements the roomio command line: the gateway server, a stub
// billing backend for local work, and shortcuts over the billing operations.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "roomio",
	Short: "Roomio billing gateway and tools",
	Long: `roomio drives the Roomio billing backend: list and inspect invoices,
apply invoice templates, keep bearer tokens in redis and serve the billing
state gateway.

Configuration comes from the environment (and .env files):
  API_BASE_URL  - billing backend base URL (required)
  TOKEN_SECRET  - secret sealing stored tokens (required)
  REDIS_ADDR    - redis holding the sealed tokens`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command until it returns or a signal arrives.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Default().Error("command failed", slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("token", "", "Bearer token to use instead of the stored one")
	rootCmd.PersistentFlags().String("token-name", "", "Name of the stored token (default TOKEN_KEY)")
}
