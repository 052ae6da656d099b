// Package cmd provides the CLI commands of the account dashboard.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Account dashboard session and profile service",
	Long: `Account dashboard keeps each connected client's session, navigation and
profile in step with the identity provider and the profile store.

Configuration is read from the environment (PORT, JWT_SECRET, MONGO_URI,
REDIS_ADDR, SESSION_TTL, CLIENT_IDLE_TTL, DISPATCH_WORKERS, LOGIN_RATE, ...).

Commands:
  serve       Start the HTTP server
  indexes     Create the MongoDB indexes and exit`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
