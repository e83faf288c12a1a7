package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "giftsync",
	Short: "GiftSync - shared gift lists over HTTP and Telegram",
	Long: `GiftSync keeps gift lists with price ranges and retailer links, shares
them with invited collaborators and opens the chosen store links in bulk.

Configuration is read from the environment (and a .env file when present).

Examples:
  # Run the API and the Telegram bot against an in-memory store
  DATABASE_URL=memory JWT_SECRET=dev giftsync serve

  # Apply pending migrations
  giftsync migrate up`,
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(newServeCmd(), newMigrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
