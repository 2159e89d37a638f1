// Package main provides the entry point for the wishlist sync CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "wishlist_sync",
	Short: "Keep WoWAudit wishlists fresh with Raidbots Droptimizer sims",
	Long: `wishlist_sync reads the team roster and wishlist history from WoWAudit, launches a
Raidbots Droptimizer sim for every stale (character, raid, difficulty) cell and uploads
the finished reports back to WoWAudit.`,
	SilenceUsage: true,
}

var verbose bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
