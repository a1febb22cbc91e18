package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "spyglass",
	Short: "Spyglass - observable reverse proxy",
	Long: `Spyglass is a reverse proxy that routes HTTP requests to weighted
upstream backends and exposes every proxied exchange for inspection.

It provides:
  - Host and path-prefix routing with strip/rewrite rules
  - Weighted upstream selection that skips backends in cooldown
  - Passive health tracking driven by forwarding outcomes
  - A bounded transaction history with request replay
  - A loopback control API and a terminal dashboard`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "spyglass.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
