package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"spyglass-hq/spyglass/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load a configuration file, apply defaults and environment overrides,
and report every validation error found.

The command exits non-zero if the configuration would be rejected by
"spyglass run". All problems are reported in one pass, not just the
first.

Examples:
  # Validate the default config file
  spyglass validate

  # Validate a specific file
  spyglass validate --config /etc/spyglass/spyglass.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		var validationErr config.ValidationError
		if errors.As(err, &validationErr) {
			fmt.Printf("✗ %s is invalid:\n", cfgFile)
			for _, fieldErr := range validationErr.Errors {
				fmt.Printf("  - %s: %s\n", fieldErr.Field, fieldErr.Message)
			}
			return fmt.Errorf("%d validation error(s)", len(validationErr.Errors))
		}
		return fmt.Errorf("failed to load %s: %w", cfgFile, err)
	}

	// The route table build re-parses upstream URLs; surface those errors
	// here too rather than at startup.
	table, err := cfg.RouteTable()
	if err != nil {
		return fmt.Errorf("route table invalid: %w", err)
	}

	fmt.Printf("✓ %s is valid\n", cfgFile)
	fmt.Printf("  listen:  %s\n", cfg.Listen)
	fmt.Printf("  control: %s\n", cfg.Control.Listen)
	fmt.Printf("  routes:  %d\n", len(table.Routes()))
	for _, route := range table.Routes() {
		fmt.Printf("    %-20s %v %s (%d upstreams)\n",
			route.Name, route.Hosts, route.PathPrefix, len(route.Upstreams))
	}
	return nil
}
