package main

import (
	"github.com/spf13/cobra"
	"spyglass-hq/spyglass/pkg/cli"
	"spyglass-hq/spyglass/pkg/tui"
)

var tuiFlags struct {
	controlURL string
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the terminal dashboard",
	Long: `Open the terminal dashboard against a running Spyglass proxy.

The dashboard polls the control API for live stats, upstream health,
and transaction history. It is a pure consumer: the only action it can
take is replaying a stored transaction.

Examples:
  # Connect to the default control address
  spyglass tui

  # Connect to a proxy on another host
  spyglass tui --control-url http://10.0.0.5:9000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := tui.Run(tuiFlags.controlURL); err != nil {
			return cli.NewCommandError("tui", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)

	tuiCmd.Flags().StringVar(&tuiFlags.controlURL, "control-url", "http://127.0.0.1:9000", "control API base URL")
}
