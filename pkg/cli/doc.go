/*
Package cli provides command-line helpers shared by the spyglass command.

Error Types:

Commands wrap failures in typed errors so a caller can distinguish a bad
configuration from a failed operation:

	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError("routes", err.Error())
	}

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx := cli.SetupSignalHandler()
	// Use ctx for operations that should be cancelled on shutdown

The first signal cancels the context and starts the drain; a second
signal exits the process immediately.
*/
package cli
