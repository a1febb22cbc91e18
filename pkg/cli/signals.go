package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// SetupSignalHandler returns a context cancelled on the first SIGINT or
// SIGTERM. Cancellation starts graceful shutdown: the data plane drains
// in-flight requests while the config watcher and archive pruner stop. A
// second signal exits immediately, so a drain hanging on a slow upstream
// can still be interrupted from the terminal.
func SetupSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		slog.Info("shutdown signal received, draining", "signal", sig.String())
		cancel()

		sig = <-sigChan
		slog.Warn("second shutdown signal, exiting immediately", "signal", sig.String())
		os.Exit(1)
	}()

	return ctx
}
