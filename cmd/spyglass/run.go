package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"spyglass-hq/spyglass/pkg/balancer"
	"spyglass-hq/spyglass/pkg/cli"
	"spyglass-hq/spyglass/pkg/config"
	"spyglass-hq/spyglass/pkg/control"
	"spyglass-hq/spyglass/pkg/health"
	"spyglass-hq/spyglass/pkg/proxy"
	"spyglass-hq/spyglass/pkg/server"
	"spyglass-hq/spyglass/pkg/telemetry/logging"
	"spyglass-hq/spyglass/pkg/telemetry/metrics"
	"spyglass-hq/spyglass/pkg/txstore"
	"spyglass-hq/spyglass/pkg/txstore/archive"
)

var runFlags struct {
	listenAddress  string
	controlAddress string
	logLevel       string
	dryRun         bool
	noWatch        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Spyglass proxy",
	Long: `Start the Spyglass proxy with the specified configuration.

The data plane listens on the configured address and forwards matched
requests to weighted upstreams; the control API serves transaction
history, health state, replay, and metrics on a separate listener.

Examples:
  # Start with default config
  spyglass run

  # Start with custom config
  spyglass run --config /etc/spyglass/spyglass.yaml

  # Override listen addresses
  spyglass run --listen 0.0.0.0:8080 --control-listen 127.0.0.1:9000

  # Validate config without starting
  spyglass run --dry-run`,
	RunE: runProxy,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override data-plane listen address")
	runCmd.Flags().StringVar(&runFlags.controlAddress, "control-listen", "", "override control API listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the proxy")
	runCmd.Flags().BoolVar(&runFlags.noWatch, "no-watch", false, "disable config hot reload")
}

func runProxy(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Listen = runFlags.listenAddress
	}
	if runFlags.controlAddress != "" {
		cfg.Control.Listen = runFlags.controlAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	if _, err := logging.Setup(logging.Config{
		Level:  cfg.Telemetry.Logging.Level,
		Format: cfg.Telemetry.Logging.Format,
	}); err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	printBanner(cfg)

	// Routing pipeline: table -> tracker -> balancer -> forwarder -> handler.
	table, err := cfg.RouteTable()
	if err != nil {
		return cli.NewConfigError("routes", err.Error())
	}

	strategy, err := balancer.NewStrategy(cfg.Proxy.Strategy)
	if err != nil {
		return cli.NewConfigError("proxy.strategy", err.Error())
	}

	tracker := health.NewTracker()
	store := txstore.New(cfg.Proxy.HistorySize)
	forwarder := proxy.NewForwarder(cfg.Proxy.UpstreamTimeout, cfg.Proxy.MaxIdleConnsPerUpstream)

	// SetTable reconciles the health tracker and transport pool with the
	// table's upstream set.
	pipeline := proxy.NewHandler(store, tracker, balancer.New(tracker, strategy), forwarder, cfg.Proxy.CaptureBodyLimit)
	pipeline.SetTable(table)

	fmt.Printf("✓ Route table loaded (%d routes, %d upstreams)\n", len(table.Routes()), len(table.Upstreams()))

	// Metrics. The collector exists even when disabled; its record methods
	// are no-ops and the handler is simply not mounted.
	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	store.OnFinalize(collector.RecordTransaction)
	collector.TrackActiveRequests(store.Outstanding)
	collector.TrackUpstreamHealth(tracker)

	var metricsHandler http.Handler
	if cfg.Telemetry.Metrics.Enabled {
		metricsHandler = collector.Handler()
	}

	ctx := cli.SetupSignalHandler()

	// Archive (if enabled)
	if cfg.Archive.Enabled {
		slog.Info("initializing transaction archive", "path", cfg.Archive.Path)

		archiveStore, err := archive.NewSQLiteStore(archive.SQLiteConfig{Path: cfg.Archive.Path})
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		defer archiveStore.Close()

		archiver := archive.NewArchiver(archiveStore, &archive.Config{
			BufferSize: cfg.Archive.BufferSize,
		})
		archiver.OnWrite(collector.RecordArchiveWrite)
		archiver.OnDrop(collector.RecordArchiveDrop)
		store.OnFinalize(archiver.Record)
		defer archiver.Close()

		if cfg.Archive.Retention.Schedule != "" {
			pruner := archive.NewPruner(archiveStore, cfg.Archive.Retention.Schedule, cfg.Archive.Retention.MaxAge)
			pruner.OnPruned(collector.RecordArchivePruned)
			if err := pruner.Start(ctx); err != nil {
				slog.Warn("failed to start archive pruner", "error", err)
			} else {
				defer pruner.Stop()
			}
		}

		fmt.Println("✓ Transaction archive initialized")
	}

	// Control API
	handlers := control.NewHandlers(store, tracker, pipeline)
	router := control.NewRouter(handlers, metricsHandler, cfg.Telemetry.Metrics.Path)

	srv := server.NewServer(cfg, pipeline, router)

	// Config hot reload: swap the route table in place. In-flight requests
	// keep the table snapshot they matched under; listeners are not rebound.
	if !runFlags.noWatch {
		watcher, err := config.NewWatcher(cfgFile, 500*time.Millisecond, slog.Default())
		if err != nil {
			slog.Warn("config watcher unavailable, hot reload disabled", "error", err)
		} else {
			go func() {
				err := watcher.Watch(ctx, func() error {
					return reloadRoutes(pipeline)
				})
				if err != nil {
					slog.Error("config watcher stopped", "error", err)
				}
			}()
			defer watcher.Stop()
		}
	}

	fmt.Println()
	fmt.Printf("✓ Proxy listening on %s\n", cfg.Listen)
	fmt.Printf("✓ Control API: http://%s\n", cfg.Control.Listen)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Printf("✓ Metrics: http://%s%s\n", cfg.Control.Listen, cfg.Telemetry.Metrics.Path)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Println("✓ Proxy stopped")
	return nil
}

// reloadRoutes loads the config file again and swaps the new route table
// into the running pipeline. A load or validation failure leaves the
// previous table in effect.
func reloadRoutes(pipeline *proxy.Handler) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return err
	}

	table, err := cfg.RouteTable()
	if err != nil {
		return err
	}

	// Health state and connection pools follow the upstream set: surviving
	// URLs keep their state, removed URLs are dropped, new ones start fresh.
	pipeline.SetTable(table)

	slog.Info("route table reloaded",
		"routes", len(table.Routes()),
		"upstreams", len(table.Upstreams()),
	)
	return nil
}

func printBanner(cfg *config.Config) {
	fmt.Printf("Spyglass v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	slog.Debug("configuration summary",
		"listen", cfg.Listen,
		"control_listen", cfg.Control.Listen,
		"routes", len(cfg.Routes),
		"strategy", cfg.Proxy.Strategy,
		"archive_enabled", cfg.Archive.Enabled,
	)
}
