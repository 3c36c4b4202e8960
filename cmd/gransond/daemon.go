package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/granson-io/granson/internal/config"
	"github.com/granson-io/granson/internal/history"
	"github.com/granson-io/granson/internal/logging"
	"github.com/granson-io/granson/internal/metrics"
	"github.com/granson-io/granson/internal/store"
	"github.com/granson-io/granson/internal/sweep"
)

// loadConfig loads and validates configuration, from a file when path is set
// and from environment variables otherwise.
func loadConfig(path string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadFromPath(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func namingFrom(cfg *config.Config) store.Naming {
	return store.Naming{
		Prefix: cfg.Store.Naming.Prefix,
		Layout: cfg.Store.Naming.Layout,
		Suffix: cfg.Store.Naming.Suffix,
	}
}

// buildStore constructs the configured backup store backend.
func buildStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	naming := namingFrom(cfg)
	switch cfg.Store.Backend {
	case "local":
		return store.NewLocal(cfg.Store.Path, naming)
	case "s3":
		return store.NewS3(ctx, store.S3Config{
			Bucket:          cfg.Store.S3.Bucket,
			Region:          cfg.Store.S3.Region,
			Endpoint:        cfg.Store.S3.Endpoint,
			AccessKeyID:     cfg.Store.S3.AccessKey,
			SecretAccessKey: cfg.Store.S3.SecretKey,
			UsePathStyle:    cfg.Store.S3.UsePathStyle,
		}, naming)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func runSweep(args []string) {
	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	dryRun := fs.Bool("dry-run", false, "Report deletions without performing them (overrides config)")
	metricsAddr := fs.String("metrics-addr", "", "Override metrics listen address (e.g., :9191)")

	fs.Usage = func() {
		fmt.Println(`Usage: gransond sweep [options]

Start the sweep daemon. Enforces the retention policy against the configured
backup store on a cron schedule or fixed interval, and serves Prometheus
metrics.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *metricsAddr != "" {
		cfg.Observability.MetricsAddr = *metricsAddr
	}
	if *dryRun {
		cfg.Sweep.DryRun = true
	}

	logger := logging.Configure(cfg.Observability.LogLevel, cfg.Observability.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backupStore, err := buildStore(ctx, cfg)
	if err != nil {
		logger.Errorf("failed to create store", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer backupStore.Close()

	policy, err := cfg.Policy.Rotation()
	if err != nil {
		logger.Errorf("invalid policy", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	opts := sweep.Options{
		Store:    backupStore,
		Policy:   policy,
		Schedule: cfg.Sweep.Schedule,
		Interval: time.Duration(cfg.Sweep.IntervalMs) * time.Millisecond,
		DryRun:   cfg.Sweep.DryRun,
		Backend:  cfg.Store.Backend,
		Metrics:  metrics.NewSweepMetrics(),
		Logger:   logger,
	}

	if cfg.Sweep.HistoryPath != "" {
		runLog, err := history.Open(cfg.Sweep.HistoryPath)
		if err != nil {
			logger.Errorf("failed to open run history", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		defer runLog.Close()
		opts.History = runLog
	}

	sweeper, err := sweep.New(opts)
	if err != nil {
		logger.Errorf("failed to create sweeper", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	metricsServer := metrics.NewServer(cfg.Observability.MetricsAddr)
	if err := metricsServer.Start(); err != nil {
		logger.Errorf("failed to start metrics server", map[string]any{
			"addr":  cfg.Observability.MetricsAddr,
			"error": err.Error(),
		})
		os.Exit(1)
	}
	defer metricsServer.Close()

	// Hot-reload policy and dry-run edits when running from a config file.
	if *configPath != "" {
		watcher, err := config.NewWatcher(*configPath, logger)
		if err != nil {
			logger.Errorf("failed to watch config", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		go watcher.Watch(func(next *config.Config) {
			policy, err := next.Policy.Rotation()
			if err != nil {
				logger.Errorf("reloaded policy rejected", map[string]any{"error": err.Error()})
				return
			}
			sweeper.SetPolicy(policy)
			sweeper.SetDryRun(next.Sweep.DryRun)
		})
		defer watcher.Stop()
	}

	sweeper.Start()
	logger.Infof("sweep daemon started", map[string]any{
		"backend":      cfg.Store.Backend,
		"schedule":     cfg.Sweep.Schedule,
		"interval_ms":  cfg.Sweep.IntervalMs,
		"dry_run":      cfg.Sweep.DryRun,
		"metrics_addr": metricsServer.Addr(),
		"version":      version,
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Infof("received shutdown signal", map[string]any{"signal": sig.String()})

	sweeper.Stop()
	logger.Info("sweep daemon shutdown complete")
}
