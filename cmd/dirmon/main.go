package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	internal "github.com/ZanzyTHEbar/directory-monitor/dirmon"
	"github.com/ZanzyTHEbar/directory-monitor/dirmon/config"
	"github.com/ZanzyTHEbar/directory-monitor/dirmon/db"
	"github.com/ZanzyTHEbar/directory-monitor/dirmon/eventlog"
	"github.com/ZanzyTHEbar/directory-monitor/dirmon/filesystem/common"
	"github.com/ZanzyTHEbar/directory-monitor/dirmon/filesystem/watcher"
	"github.com/ZanzyTHEbar/directory-monitor/dirmon/logging"
	"github.com/ZanzyTHEbar/directory-monitor/dirmon/metrics"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/pflag"
)

func main() {
	flags := config.NewFlagSet(internal.DefaultAppName)
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("invalid arguments: %v", err)
	}
	configPath, _ := flags.GetString("config")

	// Load configuration
	cfg, err := config.LoadConfig(configPath, flags)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logging.SetupLogger(cfg.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Directory monitor terminated", "error", err)
		fmt.Fprintf(os.Stderr, "[!] Monitoring terminated: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("\n[*] Monitoring stopped by user.")
}

func run(ctx context.Context, cfg *config.Config) error {
	if err := setupEnvironment(cfg); err != nil {
		return err
	}

	processor, store, err := buildProcessor(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := processor.Close(); err != nil {
			slog.Error("Failed to close event sinks", "error", err)
		}
	}()

	recorder := metrics.NewRecorder()
	poller, err := watcher.NewWatcher(watcher.WatcherConfig{
		Directory:               cfg.Monitor.Directory,
		Interval:                cfg.Monitor.Interval(),
		WorkerCount:             cfg.Monitor.Workers,
		RetryUnavailable:        cfg.Monitor.OnUnavailable == "retry",
		NumericIdentityFallback: cfg.Identity.NumericFallback,
	}, processor, recorder)
	if err != nil {
		return err
	}

	fmt.Printf("[*] Monitoring started on %s (every %s)...\n", common.NewPathUtils().NormalizePath(cfg.Monitor.Directory), cfg.Monitor.Interval())

	p := pool.New().WithErrors().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		return poller.Run(ctx)
	})
	if cfg.Metrics.Enabled {
		p.Go(func(ctx context.Context) error {
			return recorder.Serve(ctx, cfg.Metrics.Address)
		})
	}
	err = p.Wait()

	logSummary(context.WithoutCancel(ctx), slog.Default(), poller, processor, store)
	return err
}

// setupEnvironment makes sure the monitored directory exists before the
// first scan.
func setupEnvironment(cfg *config.Config) error {
	pu := common.NewPathUtils()
	dir := cfg.Monitor.Directory

	if !cfg.Monitor.CreateDirectory {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("%w: %s", common.ErrDirectoryUnavailable, dir)
		}
		return nil
	}

	created, err := pu.EnsureDirectory(dir)
	if err != nil {
		return common.NewErrorUtils().LogAndWrapError(err, slog.LevelError, "failed to prepare monitored directory %s", dir)
	}
	if created {
		fmt.Printf("[SETUP] Created directory: %s\n", dir)
	}
	return nil
}

// buildProcessor opens every configured sink. store is nil unless the
// database is enabled.
func buildProcessor(cfg *config.Config) (*watcher.SinkProcessor, *db.EventStore, error) {
	format, err := eventlog.ParseFormat(cfg.EventLog.Format)
	if err != nil {
		return nil, nil, err
	}

	csvSink, result, err := eventlog.OpenCSV(cfg.EventLog.Path, format)
	if err != nil {
		return nil, nil, err
	}
	if result.CreatedFile {
		fmt.Printf("[SETUP] Created log file: %s\n", cfg.EventLog.Path)
	}

	sinks := []watcher.EventSink{csvSink}

	var store *db.EventStore
	if cfg.Database.Enabled {
		store, err = db.OpenEventStore(cfg.Database.DSN)
		if err != nil {
			csvSink.Close()
			return nil, nil, common.NewErrorUtils().WrapError(err, "failed to open event store %s", cfg.Database.DSN)
		}
		slog.Info("Recording events to database", "run_id", store.RunID())
		sinks = append(sinks, store)
	}

	if cfg.EventLog.Console {
		sinks = append(sinks, eventlog.NewConsoleSink(internal.GetConsoleLogger()))
	}

	return watcher.NewSinkProcessor(sinks...), store, nil
}
