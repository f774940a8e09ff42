// Package main provides the aggregator event intake service.
//
// It accepts batches of topic-keyed events over HTTP, deduplicates them by
// (topic, event_id), and persists each unique event exactly once to an
// embedded SQLite store.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/aggregator-io/aggregator/internal/api"
	"github.com/aggregator-io/aggregator/internal/app"
	"github.com/aggregator-io/aggregator/internal/storage"
	"github.com/aggregator-io/aggregator/internal/tuning"
)

// Version information.
const (
	version = "1.0.0-dev"
	name    = "aggregator"
)

func main() {
	versionFlag := flag.Bool("version", false, "show version information")
	flag.Parse()

	if *versionFlag {
		log.Printf("%s v%s\n", name, version)
		os.Exit(0)
	}

	serverConfig := api.LoadServerConfig()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: serverConfig.LogLevel,
	}))

	logger.Info("Starting aggregator service",
		slog.String("service", name),
		slog.String("version", version),
	)

	tuningConfig, err := tuning.LoadConfigFromEnv()
	if err != nil {
		logger.Error("Failed to load tuning config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Loaded server configuration",
		slog.String("host", serverConfig.Host),
		slog.Int("port", serverConfig.Port),
		slog.Duration("read_timeout", serverConfig.ReadTimeout),
		slog.Duration("write_timeout", serverConfig.WriteTimeout),
		slog.Duration("shutdown_timeout", serverConfig.ShutdownTimeout),
		slog.String("log_level", serverConfig.LogLevel.String()),
	)

	logger.Info("Loaded pipeline tuning",
		slog.Int("queue_capacity", tuningConfig.QueueCapacity),
		slog.Int("consumer_max_retries", tuningConfig.ConsumerMaxRetries),
		slog.Duration("consumer_retry_backoff", tuningConfig.ConsumerRetryBackoff),
		slog.Duration("shutdown_drain_timeout", tuningConfig.ShutdownDrainTimeout),
		slog.Duration("db_busy_timeout", tuningConfig.DBBusyTimeout),
	)

	dbPath := storage.ResolvePath()

	logger.Info("Resolved database path", slog.String("path", dbPath))

	ctx, err := app.New(dbPath, tuningConfig, &serverConfig, logger)
	if err != nil {
		logger.Error("Failed to initialize application context", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := ctx.Run(); err != nil {
		logger.Error("Aggregator service failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Aggregator service stopped")
}
