// Command export-audit consumes export events from AMQP and records them
// in the SQLite audit table.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"superdash/internal/amqp"
	"superdash/internal/cli"
	"superdash/internal/config"
	"superdash/internal/dataset/sqlite"
	"superdash/internal/log"
	"superdash/internal/worker"
)

const reportInterval = time.Hour

// errNoBroker is returned when the worker is started without AMQP_URL.
var errNoBroker = errors.New("AMQP_URL is required for the export audit worker")

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		log.New(log.DefaultConfig()).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger, err := cli.SetupLogger(cfg, nil)
	if err != nil {
		log.New(log.DefaultConfig()).Error("Logger setup failed", log.FieldError, err)
		os.Exit(1)
	}
	logger = logger.WithComponent(log.ComponentWorker)

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("Export-audit worker failed", log.FieldError, err)
		os.Exit(1)
	}
}

// run owns every resource it opens, so deferred cleanup always happens
// before main decides the exit code.
func run(parent context.Context, cfg *config.Config, logger *log.Logger) error {
	if !cfg.AMQPEnabled() {
		return errNoBroker
	}

	ctx, cancel := cli.GracefulShutdown(parent, logger)
	defer cancel()

	store, err := sqlite.Open(ctx, cfg.SQLiteDBPath)
	if err != nil {
		return fmt.Errorf("open audit database %s: %w", cfg.SQLiteDBPath, err)
	}
	defer store.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		return fmt.Errorf("initialize AMQP client: %w", err)
	}
	defer client.Close()

	auditor := worker.NewAuditWorker(store, logger)
	go auditor.ReportEvery(ctx, reportInterval)

	logger.Info("Starting export-audit worker", "queue", cfg.AMQPQueue, "db_path", cfg.SQLiteDBPath)
	err = client.ConsumeExports(ctx, auditor.HandleExport)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("consume exports: %w", err)
	}

	stats := auditor.Stats()
	if err := auditor.LogTotals(context.Background()); err != nil {
		logger.Warn("Failed to read export totals", log.FieldError, err)
	}
	logger.Info("Export-audit worker stopped", "received", stats.Received, "duplicates", stats.Duplicates)
	return nil
}
