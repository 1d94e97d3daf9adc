// Package cli holds the start-up steps shared by cmd/superdash and
// cmd/export-audit.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"superdash/internal/config"
	"superdash/internal/dashboard"
	"superdash/internal/dataset"
	"superdash/internal/dataset/google"
	"superdash/internal/log"
)

// SetupLogger builds the process logger from cfg and installs it as the
// slog default. out defaults to stdout.
func SetupLogger(cfg *config.Config, out io.Writer) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = os.Stdout
	}
	logger := log.New(log.Config{
		Level:     level,
		Component: log.ComponentApp,
		Format:    cfg.LogFormat,
		Output:    out,
	})
	log.SetDefault(logger)
	return logger, nil
}

// LoadEnvFile loads .env files for local development. A missing file is
// not an error.
func LoadEnvFile(paths ...string) {
	_ = godotenv.Load(paths...)
}

// LoadAndValidateConfig loads the configuration and checks it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DatasetConfig maps cfg onto the dataset factory's settings.
func DatasetConfig(cfg *config.Config) dataset.Config {
	return dataset.Config{
		Kind:         dataset.Kind(cfg.DataSource),
		CSVPath:      cfg.DataPath,
		SQLiteDBPath: cfg.SQLiteDBPath,
		Sheets: google.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			Range:           cfg.GoogleSheetRange,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		},
	}
}

// OpenState loads the configured dataset and builds the dashboard state.
// The source is released before returning; the state holds the table.
func OpenState(ctx context.Context, cfg *config.Config, logger *log.Logger) (*dashboard.State, error) {
	opened, err := dataset.Open(ctx, DatasetConfig(cfg), logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := opened.Close(); err != nil {
			logger.Warn("Failed to close data source", log.FieldError, err)
		}
	}()

	t, err := dataset.Load(ctx, opened.Source, logger)
	if err != nil {
		return nil, err
	}
	st, err := dashboard.New(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("build dashboard: %w", err)
	}
	logger.Info("Dashboard ready",
		log.FieldRows, t.Len(),
		"categories", len(st.Categories()),
		"regions", len(st.Regions()))
	return st, nil
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM, or
// when the returned cancel func is called.
func GracefulShutdown(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
