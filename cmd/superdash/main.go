// Command superdash serves the Global Superstore dashboard and offers
// offline helpers to import, export and summarise the dataset.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"superdash/internal/cli"
	"superdash/internal/config"
	"superdash/internal/core"
	"superdash/internal/dataset"
	"superdash/internal/log"
)

// app carries what PersistentPreRunE prepared for the subcommands.
type app struct {
	cfg    *config.Config
	logger *log.Logger

	configFile string
	logLevel   string
	dataSource string
	dataPath   string
	dbPath     string
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:           "superdash",
		Short:         "Global Superstore sales dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "YAML config file (or set "+config.EnvConfigFile+")")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&a.dataSource, "data-source", "", "Dataset source: csv, sqlite, sheets, memory")
	flags.StringVar(&a.dataPath, "data-path", "", "CSV file for the csv source")
	flags.StringVar(&a.dbPath, "db", "", "SQLite snapshot path")

	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newImportCmd(a))
	rootCmd.AddCommand(newExportCmd(a))
	rootCmd.AddCommand(newSummaryCmd(a))
	return rootCmd, a
}

// init loads .env, the config file and the environment, then applies
// flags that were set explicitly.
func (a *app) init(cmd *cobra.Command) error {
	cli.LoadEnvFile()
	if a.configFile != "" {
		if err := os.Setenv(config.EnvConfigFile, a.configFile); err != nil {
			return err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("data-source") {
		cfg.DataSource = a.dataSource
	}
	if flags.Changed("data-path") {
		cfg.DataPath = a.dataPath
	}
	if flags.Changed("db") {
		cfg.SQLiteDBPath = a.dbPath
	}
	if cmd.Name() == "import" {
		// import writes the snapshot, so the configured source is irrelevant.
		cfg.DataSource = "sqlite"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := cli.SetupLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	a.cfg, a.logger = cfg, logger
	return nil
}

// loadTable reads the configured source.
func (a *app) loadTable(cmd *cobra.Command) (*core.Table, error) {
	ctx := cmd.Context()
	opened, err := dataset.Open(ctx, cli.DatasetConfig(a.cfg), a.logger)
	if err != nil {
		return nil, err
	}
	defer opened.Close()
	return dataset.Load(ctx, opened.Source, a.logger)
}

func main() {
	rootCmd, _ := newRootCmd()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
