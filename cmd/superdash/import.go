package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"superdash/internal/dataset"
	"superdash/internal/dataset/csvfile"
	"superdash/internal/dataset/sqlite"
	"superdash/internal/log"
)

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import [file.csv]",
		Short: "Load a CSV file into the SQLite snapshot",
		Long: `Reads a superstore CSV export, checks it, and replaces the SQLite
snapshot used by --data-source sqlite. Without an argument the configured
DATA_PATH is imported.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.DataPath
			if len(args) == 1 {
				path = args[0]
			}
			ctx := cmd.Context()

			src := csvfile.New(path)
			t, err := dataset.Load(ctx, src, a.logger)
			if err != nil {
				return err
			}

			store, err := sqlite.Open(ctx, a.cfg.SQLiteDBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Import(ctx, t, src.Name()); err != nil {
				return err
			}
			a.logger.Info("Snapshot imported",
				log.FieldOperation, log.OpImport,
				log.FieldSource, src.Name(),
				log.FieldRows, t.Len(),
				"db_path", a.cfg.SQLiteDBPath)
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d rows (%d columns) into %s\n",
				t.Len(), len(t.Header()), a.cfg.SQLiteDBPath)
			return nil
		},
	}
}
