package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"superdash/internal/export"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the dataset to a CSV or XLSX file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("format") {
				format = a.cfg.ExportFormat
			}
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			t, err := a.loadTable(cmd)
			if err != nil {
				return err
			}
			p, err := export.Encode(t, f)
			if err != nil {
				return err
			}
			if out == "" {
				out = p.FileName
			}
			if out == "-" {
				_, err = cmd.OutOrStdout().Write(p.Data)
				return err
			}
			if err := os.WriteFile(out, p.Data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			a.logger.Info("Dataset exported", "path", out, "rows", p.Rows, "bytes", len(p.Data))
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", p.Rows, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "Output format: csv or xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file, - for stdout (default filtered_data.<ext>)")
	return cmd
}
