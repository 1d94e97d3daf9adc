package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"superdash/internal/core"
	"superdash/internal/dashboard"
)

func newSummaryCmd(a *app) *cobra.Command {
	var asYAML bool
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the dashboard's aggregated tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.loadTable(cmd)
			if err != nil {
				return err
			}
			st, err := dashboard.New(cmd.Context(), t)
			if err != nil {
				return err
			}
			if asYAML {
				return writeSummaryYAML(cmd.OutOrStdout(), st.Aggregations())
			}
			return writeSummary(cmd.OutOrStdout(), st.Aggregations())
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print YAML instead of tables")
	return cmd
}

func writeSummary(w io.Writer, aggs []core.Aggregation) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	for i, agg := range aggs {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "%s\t%s (%s)\t\n", agg.Spec.GroupBy, agg.Spec.Metric, agg.Spec.Op)
		for _, g := range agg.Groups {
			fmt.Fprintf(tw, "%s\t%.2f\t\n", g.Key, g.Value)
		}
		fmt.Fprintf(tw, "total\t%.2f\t\n", agg.Total())
	}
	return tw.Flush()
}

type summaryDoc struct {
	GroupBy string             `yaml:"group_by"`
	Metric  string             `yaml:"metric"`
	Op      string             `yaml:"op"`
	Groups  map[string]float64 `yaml:"groups"`
	Total   float64            `yaml:"total"`
}

func writeSummaryYAML(w io.Writer, aggs []core.Aggregation) error {
	docs := make([]summaryDoc, len(aggs))
	for i, agg := range aggs {
		groups := make(map[string]float64, len(agg.Groups))
		for _, g := range agg.Groups {
			groups[g.Key] = g.Value
		}
		docs[i] = summaryDoc{
			GroupBy: agg.Spec.GroupBy,
			Metric:  agg.Spec.Metric,
			Op:      agg.Spec.Op,
			Groups:  groups,
			Total:   agg.Total(),
		}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(docs); err != nil {
		return err
	}
	return enc.Close()
}
