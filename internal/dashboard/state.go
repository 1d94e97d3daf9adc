// Package dashboard holds the loaded dataset, its precomputed summaries and
// the handlers that turn filter selections and button presses into page
// updates and downloads.
package dashboard

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"superdash/internal/core"
)

// Static chart IDs, also used as image and JSON endpoint names.
const (
	ChartSalesByCategory     = "sales-by-category"
	ChartSalesByRegion       = "sales-by-region"
	ChartProfitBySubcategory = "profit-by-subcategory"
)

type staticChart struct {
	id    string
	title string
	spec  core.AggregateSpec
}

var staticCharts = []staticChart{
	{ChartSalesByCategory, "Total Sales by Category", core.DashboardSpecs[0]},
	{ChartSalesByRegion, "Total Sales by Region", core.DashboardSpecs[1]},
	{ChartProfitBySubcategory, "Total Profit by Sub-Category", core.DashboardSpecs[2]},
}

// ErrUnknownChart is returned for a static chart ID that does not exist.
var ErrUnknownChart = errors.New("unknown chart")

// State is the process-wide context built once at startup. Nothing in it
// changes afterwards, so handlers may share it across goroutines.
type State struct {
	table        *core.Table
	aggregations []core.Aggregation
	charts       []core.Chart
	chartIndex   map[string]int
	categories   []string
	regions      []string
}

// New computes the summaries and static charts for t. The three summaries
// are independent reads of t and run concurrently.
func New(ctx context.Context, t *core.Table) (*State, error) {
	if t == nil {
		return nil, errors.New("dashboard: nil table")
	}
	s := &State{
		table:        t,
		aggregations: make([]core.Aggregation, len(staticCharts)),
		charts:       make([]core.Chart, len(staticCharts)),
		chartIndex:   make(map[string]int, len(staticCharts)),
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, sc := range staticCharts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			agg, err := core.Aggregate(t, sc.spec)
			if err != nil {
				return fmt.Errorf("aggregate %s by %s: %w", sc.spec.Metric, sc.spec.GroupBy, err)
			}
			s.aggregations[i] = agg
			s.charts[i] = core.BarChart(agg, sc.title)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, sc := range staticCharts {
		s.chartIndex[sc.id] = i
	}

	var err error
	if s.categories, err = t.Distinct(core.FieldCategory); err != nil {
		return nil, err
	}
	if s.regions, err = t.Distinct(core.FieldRegion); err != nil {
		return nil, err
	}
	return s, nil
}

// Table returns the loaded table.
func (s *State) Table() *core.Table { return s.table }

// Categories returns the selectable categories in first-seen order.
func (s *State) Categories() []string { return append([]string(nil), s.categories...) }

// Regions returns the selectable regions in first-seen order.
func (s *State) Regions() []string { return append([]string(nil), s.regions...) }

// DefaultSelection is the first category and the first region of the table.
// Both are empty when the table has no rows.
func (s *State) DefaultSelection() Selection {
	var sel Selection
	if len(s.categories) > 0 {
		sel.Category = s.categories[0]
	}
	if len(s.regions) > 0 {
		sel.Region = s.regions[0]
	}
	return sel
}

// Aggregations returns the three precomputed summaries.
func (s *State) Aggregations() []core.Aggregation {
	return append([]core.Aggregation(nil), s.aggregations...)
}

// ChartIDs lists the static chart IDs in page order.
func (s *State) ChartIDs() []string {
	ids := make([]string, len(staticCharts))
	for i, sc := range staticCharts {
		ids[i] = sc.id
	}
	return ids
}

// StaticChart returns the precomputed bar chart with the given ID.
func (s *State) StaticChart(id string) (core.Chart, error) {
	i, ok := s.chartIndex[id]
	if !ok {
		return core.Chart{}, fmt.Errorf("%w: %q", ErrUnknownChart, id)
	}
	c := s.charts[i]
	c.Points = append([]core.Point(nil), c.Points...)
	return c, nil
}
