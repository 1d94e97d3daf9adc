package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"

	"superdash/internal/core"
	"superdash/internal/ui"
)

// ErrInvalidSelection is matched by every *SelectionError.
var ErrInvalidSelection = errors.New("invalid selection")

// Selection is the pair of dropdown values driving the dynamic chart.
type Selection struct {
	Category string
	Region   string
}

// SelectionError reports a filter value that was never offered by the page.
type SelectionError struct {
	Field string
	Value string
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("invalid selection: %s %q is not a known value", e.Field, e.Value)
}

func (e *SelectionError) Is(target error) bool { return target == ErrInvalidSelection }

// Validate checks both values against the distinct sets observed at load.
func (s *State) Validate(sel Selection) error {
	if !slices.Contains(s.categories, sel.Category) {
		return &SelectionError{Field: core.FieldCategory, Value: sel.Category}
	}
	if !slices.Contains(s.regions, sel.Region) {
		return &SelectionError{Field: core.FieldRegion, Value: sel.Region}
	}
	return nil
}

// DistributionTitle is the chart and heading title for sel.
func DistributionTitle(sel Selection) string {
	return fmt.Sprintf("Sales Distribution for %s in %s", sel.Category, sel.Region)
}

// SalesDistribution plots Sales against Sub.Category for every row matching
// sel, in row order. Rows are not summed: repeated sub-categories appear as
// adjacent points. No matching rows gives a chart with no points.
func SalesDistribution(t *core.Table, sel Selection) (core.Chart, error) {
	idx, err := t.Where(map[string]string{
		core.FieldCategory: sel.Category,
		core.FieldRegion:   sel.Region,
	})
	if err != nil {
		return core.Chart{}, fmt.Errorf("filter rows: %w", err)
	}

	points := make([]core.Point, 0, len(idx))
	for _, i := range idx {
		sub, err := t.Value(i, core.FieldSubCategory)
		if err != nil {
			return core.Chart{}, err
		}
		sales, err := t.Metric(i, core.FieldSales)
		if err != nil {
			return core.Chart{}, err
		}
		region, err := t.Value(i, core.FieldRegion)
		if err != nil {
			return core.Chart{}, err
		}
		points = append(points, core.Point{X: sub, Y: sales, Group: region})
	}

	return core.Chart{
		Kind:    core.ChartLine,
		Title:   DistributionTitle(sel),
		XLabel:  core.FieldSubCategory,
		YLabel:  core.FieldSales,
		ColorBy: core.FieldRegion,
		Markers: true,
		Height:  core.DefaultChartHeight,
		Style: core.ChartStyle{
			PlotBackground:  colorBackground,
			PaperBackground: colorBackground,
			FontColor:       "white",
		},
		Points: points,
	}, nil
}

// Chart validates sel and returns its sales distribution chart.
func (s *State) Chart(sel Selection) (core.Chart, error) {
	if err := s.Validate(sel); err != nil {
		return core.Chart{}, err
	}
	return SalesDistribution(s.table, sel)
}

// Update is the filter callback: it returns the scroll target holding a
// heading and the freshly built chart for sel.
func (s *State) Update(ctx context.Context, sel Selection) (ui.Node, error) {
	if err := ctx.Err(); err != nil {
		return ui.Node{}, err
	}
	fig, err := s.Chart(sel)
	if err != nil {
		return ui.Node{}, err
	}
	title := DistributionTitle(sel)
	return ui.Div(IDScrollTarget, map[string]string{
		"padding":   "20px",
		"textAlign": "center",
		"borderTop": "2px solid " + colorText,
	},
		ui.Heading(2, title, map[string]string{"color": colorText}),
		ui.Graph(IDDistributionGraph, fig, DistributionImageURL(sel), map[string]string{"height": graphHeight}),
	), nil
}

// DistributionImageURL is where the PNG rendering of sel's chart is served.
func DistributionImageURL(sel Selection) string {
	q := url.Values{}
	q.Set("category", sel.Category)
	q.Set("region", sel.Region)
	return ChartImagePath(ChartSalesDistribution) + "?" + q.Encode()
}
