package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superdash/internal/cache"
	"superdash/internal/core"
	"superdash/internal/export"
	"superdash/internal/ui"
)

func newTestState(t *testing.T) *State {
	t.Helper()
	tbl, err := core.NewTable(
		[]string{"Row.ID", "Category", "Sales", "Region", "Sub.Category", "Profit"},
		[][]string{
			{"1", "Tech", "100", "West", "Phones", "10"},
			{"2", "Tech", "50", "West", "Phones", "5"},
			{"3", "Tech", "30", "East", "Tablets", "3"},
			{"4", "Office", "20.5", "East", "Paper", ""},
		},
	)
	require.NoError(t, err)
	s, err := New(context.Background(), tbl)
	require.NoError(t, err)
	return s
}

func TestNewComputesSummaries(t *testing.T) {
	s := newTestState(t)

	aggs := s.Aggregations()
	require.Len(t, aggs, 3)
	assert.Equal(t, []core.Group{{Key: "Office", Value: 20.5}, {Key: "Tech", Value: 180}}, aggs[0].Groups)
	assert.Equal(t, []core.Group{{Key: "East", Value: 50.5}, {Key: "West", Value: 150}}, aggs[1].Groups)
	assert.Equal(t, []core.Group{{Key: "Paper", Value: 0}, {Key: "Phones", Value: 15}, {Key: "Tablets", Value: 3}}, aggs[2].Groups)

	assert.Equal(t, []string{"Tech", "Office"}, s.Categories())
	assert.Equal(t, []string{"West", "East"}, s.Regions())
	assert.Equal(t, Selection{Category: "Tech", Region: "West"}, s.DefaultSelection())
}

func TestNewNilTable(t *testing.T) {
	_, err := New(context.Background(), nil)
	assert.Error(t, err)
}

func TestStaticChart(t *testing.T) {
	s := newTestState(t)

	assert.Equal(t, []string{ChartSalesByCategory, ChartSalesByRegion, ChartProfitBySubcategory}, s.ChartIDs())

	c, err := s.StaticChart(ChartSalesByRegion)
	require.NoError(t, err)
	assert.Equal(t, core.ChartBar, c.Kind)
	assert.Equal(t, "Total Sales by Region", c.Title)
	require.Len(t, c.Points, 2)

	c.Points[0].Y = -1
	again, err := s.StaticChart(ChartSalesByRegion)
	require.NoError(t, err)
	assert.Equal(t, 50.5, again.Points[0].Y, "callers cannot mutate shared charts")

	_, err = s.StaticChart("nope")
	assert.ErrorIs(t, err, ErrUnknownChart)
}

func TestUpdateTechWest(t *testing.T) {
	s := newTestState(t)

	node, err := s.Update(context.Background(), Selection{Category: "Tech", Region: "West"})
	require.NoError(t, err)
	assert.Equal(t, ui.KindDiv, node.Kind)
	assert.Equal(t, IDScrollTarget, node.ID)
	require.Len(t, node.Children, 2)

	heading := node.Children[0]
	assert.Equal(t, ui.KindH2, heading.Kind)
	assert.Equal(t, "Sales Distribution for Tech in West", heading.Text)

	graph, ok := node.Find(IDDistributionGraph)
	require.True(t, ok)
	require.NotNil(t, graph.Figure)
	fig := graph.Figure
	assert.Equal(t, "Sales Distribution for Tech in West", fig.Title)
	assert.Equal(t, core.ChartLine, fig.Kind)
	assert.True(t, fig.Markers)
	assert.Equal(t, core.FieldRegion, fig.ColorBy)
	assert.Equal(t, 400, fig.Height)
	assert.Equal(t, []core.Point{
		{X: "Phones", Y: 100, Group: "West"},
		{X: "Phones", Y: 50, Group: "West"},
	}, fig.Points, "rows are plotted individually, not summed")
	assert.Equal(t, "/charts/sales-distribution.png?category=Tech&region=West", graph.ImageURL)
}

func TestUpdateDeterministic(t *testing.T) {
	s := newTestState(t)
	sel := Selection{Category: "Tech", Region: "East"}

	first, err := s.Update(context.Background(), sel)
	require.NoError(t, err)
	second, err := s.Update(context.Background(), sel)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Update not deterministic (-first +second):\n%s", diff)
	}
}

func TestUpdateEmptySubset(t *testing.T) {
	s := newTestState(t)

	node, err := s.Update(context.Background(), Selection{Category: "Office", Region: "West"})
	require.NoError(t, err)
	graph, ok := node.Find(IDDistributionGraph)
	require.True(t, ok)
	assert.Empty(t, graph.Figure.Points)
	assert.Equal(t, "Sales Distribution for Office in West", graph.Figure.Title)
}

func TestSalesDistributionUnknownValue(t *testing.T) {
	s := newTestState(t)

	fig, err := SalesDistribution(s.Table(), Selection{Category: "Tech", Region: "North"})
	require.NoError(t, err)
	assert.Empty(t, fig.Points)
	assert.Equal(t, "Sales Distribution for Tech in North", fig.Title)
}

func TestUpdateRejectsUnknownSelection(t *testing.T) {
	s := newTestState(t)

	tests := []struct {
		sel   Selection
		field string
	}{
		{Selection{Category: "Tech", Region: "North"}, core.FieldRegion},
		{Selection{Category: "Toys", Region: "West"}, core.FieldCategory},
		{Selection{}, core.FieldCategory},
	}
	for _, tt := range tests {
		_, err := s.Update(context.Background(), tt.sel)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidSelection)

		var selErr *SelectionError
		require.True(t, errors.As(err, &selErr))
		assert.Equal(t, tt.field, selErr.Field)
	}
}

func TestUpdateCanceled(t *testing.T) {
	s := newTestState(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Update(ctx, s.DefaultSelection())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExportGating(t *testing.T) {
	s := newTestState(t)

	for _, clicks := range []int{0, -1} {
		p, err := s.Export(clicks, export.FormatCSV)
		require.NoError(t, err)
		assert.Nil(t, p, "clicks=%d", clicks)
	}

	for _, clicks := range []int{1, 7} {
		p, err := s.Export(clicks, export.FormatCSV)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, s.Table().Len(), p.Rows)
		assert.Equal(t, "filtered_data.csv", p.FileName)
	}
}

func TestLayout(t *testing.T) {
	s := newTestState(t)
	page := s.Layout()

	assert.Equal(t, PageTitle, page.Children[0].Text)

	for _, id := range []string{
		IDCategoryDropdown, IDRegionDropdown, IDOutputContainer, IDScrollContainer,
		IDDownloadButton, IDDownloadData,
		ChartSalesByCategory, ChartSalesByRegion, ChartProfitBySubcategory,
	} {
		_, ok := page.Find(id)
		assert.True(t, ok, "missing %s", id)
	}

	cat, _ := page.Find(IDCategoryDropdown)
	assert.Equal(t, "Tech", cat.Value)
	assert.False(t, cat.Clearable)
	assert.Equal(t, []ui.Option{{Label: "Tech", Value: "Tech"}, {Label: "Office", Value: "Office"}}, cat.Options)

	region, _ := page.Find(IDRegionDropdown)
	assert.Equal(t, "West", region.Value)

	scroll, _ := page.Find(IDScrollContainer)
	assert.Empty(t, scroll.Children)

	_, ok := page.Find(IDScrollTarget)
	assert.False(t, ok, "scroll target only exists after an update")
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()
	noop := func(context.Context, []string) (Result, error) { return Result{}, nil }
	out := Dependency{ComponentID: "a", Property: "children"}

	require.NoError(t, r.Register(Callback{Inputs: []Dependency{{ComponentID: "b", Property: "value"}}, Output: out, Handler: noop}))
	err := r.Register(Callback{Inputs: []Dependency{{ComponentID: "c", Property: "value"}}, Output: out, Handler: noop})
	assert.ErrorIs(t, err, ErrDuplicateOutput)

	assert.Error(t, r.Register(Callback{Output: Dependency{ComponentID: "x", Property: "y"}, Handler: noop}))
	assert.Error(t, r.Register(Callback{Inputs: []Dependency{{ComponentID: "b", Property: "value"}}, Output: Dependency{ComponentID: "x", Property: "y"}}))
	assert.Equal(t, []string{"a.children"}, r.Outputs())
}

func TestRegistryRejectsMalformedDependency(t *testing.T) {
	r := NewRegistry()
	noop := func(context.Context, []string) (Result, error) { return Result{}, nil }

	for _, cb := range []Callback{
		{Inputs: []Dependency{{ComponentID: "", Property: "value"}}, Output: Dependency{ComponentID: "a", Property: "children"}, Handler: noop},
		{Inputs: []Dependency{{ComponentID: "b", Property: "data.format"}}, Output: Dependency{ComponentID: "a", Property: "children"}, Handler: noop},
		{Inputs: []Dependency{{ComponentID: "b", Property: "value"}}, Output: Dependency{ComponentID: "a"}, Handler: noop},
	} {
		assert.Error(t, r.Register(cb))
	}
	assert.Empty(t, r.Outputs())
}

func TestParseDependency(t *testing.T) {
	d, err := ParseDependency("download-button.n_clicks")
	require.NoError(t, err)
	assert.Equal(t, Dependency{ComponentID: "download-button", Property: "n_clicks"}, d)

	for _, bad := range []string{"", "nodot", ".value", "id."} {
		_, err := ParseDependency(bad)
		assert.Error(t, err, bad)
	}
}

func TestCallbacksDispatch(t *testing.T) {
	s := newTestState(t)
	payloads := cache.NewLRUCache[*export.Payload](4, 0)
	r, err := s.Callbacks(export.FormatCSV, payloads)
	require.NoError(t, err)
	assert.Equal(t, []string{"scroll-container.children", "download-data.data"}, r.Outputs())

	ctx := context.Background()

	t.Run("distribution", func(t *testing.T) {
		res, err := r.Dispatch(ctx, OutputDistribution.String(), map[string]string{
			"category-dropdown.value": "Tech",
			"region-dropdown.value":   "West",
		}, true)
		require.NoError(t, err)
		require.NotNil(t, res.Node)
		assert.Equal(t, IDScrollTarget, res.Node.ID)
	})

	t.Run("missing input", func(t *testing.T) {
		_, err := r.Dispatch(ctx, OutputDistribution.String(), map[string]string{
			"category-dropdown.value": "Tech",
		}, false)
		assert.ErrorIs(t, err, ErrMissingInput)
	})

	t.Run("unknown output", func(t *testing.T) {
		_, err := r.Dispatch(ctx, "nowhere.children", nil, false)
		assert.ErrorIs(t, err, ErrUnknownOutput)
	})

	t.Run("download skipped on initial call", func(t *testing.T) {
		res, err := r.Dispatch(ctx, OutputDownload.String(), map[string]string{
			"download-button.n_clicks": "3",
			"download-data.format":     "",
		}, true)
		require.NoError(t, err)
		assert.True(t, res.IsEmpty())
	})

	t.Run("download without clicks", func(t *testing.T) {
		res, err := r.Dispatch(ctx, OutputDownload.String(), map[string]string{
			"download-button.n_clicks": "",
			"download-data.format":     "",
		}, false)
		require.NoError(t, err)
		assert.True(t, res.IsEmpty())
		assert.Equal(t, 0, payloads.Size())
	})

	t.Run("download is cached per format", func(t *testing.T) {
		values := map[string]string{
			"download-button.n_clicks": "1",
			"download-data.format":     "xlsx",
		}
		first, err := r.Dispatch(ctx, OutputDownload.String(), values, false)
		require.NoError(t, err)
		require.NotNil(t, first.Download)
		assert.Equal(t, "filtered_data.xlsx", first.Download.FileName)

		values["download-button.n_clicks"] = "2"
		second, err := r.Dispatch(ctx, OutputDownload.String(), values, false)
		require.NoError(t, err)
		assert.Same(t, first.Download, second.Download)
		assert.Equal(t, 1, payloads.Size())
	})

	t.Run("bad clicks", func(t *testing.T) {
		_, err := r.Dispatch(ctx, OutputDownload.String(), map[string]string{
			"download-button.n_clicks": "many",
			"download-data.format":     "",
		}, false)
		assert.Error(t, err)
	})

	t.Run("bad format", func(t *testing.T) {
		_, err := r.Dispatch(ctx, OutputDownload.String(), map[string]string{
			"download-button.n_clicks": "1",
			"download-data.format":     "pdf",
		}, false)
		assert.ErrorIs(t, err, export.ErrUnknownFormat)
	})
}
