package core

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate_SortedSums(t *testing.T) {
	tbl, err := NewTable(testHeader, testRows())
	require.NoError(t, err)

	agg, err := Aggregate(tbl, AggregateSpec{GroupBy: FieldCategory, Metric: FieldSales, Op: OpSum})
	require.NoError(t, err)
	assert.Equal(t, []Group{{Key: "Office", Value: 20.5}, {Key: "Tech", Value: 180}}, agg.Groups)

	agg, err = Aggregate(tbl, AggregateSpec{GroupBy: FieldSubCategory, Metric: FieldProfit, Op: OpSum})
	require.NoError(t, err)
	// Paper only has a blank profit: the key is present with a zero sum.
	assert.Equal(t, []Group{{Key: "Paper", Value: 0}, {Key: "Phones", Value: 5}, {Key: "Tablets", Value: 3}}, agg.Groups)

	v, ok := agg.Lookup("Phones")
	assert.True(t, ok)
	assert.Equal(t, 5.0, v)
	_, ok = agg.Lookup("Chairs")
	assert.False(t, ok, "keys without rows never appear")
}

func TestAggregate_Errors(t *testing.T) {
	tbl, err := NewTable(testHeader, testRows())
	require.NoError(t, err)

	_, err = Aggregate(tbl, AggregateSpec{GroupBy: FieldCategory, Metric: FieldSales, Op: "mean"})
	assert.Error(t, err)
	_, err = Aggregate(tbl, AggregateSpec{GroupBy: "Segment", Metric: FieldSales, Op: OpSum})
	assert.ErrorIs(t, err, ErrInvalidTable)
	_, err = Aggregate(tbl, AggregateSpec{GroupBy: FieldCategory, Metric: FieldRegion, Op: OpSum})
	assert.Error(t, err)
}

func TestAggregate_EmptyTable(t *testing.T) {
	tbl, err := NewTable(testHeader, nil)
	require.NoError(t, err)
	agg, err := Aggregate(tbl, DashboardSpecs[0])
	require.NoError(t, err)
	assert.Empty(t, agg.Groups)
	assert.Zero(t, agg.Total())
}

func TestAggregate_RowOrderIndependent(t *testing.T) {
	rows := generatedRows(200, 1)
	base, err := NewTable(testHeader, rows)
	require.NoError(t, err)

	shuffled := append([][]string(nil), rows...)
	rand.New(rand.NewSource(7)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	perm, err := NewTable(testHeader, shuffled)
	require.NoError(t, err)

	for _, spec := range DashboardSpecs {
		a, err := Aggregate(base, spec)
		require.NoError(t, err)
		b, err := Aggregate(perm, spec)
		require.NoError(t, err)
		require.Len(t, b.Groups, len(a.Groups))
		for i := range a.Groups {
			assert.Equal(t, a.Groups[i].Key, b.Groups[i].Key)
			assert.InDelta(t, a.Groups[i].Value, b.Groups[i].Value, 1e-6)
		}
	}
}

func TestAggregate_SumOfParts(t *testing.T) {
	tbl, err := NewTable(testHeader, generatedRows(500, 3))
	require.NoError(t, err)

	for _, spec := range DashboardSpecs {
		agg, err := Aggregate(tbl, spec)
		require.NoError(t, err)
		total, err := tbl.MetricTotal(spec.Metric)
		require.NoError(t, err)
		assert.InDelta(t, total, agg.Total(), 1e-6, "spec %+v", spec)
	}
}

func TestBarChart(t *testing.T) {
	tbl, err := NewTable(testHeader, testRows())
	require.NoError(t, err)
	agg, err := Aggregate(tbl, DashboardSpecs[1])
	require.NoError(t, err)

	c := BarChart(agg, "Total Sales by Region")
	assert.Equal(t, ChartBar, c.Kind)
	assert.Equal(t, FieldRegion, c.XLabel)
	assert.Equal(t, FieldSales, c.YLabel)
	assert.Equal(t, FieldRegion, c.ColorBy)
	assert.Equal(t, DefaultChartHeight, c.Height)
	assert.Equal(t, []Point{{X: "East", Y: 50.5, Group: "East"}, {X: "West", Y: 150, Group: "West"}}, c.Points)
	assert.Equal(t, []string{"East", "West"}, c.Groups())
}

func generatedRows(n int, seed int64) [][]string {
	r := rand.New(rand.NewSource(seed))
	cats := []string{"Technology", "Furniture", "Office Supplies"}
	regions := []string{"Central", "East", "South", "West"}
	subs := []string{"Phones", "Chairs", "Binders", "Paper", "Tables"}
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = []string{
			"x",
			cats[r.Intn(len(cats))],
			formatCents(r.Int63n(100000)),
			regions[r.Intn(len(regions))],
			subs[r.Intn(len(subs))],
			formatCents(r.Int63n(20000) - 10000),
		}
	}
	return rows
}

func formatCents(c int64) string {
	return strconv.FormatFloat(float64(c)/100, 'f', 2, 64)
}
