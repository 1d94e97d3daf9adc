package core

import (
	"fmt"
	"math"
	"sort"
)

// OpSum is the only aggregation the dashboard uses.
const OpSum = "sum"

// AggregateSpec describes one summary table: Metric summed by GroupBy.
type AggregateSpec struct {
	GroupBy string
	Metric  string
	Op      string
}

// Group is one key of an aggregation result.
type Group struct {
	Key   string
	Value float64
}

// Aggregation is a read-only summary table. Groups are sorted by key.
type Aggregation struct {
	Spec   AggregateSpec
	Groups []Group
}

// DashboardSpecs are the three summaries precomputed at startup.
var DashboardSpecs = []AggregateSpec{
	{GroupBy: FieldCategory, Metric: FieldSales, Op: OpSum},
	{GroupBy: FieldRegion, Metric: FieldSales, Op: OpSum},
	{GroupBy: FieldSubCategory, Metric: FieldProfit, Op: OpSum},
}

// Aggregate computes spec over t. Keys are the distinct values of the group
// column sorted ascending; blank metric cells are skipped but still make
// their key present.
func Aggregate(t *Table, spec AggregateSpec) (Aggregation, error) {
	if spec.Op != OpSum {
		return Aggregation{}, fmt.Errorf("aggregate %s by %s: unsupported op %q", spec.Metric, spec.GroupBy, spec.Op)
	}
	col, ok := t.index[spec.GroupBy]
	if !ok {
		return Aggregation{}, &MissingColumnError{Column: spec.GroupBy}
	}
	vals, ok := t.metrics[spec.Metric]
	if !ok {
		return Aggregation{}, fmt.Errorf("aggregate by %s: %q is not a metric column", spec.GroupBy, spec.Metric)
	}

	sums := make(map[string]float64)
	for i, row := range t.rows {
		key := row[col]
		v := vals[i]
		if math.IsNaN(v) {
			sums[key] += 0
			continue
		}
		sums[key] += v
	}

	keys := make([]string, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	groups := make([]Group, len(keys))
	for i, k := range keys {
		groups[i] = Group{Key: k, Value: sums[k]}
	}
	return Aggregation{Spec: spec, Groups: groups}, nil
}

// Total returns the sum over all groups.
func (a Aggregation) Total() float64 {
	var sum float64
	for _, g := range a.Groups {
		sum += g.Value
	}
	return sum
}

// Lookup returns the value for key.
func (a Aggregation) Lookup(key string) (float64, bool) {
	i := sort.Search(len(a.Groups), func(i int) bool { return a.Groups[i].Key >= key })
	if i < len(a.Groups) && a.Groups[i].Key == key {
		return a.Groups[i].Value, true
	}
	return 0, false
}
