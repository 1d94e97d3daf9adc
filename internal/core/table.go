package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Required column names. Two of them carry a literal dot.
const (
	FieldCategory    = "Category"
	FieldSales       = "Sales"
	FieldRegion      = "Region"
	FieldSubCategory = "Sub.Category"
	FieldProfit      = "Profit"
)

// RequiredFields lists the columns every table must carry, in the order
// they are checked.
var RequiredFields = []string{FieldCategory, FieldSales, FieldRegion, FieldSubCategory, FieldProfit}

// MetricFields are parsed to float64 at load time.
var MetricFields = []string{FieldSales, FieldProfit}

// Table is the immutable in-memory record table. Cells are kept as raw
// strings so exports reproduce the input; metric columns are parsed once.
type Table struct {
	header  []string
	index   map[string]int
	rows    [][]string
	metrics map[string][]float64
}

// NewTable validates the header and rows and builds a Table. It returns a
// *MissingColumnError for the first required field absent from the header,
// and a *ParseError for a metric cell that is neither blank nor numeric.
// The table keeps its own copies of header and rows.
func NewTable(header []string, rows [][]string) (*Table, error) {
	t := &Table{
		header:  append([]string(nil), header...),
		index:   make(map[string]int, len(header)),
		rows:    make([][]string, 0, len(rows)),
		metrics: make(map[string][]float64, len(MetricFields)),
	}
	for i, name := range t.header {
		if _, dup := t.index[name]; dup {
			continue
		}
		t.index[name] = i
	}
	for _, name := range RequiredFields {
		if !t.HasField(name) {
			return nil, &MissingColumnError{Column: name}
		}
	}

	for _, name := range MetricFields {
		t.metrics[name] = make([]float64, 0, len(rows))
	}
	for i, row := range rows {
		if len(row) != len(t.header) {
			return nil, &RowLengthError{Row: i + 1, Got: len(row), Want: len(t.header)}
		}
		cp := append([]string(nil), row...)
		t.rows = append(t.rows, cp)
		for _, name := range MetricFields {
			raw := cp[t.index[name]]
			v, err := parseMetric(raw)
			if err != nil {
				return nil, &ParseError{Row: i + 1, Column: name, Value: raw}
			}
			t.metrics[name] = append(t.metrics[name], v)
		}
	}
	return t, nil
}

// parseMetric returns NaN for blank cells so sums can skip them.
func parseMetric(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Header returns a copy of the column names in file order.
func (t *Table) Header() []string { return append([]string(nil), t.header...) }

// HasField reports whether the table carries the named column.
func (t *Table) HasField(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Value returns the raw cell of row i for the named column.
func (t *Table) Value(i int, field string) (string, error) {
	col, ok := t.index[field]
	if !ok {
		return "", fmt.Errorf("value of row %d: %w", i, &MissingColumnError{Column: field})
	}
	if i < 0 || i >= len(t.rows) {
		return "", fmt.Errorf("row %d out of range [0,%d)", i, len(t.rows))
	}
	return t.rows[i][col], nil
}

// Metric returns the parsed metric of row i. Blank cells are NaN.
func (t *Table) Metric(i int, field string) (float64, error) {
	vals, ok := t.metrics[field]
	if !ok {
		return 0, fmt.Errorf("%q is not a metric column", field)
	}
	if i < 0 || i >= len(vals) {
		return 0, fmt.Errorf("row %d out of range [0,%d)", i, len(vals))
	}
	return vals[i], nil
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []string {
	return append([]string(nil), t.rows[i]...)
}

// EachRow calls fn for every row in load order and stops at the first error.
// fn must not retain or modify row.
func (t *Table) EachRow(fn func(i int, row []string) error) error {
	for i, row := range t.rows {
		if err := fn(i, row); err != nil {
			return err
		}
	}
	return nil
}

// Distinct returns the distinct values of a column in first-seen order.
func (t *Table) Distinct(field string) ([]string, error) {
	col, ok := t.index[field]
	if !ok {
		return nil, &MissingColumnError{Column: field}
	}
	seen := make(map[string]struct{})
	var out []string
	for _, row := range t.rows {
		v := row[col]
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}

// Where returns the indices of rows whose columns equal the given values
// exactly. All conditions must hold.
func (t *Table) Where(conds map[string]string) ([]int, error) {
	type cond struct {
		col   int
		value string
	}
	cs := make([]cond, 0, len(conds))
	for field, v := range conds {
		col, ok := t.index[field]
		if !ok {
			return nil, &MissingColumnError{Column: field}
		}
		cs = append(cs, cond{col: col, value: v})
	}
	var out []int
rows:
	for i, row := range t.rows {
		for _, c := range cs {
			if row[c.col] != c.value {
				continue rows
			}
		}
		out = append(out, i)
	}
	return out, nil
}

// MetricTotal sums a metric column over the whole table, skipping blanks.
func (t *Table) MetricTotal(field string) (float64, error) {
	vals, ok := t.metrics[field]
	if !ok {
		return 0, fmt.Errorf("%q is not a metric column", field)
	}
	var sum float64
	for _, v := range vals {
		if !math.IsNaN(v) {
			sum += v
		}
	}
	return sum, nil
}
