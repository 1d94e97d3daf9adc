package core

import (
	"encoding/json"
	"math"
)

// ChartKind selects how a chart description is drawn.
type ChartKind string

const (
	ChartBar  ChartKind = "bar"
	ChartLine ChartKind = "line"
)

// DefaultChartHeight is the height hint, in pixels, of every dashboard graph.
const DefaultChartHeight = 400

// Point is one x/y/group triple of a chart. A blank metric is carried as a
// NaN Y, which encodes as JSON null.
type Point struct {
	X     string
	Y     float64
	Group string
}

type pointJSON struct {
	X     string   `json:"x"`
	Y     *float64 `json:"y"`
	Group string   `json:"group,omitempty"`
}

func (p Point) MarshalJSON() ([]byte, error) {
	out := pointJSON{X: p.X, Group: p.Group}
	if !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0) {
		y := p.Y
		out.Y = &y
	}
	return json.Marshal(out)
}

func (p *Point) UnmarshalJSON(b []byte) error {
	var in pointJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	p.X, p.Group, p.Y = in.X, in.Group, math.NaN()
	if in.Y != nil {
		p.Y = *in.Y
	}
	return nil
}

// ChartStyle carries display colors. Empty fields mean renderer defaults.
type ChartStyle struct {
	PlotBackground  string `json:"plot_bgcolor,omitempty"`
	PaperBackground string `json:"paper_bgcolor,omitempty"`
	FontColor       string `json:"font_color,omitempty"`
}

// Chart is a renderable chart description. It is never mutated once built.
type Chart struct {
	Kind    ChartKind  `json:"kind"`
	Title   string     `json:"title"`
	XLabel  string     `json:"x_label"`
	YLabel  string     `json:"y_label"`
	ColorBy string     `json:"color_by,omitempty"`
	Markers bool       `json:"markers,omitempty"`
	Height  int        `json:"height"`
	Style   ChartStyle `json:"style"`
	Points  []Point    `json:"points"`
}

// Groups returns the distinct point groups in first-seen order.
func (c Chart) Groups() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range c.Points {
		if _, ok := seen[p.Group]; ok {
			continue
		}
		seen[p.Group] = struct{}{}
		out = append(out, p.Group)
	}
	return out
}

// BarChart turns an aggregation into a bar chart colored by its own key.
func BarChart(agg Aggregation, title string) Chart {
	points := make([]Point, len(agg.Groups))
	for i, g := range agg.Groups {
		points[i] = Point{X: g.Key, Y: g.Value, Group: g.Key}
	}
	return Chart{
		Kind:    ChartBar,
		Title:   title,
		XLabel:  agg.Spec.GroupBy,
		YLabel:  agg.Spec.Metric,
		ColorBy: agg.Spec.GroupBy,
		Height:  DefaultChartHeight,
		Points:  points,
	}
}
