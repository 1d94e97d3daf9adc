package render

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"superdash/internal/core"
)

// LinePNG draws one line per group over a categorical x axis. Categories
// are placed in first-seen order, so repeated x labels share a position.
// A chart with nothing to draw renders as a titled blank canvas.
func LinePNG(c core.Chart) ([]byte, error) {
	if c.Kind != core.ChartLine {
		return nil, fmt.Errorf("%w: line renderer got %q", ErrUnsupportedKind, c.Kind)
	}
	pts := finitePoints(c.Points)
	if len(pts) == 0 {
		return blankPNG(c)
	}

	categories := make(map[string]int)
	var ticks []chart.Tick
	for _, p := range pts {
		if _, ok := categories[p.X]; !ok {
			categories[p.X] = len(ticks)
			ticks = append(ticks, chart.Tick{Value: float64(len(ticks)), Label: p.X})
		}
	}

	bg, paper, font := styleColors(c.Style)
	colors := groupColors(pts)
	order := core.Chart{Points: pts}.Groups()

	series := make([]chart.Series, 0, len(order))
	for _, g := range order {
		var xs, ys []float64
		for _, p := range pts {
			if p.Group == g {
				xs = append(xs, float64(categories[p.X]))
				ys = append(ys, p.Y)
			}
		}
		// Pad to at least two values for go-chart.
		if len(xs) == 1 {
			xs = append(xs, xs[0])
			ys = append(ys, ys[0])
		}
		col := toDrawing(colors[g])
		st := chart.Style{StrokeColor: col, StrokeWidth: 2}
		if c.Markers {
			st.DotColor = col
			st.DotWidth = 4
		}
		series = append(series, chart.ContinuousSeries{Name: g, XValues: xs, YValues: ys, Style: st})
	}

	ymin, ymax := yBounds(pts)
	axisStyle := chart.Style{FontColor: toDrawing(font), StrokeColor: toDrawing(font)}
	w, h := size(c)
	ch := chart.Chart{
		Title:      c.Title,
		TitleStyle: chart.Style{FontColor: toDrawing(font)},
		Width:      w,
		Height:     h,
		Background: chart.Style{FillColor: toDrawing(paper), Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		Canvas:     chart.Style{FillColor: toDrawing(bg)},
		XAxis: chart.XAxis{
			Name:      c.XLabel,
			NameStyle: axisStyle,
			Style:     axisStyle,
			Range:     &chart.ContinuousRange{Min: -0.5, Max: float64(len(ticks)) - 0.5},
			Ticks:     ticks,
		},
		YAxis: chart.YAxis{
			Name:      c.YLabel,
			NameStyle: axisStyle,
			Style:     axisStyle,
			Range:     &chart.ContinuousRange{Min: ymin, Max: ymax},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch, chart.Style{
		FillColor:   toDrawing(paper),
		FontColor:   toDrawing(font),
		StrokeColor: toDrawing(font),
	})}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render line chart: %w", err)
	}
	return buf.Bytes(), nil
}

// yBounds pads the value range so flat data still has a visible span.
func yBounds(pts []core.Point) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		lo = math.Min(lo, p.Y)
		hi = math.Max(hi, p.Y)
	}
	if lo == hi {
		return lo - 1, hi + 1
	}
	pad := (hi - lo) * 0.05
	return lo - pad, hi + pad
}

func toDrawing(c color.RGBA) drawing.Color {
	return drawing.Color{R: c.R, G: c.G, B: c.B, A: c.A}
}
