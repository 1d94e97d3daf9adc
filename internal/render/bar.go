package render

import (
	"bytes"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"superdash/internal/core"
)

const barWidth = 20

// BarPNG draws a bar chart, one colored bar per point along a nominal x axis.
func BarPNG(c core.Chart) ([]byte, error) {
	if c.Kind != core.ChartBar {
		return nil, fmt.Errorf("%w: bar renderer got %q", ErrUnsupportedKind, c.Kind)
	}
	pts := finitePoints(c.Points)
	p := newPlot(c)

	colors := groupColors(pts)
	labels := make([]string, len(pts))
	for i, pt := range pts {
		bars, err := plotter.NewBarChart(plotter.Values{pt.Y}, vg.Points(barWidth))
		if err != nil {
			return nil, fmt.Errorf("bar %q: %w", pt.X, err)
		}
		bars.XMin = float64(i)
		bars.Color = colors[pt.Group]
		bars.LineStyle.Width = vg.Length(0)
		p.Add(bars)
		labels[i] = pt.X
	}
	if len(labels) > 0 {
		p.NominalX(labels...)
	}
	return writePlot(p, c)
}

// blankPNG draws only the title and axes of c.
func blankPNG(c core.Chart) ([]byte, error) {
	return writePlot(newPlot(c), c)
}

func newPlot(c core.Chart) *plot.Plot {
	bg, paper, font := styleColors(c.Style)
	p := plot.New()
	p.Title.Text = c.Title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.Title.TextStyle.Color = font
	p.BackgroundColor = paper
	p.X.Label.Text = c.XLabel
	p.Y.Label.Text = c.YLabel
	for _, ax := range []*plot.Axis{&p.X, &p.Y} {
		ax.LineStyle.Color = font
		ax.Label.TextStyle.Color = font
		ax.Tick.LineStyle.Color = font
		ax.Tick.Label.Color = font
	}
	if bg != paper {
		p.Add(plotter.NewGrid())
	}
	return p
}

func writePlot(p *plot.Plot, c core.Chart) ([]byte, error) {
	w, h := size(c)
	wt, err := p.WriterTo(vg.Length(w)*vg.Inch/96, vg.Length(h)*vg.Inch/96, "png")
	if err != nil {
		return nil, fmt.Errorf("png writer: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write png: %w", err)
	}
	return buf.Bytes(), nil
}
