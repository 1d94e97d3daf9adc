// Package render draws chart descriptions as PNG images. Bar charts go
// through gonum/plot, line charts through go-chart.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"superdash/internal/core"
)

// DefaultWidth is the image width in pixels when the chart does not set one.
const DefaultWidth = 800

// ErrUnsupportedKind is returned for chart kinds with no renderer.
var ErrUnsupportedKind = errors.New("unsupported chart kind")

// pngSignature starts every PNG file.
var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// palette assigns colors to groups in first-seen order.
var palette = []string{
	"#636EFA", "#EF553B", "#00CC96", "#AB63FA", "#FFA15A",
	"#19D3F3", "#FF6692", "#B6E880", "#FF97FF", "#FECB52",
}

// PNG dispatches on the chart kind.
func PNG(c core.Chart) ([]byte, error) {
	switch c.Kind {
	case core.ChartBar:
		return BarPNG(c)
	case core.ChartLine:
		return LinePNG(c)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, c.Kind)
}

// IsPNG reports whether b starts with the PNG signature.
func IsPNG(b []byte) bool { return bytes.HasPrefix(b, pngSignature) }

func size(c core.Chart) (int, int) {
	h := c.Height
	if h <= 0 {
		h = core.DefaultChartHeight
	}
	return DefaultWidth, h
}

// finitePoints drops points whose value cannot be drawn.
func finitePoints(pts []core.Point) []core.Point {
	out := make([]core.Point, 0, len(pts))
	for _, p := range pts {
		if math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// groupColors maps every group of pts to a palette entry.
func groupColors(pts []core.Point) map[string]color.RGBA {
	colors := make(map[string]color.RGBA)
	for _, p := range pts {
		if _, ok := colors[p.Group]; ok {
			continue
		}
		colors[p.Group] = parseColor(palette[len(colors)%len(palette)], color.RGBA{A: 0xff})
	}
	return colors
}

// parseColor reads "#RRGGBB", "RRGGBB", "white" or "black"; anything else
// yields fallback.
func parseColor(s string, fallback color.RGBA) color.RGBA {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "white":
		return color.RGBA{0xff, 0xff, 0xff, 0xff}
	case "black":
		return color.RGBA{A: 0xff}
	}
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return fallback
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return fallback
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

func styleColors(st core.ChartStyle) (bg, paper, font color.RGBA) {
	bg = parseColor(st.PlotBackground, color.RGBA{0xff, 0xff, 0xff, 0xff})
	paper = parseColor(st.PaperBackground, bg)
	font = parseColor(st.FontColor, color.RGBA{A: 0xff})
	return bg, paper, font
}
