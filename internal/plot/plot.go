// Package plot renders chart requests as PNG figures with go-chart.
package plot

import (
	"bytes"
	"fmt"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/KaramelBytes/salesdash/internal/analysis"
	"github.com/KaramelBytes/salesdash/internal/dashboard"
)

// Options sizes the figures.
type Options struct {
	Width       int
	Height      int
	HeatmapSize int
}

// DefaultOptions returns 800x600 charts and an 800 pixel heatmap.
func DefaultOptions() Options {
	return Options{Width: 800, Height: 600, HeatmapSize: 800}
}

// Plotter is a dashboard.Plotter producing PNG images.
type Plotter struct {
	opt Options
}

// New creates a Plotter. Non-positive sizes fall back to the defaults.
func New(opt Options) *Plotter {
	def := DefaultOptions()
	if opt.Width <= 0 {
		opt.Width = def.Width
	}
	if opt.Height <= 0 {
		opt.Height = def.Height
	}
	if opt.HeatmapSize <= 0 {
		opt.HeatmapSize = def.HeatmapSize
	}
	return &Plotter{opt: opt}
}

var (
	barFill   = drawing.ColorFromHex("4C72B0").WithAlpha(160)
	barStroke = drawing.ColorFromHex("4C72B0")
	kdeStroke = drawing.ColorFromHex("1F3B70")
	dotColor  = drawing.ColorFromHex("4C72B0")
)

// pointStyle renders points only (no connecting line).
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    4,
		DotColor:    col,
	}
}

func padding() chart.Style {
	return chart.Style{Padding: chart.Box{Top: 20, Left: 16, Right: 20, Bottom: 16}}
}

// Histogram draws the binned counts as a filled step outline, with the
// density curve scaled to counts on top when requested.
func (p *Plotter) Histogram(d dashboard.Distribution) (dashboard.Figure, error) {
	bins := analysis.Histogram(d.Values, d.Bins)
	if len(bins) == 0 {
		return p.empty(dashboard.KindDistribution, p.opt.Width, p.opt.Height, fmt.Sprintf("no %s values", d.Column))
	}
	xs := []float64{bins[0].Lo}
	ys := []float64{0}
	maxCount := 0
	for _, b := range bins {
		xs = append(xs, b.Lo, b.Hi)
		ys = append(ys, float64(b.Count), float64(b.Count))
		if b.Count > maxCount {
			maxCount = b.Count
		}
	}
	xs = append(xs, bins[len(bins)-1].Hi)
	ys = append(ys, 0)

	series := []chart.Series{chart.ContinuousSeries{
		Name:    "count",
		XValues: xs,
		YValues: ys,
		Style:   chart.Style{StrokeColor: barStroke, StrokeWidth: 1, FillColor: barFill},
	}}
	top := float64(maxCount)
	if d.Density {
		width := bins[0].Hi - bins[0].Lo
		if curve := analysis.KDE(d.Values, 200); curve != nil {
			kx := make([]float64, len(curve))
			ky := make([]float64, len(curve))
			for i, pt := range curve {
				kx[i] = pt.X
				ky[i] = pt.Y * float64(len(d.Values)) * width
				top = math.Max(top, ky[i])
			}
			series = append(series, chart.ContinuousSeries{
				Name:    "density",
				XValues: kx,
				YValues: ky,
				Style:   chart.Style{StrokeColor: kdeStroke, StrokeWidth: 2},
			})
		}
	}

	ch := chart.Chart{
		Width:      p.opt.Width,
		Height:     p.opt.Height,
		Background: padding(),
		XAxis: chart.XAxis{
			Name:  d.Column,
			Range: &chart.ContinuousRange{Min: bins[0].Lo, Max: bins[len(bins)-1].Hi},
		},
		YAxis: chart.YAxis{
			Name:  "Count",
			Range: &chart.ContinuousRange{Min: 0, Max: math.Max(1, top*1.05)},
		},
		Series: series,
	}
	return p.render(ch, dashboard.KindDistribution)
}

// Scatter draws one dot per row.
func (p *Plotter) Scatter(s dashboard.Scatter) (dashboard.Figure, error) {
	if len(s.XValues) == 0 || len(s.XValues) != len(s.YValues) {
		return p.empty(dashboard.KindScatter, p.opt.Width, p.opt.Height, fmt.Sprintf("no %s/%s pairs", s.X, s.Y))
	}
	xs, ys := s.XValues, s.YValues
	// go-chart needs at least two points to draw a series.
	if len(xs) == 1 {
		xs = []float64{xs[0], xs[0]}
		ys = []float64{ys[0], ys[0]}
	}
	ch := chart.Chart{
		Width:      p.opt.Width,
		Height:     p.opt.Height,
		Background: padding(),
		XAxis:      chart.XAxis{Name: s.X, Range: paddedRange(xs)},
		YAxis:      chart.YAxis{Name: s.Y, Range: paddedRange(ys)},
		Series: []chart.Series{chart.ContinuousSeries{
			Name:    s.Y,
			XValues: xs,
			YValues: ys,
			Style:   pointStyle(dotColor),
		}},
	}
	return p.render(ch, dashboard.KindScatter)
}

// paddedRange spans the values with a 5% margin, widening a degenerate
// range by 0.5 on each side.
func paddedRange(vals []float64) *chart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		return &chart.ContinuousRange{Min: lo - 0.5, Max: hi + 0.5}
	}
	pad := (hi - lo) * 0.05
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func (p *Plotter) render(ch chart.Chart, kind dashboard.ChartKind) (dashboard.Figure, error) {
	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return dashboard.Figure{}, fmt.Errorf("render %s: %w", kind, err)
	}
	return dashboard.Figure{Kind: kind, Format: "png", Body: buf.Bytes()}, nil
}
