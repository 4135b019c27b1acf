// Package termplot draws chart requests as styled text for terminals.
package termplot

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"github.com/KaramelBytes/salesdash/internal/analysis"
	"github.com/KaramelBytes/salesdash/internal/dashboard"
	"github.com/KaramelBytes/salesdash/internal/plot"
)

// Theme holds the ANSI 256 colors used for charts and page chrome.
type Theme struct {
	Bar       lipgloss.Color
	Density   lipgloss.Color
	Dot       lipgloss.Color
	Axis      lipgloss.Color
	Heading   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Selected  lipgloss.Color
	FaintText lipgloss.Color
}

// DefaultTheme is tuned for dark backgrounds.
var DefaultTheme = Theme{
	Bar:       lipgloss.Color("68"),
	Density:   lipgloss.Color("214"),
	Dot:       lipgloss.Color("75"),
	Axis:      lipgloss.Color("245"),
	Heading:   lipgloss.Color("255"),
	Warning:   lipgloss.Color("220"),
	Error:     lipgloss.Color("203"),
	Selected:  lipgloss.Color("39"),
	FaintText: lipgloss.Color("242"),
}

// Options sizes the text charts, in cells.
type Options struct {
	Width  int
	Height int
	// Color enables ANSI 256 styling; otherwise output is plain text.
	Color bool
	Theme *Theme
}

// Plotter is a dashboard.Plotter producing text figures.
type Plotter struct {
	opt   Options
	theme Theme
	r     *lipgloss.Renderer
}

// NewRenderer returns a lipgloss renderer for w with a fixed profile, so
// output does not depend on terminal detection.
func NewRenderer(w io.Writer, color bool) *lipgloss.Renderer {
	profile := termenv.Ascii
	if color {
		profile = termenv.ANSI256
	}
	r := lipgloss.NewRenderer(w, termenv.WithProfile(profile))
	r.SetColorProfile(profile)
	return r
}

// New creates a text plotter writing styles for w.
func New(w io.Writer, opt Options) *Plotter {
	if opt.Width < 20 {
		opt.Width = 72
	}
	if opt.Height < 5 {
		opt.Height = 16
	}
	th := DefaultTheme
	if opt.Theme != nil {
		th = *opt.Theme
	}
	return &Plotter{opt: opt, theme: th, r: NewRenderer(w, opt.Color)}
}

func (p *Plotter) fg(c lipgloss.Color) lipgloss.Style {
	return p.r.NewStyle().Foreground(c)
}

func figure(kind dashboard.ChartKind, body string) dashboard.Figure {
	return dashboard.Figure{Kind: kind, Format: "text", Body: []byte(body)}
}

func num(v float64) string {
	return fmt.Sprintf("%.4g", v)
}

// padRight pads s with spaces to w visible cells, truncating when longer.
func padRight(s string, w int) string {
	s = ansi.Truncate(s, w, "…")
	return s + strings.Repeat(" ", max(0, w-ansi.StringWidth(s)))
}

func padLeft(s string, w int) string {
	s = ansi.Truncate(s, w, "…")
	return strings.Repeat(" ", max(0, w-ansi.StringWidth(s))) + s
}

// Histogram draws one horizontal bar per bin. When density is requested the
// curve, scaled to counts, is marked with a dot on each bin row.
func (p *Plotter) Histogram(d dashboard.Distribution) (dashboard.Figure, error) {
	bins := analysis.Histogram(d.Values, d.Bins)
	if len(bins) == 0 {
		return figure(dashboard.KindDistribution, fmt.Sprintf("(no %s values)\n", d.Column)), nil
	}
	var curve []analysis.Point
	if d.Density {
		curve = analysis.KDE(d.Values, len(bins))
	}
	width := bins[0].Hi - bins[0].Lo
	top := 0.0
	for _, b := range bins {
		top = math.Max(top, float64(b.Count))
	}
	scaled := make([]float64, len(curve))
	for i, pt := range curve {
		scaled[i] = pt.Y * float64(len(d.Values)) * width
		top = math.Max(top, scaled[i])
	}

	labelW := 0
	for _, b := range bins {
		labelW = max(labelW, len(num(b.Lo)))
	}
	barW := max(4, p.opt.Width-labelW-10)
	bar := p.fg(p.theme.Bar)
	dot := p.fg(p.theme.Density)
	axis := p.fg(p.theme.Axis)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s  %s\n", padLeft(d.Column, labelW), axis.Render("count"))
	for i, b := range bins {
		n := int(math.Round(float64(b.Count) / top * float64(barW)))
		line := []rune(strings.Repeat("█", n) + strings.Repeat(" ", barW-n))
		mark := -1
		if i < len(scaled) {
			mark = min(barW-1, int(math.Round(scaled[i]/top*float64(barW))))
		}
		var row string
		if mark >= 0 {
			row = bar.Render(string(line[:mark])) + dot.Render("•") + bar.Render(string(line[mark+1:]))
		} else {
			row = bar.Render(string(line))
		}
		fmt.Fprintf(&sb, "%s %s%s %d\n", padLeft(num(b.Lo), labelW), axis.Render("│"), row, b.Count)
	}
	fmt.Fprintf(&sb, "%s %s %s\n", padLeft("", labelW), axis.Render("└"), axis.Render(num(bins[len(bins)-1].Hi)))
	return figure(dashboard.KindDistribution, sb.String()), nil
}

// Scatter plots points on a character grid. Cells holding several points are
// drawn heavier.
func (p *Plotter) Scatter(s dashboard.Scatter) (dashboard.Figure, error) {
	if len(s.XValues) == 0 || len(s.XValues) != len(s.YValues) {
		return figure(dashboard.KindScatter, fmt.Sprintf("(no %s/%s pairs)\n", s.X, s.Y)), nil
	}
	xlo, xhi := span(s.XValues)
	ylo, yhi := span(s.YValues)
	ylw := max(len(num(ylo)), len(num(yhi)))
	w := max(10, p.opt.Width-ylw-2)
	h := p.opt.Height
	grid := make([][]int, h)
	for i := range grid {
		grid[i] = make([]int, w)
	}
	for i := range s.XValues {
		if !finite(s.XValues[i]) || !finite(s.YValues[i]) {
			continue
		}
		c := int(math.Round((s.XValues[i] - xlo) / (xhi - xlo) * float64(w-1)))
		r := h - 1 - int(math.Round((s.YValues[i]-ylo)/(yhi-ylo)*float64(h-1)))
		grid[r][c]++
	}

	dot := p.fg(p.theme.Dot)
	axis := p.fg(p.theme.Axis)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", axis.Render(s.Y))
	for r, row := range grid {
		label := ""
		switch r {
		case 0:
			label = num(yhi)
		case h - 1:
			label = num(ylo)
		}
		var line strings.Builder
		for _, n := range row {
			switch {
			case n == 0:
				line.WriteByte(' ')
			case n == 1:
				line.WriteString(dot.Render("•"))
			default:
				line.WriteString(dot.Render("●"))
			}
		}
		fmt.Fprintf(&sb, "%s %s%s\n", padLeft(label, ylw), axis.Render("│"), line.String())
	}
	fmt.Fprintf(&sb, "%s %s%s\n", padLeft("", ylw), axis.Render("└"), axis.Render(strings.Repeat("─", w)))
	lo, hi := num(xlo), num(xhi)
	gap := max(1, w-len(lo)-len(hi))
	fmt.Fprintf(&sb, "%s  %s%s%s\n", padLeft("", ylw), lo, strings.Repeat(" ", gap), hi)
	fmt.Fprintf(&sb, "%s  %s\n", padLeft("", ylw), axis.Render(s.X))
	return figure(dashboard.KindScatter, sb.String()), nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// span returns the range of the finite values, widened by 0.5 on each side
// when degenerate.
func span(vals []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		if !finite(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo > hi {
		return -0.5, 0.5
	}
	if lo == hi {
		return lo - 0.5, hi + 0.5
	}
	return lo, hi
}

// Heatmap draws the matrix as a table of colored cells.
func (p *Plotter) Heatmap(h dashboard.Heatmap) (dashboard.Figure, error) {
	scale, err := plot.LookupScale(h.ColorScale)
	if err != nil {
		return dashboard.Figure{}, err
	}
	cols := h.Columns()
	if len(cols) == 0 {
		return figure(dashboard.KindHeatmap, "(no numeric columns)\n"), nil
	}
	labelW := 0
	for _, c := range cols {
		labelW = max(labelW, ansi.StringWidth(c))
	}
	labelW = min(labelW, 16)
	const cellW = 7

	var sb strings.Builder
	sb.WriteString(strings.Repeat(" ", labelW+1))
	for _, c := range cols {
		sb.WriteString(padLeft(c, cellW))
	}
	sb.WriteByte('\n')
	for i, name := range cols {
		sb.WriteString(padRight(name, labelW) + " ")
		for j := range cols {
			v := h.Matrix.Values[i][j]
			bg := scale.At(v)
			fg := lipgloss.Color("#212121")
			if plot.Dark(bg) {
				fg = lipgloss.Color("#FFFFFF")
			}
			text := ""
			if h.Annotated {
				text = analysis.FormatCoefficient(v)
			}
			style := p.r.NewStyle().Background(lipgloss.Color(scale.Hex(v))).Foreground(fg)
			sb.WriteString(style.Render(padLeft(text, cellW-1) + " "))
		}
		sb.WriteByte('\n')
	}
	legend := p.fg(p.theme.FaintText)
	sb.WriteString(legend.Render(fmt.Sprintf("scale %s: -1 %s +1", scale.Name, strings.Repeat("·", 9))))
	sb.WriteByte('\n')
	return figure(dashboard.KindHeatmap, sb.String()), nil
}
