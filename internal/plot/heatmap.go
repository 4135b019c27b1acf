package plot

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/KaramelBytes/salesdash/internal/analysis"
	"github.com/KaramelBytes/salesdash/internal/dashboard"
)

// Heatmap layout, in pixels. The canvas grows past HeatmapSize so that a cell
// is never narrower than minCell.
const (
	minCell    = 22
	labelSpace = 120
	barSpace   = 72
)

var (
	ink   = color.NRGBA{R: 33, G: 33, B: 33, A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// corrGrid adapts a correlation matrix to plotter.GridXYZ. Rows run bottom-up
// so the first column lands on the top row.
type corrGrid struct {
	m *analysis.CorrMatrix
}

func (g corrGrid) Dims() (c, r int) {
	n := len(g.m.Columns)
	return n, n
}

func (g corrGrid) Z(c, r int) float64 {
	v := g.m.Values[len(g.m.Columns)-1-r][c]
	if math.IsNaN(v) {
		return v
	}
	return math.Max(-1, math.Min(1, v))
}

func (g corrGrid) X(c int) float64 { return float64(c) }
func (g corrGrid) Y(r int) float64 { return float64(r) }
func (g corrGrid) Min() float64    { return -1 }
func (g corrGrid) Max() float64    { return 1 }

// heatmapSide is the square canvas size for n columns.
func (p *Plotter) heatmapSide(n int) int {
	return max(p.opt.HeatmapSize, labelSpace+barSpace+n*minCell)
}

// cellLabel prints two decimals when the cell has room for them and one
// otherwise.
func cellLabel(v, cell float64) string {
	if math.IsNaN(v) || cell >= 30 {
		return analysis.FormatCoefficient(v)
	}
	return fmt.Sprintf("%.1f", v)
}

// short truncates long column names for tick labels.
func short(s string) string {
	r := []rune(s)
	if len(r) <= 16 {
		return s
	}
	return string(r[:15]) + "…"
}

// Heatmap draws the correlation matrix as a gonum heat map, annotated with the
// coefficient when requested, with a color bar on the right. Undefined
// coefficients are drawn in the Missing grey.
func (p *Plotter) Heatmap(h dashboard.Heatmap) (dashboard.Figure, error) {
	scale, err := LookupScale(h.ColorScale)
	if err != nil {
		return dashboard.Figure{}, err
	}
	cols := h.Columns()
	if len(cols) == 0 {
		return p.empty(dashboard.KindHeatmap, p.opt.HeatmapSize, p.opt.HeatmapSize, "no numeric columns")
	}
	n := len(cols)
	side := p.heatmapSide(n)
	cell := float64(side-labelSpace-barSpace) / float64(n)

	hm := plotter.NewHeatMap(corrGrid{m: h.Matrix}, scale.ColorMap().Palette(255))
	hm.Min, hm.Max = -1, 1
	hm.NaN = Missing

	hp := gplot.New()
	hp.Add(hm)
	if h.Annotated {
		lbl, err := p.annotations(h.Matrix, scale, cell)
		if err != nil {
			return dashboard.Figure{}, err
		}
		hp.Add(lbl)
	}
	names := make([]string, n)
	rev := make([]string, n)
	for i, c := range cols {
		names[i] = short(c)
		rev[n-1-i] = short(c)
	}
	hp.NominalX(names...)
	hp.NominalY(rev...)
	tick := vg.Points(math.Max(7, math.Min(11, cell*0.4)))
	hp.X.Tick.Label.Font.Size = tick
	hp.Y.Tick.Label.Font.Size = tick
	if n > 3 {
		hp.X.Tick.Label.Rotation = math.Pi / 4
		hp.X.Tick.Label.XAlign = draw.XRight
		hp.X.Tick.Label.YAlign = draw.YCenter
	}

	bp := gplot.New()
	bp.Add(&plotter.ColorBar{ColorMap: scale.ColorMap(), Vertical: true})
	bp.HideX()
	bp.Y.Tick.Label.Font.Size = vg.Points(9)

	c, dc := canvas(side, side)
	width := dc.Max.X - dc.Min.X
	hp.Draw(draw.Crop(dc, 0, -barSpace, 0, 0))
	bp.Draw(draw.Crop(dc, width-barSpace, 0, 0, 0))
	return encode(c, dashboard.KindHeatmap)
}

// annotations places one coefficient label at the center of every cell, light
// on dark cells and dark elsewhere.
func (p *Plotter) annotations(m *analysis.CorrMatrix, scale Scale, cell float64) (*plotter.Labels, error) {
	n := len(m.Columns)
	xys := make(plotter.XYs, 0, n*n)
	texts := make([]string, 0, n*n)
	fg := make([]color.Color, 0, n*n)
	for i := range m.Columns {
		for j := range m.Columns {
			v := m.Values[i][j]
			xys = append(xys, plotter.XY{X: float64(j), Y: float64(n - 1 - i)})
			texts = append(texts, cellLabel(v, cell))
			if Dark(scale.At(v)) {
				fg = append(fg, white)
			} else {
				fg = append(fg, ink)
			}
		}
	}
	lbl, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
	if err != nil {
		return nil, fmt.Errorf("heatmap labels: %w", err)
	}
	size := vg.Points(math.Max(6, math.Min(12, cell*0.3)))
	for i := range lbl.TextStyle {
		lbl.TextStyle[i].Color = fg[i]
		lbl.TextStyle[i].Font.Size = size
		lbl.TextStyle[i].XAlign = draw.XCenter
		lbl.TextStyle[i].YAlign = draw.YCenter
	}
	return lbl, nil
}

// empty renders a blank figure carrying a short message.
func (p *Plotter) empty(kind dashboard.ChartKind, w, h int, msg string) (dashboard.Figure, error) {
	lbl, err := plotter.NewLabels(plotter.XYLabels{XYs: plotter.XYs{{}}, Labels: []string{msg}})
	if err != nil {
		return dashboard.Figure{}, fmt.Errorf("placeholder: %w", err)
	}
	lbl.TextStyle[0].Color = ink
	lbl.TextStyle[0].XAlign = draw.XCenter
	lbl.TextStyle[0].YAlign = draw.YCenter
	ep := gplot.New()
	ep.Add(lbl)
	ep.HideAxes()
	c, dc := canvas(w, h)
	ep.Draw(dc)
	return encode(c, kind)
}

// canvas returns a w by h pixel image canvas; at 72 dpi one point is one
// pixel.
func canvas(w, h int) (*vgimg.Canvas, draw.Canvas) {
	c := vgimg.NewWith(vgimg.UseWH(vg.Length(w), vg.Length(h)), vgimg.UseDPI(72))
	return c, draw.New(c)
}

func encode(c *vgimg.Canvas, kind dashboard.ChartKind) (dashboard.Figure, error) {
	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(&buf); err != nil {
		return dashboard.Figure{}, fmt.Errorf("encode png: %w", err)
	}
	return dashboard.Figure{Kind: kind, Format: "png", Body: buf.Bytes()}, nil
}
