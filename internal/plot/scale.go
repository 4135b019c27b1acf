package plot

import (
	"fmt"
	"image/color"
	"math"
	"sort"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
)

// Scale is a diverging color scale over [-1, 1].
type Scale struct {
	Name string
	cmap palette.ColorMap
}

var scales = map[string]func() palette.ColorMap{
	// Moreland's smooth cool to warm map, the one matplotlib calls coolwarm
	"coolwarm": func() palette.ColorMap { return moreland.SmoothBlueRed() },
	// ColorBrewer RdBu, reversed so positive is red
	"rdbu": stops("#053061", "#4393C3", "#F7F7F7", "#D6604D", "#67001F"),
	"bwr":  stops("#0000FF", "#8080FF", "#FFFFFF", "#FF8080", "#FF0000"),
}

// Missing is the color of an undefined coefficient.
var Missing = drawing.ColorFromHex("BFBFBF")

// LookupScale returns the named scale. Names are case-insensitive.
func LookupScale(name string) (Scale, error) {
	key := strings.ToLower(name)
	mk, ok := scales[key]
	if !ok {
		return Scale{}, fmt.Errorf("unknown color scale %q (use %s)", name, strings.Join(ScaleNames(), ", "))
	}
	cm := mk()
	cm.SetMin(-1)
	cm.SetMax(1)
	cm.SetAlpha(1)
	return Scale{Name: key, cmap: cm}, nil
}

// ScaleNames lists the known scales.
func ScaleNames() []string {
	out := make([]string, 0, len(scales))
	for k := range scales {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ColorMap returns the scale as a gonum color map over [-1, 1].
func (s Scale) ColorMap() palette.ColorMap {
	return s.cmap
}

// At maps v in [-1, 1] to a color. NaN maps to Missing; values outside the
// range are clamped.
func (s Scale) At(v float64) drawing.Color {
	if math.IsNaN(v) || s.cmap == nil {
		return Missing
	}
	c, err := s.cmap.At(math.Max(-1, math.Min(1, v)))
	if err != nil {
		return Missing
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return drawing.Color{R: n.R, G: n.G, B: n.B, A: 255}
}

// Hex returns the color of v as #RRGGBB.
func (s Scale) Hex(v float64) string {
	c := s.At(v)
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Dark reports whether text on c should be light.
func Dark(c drawing.Color) bool {
	return 0.299*float64(c.R)+0.587*float64(c.G)+0.114*float64(c.B) < 128
}

// stopMap is a palette.ColorMap interpolating linearly between evenly spaced
// stops.
type stopMap struct {
	stops    []color.NRGBA
	min, max float64
	alpha    float64
}

func stops(hexes ...string) func() palette.ColorMap {
	return func() palette.ColorMap {
		m := &stopMap{max: 1, alpha: 1}
		for _, h := range hexes {
			c := drawing.ColorFromHex(strings.TrimPrefix(h, "#"))
			m.stops = append(m.stops, color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255})
		}
		return m
	}
}

func (m *stopMap) At(v float64) (color.Color, error) {
	switch {
	case math.IsNaN(v):
		return nil, fmt.Errorf("color map: NaN")
	case m.max <= m.min:
		return nil, fmt.Errorf("color map: empty range [%v, %v]", m.min, m.max)
	case v < m.min:
		return nil, fmt.Errorf("color map: %v below %v", v, m.min)
	case v > m.max:
		return nil, fmt.Errorf("color map: %v above %v", v, m.max)
	}
	pos := (v - m.min) / (m.max - m.min) * float64(len(m.stops)-1)
	i := int(math.Floor(pos))
	if i >= len(m.stops)-1 {
		i = len(m.stops) - 2
	}
	f := pos - float64(i)
	a, b := m.stops[i], m.stops[i+1]
	lerp := func(x, y uint8) uint8 { return uint8(math.Round(float64(x) + (float64(y)-float64(x))*f)) }
	return color.NRGBA{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B), A: uint8(math.Round(m.alpha * 255))}, nil
}

func (m *stopMap) Max() float64           { return m.max }
func (m *stopMap) SetMax(v float64)       { m.max = v }
func (m *stopMap) Min() float64           { return m.min }
func (m *stopMap) SetMin(v float64)       { m.min = v }
func (m *stopMap) Alpha() float64         { return m.alpha }
func (m *stopMap) SetAlpha(alpha float64) { m.alpha = alpha }

// Palette samples n evenly spaced colors from min to max.
func (m *stopMap) Palette(n int) palette.Palette {
	out := make(colors, n)
	for i := range out {
		v := m.min
		if n > 1 {
			v += (m.max - m.min) * float64(i) / float64(n-1)
		}
		out[i], _ = m.At(v)
	}
	return out
}

type colors []color.Color

func (c colors) Colors() []color.Color { return c }
