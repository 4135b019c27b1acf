package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Bin is one histogram bucket covering [Lo, Hi); the last bin also holds Hi.
type Bin struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

// Point is one sample of a density curve.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Histogram splits the finite values into bins equal-width buckets over
// [min, max]. When every value is the same the range is widened by 0.5 on each
// side. It returns nil for no finite values or bins < 1.
func Histogram(values []float64, bins int) []Bin {
	values = finite(values)
	if len(values) == 0 || bins < 1 {
		return nil
	}
	lo, hi := bounds(values)
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(bins)
	out := make([]Bin, bins)
	for i := range out {
		out[i].Lo = lo + float64(i)*width
		out[i].Hi = lo + float64(i+1)*width
	}
	out[bins-1].Hi = hi
	for _, v := range values {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		if i < 0 {
			i = 0
		}
		out[i].Count++
	}
	return out
}

// ScottBandwidth returns the Gaussian kernel bandwidth sigma * n^(-1/5) using
// the sample standard deviation. ok is false when it is undefined.
func ScottBandwidth(values []float64) (h float64, ok bool) {
	n := len(values)
	if n < 2 {
		return 0, false
	}
	_, sd := stat.MeanStdDev(values, nil)
	if sd == 0 || math.IsNaN(sd) {
		return 0, false
	}
	return sd * math.Pow(float64(n), -0.2), true
}

// KDE evaluates a Gaussian kernel density estimate at points evenly spaced
// over [min, max] of values, in density units. It returns nil when the
// bandwidth is undefined or points < 2.
func KDE(values []float64, points int) []Point {
	values = finite(values)
	h, ok := ScottBandwidth(values)
	if !ok || points < 2 {
		return nil
	}
	lo, hi := bounds(values)
	step := (hi - lo) / float64(points-1)
	norm := 1 / (float64(len(values)) * h * math.Sqrt(2*math.Pi))
	out := make([]Point, points)
	for i := range out {
		x := lo + float64(i)*step
		var sum float64
		for _, v := range values {
			z := (x - v) / h
			sum += math.Exp(-0.5 * z * z)
		}
		out[i] = Point{X: x, Y: sum * norm}
	}
	return out
}

// finite returns values without NaN and infinities, reusing the slice when
// there is nothing to drop.
func finite(values []float64) []float64 {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			out := append([]float64(nil), values[:i]...)
			for _, w := range values[i+1:] {
				if !math.IsNaN(w) && !math.IsInf(w, 0) {
					out = append(out, w)
				}
			}
			return out
		}
	}
	return values
}

func bounds(values []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}
