package analysis

import (
	"math"
	"sort"

	"github.com/KaramelBytes/salesdash/internal/dataset"
)

// ColumnStats captures completeness and descriptive statistics for one column.
type ColumnStats struct {
	Name    string
	Kind    dataset.Kind
	Present int
	Missing int
	Unique  int
	// Numeric stats over present values; HasMean is false when nothing is present.
	HasMean bool
	Min     float64
	Max     float64
	Mean    float64
	Std     float64
	// Outliers (robust Z via MAD)
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
	// Text top values
	TopValues []CategoryCount
}

type CategoryCount struct {
	Value string
	Count int
}

// DefaultOutlierThreshold is the robust |z| above which a value counts as an outlier.
const DefaultOutlierThreshold = 3.5

// PresentCounts returns the number of non-missing cells per column.
func PresentCounts(t *dataset.Table) map[string]int {
	out := make(map[string]int, t.Width())
	for _, c := range t.Columns() {
		out[c.Name()] = c.Present()
	}
	return out
}

// Mean returns the arithmetic mean of values. ok is false for an empty slice.
func Mean(values []float64) (mean float64, ok bool) {
	if len(values) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}

// Stats computes ColumnStats for every column in table order.
func Stats(t *dataset.Table) []ColumnStats {
	cols := t.Columns()
	out := make([]ColumnStats, 0, len(cols))
	for _, c := range cols {
		out = append(out, columnStats(c))
	}
	return out
}

func columnStats(c *dataset.Column) ColumnStats {
	s := ColumnStats{Name: c.Name(), Kind: c.Kind(), Present: c.Present()}
	s.Missing = c.Len() - s.Present
	if c.Kind() == dataset.KindNumeric {
		vals := c.Floats()
		mean, ok := Mean(vals)
		if !ok {
			return s
		}
		s.HasMean = true
		s.Mean = mean
		s.Min, s.Max = math.Inf(1), math.Inf(-1)
		var m2 float64
		for _, v := range vals {
			s.Min = math.Min(s.Min, v)
			s.Max = math.Max(s.Max, v)
			m2 += (v - mean) * (v - mean)
		}
		if len(vals) > 1 {
			s.Std = math.Sqrt(m2 / float64(len(vals)-1))
		}
		s.Unique = countUnique(vals)
		if len(vals) >= 8 {
			s.OutlierThreshold = DefaultOutlierThreshold
			s.OutliersCount, s.OutliersMaxAbsZ = robustOutliers(vals, s.OutlierThreshold)
		}
		return s
	}

	cats := make(map[string]int)
	for i := 0; i < c.Len(); i++ {
		if c.Missing(i) {
			continue
		}
		cats[c.Text(i)]++
	}
	s.Unique = len(cats)
	tops := make([]CategoryCount, 0, len(cats))
	for k, v := range cats {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > 8 {
		tops = tops[:8]
	}
	s.TopValues = tops
	return s
}

func countUnique(vals []float64) int {
	seen := make(map[float64]struct{}, len(vals))
	for _, v := range vals {
		seen[v] = struct{}{}
	}
	return len(seen)
}

func robustOutliers(vals []float64, threshold float64) (count int, maxAbsZ float64) {
	median, mad := medianMAD(vals)
	if mad == 0 {
		return 0, 0
	}
	for _, v := range vals {
		az := math.Abs(0.6745 * (v - median) / mad)
		if az > threshold {
			count++
		}
		if az > maxAbsZ {
			maxAbsZ = az
		}
	}
	return count, maxAbsZ
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
