package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/salesdash/internal/dataset"
)

// SummaryOptions controls what Summarize includes.
type SummaryOptions struct {
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// GroupBy computes per-group numeric means for the named text column.
	GroupBy string
	// MaxGroups limits the group section; 0 means 20.
	MaxGroups int
}

// DefaultSummaryOptions groups by the retail identifier column.
func DefaultSummaryOptions() SummaryOptions {
	return SummaryOptions{SampleRows: 5, GroupBy: "sku", MaxGroups: 20}
}

// Report is a markdown-friendly summary of a cleaned dataset.
type Report struct {
	Name     string
	Rows     int
	Cols     []ColumnStats
	Samples  [][]string
	Groups   []GroupResult
	Corr     *CorrMatrix
	Warnings []string
}

// GroupResult captures per-group means of numeric columns.
type GroupResult struct {
	Key   string
	Size  int
	Means map[string]float64
}

// Summarize builds a Report for t. Load repairs, dropped columns and
// imputations from rep become notes.
func Summarize(name string, t *dataset.Table, rep dataset.LoadReport, opt SummaryOptions) *Report {
	r := &Report{Name: name, Rows: t.Rows(), Cols: Stats(t)}
	if len(t.NumericColumns()) >= 2 {
		r.Corr = Correlate(t)
	}

	cols := t.Columns()
	for i := 0; i < t.Rows() && i < opt.SampleRows; i++ {
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = c.Text(i)
		}
		r.Samples = append(r.Samples, row)
	}

	if key, ok := t.Column(opt.GroupBy); ok && opt.GroupBy != "" {
		r.Groups = groupMeans(t, key, opt.MaxGroups)
	}

	if n := len(rep.Repairs); n > 0 {
		padded, truncated := 0, 0
		for _, x := range rep.Repairs {
			if x.Action == dataset.RepairPadded {
				padded++
			} else {
				truncated++
			}
		}
		r.Warnings = append(r.Warnings, fmt.Sprintf("%d ragged rows repaired (%d padded, %d truncated); first at line %d", n, padded, truncated, rep.Repairs[0].Line))
	}
	if rep.Blank > 0 {
		r.Warnings = append(r.Warnings, fmt.Sprintf("%d blank lines skipped", rep.Blank))
	}
	for _, d := range rep.Dropped {
		r.Warnings = append(r.Warnings, fmt.Sprintf("dropped column %s: %d present, needs more than %.4g", d.Column, d.Present, d.Threshold))
	}
	for _, im := range rep.Imputed {
		r.Warnings = append(r.Warnings, fmt.Sprintf("imputed %d missing values in %s with mean %.4g", im.Filled, im.Column, im.Mean))
	}
	return r
}

func groupMeans(t *dataset.Table, key *dataset.Column, limit int) []GroupResult {
	if limit <= 0 {
		limit = 20
	}
	type acc struct {
		size int
		sum  map[string]float64
		cnt  map[string]int
	}
	var order []string
	groups := map[string]*acc{}
	nums := t.NumericColumns()
	for i := 0; i < t.Rows(); i++ {
		if key.Missing(i) {
			continue
		}
		k := key.Text(i)
		g := groups[k]
		if g == nil {
			g = &acc{sum: map[string]float64{}, cnt: map[string]int{}}
			groups[k] = g
			order = append(order, k)
		}
		g.size++
		for _, c := range nums {
			if v, ok := c.Float(i); ok {
				g.sum[c.Name()] += v
				g.cnt[c.Name()]++
			}
		}
	}
	out := make([]GroupResult, 0, len(order))
	for _, k := range order {
		g := groups[k]
		gr := GroupResult{Key: k, Size: g.size, Means: map[string]float64{}}
		for name, n := range g.cnt {
			gr.Means[name] = g.sum[name] / float64(n)
		}
		out = append(out, gr)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Size > out[j].Size })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Markdown renders a compact report suitable for terminals or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.Present + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (present %d, missing %.1f%%)", safeName(c.Name), c.Kind, c.Present, missPct))
		switch {
		case c.Kind == dataset.KindNumeric && c.HasMean:
			b.WriteString(fmt.Sprintf(": min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
			if c.OutlierThreshold > 0 && c.OutliersCount > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f (max |z|≈%.2f)", c.OutliersCount, c.OutlierThreshold, c.OutliersMaxAbsZ))
			}
		case c.Kind == dataset.KindText && len(c.TopValues) > 0:
			b.WriteString(": top ")
			for i, kv := range c.TopValues {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
			}
			if c.Unique > len(c.TopValues) {
				b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
			}
		}
		b.WriteString("\n")
	}

	if len(r.Groups) > 0 {
		b.WriteString("\n[GROUP-BY SUMMARY]\n")
		for _, g := range r.Groups {
			b.WriteString(fmt.Sprintf("- %s (n=%d)\n", safeVal(g.Key), g.Size))
			keys := make([]string, 0, len(g.Means))
			for k := range g.Means {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			if len(keys) > 6 {
				keys = keys[:6]
			}
			for _, k := range keys {
				b.WriteString(fmt.Sprintf("  • %s: mean %.4g\n", k, g.Means[k]))
			}
		}
	}

	if r.Corr != nil {
		if pairs := r.Corr.TopPairs(10); len(pairs) > 0 {
			b.WriteString("\n[CORRELATIONS]\n")
			for _, p := range pairs {
				b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", p.A, p.B, p.R))
			}
		}
	}

	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		b.WriteString("| ")
		for i, c := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n|")
		for range r.Cols {
			b.WriteString(" --- |")
		}
		b.WriteString("\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i, val := range row {
				if i > 0 {
					b.WriteString(" | ")
				}
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// FormatCoefficient renders r with two decimals, or "n/a" when undefined.
func FormatCoefficient(r float64) string {
	if math.IsNaN(r) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", r)
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
