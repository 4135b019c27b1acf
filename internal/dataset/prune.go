package dataset

// PruneOptions controls completeness-based column removal.
type PruneOptions struct {
	// Protected columns are kept regardless of completeness.
	Protected []string
	// MinPresentRatio is the share of rows a column must exceed in present
	// cells to survive.
	MinPresentRatio float64
}

// DefaultPruneOptions protects the identifier and date columns and requires
// more than 40% of rows to be present.
func DefaultPruneOptions() PruneOptions {
	return PruneOptions{
		Protected:       []string{"sku", "salesdate"},
		MinPresentRatio: 0.4,
	}
}

// Dropped describes a column removed by Prune.
type Dropped struct {
	Column    string  `json:"column"`
	Present   int     `json:"present"`
	Threshold float64 `json:"threshold"`
}

// Prune keeps a column when its present count is strictly greater than
// Rows*MinPresentRatio or when it is protected. Rows are untouched and kept
// columns retain their relative order.
func Prune(t *Table, opt PruneOptions) (*Table, []Dropped) {
	protected := make(map[string]struct{}, len(opt.Protected))
	for _, p := range opt.Protected {
		protected[p] = struct{}{}
	}
	threshold := float64(t.rows) * opt.MinPresentRatio

	var kept []*Column
	var dropped []Dropped
	for _, c := range t.cols {
		present := c.Present()
		_, isProtected := protected[c.name]
		if float64(present) > threshold || isProtected {
			kept = append(kept, c)
			continue
		}
		dropped = append(dropped, Dropped{Column: c.name, Present: present, Threshold: threshold})
	}
	return mustTable(kept, t.rows), dropped
}
