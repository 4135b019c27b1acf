package dashboard

import "github.com/KaramelBytes/salesdash/internal/dataset"

// FilterOptions returns the distinct present values of column in first-seen
// order, compared by display string. ok is false when the column is absent.
func FilterOptions(t *dataset.Table, column string) (options []string, ok bool) {
	c, ok := t.Column(column)
	if !ok {
		return nil, false
	}
	seen := make(map[string]struct{})
	for i := 0; i < c.Len(); i++ {
		if c.Missing(i) {
			continue
		}
		v := c.Text(i)
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		options = append(options, v)
	}
	return options, true
}

// Select returns the rows of t whose column cell displays as value, in their
// original order. Missing cells never match. An absent column selects nothing.
func Select(t *dataset.Table, column, value string) *dataset.Table {
	var idx []int
	if c, ok := t.Column(column); ok {
		for i := 0; i < c.Len(); i++ {
			if !c.Missing(i) && c.Text(i) == value {
				idx = append(idx, i)
			}
		}
	}
	return t.SelectRows(idx)
}

// IsOption reports whether v is one of options.
func IsOption(options []string, v string) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}
