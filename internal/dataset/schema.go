package dataset

import (
	"fmt"
	"strings"
)

// DuplicatePolicy decides what happens when trimmed column names collide.
type DuplicatePolicy string

const (
	// DuplicateError rejects the load with a SchemaError.
	DuplicateError DuplicatePolicy = "error"
	// DuplicateKeepLast keeps the first position but the last column's data.
	DuplicateKeepLast DuplicatePolicy = "keep-last"
	// DuplicateSuffix renames later duplicates to name_2, name_3, ...
	DuplicateSuffix DuplicatePolicy = "suffix"
)

// ParseDuplicatePolicy validates a policy name. Empty means DuplicateError.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", DuplicateError:
		return DuplicateError, nil
	case DuplicateKeepLast:
		return DuplicateKeepLast, nil
	case DuplicateSuffix:
		return DuplicateSuffix, nil
	default:
		return "", fmt.Errorf("invalid duplicate column policy %q (use error|keep-last|suffix)", s)
	}
}

// CleanSchema trims every column name and resolves collisions according to
// policy. The input is not modified.
func CleanSchema(raw *RawTable, policy DuplicatePolicy) (*RawTable, error) {
	names := make([]string, len(raw.Header))
	positions := map[string][]int{}
	var order []string
	for i, h := range raw.Header {
		n := strings.TrimSpace(h)
		names[i] = n
		if _, seen := positions[n]; !seen {
			order = append(order, n)
		}
		positions[n] = append(positions[n], i)
	}

	// source[i] is the raw column feeding output column i
	var source []int
	switch policy {
	case DuplicateKeepLast:
		for _, n := range order {
			pos := positions[n]
			source = append(source, pos[len(pos)-1])
		}
		out := make([]string, len(order))
		copy(out, order)
		names = out
	case DuplicateSuffix:
		used := make(map[string]struct{}, len(names))
		for _, n := range names {
			used[n] = struct{}{}
		}
		seen := map[string]int{}
		for i, n := range names {
			seen[n]++
			if seen[n] > 1 {
				k := seen[n]
				cand := fmt.Sprintf("%s_%d", n, k)
				for {
					if _, taken := used[cand]; !taken {
						break
					}
					k++
					cand = fmt.Sprintf("%s_%d", n, k)
				}
				used[cand] = struct{}{}
				names[i] = cand
			}
			source = append(source, i)
		}
	default:
		for _, n := range order {
			if pos := positions[n]; len(pos) > 1 {
				return nil, &SchemaError{Column: n, Positions: pos}
			}
		}
		for i := range names {
			source = append(source, i)
		}
	}

	out := &RawTable{
		Header:  names,
		Rows:    make([][]Cell, len(raw.Rows)),
		Repairs: append([]Repair(nil), raw.Repairs...),
		Blank:   raw.Blank,
	}
	for r, row := range raw.Rows {
		nr := make([]Cell, len(source))
		for j, s := range source {
			nr[j] = row[s]
		}
		out.Rows[r] = nr
	}
	return out, nil
}

// FromRaw builds a column-oriented Table of text cells from a cleaned RawTable.
func FromRaw(raw *RawTable) (*Table, error) {
	cols := make([]*Column, len(raw.Header))
	for j, name := range raw.Header {
		text := make([]string, len(raw.Rows))
		present := make([]bool, len(raw.Rows))
		for i, row := range raw.Rows {
			if !row[j].Missing {
				text[i] = row[j].Value
				present[i] = true
			}
		}
		cols[j] = newTextColumn(name, text, present)
	}
	t, err := NewTable(cols)
	if err != nil {
		return nil, err
	}
	t.rows = len(raw.Rows)
	return t, nil
}
