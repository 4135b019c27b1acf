package dataset

import (
	"math"
	"strconv"
)

// Coercion is the outcome of validating a column for numeric conversion.
type Coercion int

const (
	// NotNumeric means at least one present cell failed to parse.
	NotNumeric Coercion = iota
	// AllNumeric means every present cell parsed as a number.
	AllNumeric
)

// Classify decides up front whether every present cell of c is a number.
// A column without present cells is vacuously numeric.
func Classify(c *Column) Coercion {
	if c.kind == KindNumeric {
		return AllNumeric
	}
	for i, s := range c.text {
		if !c.present[i] {
			continue
		}
		if _, ok := parseNumber(s); !ok {
			return NotNumeric
		}
	}
	return AllNumeric
}

// parseNumber accepts integer and floating point forms. "NaN" parses; the
// caller stores it as a missing cell. Infinities are not numbers here.
func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Normalize converts every AllNumeric text column into a numeric column and
// leaves the rest untouched. No rows are dropped and no column ends up with a
// mix of numbers and text.
func Normalize(t *Table) *Table {
	cols := make([]*Column, len(t.cols))
	for j, c := range t.cols {
		if c.kind == KindNumeric || Classify(c) == NotNumeric {
			cols[j] = c
			continue
		}
		num := make([]float64, len(c.text))
		present := make([]bool, len(c.text))
		for i, s := range c.text {
			if !c.present[i] {
				continue
			}
			v, _ := parseNumber(s)
			if math.IsNaN(v) {
				continue
			}
			num[i] = v
			present[i] = true
		}
		cols[j] = newNumericColumn(c.name, num, present)
	}
	return mustTable(cols, t.rows)
}
