package dataset

import (
	"fmt"
	"strconv"
)

// Kind is the storage type of a column.
type Kind int

const (
	KindText Kind = iota
	KindNumeric
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumeric:
		return "numeric"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Column is an immutable, named sequence of cells. Every cell is either a
// value of the column's kind or missing. Stages never modify a Column in
// place; they build new ones, so Columns may be shared between Tables.
type Column struct {
	name    string
	kind    Kind
	text    []string  // text columns only
	num     []float64 // numeric columns only
	present []bool
}

func newTextColumn(name string, text []string, present []bool) *Column {
	return &Column{name: name, kind: KindText, text: text, present: present}
}

func newNumericColumn(name string, num []float64, present []bool) *Column {
	return &Column{name: name, kind: KindNumeric, num: num, present: present}
}

// NewTextColumn builds a text column. A nil present slice marks every cell present.
func NewTextColumn(name string, values []string, present []bool) *Column {
	text := append([]string(nil), values...)
	return newTextColumn(name, text, presenceFor(len(text), present))
}

// NewNumericColumn builds a numeric column. A nil present slice marks every cell present.
func NewNumericColumn(name string, values []float64, present []bool) *Column {
	num := append([]float64(nil), values...)
	return newNumericColumn(name, num, presenceFor(len(num), present))
}

func presenceFor(n int, present []bool) []bool {
	out := make([]bool, n)
	if present == nil {
		for i := range out {
			out[i] = true
		}
		return out
	}
	copy(out, present)
	return out
}

func (c *Column) Name() string { return c.name }
func (c *Column) Kind() Kind   { return c.kind }
func (c *Column) Len() int     { return len(c.present) }

// Missing reports whether row i holds no value.
func (c *Column) Missing(i int) bool { return !c.present[i] }

// Present returns the number of non-missing cells.
func (c *Column) Present() int {
	n := 0
	for _, p := range c.present {
		if p {
			n++
		}
	}
	return n
}

// Text returns the display form of row i: the raw text for text columns,
// the shortest decimal form for numeric ones, and "" when missing.
func (c *Column) Text(i int) string {
	if !c.present[i] {
		return ""
	}
	if c.kind == KindNumeric {
		return strconv.FormatFloat(c.num[i], 'f', -1, 64)
	}
	return c.text[i]
}

// Float returns the numeric value of row i. ok is false for text columns
// and missing cells.
func (c *Column) Float(i int) (v float64, ok bool) {
	if c.kind != KindNumeric || !c.present[i] {
		return 0, false
	}
	return c.num[i], true
}

// Floats returns the present values of a numeric column in row order.
func (c *Column) Floats() []float64 {
	if c.kind != KindNumeric {
		return nil
	}
	out := make([]float64, 0, len(c.num))
	for i, v := range c.num {
		if c.present[i] {
			out = append(out, v)
		}
	}
	return out
}

func (c *Column) take(idx []int) *Column {
	present := make([]bool, len(idx))
	for j, i := range idx {
		present[j] = c.present[i]
	}
	if c.kind == KindNumeric {
		num := make([]float64, len(idx))
		for j, i := range idx {
			num[j] = c.num[i]
		}
		return newNumericColumn(c.name, num, present)
	}
	text := make([]string, len(idx))
	for j, i := range idx {
		text[j] = c.text[i]
	}
	return newTextColumn(c.name, text, present)
}

// Table is an ordered set of uniquely named, equally long columns. Row
// identity is positional and preserved by every stage except row selection.
type Table struct {
	cols  []*Column
	index map[string]int
	rows  int
}

// NewTable assembles columns into a Table. Names must be unique and every
// column must have the same length.
func NewTable(cols []*Column) (*Table, error) {
	t := &Table{cols: make([]*Column, 0, len(cols)), index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if prev, dup := t.index[c.name]; dup {
			return nil, &SchemaError{Column: c.name, Positions: []int{prev, i}}
		}
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.name, c.Len(), t.rows)
		}
		t.index[c.name] = i
		t.cols = append(t.cols, c)
	}
	return t, nil
}

// mustTable is used by stages that only reorder or subset columns of a
// valid Table, where NewTable cannot fail.
func mustTable(cols []*Column, rows int) *Table {
	t, err := NewTable(cols)
	if err != nil {
		panic("dataset: " + err.Error())
	}
	if len(cols) == 0 {
		t.rows = rows
	}
	return t
}

func (t *Table) Rows() int  { return t.rows }
func (t *Table) Width() int { return len(t.cols) }

// Names returns column names in table order.
func (t *Table) Names() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.name
	}
	return out
}

// Columns returns the columns in table order.
func (t *Table) Columns() []*Column {
	return append([]*Column(nil), t.cols...)
}

// Column looks up a column by exact name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// NumericColumns returns the numeric columns in table order.
func (t *Table) NumericColumns() []*Column {
	var out []*Column
	for _, c := range t.cols {
		if c.kind == KindNumeric {
			out = append(out, c)
		}
	}
	return out
}

// SelectRows returns a new Table holding the given rows, in the given order.
func (t *Table) SelectRows(idx []int) *Table {
	cols := make([]*Column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.take(idx)
	}
	return mustTable(cols, len(idx))
}
