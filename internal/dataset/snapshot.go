package dataset

import "fmt"

// Snapshot is the serializable form of a Table.
type Snapshot struct {
	Rows    int              `cbor:"rows"`
	Columns []ColumnSnapshot `cbor:"columns"`
}

// ColumnSnapshot is the serializable form of a Column.
type ColumnSnapshot struct {
	Name    string    `cbor:"name"`
	Kind    Kind      `cbor:"kind"`
	Text    []string  `cbor:"text,omitempty"`
	Num     []float64 `cbor:"num,omitempty"`
	Present []bool    `cbor:"present"`
}

// Snapshot copies t into its serializable form.
func (t *Table) Snapshot() Snapshot {
	s := Snapshot{Rows: t.rows, Columns: make([]ColumnSnapshot, len(t.cols))}
	for i, c := range t.cols {
		s.Columns[i] = ColumnSnapshot{
			Name:    c.name,
			Kind:    c.kind,
			Text:    append([]string(nil), c.text...),
			Num:     append([]float64(nil), c.num...),
			Present: append([]bool(nil), c.present...),
		}
	}
	return s
}

// FromSnapshot rebuilds a Table, validating that every column is complete.
func FromSnapshot(s Snapshot) (*Table, error) {
	cols := make([]*Column, len(s.Columns))
	for i, cs := range s.Columns {
		if len(cs.Present) != s.Rows {
			return nil, fmt.Errorf("snapshot column %q: %d cells, want %d", cs.Name, len(cs.Present), s.Rows)
		}
		switch cs.Kind {
		case KindNumeric:
			if len(cs.Num) != s.Rows {
				return nil, fmt.Errorf("snapshot column %q: %d numbers, want %d", cs.Name, len(cs.Num), s.Rows)
			}
			cols[i] = NewNumericColumn(cs.Name, cs.Num, cs.Present)
		case KindText:
			text := cs.Text
			if len(text) == 0 && s.Rows > 0 {
				text = make([]string, s.Rows)
			}
			if len(text) != s.Rows {
				return nil, fmt.Errorf("snapshot column %q: %d strings, want %d", cs.Name, len(text), s.Rows)
			}
			cols[i] = NewTextColumn(cs.Name, text, cs.Present)
		default:
			return nil, fmt.Errorf("snapshot column %q: unknown kind %d", cs.Name, int(cs.Kind))
		}
	}
	t, err := NewTable(cols)
	if err != nil {
		return nil, err
	}
	t.rows = s.Rows
	return t, nil
}
