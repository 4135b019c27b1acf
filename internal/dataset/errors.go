package dataset

import (
	"fmt"
	"strings"
)

// IOError indicates the dataset source could not be opened or read.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e == nil {
		return "dataset unreadable"
	}
	if e.Path != "" {
		return fmt.Sprintf("read dataset %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("read dataset: %v", e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// FormatError indicates the header line is empty or missing.
type FormatError struct {
	Line   int
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed header at line %d: %s", e.Line, e.Reason)
}

// SchemaError indicates that two or more columns share a name after trimming.
type SchemaError struct {
	Column string
	// Positions are the zero-based header positions carrying the name.
	Positions []int
}

func (e *SchemaError) Error() string {
	pos := make([]string, len(e.Positions))
	for i, p := range e.Positions {
		pos[i] = fmt.Sprint(p + 1)
	}
	return fmt.Sprintf("duplicate column name %q at header positions %s", e.Column, strings.Join(pos, ", "))
}
