package dataset

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// maxLineBytes bounds a single input line.
const maxLineBytes = 16 << 20

// DefaultMissingTokens are the cell values treated as missing after trimming.
var DefaultMissingTokens = []string{"", "NA", "N/A", "NaN", "nan", "null", "NULL"}

// IngestOptions controls line splitting and missing-value detection.
type IngestOptions struct {
	// Delimiter separates fields. Quoting is not supported. Empty means ",".
	Delimiter string
	// MissingTokens are trimmed cell values that denote a missing cell.
	// The empty string is always missing, whether listed or not.
	MissingTokens []string
}

// DefaultIngestOptions returns comma splitting with the default missing tokens.
func DefaultIngestOptions() IngestOptions {
	return IngestOptions{
		Delimiter:     ",",
		MissingTokens: append([]string(nil), DefaultMissingTokens...),
	}
}

// Cell is one raw field: trimmed text, or missing.
type Cell struct {
	Value   string
	Missing bool
}

// RepairAction says how a ragged row was made to fit the header.
type RepairAction string

const (
	RepairPadded    RepairAction = "padded"
	RepairTruncated RepairAction = "truncated"
)

// Repair records a data row whose field count disagreed with the header.
type Repair struct {
	Line   int          `json:"line"`
	Fields int          `json:"fields"`
	Action RepairAction `json:"action"`
}

// RawTable is the row-oriented result of ingestion. Every row has exactly
// len(Header) cells once ingestion has repaired it.
type RawTable struct {
	Header  []string
	Rows    [][]Cell
	Repairs []Repair
	// Blank counts data lines skipped because they were empty.
	Blank int
}

// Ingest reads delimited lines from r. The first line is the header; every
// later non-blank line is a data row. Short rows are padded with missing
// cells and long rows are truncated to the header width; both are recorded
// in Repairs rather than failing the load.
func Ingest(r io.Reader, opt IngestOptions) (*RawTable, error) {
	delim := opt.Delimiter
	if delim == "" {
		delim = ","
	}
	missing := map[string]struct{}{"": {}}
	for _, tok := range opt.MissingTokens {
		missing[strings.TrimSpace(tok)] = struct{}{}
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	raw := &RawTable{}
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if line == 1 {
			text = strings.TrimPrefix(text, "\ufeff")
			if text == "" {
				return nil, &FormatError{Line: 1, Reason: "header line is empty"}
			}
			raw.Header = strings.Split(text, delim)
			continue
		}
		if text == "" {
			raw.Blank++
			continue
		}
		fields := strings.Split(text, delim)
		ncol := len(raw.Header)
		switch {
		case len(fields) < ncol:
			raw.Repairs = append(raw.Repairs, Repair{Line: line, Fields: len(fields), Action: RepairPadded})
		case len(fields) > ncol:
			raw.Repairs = append(raw.Repairs, Repair{Line: line, Fields: len(fields), Action: RepairTruncated})
			fields = fields[:ncol]
		}
		row := make([]Cell, ncol)
		for j := range row {
			if j >= len(fields) {
				row[j] = Cell{Missing: true}
				continue
			}
			v := strings.TrimSpace(fields[j])
			_, isMissing := missing[v]
			row[j] = Cell{Value: v, Missing: isMissing}
		}
		raw.Rows = append(raw.Rows, row)
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, &IOError{Err: errors.New("line exceeds 16 MiB")}
		}
		return nil, &IOError{Err: err}
	}
	if line == 0 {
		return nil, &FormatError{Line: 1, Reason: "input is empty"}
	}
	return raw, nil
}
