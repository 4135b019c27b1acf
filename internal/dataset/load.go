package dataset

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Options bundles the settings of every load stage.
type Options struct {
	Ingest     IngestOptions   `cbor:"ingest"`
	Duplicates DuplicatePolicy `cbor:"duplicates"`
	Prune      PruneOptions    `cbor:"prune"`
}

// DefaultOptions returns the settings of the original retail dashboard.
func DefaultOptions() Options {
	return Options{
		Ingest:     DefaultIngestOptions(),
		Duplicates: DuplicateError,
		Prune:      DefaultPruneOptions(),
	}
}

// LoadReport summarizes what the load stages did to the source.
type LoadReport struct {
	ID      string       `json:"id"`
	Source  string       `json:"source"`
	Rows    int          `json:"rows"`
	Header  []string     `json:"header"`
	Repairs []Repair     `json:"repairs,omitempty"`
	Blank   int          `json:"blank_lines,omitempty"`
	Dropped []Dropped    `json:"dropped,omitempty"`
	Imputed []Imputation `json:"imputed,omitempty"`
	Numeric []string     `json:"numeric"`
	Text    []string     `json:"text"`
}

// Dataset is a cleaned Table plus the report of how it was produced. It is
// built once per source and shared read-only by every rerun.
type Dataset struct {
	Table  *Table
	Report LoadReport
}

// Load runs ingestion, schema cleanup, type normalization, pruning and
// imputation over r.
func Load(r io.Reader, opt Options) (*Dataset, error) {
	raw, err := Ingest(r, opt.Ingest)
	if err != nil {
		return nil, err
	}
	raw, err = CleanSchema(raw, opt.Duplicates)
	if err != nil {
		return nil, err
	}
	t, err := FromRaw(raw)
	if err != nil {
		return nil, err
	}
	t = Normalize(t)
	t, dropped := Prune(t, opt.Prune)
	t, imputed := Impute(t)

	rep := LoadReport{
		ID:      uuid.NewString(),
		Rows:    t.Rows(),
		Header:  raw.Header,
		Repairs: raw.Repairs,
		Blank:   raw.Blank,
		Dropped: dropped,
		Imputed: imputed,
	}
	for _, c := range t.cols {
		if c.kind == KindNumeric {
			rep.Numeric = append(rep.Numeric, c.name)
		} else {
			rep.Text = append(rep.Text, c.name)
		}
	}
	return &Dataset{Table: t, Report: rep}, nil
}

// LoadFile opens path and loads it. Open and read failures are IOErrors.
func LoadFile(path string, opt Options) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	defer f.Close()
	ds, err := Load(f, opt)
	if err != nil {
		if ioErr, ok := err.(*IOError); ok && ioErr.Path == "" {
			ioErr.Path = path
		}
		return nil, fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}
	ds.Report.Source = path
	return ds, nil
}
