package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/davecgh/go-spew/spew"
)

var retailRows = []string{
	"sku,salesdate,sales,adspend",
	"A,2021-01-01,100,10",
	"A,2021-01-02,200,20",
	"B,2021-01-01,50,5",
}

func load(t *testing.T, lines ...string) *Dataset {
	t.Helper()
	ds, err := Load(strings.NewReader(strings.Join(lines, "\n")), DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return ds
}

func TestLoadRetailExample(t *testing.T) {
	ds := load(t, retailRows...)
	tb := ds.Table
	if tb.Rows() != 3 {
		t.Fatalf("rows = %d, want 3", tb.Rows())
	}
	if got := tb.Names(); !reflect.DeepEqual(got, []string{"sku", "salesdate", "sales", "adspend"}) {
		t.Fatalf("names = %v", got)
	}
	sales, _ := tb.Column("sales")
	if sales.Kind() != KindNumeric {
		t.Fatalf("sales kind = %s, want numeric", sales.Kind())
	}
	if got := sales.Floats(); !reflect.DeepEqual(got, []float64{100, 200, 50}) {
		t.Fatalf("sales = %v", got)
	}
	sku, _ := tb.Column("sku")
	if sku.Kind() != KindText {
		t.Fatalf("sku kind = %s, want text", sku.Kind())
	}
	if !reflect.DeepEqual(ds.Report.Numeric, []string{"sales", "adspend"}) {
		t.Fatalf("numeric = %v", ds.Report.Numeric)
	}
	if ds.Report.ID == "" {
		t.Fatalf("expected a load id")
	}
}

func TestIngestPadsShortRows(t *testing.T) {
	raw, err := Ingest(strings.NewReader("a,b,c\n1,2\n4,5,6\n"), DefaultIngestOptions())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(raw.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(raw.Rows))
	}
	if !raw.Rows[0][2].Missing {
		t.Fatalf("trailing cell of short row should be missing: %s", spew.Sdump(raw.Rows[0]))
	}
	want := []Repair{{Line: 2, Fields: 2, Action: RepairPadded}}
	if !reflect.DeepEqual(raw.Repairs, want) {
		t.Fatalf("repairs = %s", spew.Sdump(raw.Repairs))
	}
}

func TestIngestTruncatesLongRows(t *testing.T) {
	raw, err := Ingest(strings.NewReader("a,b\n1,2,3,4\n"), DefaultIngestOptions())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(raw.Rows[0]) != 2 || raw.Rows[0][1].Value != "2" {
		t.Fatalf("row = %s", spew.Sdump(raw.Rows[0]))
	}
	if len(raw.Repairs) != 1 || raw.Repairs[0].Action != RepairTruncated || raw.Repairs[0].Fields != 4 {
		t.Fatalf("repairs = %s", spew.Sdump(raw.Repairs))
	}
}

func TestIngestSkipsBlankLinesAndTrimsCells(t *testing.T) {
	raw, err := Ingest(strings.NewReader("a, b \r\n x ,NA\r\n\r\n1, 2\r\n"), DefaultIngestOptions())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if raw.Blank != 1 || len(raw.Rows) != 2 {
		t.Fatalf("blank=%d rows=%d", raw.Blank, len(raw.Rows))
	}
	if raw.Rows[0][0].Value != "x" {
		t.Fatalf("cell not trimmed: %q", raw.Rows[0][0].Value)
	}
	if !raw.Rows[0][1].Missing {
		t.Fatalf("NA should be missing")
	}
}

func TestIngestErrors(t *testing.T) {
	_, err := Ingest(strings.NewReader("   \n1,2\n"), DefaultIngestOptions())
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("empty header: want FormatError, got %v", err)
	}
	_, err = Ingest(strings.NewReader(""), DefaultIngestOptions())
	if !errors.As(err, &fe) {
		t.Fatalf("empty input: want FormatError, got %v", err)
	}
	boom := errors.New("disk gone")
	_, err = Ingest(iotest.ErrReader(boom), DefaultIngestOptions())
	var ioe *IOError
	if !errors.As(err, &ioe) || !errors.Is(err, boom) {
		t.Fatalf("want IOError wrapping read failure, got %v", err)
	}
}

func TestLoadFileMissingIsIOError(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.csv"), DefaultOptions())
	var ioe *IOError
	if !errors.As(err, &ioe) {
		t.Fatalf("want IOError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want ErrNotExist in chain, got %v", err)
	}
}

func TestCleanSchemaTrimsAndRejectsCollisions(t *testing.T) {
	raw, err := Ingest(strings.NewReader(" sku , sales\nA,1\n"), DefaultIngestOptions())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	clean, err := CleanSchema(raw, DuplicateError)
	if err != nil {
		t.Fatalf("CleanSchema: %v", err)
	}
	if !reflect.DeepEqual(clean.Header, []string{"sku", "sales"}) {
		t.Fatalf("header = %q", clean.Header)
	}
	if raw.Header[0] != "sku " {
		t.Fatalf("input header was modified: %q", raw.Header)
	}

	raw, _ = Ingest(strings.NewReader("sales, sales ,x\n1,2,3\n"), DefaultIngestOptions())
	_, err = CleanSchema(raw, DuplicateError)
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("want SchemaError, got %v", err)
	}
	if se.Column != "sales" || !reflect.DeepEqual(se.Positions, []int{0, 1}) {
		t.Fatalf("schema error = %s", spew.Sdump(se))
	}
}

func TestCleanSchemaPolicies(t *testing.T) {
	raw, _ := Ingest(strings.NewReader("a,b,a,a_2\n1,2,3,4\n"), DefaultIngestOptions())

	last, err := CleanSchema(raw, DuplicateKeepLast)
	if err != nil {
		t.Fatalf("keep-last: %v", err)
	}
	if !reflect.DeepEqual(last.Header, []string{"a", "b", "a_2"}) {
		t.Fatalf("keep-last header = %q", last.Header)
	}
	if last.Rows[0][0].Value != "3" {
		t.Fatalf("keep-last should keep the later column's data, got %q", last.Rows[0][0].Value)
	}

	suf, err := CleanSchema(raw, DuplicateSuffix)
	if err != nil {
		t.Fatalf("suffix: %v", err)
	}
	if !reflect.DeepEqual(suf.Header, []string{"a", "b", "a_3", "a_2"}) {
		t.Fatalf("suffix header = %q", suf.Header)
	}
}

func TestNormalizeIsAllOrNothing(t *testing.T) {
	ds := load(t,
		"id,mixed,num,empty",
		"1,10,1.5,",
		"2,x,2,",
		"3,30,,",
		"4,40,1e3,",
		"5,50,-2,",
	)
	mixed, _ := ds.Table.Column("mixed")
	if mixed.Kind() != KindText || mixed.Text(0) != "10" {
		t.Fatalf("mixed column must stay text unchanged, kind=%s", mixed.Kind())
	}
	num, _ := ds.Table.Column("num")
	if num.Kind() != KindNumeric {
		t.Fatalf("num kind = %s", num.Kind())
	}
	if v, _ := num.Float(3); v != 1000 {
		t.Fatalf("num[3] = %v", v)
	}
}

func TestNormalizeKeepsMissingMissing(t *testing.T) {
	raw, _ := Ingest(strings.NewReader("v\n1\n\nNaN\n3\n"), DefaultIngestOptions())
	tb, _ := FromRaw(raw)
	tb = Normalize(tb)
	c, _ := tb.Column("v")
	if c.Kind() != KindNumeric || !c.Missing(1) || c.Present() != 2 {
		t.Fatalf("column = %s", spew.Sdump(c.Floats()))
	}
}

func TestNormalizeLeavesInfinitiesAsText(t *testing.T) {
	ds := load(t,
		"sku,sales,adspend,ratio",
		"A,100,10,1",
		"A,200,inf,-Infinity",
		"A,300,30,+Inf",
	)
	for _, name := range []string{"adspend", "ratio"} {
		c, _ := ds.Table.Column(name)
		if c.Kind() != KindText {
			t.Fatalf("%s kind = %s, want text", name, c.Kind())
		}
	}
	if c, _ := ds.Table.Column("sales"); c.Kind() != KindNumeric {
		t.Fatalf("sales kind = %s", c.Kind())
	}
	if c, _ := ds.Table.Column("adspend"); c.Text(1) != "inf" {
		t.Fatalf("adspend[1] = %q", c.Text(1))
	}
}

func tenRows(col func(i int) string) []string {
	lines := []string{"sku,salesdate,sparse,sales"}
	for i := 0; i < 10; i++ {
		lines = append(lines, strings.Join([]string{"A", col(i), col(i), "1"}, ","))
	}
	return lines
}

func TestPruneDropsSparseColumnsButKeepsProtected(t *testing.T) {
	// one present value in ten: threshold is 10*0.4 = 4
	lines := tenRows(func(i int) string {
		if i == 0 {
			return "7"
		}
		return ""
	})
	raw, _ := Ingest(strings.NewReader(strings.Join(lines, "\n")), DefaultIngestOptions())
	tb, _ := FromRaw(raw)
	pruned, dropped := Prune(Normalize(tb), DefaultPruneOptions())
	if pruned.Has("sparse") {
		t.Fatalf("sparse column should be dropped")
	}
	if !pruned.Has("salesdate") {
		t.Fatalf("protected salesdate (90%% missing) must be kept")
	}
	if len(dropped) != 1 || dropped[0].Threshold != 4 || dropped[0].Present != 1 {
		t.Fatalf("dropped = %s", spew.Sdump(dropped))
	}
	if !reflect.DeepEqual(pruned.Names(), []string{"sku", "salesdate", "sales"}) {
		t.Fatalf("order not preserved: %v", pruned.Names())
	}
	if pruned.Rows() != 10 {
		t.Fatalf("rows = %d", pruned.Rows())
	}
}

func TestPruneBoundaryIsStrict(t *testing.T) {
	// exactly 4 of 10 present is not more than the threshold
	lines := tenRows(func(i int) string {
		if i < 4 {
			return "1"
		}
		return ""
	})
	raw, _ := Ingest(strings.NewReader(strings.Join(lines, "\n")), DefaultIngestOptions())
	tb, _ := FromRaw(raw)
	pruned, _ := Prune(tb, DefaultPruneOptions())
	if pruned.Has("sparse") {
		t.Fatalf("column at the threshold must be dropped")
	}
}

func TestPruneIsIdempotent(t *testing.T) {
	lines := tenRows(func(i int) string {
		if i%3 == 0 {
			return "2"
		}
		return ""
	})
	raw, _ := Ingest(strings.NewReader(strings.Join(lines, "\n")), DefaultIngestOptions())
	tb, _ := FromRaw(raw)
	once, _ := Prune(tb, DefaultPruneOptions())
	twice, dropped := Prune(once, DefaultPruneOptions())
	if len(dropped) != 0 || !reflect.DeepEqual(once.Names(), twice.Names()) {
		t.Fatalf("second prune dropped %s", spew.Sdump(dropped))
	}
}

func TestImputeFillsNumericWithMean(t *testing.T) {
	ds := load(t,
		"sku,sales,note",
		"A,10,",
		"A,,x",
		"B,30,y",
	)
	sales, _ := ds.Table.Column("sales")
	if got := sales.Floats(); !reflect.DeepEqual(got, []float64{10, 20, 30}) {
		t.Fatalf("sales = %v", got)
	}
	note, _ := ds.Table.Column("note")
	if !note.Missing(0) {
		t.Fatalf("text columns keep missing cells")
	}
	if len(ds.Report.Imputed) != 1 || ds.Report.Imputed[0].Mean != 20 || ds.Report.Imputed[0].Filled != 1 {
		t.Fatalf("imputed = %s", spew.Sdump(ds.Report.Imputed))
	}
}

func TestImputeIsIdempotentAndSkipsEmptyColumns(t *testing.T) {
	raw, _ := Ingest(strings.NewReader("sku,a,b\nA,1,\nB,,\nC,4,\n"), DefaultIngestOptions())
	tb, _ := FromRaw(raw)
	tb = Normalize(tb)
	once, filled := Impute(tb)
	if len(filled) != 1 || filled[0].Column != "a" {
		t.Fatalf("filled = %s", spew.Sdump(filled))
	}
	b, _ := once.Column("b")
	if b.Present() != 0 {
		t.Fatalf("all-missing column must stay missing")
	}
	twice, again := Impute(once)
	if len(again) != 0 {
		t.Fatalf("second pass filled %s", spew.Sdump(again))
	}
	a1, _ := once.Column("a")
	a2, _ := twice.Column("a")
	if !reflect.DeepEqual(a1.Floats(), a2.Floats()) {
		t.Fatalf("imputation not idempotent")
	}
	orig, _ := tb.Column("a")
	if !orig.Missing(1) {
		t.Fatalf("input table was modified")
	}
}

func TestColumnsStayParallel(t *testing.T) {
	ds := load(t,
		"sku,salesdate,sales,adspend,extra",
		"A,2021-01-01,100",
		"A,2021-01-02,200,20,1,2,3",
		"B,,50,5",
		"",
		"C,2021-01-03,,7,9",
	)
	for _, c := range ds.Table.Columns() {
		if c.Len() != ds.Table.Rows() {
			t.Fatalf("column %s has %d cells, table has %d rows", c.Name(), c.Len(), ds.Table.Rows())
		}
	}
	if ds.Table.Rows() != 4 || len(ds.Report.Repairs) != 3 || ds.Report.Blank != 1 {
		t.Fatalf("report = %s", spew.Sdump(ds.Report))
	}
}

func TestSelectRowsPreservesOrder(t *testing.T) {
	ds := load(t, retailRows...)
	sub := ds.Table.SelectRows([]int{2, 0})
	sku, _ := sub.Column("sku")
	if sub.Rows() != 2 || sku.Text(0) != "B" || sku.Text(1) != "A" {
		t.Fatalf("unexpected selection")
	}
}

func TestFromSnapshotRejectsShortColumns(t *testing.T) {
	ds := load(t, retailRows...)
	s := ds.Table.Snapshot()
	back, err := FromSnapshot(s)
	if err != nil {
		t.Fatalf("FromSnapshot: %v", err)
	}
	if !reflect.DeepEqual(back.Names(), ds.Table.Names()) || back.Rows() != 3 {
		t.Fatalf("snapshot lost shape")
	}
	s.Columns[2].Present = s.Columns[2].Present[:1]
	if _, err := FromSnapshot(s); err == nil {
		t.Fatalf("expected error for short column")
	}
}
