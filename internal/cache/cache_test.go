package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/KaramelBytes/salesdash/internal/dataset"
)

func writeCSV(t *testing.T, dir string, rows int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("sku,salesdate,sales,adspend\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "S%d,2021-01-%02d,%d,%d\n", i%4, i%28+1, 100+i, 10+i%7)
	}
	path := filepath.Join(dir, "retail.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestKeyForDependsOnSourceAndOptions(t *testing.T) {
	opt := dataset.DefaultOptions()
	a, _ := KeyFor([]byte("a,b\n1,2\n"), opt)
	b, _ := KeyFor([]byte("a,b\n1,3\n"), opt)
	if a == b {
		t.Fatalf("different sources share a key")
	}
	again, _ := KeyFor([]byte("a,b\n1,2\n"), dataset.DefaultOptions())
	if a != again {
		t.Fatalf("key is not stable")
	}
	opt.Prune.MinPresentRatio = 0.5
	c, _ := KeyFor([]byte("a,b\n1,2\n"), opt)
	if a == c {
		t.Fatalf("different options share a key")
	}
}

func TestLoadMemoryHit(t *testing.T) {
	path := writeCSV(t, t.TempDir(), 20)
	s := New(Options{})
	first, err := s.Load(path, dataset.DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	second, err := s.Load(path, dataset.DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if first != second {
		t.Fatalf("second load should come from memory")
	}
	if first.Report.Source != path {
		t.Fatalf("source = %q", first.Report.Source)
	}
}

func TestLoadDiskSnapshotAcrossStores(t *testing.T) {
	for _, tag := range []CompressionTag{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(tag.String(), func(t *testing.T) {
			dir := t.TempDir()
			path := writeCSV(t, dir, 200)
			cacheDir := filepath.Join(dir, "cache")

			first, err := New(Options{Dir: cacheDir, Compression: tag}).Load(path, dataset.DefaultOptions())
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			entries, err := New(Options{Dir: cacheDir}).Entries()
			if err != nil || len(entries) != 1 {
				t.Fatalf("entries = %v err=%v", entries, err)
			}
			if entries[0].Rows != 200 || entries[0].Columns != 4 {
				t.Fatalf("entry = %+v", entries[0])
			}

			second, err := New(Options{Dir: cacheDir, Compression: tag}).Load(path, dataset.DefaultOptions())
			if err != nil {
				t.Fatalf("Load from disk: %v", err)
			}
			if second.Report.ID != first.Report.ID {
				t.Fatalf("expected the snapshot's load id, got a fresh load")
			}
			a, _ := first.Table.Column("sales")
			b, _ := second.Table.Column("sales")
			if fmt.Sprint(a.Floats()) != fmt.Sprint(b.Floats()) || b.Kind() != dataset.KindNumeric {
				t.Fatalf("snapshot table differs")
			}
		})
	}
}

func TestChangedSourceMisses(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, 10)
	s := New(Options{Dir: filepath.Join(dir, "cache")})
	first, _ := s.Load(path, dataset.DefaultOptions())
	writeCSV(t, dir, 12)
	second, err := s.Load(path, dataset.DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if first.Table.Rows() != 10 || second.Table.Rows() != 12 {
		t.Fatalf("rows = %d then %d", first.Table.Rows(), second.Table.Rows())
	}
}

func TestCorruptSnapshotFallsBackToLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, 10)
	cacheDir := filepath.Join(dir, "cache")
	if _, err := New(Options{Dir: cacheDir}).Load(path, dataset.DefaultOptions()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(cacheDir, "*"+fileExt))
	if len(matches) != 1 {
		t.Fatalf("snapshots = %v", matches)
	}
	if err := os.WriteFile(matches[0], []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	ds, err := New(Options{Dir: cacheDir}).Load(path, dataset.DefaultOptions())
	if err != nil || ds.Table.Rows() != 10 {
		t.Fatalf("fallback load failed: %v", err)
	}
}

func TestConcurrentLoads(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, 500)
	s := New(Options{Dir: filepath.Join(dir, "cache"), Compression: CompressionZstd})
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ds, err := s.Load(path, dataset.DefaultOptions())
			if err == nil && ds.Table.Rows() != 500 {
				err = fmt.Errorf("rows = %d", ds.Table.Rows())
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := New(Options{}).Load(filepath.Join(t.TempDir(), "none.csv"), dataset.DefaultOptions())
	var ioe *dataset.IOError
	if !errors.As(err, &ioe) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadErrorsAreNotCached(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dup.csv")
	os.WriteFile(path, []byte("a,a\n1,2\n"), 0o644)
	s := New(Options{Dir: filepath.Join(dir, "cache")})
	_, err := s.Load(path, dataset.DefaultOptions())
	var se *dataset.SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v", err)
	}
	if entries, _ := s.Entries(); len(entries) != 0 {
		t.Fatalf("failed load was cached: %v", entries)
	}
}

func TestClear(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, 10)
	s := New(Options{Dir: filepath.Join(dir, "cache")})
	if _, err := s.Load(path, dataset.DefaultOptions()); err != nil {
		t.Fatal(err)
	}
	n, err := s.Clear()
	if err != nil || n != 1 {
		t.Fatalf("Clear = %d, %v", n, err)
	}
	if entries, _ := s.Entries(); len(entries) != 0 {
		t.Fatalf("entries after clear = %v", entries)
	}
	if n, err := New(Options{Dir: filepath.Join(dir, "missing")}).Clear(); err != nil || n != 0 {
		t.Fatalf("clearing an absent dir = %d, %v", n, err)
	}
}

func TestCompressRoundtripAndIncompressible(t *testing.T) {
	data := []byte(strings.Repeat("sku,sales\n", 200))
	for _, tag := range []CompressionTag{CompressionNone, CompressionLZ4, CompressionZstd} {
		body, used, err := compress(data, tag)
		if err != nil {
			t.Fatalf("%s: %v", tag, err)
		}
		if used != tag {
			t.Fatalf("%s stored as %s", tag, used)
		}
		back, err := decompress(body, used, len(data))
		if err != nil || string(back) != string(data) {
			t.Fatalf("%s roundtrip failed: %v", tag, err)
		}
	}
	tiny := []byte{0x01}
	_, used, err := compress(tiny, CompressionZstd)
	if err != nil || used != CompressionNone {
		t.Fatalf("tiny payload: tag=%s err=%v", used, err)
	}
	if _, err := ParseCompressionTag("brotli"); err == nil {
		t.Fatalf("expected error for unknown tag")
	}
}
