package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/KaramelBytes/salesdash/internal/dataset"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestLoadDefaults(t *testing.T) {
	home := isolate(t)
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.DataFile != "BSS Retail Data.csv" || c.MinPresentRatio != 0.4 || c.HistogramBins != 30 {
		t.Fatalf("defaults = %+v", c)
	}
	if len(c.ProtectedColumns) != 0 || !reflect.DeepEqual(c.Protected(), []string{"sku", "salesdate"}) {
		t.Fatalf("protected = %v extra = %v", c.Protected(), c.ProtectedColumns)
	}
	if c.CacheDir != filepath.Join(home, ".salesdash", "cache") {
		t.Fatalf("cache dir = %s", c.CacheDir)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".salesdash")
	os.MkdirAll(dir, 0o755)
	os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("histogram_bins: 20\noutcome_column: revenue\n"), 0o644)
	t.Setenv("SALESDASH_HISTOGRAM_BINS", "12")
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.HistogramBins != 12 {
		t.Fatalf("bins = %d, want env value 12", c.HistogramBins)
	}
	if c.OutcomeColumn != "revenue" {
		t.Fatalf("outcome = %s, want file value", c.OutcomeColumn)
	}
}

func TestLoadJSONC(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "dash.jsonc")
	os.WriteFile(path, []byte(`{
  // retail export from the warehouse
  "delimiter": ";",
  "protected_columns": ["store", "day"], /* keep both */
  "cache_compression": "lz4",
}`), 0o644)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Delimiter != ";" || c.CacheCompression != "lz4" || !reflect.DeepEqual(c.ProtectedColumns, []string{"store", "day"}) {
		t.Fatalf("config = %+v", c)
	}
}

func TestProtectedFollowsColumnRoles(t *testing.T) {
	isolate(t)
	c, _ := Load("")
	if err := c.Set("identifier_column", "store"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set("protected_columns", "notes,store"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	opt, err := c.DatasetOptions()
	if err != nil {
		t.Fatalf("DatasetOptions: %v", err)
	}
	if want := []string{"store", "salesdate", "notes"}; !reflect.DeepEqual(opt.Prune.Protected, want) {
		t.Fatalf("protected = %v, want %v", opt.Prune.Protected, want)
	}

	// a sparse identifier column survives pruning under its configured name
	src := "store,salesdate,sales\nS1,2021-01-01,1\n,2021-01-02,2\n,2021-01-03,3\n"
	ds, err := dataset.Load(strings.NewReader(src), opt)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := ds.Table.Column("store"); !ok {
		t.Fatalf("store pruned: %v", ds.Table.Names())
	}
}

func TestSaveAndReload(t *testing.T) {
	isolate(t)
	c, _ := Load("")
	if err := c.Set("min_present_ratio", "0.25"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set("missing_tokens", "NA, -"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	for _, name := range []string{"", "explicit.yaml", "explicit.json"} {
		path := name
		if name != "" {
			path = filepath.Join(t.TempDir(), name)
		}
		if err := Save(c, path); err != nil {
			t.Fatalf("Save(%q): %v", name, err)
		}
		back, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%q): %v", name, err)
		}
		if back.MinPresentRatio != 0.25 || !reflect.DeepEqual(back.MissingTokens, []string{"NA", "-"}) {
			t.Fatalf("%q reloaded = %+v", name, back)
		}
	}
}

func TestSetValidates(t *testing.T) {
	isolate(t)
	c, _ := Load("")
	bad := map[string]string{
		"min_present_ratio":   "1.5",
		"histogram_bins":      "0",
		"duplicate_columns":   "merge",
		"cache_compression":   "brotli",
		"log_format":          "xml",
		"log_level":           "loud",
		"heatmap_color_scale": "jet",
		"cache_enabled":       "maybe",
		"no_such_key":         "x",
	}
	for k, v := range bad {
		cc := *c
		if err := cc.Set(k, v); err == nil {
			t.Errorf("Set(%s, %s) should fail", k, v)
		}
	}
}

func TestDatasetOptionsAndSettings(t *testing.T) {
	isolate(t)
	c, _ := Load("")
	c.Set("duplicate_columns", "suffix")
	c.Set("identifier_column", "store")
	opt, err := c.DatasetOptions()
	if err != nil {
		t.Fatalf("DatasetOptions: %v", err)
	}
	if opt.Duplicates != dataset.DuplicateSuffix || opt.Prune.MinPresentRatio != 0.4 || opt.Ingest.Delimiter != "," {
		t.Fatalf("options = %+v", opt)
	}
	s := c.DashboardSettings()
	if s.Roles.Identifier != "store" || s.Bins != 30 || s.SelectLabel() != "Select STORE:" {
		t.Fatalf("settings = %+v", s)
	}
}
