package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/salesdash/internal/cache"
	"github.com/KaramelBytes/salesdash/internal/dashboard"
	"github.com/KaramelBytes/salesdash/internal/dataset"
	"github.com/KaramelBytes/salesdash/internal/logging"
	"github.com/KaramelBytes/salesdash/internal/plot"
	"github.com/KaramelBytes/salesdash/internal/utils"
)

// Global configuration structure.
type Global struct {
	DataFile         string   `mapstructure:"data_file" yaml:"data_file" json:"data_file"`
	Delimiter        string   `mapstructure:"delimiter" yaml:"delimiter" json:"delimiter"`
	MissingTokens    []string `mapstructure:"missing_tokens" yaml:"missing_tokens" json:"missing_tokens"`
	DuplicateColumns string   `mapstructure:"duplicate_columns" yaml:"duplicate_columns" json:"duplicate_columns"`

	// Column roles
	IdentifierColumn string   `mapstructure:"identifier_column" yaml:"identifier_column" json:"identifier_column"`
	DateColumn       string   `mapstructure:"date_column" yaml:"date_column" json:"date_column"`
	OutcomeColumn    string   `mapstructure:"outcome_column" yaml:"outcome_column" json:"outcome_column"`
	DriverColumn     string   `mapstructure:"driver_column" yaml:"driver_column" json:"driver_column"`
	OutcomeLabel     string   `mapstructure:"outcome_label" yaml:"outcome_label" json:"outcome_label"`
	DriverLabel      string   `mapstructure:"driver_label" yaml:"driver_label" json:"driver_label"`
	ProtectedColumns []string `mapstructure:"protected_columns" yaml:"protected_columns" json:"protected_columns"`
	MinPresentRatio  float64  `mapstructure:"min_present_ratio" yaml:"min_present_ratio" json:"min_present_ratio"`

	// Charts
	HistogramBins     int    `mapstructure:"histogram_bins" yaml:"histogram_bins" json:"histogram_bins"`
	HeatmapColorScale string `mapstructure:"heatmap_color_scale" yaml:"heatmap_color_scale" json:"heatmap_color_scale"`
	ChartWidth        int    `mapstructure:"chart_width" yaml:"chart_width" json:"chart_width"`
	ChartHeight       int    `mapstructure:"chart_height" yaml:"chart_height" json:"chart_height"`
	HeatmapSize       int    `mapstructure:"heatmap_size" yaml:"heatmap_size" json:"heatmap_size"`

	// Load cache
	CacheEnabled     bool   `mapstructure:"cache_enabled" yaml:"cache_enabled" json:"cache_enabled"`
	CacheDir         string `mapstructure:"cache_dir" yaml:"cache_dir" json:"cache_dir"`
	CacheCompression string `mapstructure:"cache_compression" yaml:"cache_compression" json:"cache_compression"`

	ExportDir string `mapstructure:"export_dir" yaml:"export_dir" json:"export_dir"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" json:"log_format"`
	LogFile   string `mapstructure:"log_file" yaml:"log_file" json:"log_file"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_file", "BSS Retail Data.csv")
	v.SetDefault("delimiter", ",")
	v.SetDefault("missing_tokens", dataset.DefaultMissingTokens)
	v.SetDefault("duplicate_columns", string(dataset.DuplicateError))
	v.SetDefault("identifier_column", "sku")
	v.SetDefault("date_column", "salesdate")
	v.SetDefault("outcome_column", "sales")
	v.SetDefault("driver_column", "adspend")
	v.SetDefault("outcome_label", "Sales")
	v.SetDefault("driver_label", "Ad Spend")
	v.SetDefault("protected_columns", []string{})
	v.SetDefault("min_present_ratio", 0.4)
	v.SetDefault("histogram_bins", 30)
	v.SetDefault("heatmap_color_scale", "coolwarm")
	v.SetDefault("chart_width", 800)
	v.SetDefault("chart_height", 600)
	v.SetDefault("heatmap_size", 800)
	v.SetDefault("cache_enabled", true)
	v.SetDefault("cache_dir", "")
	v.SetDefault("cache_compression", "zstd")
	v.SetDefault("export_dir", "salesdash-export")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_file", "")
}

// Dir returns ~/.salesdash.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".salesdash"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.salesdash/config.yaml, creating the directory if necessary.
// Paths ending in .json or .jsonc are written as JSON, everything else as YAML.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := utils.EnsureDir(dir); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	var (
		b   []byte
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		b, err = utils.PrettyJSON(c)
	default:
		b, err = yaml.Marshal(c)
		if err != nil {
			err = fmt.Errorf("marshal yaml: %w", err)
		}
	}
	if err != nil {
		return err
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A .jsonc file may carry comments
// and trailing commas.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("SALESDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	switch {
	case cfgFile != "" && strings.EqualFold(filepath.Ext(cfgFile), ".jsonc"):
		raw, err := os.ReadFile(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		v.SetConfigType("json")
		if err := v.ReadConfig(bytes.NewReader(jsonc.ToJSON(raw))); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", filepath.Base(cfgFile), err)
		}
	case cfgFile != "":
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	default:
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.CacheDir == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		c.CacheDir = filepath.Join(dir, "cache")
	}
	return &c, nil
}

// Validate checks values that Load cannot type-check.
func (c *Global) Validate() error {
	if c.Delimiter == "" {
		return fmt.Errorf("delimiter must not be empty")
	}
	if _, err := dataset.ParseDuplicatePolicy(c.DuplicateColumns); err != nil {
		return err
	}
	if c.MinPresentRatio < 0 || c.MinPresentRatio >= 1 {
		return fmt.Errorf("min_present_ratio must be in [0, 1): %v", c.MinPresentRatio)
	}
	if c.HistogramBins < 1 {
		return fmt.Errorf("histogram_bins must be positive: %d", c.HistogramBins)
	}
	if c.ChartWidth < 100 || c.ChartHeight < 100 || c.HeatmapSize < 100 {
		return fmt.Errorf("chart sizes must be at least 100 pixels")
	}
	if _, err := plot.LookupScale(c.HeatmapColorScale); err != nil {
		return err
	}
	if _, err := cache.ParseCompressionTag(c.CacheCompression); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "auto", "text", "json":
	default:
		return fmt.Errorf("invalid log_format: %s (use auto, text or json)", c.LogFormat)
	}
	return nil
}

// DatasetOptions maps the load settings onto dataset.Options.
func (c *Global) DatasetOptions() (dataset.Options, error) {
	policy, err := dataset.ParseDuplicatePolicy(c.DuplicateColumns)
	if err != nil {
		return dataset.Options{}, err
	}
	opt := dataset.DefaultOptions()
	opt.Ingest.Delimiter = c.Delimiter
	opt.Ingest.MissingTokens = append([]string(nil), c.MissingTokens...)
	opt.Duplicates = policy
	opt.Prune.Protected = c.Protected()
	opt.Prune.MinPresentRatio = c.MinPresentRatio
	return opt, nil
}

// Protected returns the columns exempt from pruning: the identifier and date
// columns, then any extra protected_columns.
func (c *Global) Protected() []string {
	var out []string
	seen := map[string]bool{}
	for _, name := range append([]string{c.IdentifierColumn, c.DateColumn}, c.ProtectedColumns...) {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// DashboardSettings maps column roles and chart settings onto the page.
func (c *Global) DashboardSettings() dashboard.Settings {
	s := dashboard.DefaultSettings()
	s.Roles = dashboard.Roles{
		Identifier: c.IdentifierColumn,
		Date:       c.DateColumn,
		Outcome:    c.OutcomeColumn,
		Driver:     c.DriverColumn,
	}
	s.Labels = dashboard.Labels{Outcome: c.OutcomeLabel, Driver: c.DriverLabel}
	s.Bins = c.HistogramBins
	s.ColorScale = c.HeatmapColorScale
	return s
}

// Set assigns one key from its string form. Lists are comma separated.
func (c *Global) Set(key, val string) error {
	switch key {
	case "data_file":
		c.DataFile = val
	case "delimiter":
		c.Delimiter = val
	case "missing_tokens":
		c.MissingTokens = splitList(val)
	case "duplicate_columns":
		p, err := dataset.ParseDuplicatePolicy(val)
		if err != nil {
			return err
		}
		c.DuplicateColumns = string(p)
	case "identifier_column":
		c.IdentifierColumn = val
	case "date_column":
		c.DateColumn = val
	case "outcome_column":
		c.OutcomeColumn = val
	case "driver_column":
		c.DriverColumn = val
	case "outcome_label":
		c.OutcomeLabel = val
	case "driver_label":
		c.DriverLabel = val
	case "protected_columns":
		c.ProtectedColumns = splitList(val)
	case "min_present_ratio":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid float for min_present_ratio: %w", err)
		}
		c.MinPresentRatio = f
	case "histogram_bins", "chart_width", "chart_height", "heatmap_size":
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for %s: %w", key, err)
		}
		switch key {
		case "histogram_bins":
			c.HistogramBins = i
		case "chart_width":
			c.ChartWidth = i
		case "chart_height":
			c.ChartHeight = i
		default:
			c.HeatmapSize = i
		}
	case "heatmap_color_scale":
		c.HeatmapColorScale = val
	case "cache_enabled":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for cache_enabled: %w", err)
		}
		c.CacheEnabled = b
	case "cache_dir":
		c.CacheDir = val
	case "cache_compression":
		c.CacheCompression = val
	case "export_dir":
		c.ExportDir = val
	case "log_level":
		c.LogLevel = val
	case "log_format":
		c.LogFormat = val
	case "log_file":
		c.LogFile = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return c.Validate()
}

func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}
