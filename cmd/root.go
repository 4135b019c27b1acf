package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/salesdash/internal/cache"
	cfgpkg "github.com/KaramelBytes/salesdash/internal/config"
	"github.com/KaramelBytes/salesdash/internal/dataset"
	"github.com/KaramelBytes/salesdash/internal/logging"
	"github.com/KaramelBytes/salesdash/internal/utils"
)

var (
	// Global flags
	cfgFile     string
	flagData    string
	debug       bool
	flagLevel   string
	flagLogFile string
	noCache     bool

	// Loaded configuration
	cfg *cfgpkg.Global

	logger    = logging.Discard()
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "salesdash",
	Short: "Salesdash: an interactive retail sales dashboard",
	Long: `Salesdash loads a retail sales CSV, cleans it (ragged rows, numeric coercion,
sparse-column pruning, mean imputation) and shows a per-SKU dashboard with a
sales distribution, an ad spend scatter and a correlation heatmap.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
			logCloser = nil
		}
	},
}

var (
	okMark   = color.New(color.FgGreen).SprintFunc()
	warnMark = color.New(color.FgYellow).SprintFunc()
	errMark  = color.New(color.FgRed).SprintFunc()
)

func success(w io.Writer, format string, a ...any) {
	fmt.Fprintf(w, "%s %s\n", okMark("✓"), fmt.Sprintf(format, a...))
}

func warning(w io.Writer, format string, a ...any) {
	fmt.Fprintf(w, "%s %s\n", warnMark("⚠ Warning:"), fmt.Sprintf(format, a...))
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errMark("✗ Error:"), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentPreRunE = setup

	f := rootCmd.PersistentFlags()
	f.StringVar(&cfgFile, "config", "", "config file (default is ~/.salesdash/config.yaml)")
	f.StringVar(&flagData, "data", "", "sales CSV to load (overrides data_file)")
	f.BoolVar(&debug, "debug", false, "debug logging and a dump of the load report")
	f.StringVar(&flagLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	f.StringVar(&flagLogFile, "log-file", "", "append logs to this file instead of stderr")
	f.BoolVar(&noCache, "no-cache", false, "bypass the load cache")
}

// setup loads configuration, applies flag overrides and builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return err
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("data") {
		cfg.DataFile = flagData
	}
	if f.Changed("log-level") {
		cfg.LogLevel = flagLevel
	}
	if debug {
		cfg.LogLevel = "debug"
	}
	if f.Changed("log-file") {
		cfg.LogFile = flagLogFile
	}
	if noCache {
		cfg.CacheEnabled = false
	}
	return openLogger(cmd.ErrOrStderr())
}

func openLogger(stderr io.Writer) error {
	out := stderr
	if cfg.LogFile != "" {
		path, err := utils.ExpandHome(cfg.LogFile)
		if err != nil {
			return err
		}
		file, err := logging.OpenFile(path)
		if err != nil {
			return err
		}
		out, logCloser = file, file
	}
	l, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: out})
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// openDataset validates the configuration and loads the data file, through
// the cache unless it is disabled.
func openDataset(cmd *cobra.Command) (*dataset.Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	opt, err := cfg.DatasetOptions()
	if err != nil {
		return nil, err
	}
	path, err := utils.ExpandHome(cfg.DataFile)
	if err != nil {
		return nil, err
	}

	var ds *dataset.Dataset
	if cfg.CacheEnabled {
		ds, err = newStore().Load(path, opt)
	} else {
		ds, err = dataset.LoadFile(path, opt)
	}
	if err != nil {
		logger.Error("load failed", "path", path, "err", err)
		return nil, err
	}
	rep := ds.Report
	logger.Debug("dataset loaded",
		"source", filepath.Base(path),
		"rows", rep.Rows,
		"repairs", len(rep.Repairs),
		"dropped", len(rep.Dropped),
		"imputed", len(rep.Imputed),
		"load_id", rep.ID,
	)
	if debug {
		spew.Fdump(cmd.ErrOrStderr(), rep)
	}
	return ds, nil
}

func newStore() *cache.Store {
	tag, err := cache.ParseCompressionTag(cfg.CacheCompression)
	if err != nil {
		tag = cache.CompressionNone
	}
	dir, err := utils.ExpandHome(cfg.CacheDir)
	if err != nil {
		dir = ""
	}
	return cache.New(cache.Options{Dir: dir, Compression: tag, Logger: logger})
}
