package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/salesdash/internal/export"
	"github.com/KaramelBytes/salesdash/internal/plot"
	"github.com/KaramelBytes/salesdash/internal/utils"
)

var (
	exportSKU string
	exportAll bool
	exportOut string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write static dashboard pages with PNG charts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := openDataset(cmd)
		if err != nil {
			return err
		}
		settings := cfg.DashboardSettings()
		sels, err := export.Selections(ds.Table, settings, exportSKU, exportAll)
		if err != nil {
			return err
		}
		dir := cfg.ExportDir
		if cmd.Flags().Changed("out") {
			dir = exportOut
		}
		if dir, err = utils.ExpandHome(dir); err != nil {
			return err
		}
		e := &export.Exporter{
			Dir:      dir,
			Plotter:  plot.New(plot.Options{Width: cfg.ChartWidth, Height: cfg.ChartHeight, HeatmapSize: cfg.HeatmapSize}),
			Settings: settings,
			Logger:   logger,
		}
		b, err := e.Export(ds.Table, sels, filepath.Base(cfg.DataFile), ds.Report)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, p := range b.Pages {
			if p.Diagnostic != "" {
				warning(out, "%s: %s", p.Dir, p.Diagnostic)
			}
		}
		success(out, "Exported %d page(s) to %s", len(b.Pages), dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportSKU, "sku", "", "filter value to export (default: the first one)")
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "export every filter value")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output directory (default: export_dir)")
	exportCmd.MarkFlagsMutuallyExclusive("sku", "all")
}
